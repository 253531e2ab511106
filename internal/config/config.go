package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pixieDoug/resend-mcp-http-server/internal/emailaddr"
)

const DefaultPort = "3000"

type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Resend struct {
		APIKey  string        `yaml:"api_key"`
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"resend"`
	Email struct {
		Sender                  string   `yaml:"sender"`
		ReplyTo                 []string `yaml:"reply_to"`
		AllowedRecipientDomains []string `yaml:"allowed_recipient_domains"`
	} `yaml:"email"`
	MCP struct {
		ProtocolVersion string   `yaml:"protocol_version"`
		ServerName      string   `yaml:"server_name"`
		ServerVersion   string   `yaml:"server_version"`
		AllowOrigins    []string `yaml:"allow_origins"`
	} `yaml:"mcp"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func Default() Config {
	var cfg Config
	cfg.HTTP.Addr = ":" + DefaultPort
	cfg.Resend.BaseURL = "https://api.resend.com"
	cfg.Resend.Timeout = 30 * time.Second
	cfg.MCP.ProtocolVersion = "2024-11-05"
	cfg.MCP.ServerName = "resend-mcp-http-server"
	cfg.MCP.ServerVersion = "1.0.0"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment without overriding variables that are already set. When
// required is false a missing file is ignored.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports configuration the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Resend.APIKey) == "" {
		return errors.New("missing resend.api_key (or RESEND_API_KEY)")
	}
	if c.Email.Sender != "" {
		if _, err := emailaddr.Parse(c.Email.Sender); err != nil {
			return fmt.Errorf("email.sender: %w", err)
		}
	}
	if _, err := emailaddr.ParseList(c.Email.ReplyTo); err != nil {
		return fmt.Errorf("email.reply_to: %w", err)
	}
	for _, domain := range c.Email.AllowedRecipientDomains {
		if _, err := emailaddr.CanonicalizeDomain(domain); err != nil {
			return fmt.Errorf("email.allowed_recipient_domains: %w", err)
		}
	}
	if c.Resend.Timeout < 0 {
		return errors.New("resend.timeout must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Addr = ":" + strings.TrimSpace(v)
	}
	if v := os.Getenv("RESEND_MCP_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		cfg.Resend.APIKey = v
	}
	if v := os.Getenv("RESEND_BASE_URL"); v != "" {
		cfg.Resend.BaseURL = v
	}
	if v := os.Getenv("RESEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("RESEND_TIMEOUT: %w", err)
		}
		cfg.Resend.Timeout = d
	}
	if v := os.Getenv("SENDER_EMAIL_ADDRESS"); v != "" {
		cfg.Email.Sender = strings.TrimSpace(v)
	}
	if v := os.Getenv("REPLY_TO_EMAIL_ADDRESSES"); v != "" {
		cfg.Email.ReplyTo = splitCSV(v)
	}
	if v := os.Getenv("RESEND_MCP_ALLOWED_RECIPIENT_DOMAINS"); v != "" {
		cfg.Email.AllowedRecipientDomains = splitCSV(v)
	}
	if v := os.Getenv("RESEND_MCP_PROTOCOL_VERSION"); v != "" {
		cfg.MCP.ProtocolVersion = v
	}
	if v := os.Getenv("RESEND_MCP_ALLOW_ORIGINS"); v != "" {
		cfg.MCP.AllowOrigins = splitCSV(v)
	}
	if v := os.Getenv("RESEND_MCP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RESEND_MCP_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		val := strings.TrimSpace(part)
		if val == "" {
			continue
		}
		out = append(out, val)
	}
	return out
}
