package emailaddr

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var validHostnameRE = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}$`)

// Address is a parsed mailbox. Name is empty when the input carried no display name.
type Address struct {
	Name   string
	Email  string
	Domain string
}

// Parse accepts a bare address or a "Display Name <address>" form.
//
// The domain is validated as a hostname with a TLD.
func Parse(address string) (Address, error) {
	raw := strings.TrimSpace(address)
	if raw == "" {
		return Address{}, fmt.Errorf("address is empty")
	}
	parsed, err := mail.ParseAddress(raw)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", address, err)
	}
	at := strings.LastIndex(parsed.Address, "@")
	if at <= 0 || at == len(parsed.Address)-1 {
		return Address{}, fmt.Errorf("invalid address: %q", address)
	}
	local := parsed.Address[:at]
	domain, err := CanonicalizeDomain(parsed.Address[at+1:])
	if err != nil {
		return Address{}, err
	}
	return Address{
		Name:   parsed.Name,
		Email:  local + "@" + domain,
		Domain: domain,
	}, nil
}

// ParseList parses every entry, stopping at the first invalid one.
func ParseList(addresses []string) ([]Address, error) {
	out := make([]Address, 0, len(addresses))
	for _, addr := range addresses {
		parsed, err := Parse(addr)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}

// CanonicalizeDomain lowercases, trims and strips a trailing dot, then checks
// the result is a plain hostname (no scheme, path or spaces).
func CanonicalizeDomain(domain string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimSuffix(d, ".")

	switch {
	case d == "":
		return "", fmt.Errorf("domain is empty")
	case strings.Contains(d, "://"):
		return "", fmt.Errorf("domain must not contain protocol: %q", domain)
	case strings.Contains(d, "/"):
		return "", fmt.Errorf("domain must not contain path: %q", domain)
	case strings.Contains(d, " "):
		return "", fmt.Errorf("domain must not contain spaces: %q", domain)
	case !validHostnameRE.MatchString(d):
		return "", fmt.Errorf("invalid domain: %q", domain)
	}
	return d, nil
}

// DomainAllowed reports whether the address's domain is in the allowlist.
// An empty allowlist allows everything.
func DomainAllowed(address string, allowlist []string) bool {
	if len(allowlist) == 0 {
		return true
	}
	parsed, err := Parse(address)
	if err != nil {
		return false
	}
	for _, allowed := range allowlist {
		if strings.ToLower(strings.TrimSpace(allowed)) == parsed.Domain {
			return true
		}
	}
	return false
}
