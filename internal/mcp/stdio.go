package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

const maxStdioLine = 4 << 20

// RunStdio serves newline-delimited JSON-RPC from in, writing one response line
// per request to out. It returns at EOF or when ctx is done.
func RunStdio(ctx context.Context, srv *Server, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStdioLine)
	writer := bufio.NewWriter(out)
	defer writer.Flush()

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp Response
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			resp = parseErrorResponse(err)
		} else {
			resp = srv.Dispatch(ctx, req)
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		if _, err := writer.Write(append(data, '\n')); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdio scan error: %w", err)
	}
	return nil
}
