package query

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// listToolsCall is answered with the tool descriptors.
const listToolsCall = "list_tools"

const maxLineBytes = 1 << 20

// StdioRequest is one line of input to ServeStdio.
type StdioRequest struct {
	ID        json.RawMessage `json:"id,omitempty"`
	Tool      string          `json:"tool"`
	Arguments map[string]any  `json:"arguments,omitempty"`
}

// StdioResponse is one line of output from ServeStdio.
type StdioResponse struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result any             `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type inputLine struct {
	data    []byte
	tooLong bool
}

// ServeStdio reads line-delimited JSON tool calls from r and writes one
// response line per call to w. It returns when r is exhausted, ctx is
// cancelled or w fails. Malformed, oversized and unencodable calls get an
// error response; they do not stop the loop.
func (s *Service) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan inputLine)
	readErr := make(chan error, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(lines)
		br := bufio.NewReaderSize(r, 64*1024)
		for {
			line, err := readLine(br, maxLineBytes)
			if len(line.data) > 0 || line.tooLong {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
		}
	}()

	s.logger.Info("stdio tool loop started", "tools", len(s.order))
	defer s.logger.Info("stdio tool loop stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				wg.Wait()
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			resp := StdioResponse{Error: fmt.Sprintf("invalid request: line exceeds %d bytes", maxLineBytes)}
			if !line.tooLong {
				resp = s.handleLine(ctx, line.data)
			}
			if err := s.writeResponse(w, resp); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
		}
	}
}

// readLine returns the next newline-terminated line without its line ending.
// A line longer than limit is consumed to its end and reported as tooLong.
func readLine(br *bufio.Reader, limit int) (inputLine, error) {
	var line inputLine
	for {
		chunk, err := br.ReadSlice('\n')
		if !line.tooLong {
			if len(line.data)+len(chunk) > limit+2 {
				line.tooLong = true
				line.data = nil
			} else {
				line.data = append(line.data, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		line.data = trimEOL(line.data)
		if len(line.data) > limit {
			line.tooLong = true
			line.data = nil
		}
		return line, err
	}
}

func trimEOL(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return b
}

// writeResponse emits resp as one JSON line. A result that cannot be
// encoded is replaced by an error response for the same id.
func (s *Service) writeResponse(w io.Writer, resp StdioResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("response encoding failed", "error", err)
		data, err = json.Marshal(StdioResponse{ID: resp.ID, Error: fmt.Sprintf("encode response: %v", err)})
		if err != nil {
			return err
		}
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func (s *Service) handleLine(ctx context.Context, line []byte) StdioResponse {
	var req StdioRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return StdioResponse{Error: fmt.Sprintf("invalid request: %v", err)}
	}

	if req.Tool == listToolsCall {
		return StdioResponse{ID: req.ID, Result: s.Tools()}
	}

	result, err := s.Call(ctx, req.Tool, req.Arguments)
	if err != nil {
		s.logger.Debug("tool call failed", "tool", req.Tool, "error", err)
		return StdioResponse{ID: req.ID, Error: err.Error()}
	}
	return StdioResponse{ID: req.ID, Result: result}
}
