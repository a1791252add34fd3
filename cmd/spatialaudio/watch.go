package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-spatialaudio/internal/log"
	"github.com/teslashibe/go-spatialaudio/pkg/hub"
)

// wsURL turns an http(s) base URL into the results stream URL.
func wsURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += "/ws/results"
	return u.String(), nil
}

// watch prints one line per event until ctx is cancelled or the server
// closes the stream.
func watch(ctx context.Context, base string, w io.Writer) error {
	target, err := wsURL(base)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()
	log.Info("watching results", "url", target)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var ev hub.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			return contextErr(ctx, err)
		}
		if _, err := fmt.Fprintln(w, formatEvent(ev)); err != nil {
			return err
		}
	}
}

func formatEvent(ev hub.Event) string {
	p, _ := ev.Payload.(map[string]any)
	switch ev.Type {
	case hub.EventResult:
		line := fmt.Sprintf("🔊 %v success=%v", p["operator"], p["success"])
		if d, ok := p["distance"].(float64); ok {
			line += fmt.Sprintf(" distance=%.2fm", d)
		}
		if v, ok := p["attenuated_volume_db"].(float64); ok {
			line += fmt.Sprintf(" volume=%.1fdB", v)
		}
		if info, ok := p["backend_info"].(map[string]any); ok {
			line += fmt.Sprintf(" backend=%v", info["type"])
		}
		return line
	case hub.EventBackend:
		return fmt.Sprintf("🎛️  %v", p["message"])
	default:
		return fmt.Sprintf("%s %v", ev.Type, ev.Payload)
	}
}
