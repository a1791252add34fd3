package hub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type frame struct {
	kind int
	data []byte
}

// fakeConn blocks reads until closed and records writes.
type fakeConn struct {
	mu     sync.Mutex
	frames []frame
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) SetReadLimit(int64) {}
func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("connection closed")
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.closed:
		return errors.New("connection closed")
	default:
	}
	f.frames = append(f.frames, frame{kind: kind, data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) written(kind int) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]byte
	for _, fr := range f.frames {
		if fr.kind == kind {
			out = append(out, fr.data)
		}
	}
	return out
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("results", slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	require.Eventually(t, h.IsRunning, time.Second, 5*time.Millisecond)
	return h, cancel
}

func connect(t *testing.T, h *Hub) (*fakeConn, <-chan struct{}) {
	t.Helper()
	conn := newFakeConn()
	c := NewClient(h, conn)
	require.NotNil(t, c)
	done := make(chan struct{})
	go func() {
		c.Run()
		close(done)
	}()
	return conn, done
}

func TestHub_PublishReachesClients(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h, cancel := startHub(t)

	a, aDone := connect(t, h)
	b, bDone := connect(t, h)
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.Publish(EventResult, map[string]any{"operator": "Ash"}))

	for _, conn := range []*fakeConn{a, b} {
		require.Eventually(t, func() bool { return len(conn.written(websocket.TextMessage)) == 1 }, time.Second, 5*time.Millisecond)
		var ev struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(conn.written(websocket.TextMessage)[0], &ev))
		assert.Equal(t, EventResult, ev.Type)
		assert.Equal(t, "Ash", ev.Payload["operator"])
	}

	a.Close()
	<-aDone
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-h.Done()
	<-bDone
	assert.False(t, h.IsRunning())
}

func TestHub_StopClosesClients(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h, cancel := startHub(t)

	conn, done := connect(t, h)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	<-h.Done()

	assert.Len(t, conn.written(websocket.CloseMessage), 1)
	assert.Equal(t, 0, h.ClientCount())
}

func TestHub_AfterStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h, cancel := startHub(t)
	cancel()
	<-h.Done()

	assert.Nil(t, NewClient(h, newFakeConn()))

	h.Broadcast(Message{Data: []byte(`{}`)})
	assert.Zero(t, h.Dropped())
}

func TestNewEventMessage(t *testing.T) {
	msg, err := NewEventMessage(EventBackend, map[string]string{"type": "openal"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"backend","payload":{"type":"openal"}}`, string(msg.Data))

	_, err = NewEventMessage(EventResult, make(chan int))
	assert.Error(t, err)
}
