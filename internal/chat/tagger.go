// Package chat sends chart annotations to the chat service as tags.
package chat

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/example/chartink/internal/drawing"
)

// FrameType is the message type of a tag frame.
const FrameType = "chart_tag"

// Frame is one message written to the chat socket.
type Frame struct {
	Type       string             `json:"type"`
	Symbol     string             `json:"symbol,omitempty"`
	Timeframe  string             `json:"timeframe,omitempty"`
	Annotation drawing.Annotation `json:"annotation"`
}

// Tagger writes tag frames to a websocket on a background worker. The socket
// is dialled on first use and redialled after a failure. TagAnnotation never
// blocks; when the queue is full the tag is dropped and logged.
type Tagger struct {
	url          string
	header       http.Header
	dialer       *websocket.Dialer
	log          zerolog.Logger
	writeTimeout time.Duration

	symbol    string
	timeframe string

	mu     sync.Mutex
	closed bool
	queue  chan Frame
	wg     sync.WaitGroup

	conn *websocket.Conn // owned by the worker
}

// Option configures a Tagger.
type Option func(*Tagger)

// WithHeader sets headers sent with the websocket handshake.
func WithHeader(h http.Header) Option { return func(t *Tagger) { t.header = h } }

// WithChart adds the chart symbol and timeframe to every frame.
func WithChart(symbol, timeframe string) Option {
	return func(t *Tagger) { t.symbol, t.timeframe = symbol, timeframe }
}

// WithQueueSize sets how many tags may wait for the socket.
func WithQueueSize(n int) Option {
	return func(t *Tagger) {
		if n > 0 {
			t.queue = make(chan Frame, n)
		}
	}
}

// NewTagger starts a tagger for the websocket at url.
func NewTagger(url string, log zerolog.Logger, opts ...Option) *Tagger {
	t := &Tagger{
		url:          url,
		dialer:       &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		log:          log.With().Str("component", "chat").Logger(),
		writeTimeout: 5 * time.Second,
		queue:        make(chan Frame, 16),
	}
	for _, o := range opts {
		o(t)
	}
	t.wg.Add(1)
	go t.run()
	return t
}

// TagAnnotation queues a for sending.
func (t *Tagger) TagAnnotation(a drawing.Annotation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	f := Frame{Type: FrameType, Symbol: t.symbol, Timeframe: t.timeframe, Annotation: a.Clone()}
	select {
	case t.queue <- f:
	default:
		t.log.Warn().Str("drawing", a.ID).Msg("chat queue full, tag dropped")
	}
}

// Close sends what is queued and closes the socket.
func (t *Tagger) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.queue)
	t.mu.Unlock()
	t.wg.Wait()
}

func (t *Tagger) run() {
	defer t.wg.Done()
	defer t.disconnect()
	for f := range t.queue {
		if err := t.send(f); err != nil {
			t.log.Warn().Err(err).Str("drawing", f.Annotation.ID).Msg("chat tag failed")
			t.disconnect()
		}
	}
}

func (t *Tagger) send(f Frame) error {
	if t.conn == nil {
		ctx, cancel := context.WithTimeout(context.Background(), t.dialer.HandshakeTimeout)
		defer cancel()
		conn, _, err := t.dialer.DialContext(ctx, t.url, t.header)
		if err != nil {
			return fmt.Errorf("dial chat: %w", err)
		}
		t.conn = conn
		go discard(conn)
	}
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return err
	}
	if err := t.conn.WriteJSON(f); err != nil {
		return fmt.Errorf("write tag: %w", err)
	}
	t.log.Debug().Str("drawing", f.Annotation.ID).Msg("annotation tagged to chat")
	return nil
}

func (t *Tagger) disconnect() {
	if t.conn == nil {
		return
	}
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	_ = t.conn.Close()
	t.conn = nil
}

// discard drains incoming messages so control frames are processed. It
// returns when the connection closes.
func discard(conn *websocket.Conn) {
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
