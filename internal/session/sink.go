package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/chartink/internal/drawing"
)

// Writer is the part of Repository the sink writes through.
type Writer interface {
	AddDrawing(ctx context.Context, sessionID string, a drawing.Annotation) error
	UpdateDrawingText(ctx context.Context, sessionID, id, text string) error
	UpdateDrawingPoints(ctx context.Context, sessionID, id string, pts []drawing.Point) error
	RemoveDrawing(ctx context.Context, sessionID, id string) error
}

type opKind int

const (
	opAdd opKind = iota
	opText
	opMove
	opRemove
	opBarrier
)

type op struct {
	kind    opKind
	session string
	ann     drawing.Annotation
	id      string
	text    string
	pts     []drawing.Point
	done    chan struct{}
}

// Sink forwards drawing changes to a Writer on a background worker. Calls
// never block the UI: when no session is active or the queue is full the
// change is logged and dropped, and write failures are only logged.
type Sink struct {
	w       Writer
	log     zerolog.Logger
	timeout time.Duration

	mu     sync.Mutex
	active string
	closed bool

	ops  chan op
	wg   sync.WaitGroup
	stop context.CancelFunc
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithQueueSize sets how many pending writes are buffered.
func WithQueueSize(n int) SinkOption {
	return func(s *Sink) {
		if n > 0 {
			s.ops = make(chan op, n)
		}
	}
}

// WithWriteTimeout bounds each write.
func WithWriteTimeout(d time.Duration) SinkOption { return func(s *Sink) { s.timeout = d } }

// NewSink starts the worker. Call Close to drain and stop it.
func NewSink(w Writer, log zerolog.Logger, opts ...SinkOption) *Sink {
	s := &Sink{
		w:       w,
		log:     log.With().Str("component", "session-sink").Logger(),
		timeout: 5 * time.Second,
		ops:     make(chan op, 64),
	}
	for _, o := range opts {
		o(s)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.wg.Add(1)
	go s.run(ctx)
	return s
}

// SetActive selects the session subsequent changes are written to. An empty
// id means no session.
func (s *Sink) SetActive(id string) {
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
}

// Active returns the active session ID.
func (s *Sink) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Sink) enqueue(o op, what string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.active == "" {
		s.log.Warn().Str("op", what).Msg("no active session, drawing change not persisted")
		return
	}
	o.session = s.active
	select {
	case s.ops <- o:
	default:
		s.log.Error().Str("op", what).Str("session", o.session).Msg("persistence queue full, change dropped")
	}
}

// AddDrawing queues an insert.
func (s *Sink) AddDrawing(a drawing.Annotation) {
	s.enqueue(op{kind: opAdd, ann: a.Clone(), id: a.ID}, "add")
}

// UpdateDrawing queues a note text update.
func (s *Sink) UpdateDrawing(id, text string) {
	s.enqueue(op{kind: opText, id: id, text: text}, "update")
}

// MoveDrawing queues a geometry update.
func (s *Sink) MoveDrawing(id string, pts []drawing.Point) {
	s.enqueue(op{kind: opMove, id: id, pts: append([]drawing.Point(nil), pts...)}, "move")
}

// RemoveDrawing queues a delete.
func (s *Sink) RemoveDrawing(id string) {
	s.enqueue(op{kind: opRemove, id: id}, "remove")
}

// Flush blocks until every change queued before the call was written or ctx
// is done.
func (s *Sink) Flush(ctx context.Context) error {
	done := make(chan struct{})
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	select {
	case s.ops <- op{kind: opBarrier, done: done}:
	case <-ctx.Done():
		s.mu.Unlock()
		return ctx.Err()
	}
	s.mu.Unlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes what is queued and stops the worker.
func (s *Sink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ops)
	s.mu.Unlock()
	s.wg.Wait()
	s.stop()
}

func (s *Sink) run(ctx context.Context) {
	defer s.wg.Done()
	for o := range s.ops {
		if o.kind == opBarrier {
			close(o.done)
			continue
		}
		s.apply(ctx, o)
	}
}

func (s *Sink) apply(ctx context.Context, o op) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var err error
	switch o.kind {
	case opAdd:
		err = s.w.AddDrawing(ctx, o.session, o.ann)
	case opText:
		err = s.w.UpdateDrawingText(ctx, o.session, o.id, o.text)
	case opMove:
		err = s.w.UpdateDrawingPoints(ctx, o.session, o.id, o.pts)
	case opRemove:
		err = s.w.RemoveDrawing(ctx, o.session, o.id)
	}
	if err != nil {
		s.log.Error().Err(err).Str("session", o.session).Str("drawing", o.id).Msg("persist drawing change")
	}
}
