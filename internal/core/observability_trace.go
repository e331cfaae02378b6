package core

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SpanRecord is one ended span.
type SpanRecord struct {
	ID         uuid.UUID `json:"id"`
	Operation  string    `json:"operation"`
	Start      time.Time `json:"start"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// SpanLog is a Tracer that appends every ended span to a JSON lines stream
// and keeps it in memory.
type SpanLog struct {
	clock Clock

	mu    sync.Mutex
	w     io.Writer
	spans []SpanRecord
	err   error
}

// NewSpanLog writes spans to w, which may be nil. A nil clock reads the wall
// clock.
func NewSpanLog(w io.Writer, clock Clock) *SpanLog {
	if clock == nil {
		clock = ClockFunc(nil)
	}
	return &SpanLog{clock: clock, w: w}
}

func (l *SpanLog) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &logSpan{log: l, rec: SpanRecord{ID: uuid.New(), Operation: operation, Start: l.clock.Now()}}
}

// Spans returns the spans ended so far, oldest first.
func (l *SpanLog) Spans() []SpanRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]SpanRecord(nil), l.spans...)
}

// Err returns the first write failure. Later spans are kept in memory only.
func (l *SpanLog) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *SpanLog) end(rec SpanRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.spans = append(l.spans, rec)
	if l.w == nil || l.err != nil {
		return
	}
	line, err := json.Marshal(rec)
	if err == nil {
		_, err = l.w.Write(append(line, '\n'))
	}
	l.err = err
}

type logSpan struct {
	log *SpanLog
	rec SpanRecord
}

func (s *logSpan) End(err error) {
	s.rec.DurationMS = float64(s.log.clock.Now().Sub(s.rec.Start)) / float64(time.Millisecond)
	if err != nil {
		s.rec.Error = err.Error()
	}
	s.log.end(s.rec)
}
