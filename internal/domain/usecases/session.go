// Package usecases - session.go serializes analyses and accumulates their results.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/0xcro3dile/tableqa-go/internal/domain/entities"
	"github.com/0xcro3dile/tableqa-go/internal/domain/ports"
)

// DefaultModel is the LLM used when a submission names none.
const DefaultModel = "mistral"

// ErrNoExporter is returned by Export when the session has no exporter.
var ErrNoExporter = errors.New("no result exporter configured")

// Outcome is the typed result of one submission.
type Outcome struct {
	ID      string
	Record  *entities.Record // Set only when an answer was stored
	Skipped bool             // Empty table or blank query, no AI work done
	Err     error
}

// Handle tracks a submitted analysis.
type Handle struct {
	id      string
	done    chan struct{}
	outcome Outcome
}

// ID returns the correlation ID shared with the stored Record.
func (h *Handle) ID() string { return h.id }

// Done is closed once the analysis and its completion callback have finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Outcome blocks until the analysis has finished and returns its result.
func (h *Handle) Outcome() Outcome {
	<-h.done
	return h.outcome
}

// Wait blocks until the analysis finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return Outcome{ID: h.id}, ctx.Err()
	}
}

type submission struct {
	model    string
	question string
	onDone   func(Outcome)
}

// SubmitOption customizes a single submission.
type SubmitOption func(*submission)

// WithModel selects the LLM for this submission.
func WithModel(model string) SubmitOption {
	return func(s *submission) {
		if model != "" {
			s.model = model
		}
	}
}

// WithQuestion sets the label stored in the question column.
func WithQuestion(question string) SubmitOption {
	return func(s *submission) { s.question = question }
}

// WithCompletion registers a callback run after the analysis finishes.
// It runs on the worker goroutine once progress output has stopped and the
// gate has been released. Callbacks are therefore not serialized against
// later pipelines: the next queued analysis may run while a callback is
// still executing. A callback may Submit and wait on the new handle.
func WithCompletion(fn func(Outcome)) SubmitOption {
	return func(s *submission) { s.onDone = fn }
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithExporter sets where Export writes the results table.
func WithExporter(exporter ports.ResultExporter) SessionOption {
	return func(s *Session) { s.exporter = exporter }
}

// WithProgress sets the reporter notified around every submission.
func WithProgress(progress ports.ProgressReporter) SessionOption {
	return func(s *Session) {
		if progress != nil {
			s.progress = progress
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *log.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultModel sets the model used when a submission names none.
func WithDefaultModel(model string) SessionOption {
	return func(s *Session) {
		if model != "" {
			s.defaultModel = model
		}
	}
}

// Session owns the pending results, the accumulated results table and the
// gate that lets one analysis run at a time.
type Session struct {
	analyzer     Analyzer
	exporter     ports.ResultExporter
	progress     ports.ProgressReporter
	logger       *log.Logger
	defaultModel string

	gate chan struct{} // one slot: holder runs its pipeline
	wg   sync.WaitGroup

	mu       sync.Mutex // guards pending, results and inflight
	pending  []entities.Record
	results  entities.ResultTable
	inflight map[string]<-chan struct{}
}

// NewSession creates a session answering queries with analyzer.
func NewSession(analyzer Analyzer, opts ...SessionOption) *Session {
	s := &Session{
		analyzer:     analyzer,
		progress:     nopProgress{},
		logger:       &log.DefaultLogger,
		defaultModel: DefaultModel,
		gate:         make(chan struct{}, 1),
		results:      entities.NewResultTable(),
		inflight:     make(map[string]<-chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit queues an analysis of table for query and returns immediately.
// An empty table or blank query does no AI work; such a submission only
// carries its completion callback through the gate.
func (s *Session) Submit(ctx context.Context, table entities.Table, query string, opts ...SubmitOption) *Handle {
	sub := submission{model: s.defaultModel}
	for _, opt := range opts {
		opt(&sub)
	}

	h := &Handle{id: uuid.NewString(), done: make(chan struct{})}

	s.mu.Lock()
	s.inflight[h.id] = h.done
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		out := s.run(ctx, h.id, table, query, sub)
		h.outcome = out
		if sub.onDone != nil {
			sub.onDone(out)
		}
		close(h.done)

		s.mu.Lock()
		delete(s.inflight, h.id)
		s.mu.Unlock()
	}()

	return h
}

// QueueExport queues an export behind every analysis submitted before it.
// The returned channel receives the export error, or the context error when
// ctx ends first.
func (s *Session) QueueExport(ctx context.Context) <-chan error {
	s.mu.Lock()
	earlier := make([]<-chan struct{}, 0, len(s.inflight))
	for _, done := range s.inflight {
		earlier = append(earlier, done)
	}
	s.mu.Unlock()

	errc := make(chan error, 1)
	s.Submit(ctx, entities.Table{}, "", WithQuestion("export"), WithCompletion(func(out Outcome) {
		if out.Err != nil {
			errc <- out.Err
			return
		}
		for _, done := range earlier {
			select {
			case <-done:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		errc <- s.Export(ctx)
	}))
	return errc
}

// Wait blocks until every submitted analysis has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) run(ctx context.Context, id string, table entities.Table, query string, sub submission) Outcome {
	out := Outcome{ID: id}

	if err := s.acquire(ctx); err != nil {
		out.Err = err
		s.logger.Warn().Str("id", id).Err(err).Msg("analysis abandoned before start")
		return out
	}
	defer s.release()

	progress := s.progress.Begin(sub.question)
	defer progress.End()

	if table.Empty() || strings.TrimSpace(query) == "" {
		out.Skipped = true
		s.logger.Info().Str("id", id).Msg("skipping AI processing (queued task)")
		return out
	}

	analysis, err := s.analyze(ctx, AnalysisRequest{Table: table, Query: query, Model: sub.model})
	if err != nil {
		out.Err = err
		s.logger.Error().Str("id", id).Str("question", sub.question).Err(err).Msg("analysis failed")
		return out
	}

	rec := entities.Record{
		ID:          id,
		Question:    sub.question,
		Query:       query,
		Answer:      analysis.Answer,
		Model:       sub.model,
		CompletedAt: time.Now(),
	}

	s.mu.Lock()
	s.pending = append(s.pending, rec)
	s.mu.Unlock()

	out.Record = &rec
	s.logger.Debug().Str("id", id).Int("sources", len(analysis.Sources)).Msg("analysis stored")
	return out
}

func (s *Session) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) release() {
	<-s.gate
}

// analyze runs the pipeline, converting a panic into an error.
func (s *Session) analyze(ctx context.Context, req AnalysisRequest) (analysis *Analysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			analysis, err = nil, fmt.Errorf("analysis panicked: %v", r)
		}
	}()
	return s.analyzer.Analyze(ctx, req)
}

// Sync moves every pending Record into the results table, in arrival order.
func (s *Session) Sync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()
}

func (s *Session) syncLocked() {
	for _, rec := range s.pending {
		s.results.Append(rec)
	}
	s.pending = nil
}

// Results syncs and returns a snapshot of the results table.
// Analyses still running may append more records afterwards.
func (s *Session) Results() entities.ResultTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()
	return s.results.Clone()
}

// Pending returns a copy of the Records not yet synced.
func (s *Session) Pending() []entities.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.Record(nil), s.pending...)
}

// Export syncs and writes the results table through the exporter.
func (s *Session) Export(ctx context.Context) error {
	if s.exporter == nil {
		return ErrNoExporter
	}

	table := s.Results()
	if err := s.exporter.Export(ctx, table); err != nil {
		return fmt.Errorf("exporting results: %w", err)
	}

	s.logger.Info().Int("rows", table.Len()).Msg("exported")
	return nil
}

// Clear discards the results table and any pending Records.
func (s *Session) Clear() {
	s.mu.Lock()
	s.results = entities.NewResultTable()
	s.pending = nil
	s.mu.Unlock()

	s.logger.Info().Msg("AI session data cleared")
}

type nopProgress struct{}

func (nopProgress) Begin(string) ports.Progress { return nopProgress{} }

func (nopProgress) End() {}
