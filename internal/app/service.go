// Package service wires the rating pipeline to a competitor store and runs
// submitted events through a queue and worker pool.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	eventqueue "github.com/okian/ltrc/internal/adapters/mq/queue"
	workerpool "github.com/okian/ltrc/internal/adapters/mq/worker"
	"github.com/okian/ltrc/internal/adapters/repository"
	"github.com/okian/ltrc/internal/config"
	"github.com/okian/ltrc/internal/domain/dedupe"
	"github.com/okian/ltrc/internal/domain/model"
	"github.com/okian/ltrc/internal/domain/ranktable"
	"github.com/okian/ltrc/pkg/logger"
	"github.com/okian/ltrc/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/okian/ltrc/internal/app"

// Receipt acknowledges a submission.
type Receipt struct {
	EventID   string `json:"event_id"`
	Status    Status `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// CompetitorView is a competitor with derived display state.
type CompetitorView struct {
	Name           string                 `json:"name"`
	MMR            model.MMR              `json:"mmr"`
	PreviousSeason model.MMR              `json:"previous_season_mmr"`
	Tier           string                 `json:"tier,omitempty"`
	Placement      *model.PlacementRecord `json:"placement,omitempty"`
}

// Service implements the API dependencies for the rating system.
type Service struct {
	mu sync.RWMutex

	cfg     *config.Config
	store   repository.Store
	rater   *Rater
	ledger  dedupe.Ledger
	results *results
	locks   *keyedLocks

	queue *eventqueue.InMemoryQueue
	pool  *workerpool.Pool

	workerCount int
	queueSize   int
	dedupeSize  int

	started bool

	tracer trace.Tracer
	logger logger.Logger
}

// New constructs a Service. Preview and lookups work immediately; Submit
// requires Start.
func New(opts ...Option) *Service {
	cfg := config.New()
	s := &Service{
		cfg:         cfg,
		workerCount: cfg.WorkerCount,
		queueSize:   cfg.EventQueueSize,
		dedupeSize:  cfg.DedupeSize,
		locks:       newKeyedLocks(),
		tracer:      otel.Tracer(tracerName),
		logger:      logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.rater = NewRater(s.store, s.cfg, s.tracer, s.logger)
	s.ledger = dedupe.NewLedger(dedupe.WithCapacity(s.dedupeSize))
	s.results = newResults(s.dedupeSize)
	return s
}

// Start creates the queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s,
		workerpool.WithLogger(s.logger.Named("worker")))
	// Workers outlive the request that started them; Stop drains them.
	s.pool.Start(context.WithoutCancel(ctx))

	metrics.UpdateCompetitorsTotal(s.store.Count(ctx))
	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("scale_constant", s.cfg.ScaleConstant),
	)
	return nil
}

// Stop closes the queue and waits for accepted events to be rated.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping rating service...")

	err := s.pool.Shutdown(ctx)
	s.started = false
	if err != nil {
		s.logger.Warn(ctx, "workers did not drain", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "rating service stopped")
	return nil
}

// Submit validates ev and queues it for rating. An event without an ID gets
// a fresh one. Resubmitting an accepted ID is acknowledged as a duplicate and
// never rated twice; a failed event releases its ID so it can be fixed and
// sent again.
func (s *Service) Submit(ctx context.Context, ev model.Event) (Receipt, error) { //nolint:gocritic // hugeParam: queued by value
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return Receipt{}, ErrNotStarted
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if err := s.rater.Validate(ev); err != nil {
		metrics.RecordEventRejected(reason(err))
		return Receipt{}, err
	}

	if s.ledger.Claim(ctx, ev.ID) {
		metrics.RecordEventDuplicate()
		status := StatusPending
		if res, ok := s.results.get(ev.ID); ok {
			status = res.Status
		}
		s.logger.Debug(ctx, "duplicate event", logger.String("event_id", ev.ID))
		return Receipt{EventID: ev.ID, Status: status, Duplicate: true}, nil
	}

	s.results.pending(ev.ID)
	if err := s.queue.Enqueue(ctx, ev); err != nil {
		s.ledger.Release(ctx, ev.ID)
		s.results.forget(ev.ID)
		if errors.Is(err, eventqueue.ErrFull) {
			return Receipt{}, fmt.Errorf("%w: %w", ErrQueueFull, err)
		}
		return Receipt{}, fmt.Errorf("enqueue event %s: %w", ev.ID, err)
	}
	return Receipt{EventID: ev.ID, Status: StatusPending}, nil
}

// Process rates one queued event and records the result. It implements
// worker.Processor.
func (s *Service) Process(ctx context.Context, ev model.Event) error { //nolint:gocritic // hugeParam: received by value
	report, err := s.Rate(ctx, ev)
	if err != nil {
		s.results.failed(ev.ID, err)
		s.ledger.Release(ctx, ev.ID)
		return err
	}
	s.results.rated(ev.ID, report)
	return nil
}

// Rate evaluates and commits ev synchronously. Events sharing a competitor
// are serialized.
func (s *Service) Rate(ctx context.Context, ev model.Event) (model.Report, error) { //nolint:gocritic // hugeParam: read-only
	ctx, span := s.tracer.Start(ctx, "Service.Rate", trace.WithAttributes(
		attribute.String("event.id", ev.ID),
	))
	defer span.End()

	unlock := s.locks.Lock(ev.Names())
	defer unlock()

	report, batch, err := s.rater.Evaluate(ctx, ev)
	if err == nil {
		err = s.rater.Commit(ctx, batch)
	}
	if err != nil {
		span.RecordError(err)
		metrics.RecordEventRejected(reason(err))
		metrics.RecordErrorByComponent("service", reason(err))
		s.logger.Warn(ctx, "event rejected",
			logger.String("event_id", ev.ID),
			logger.String("reason", reason(err)),
			logger.Error(err),
		)
		return model.Report{}, err
	}

	s.recordOutcomes(ctx, report, len(batch.Registrations))
	return report, nil
}

// Preview evaluates ev without writing anything.
func (s *Service) Preview(ctx context.Context, ev model.Event) (model.Report, error) { //nolint:gocritic // hugeParam: read-only
	report, _, err := s.rater.Evaluate(ctx, ev)
	return report, err
}

// Result returns the latest known state of a submitted event.
func (s *Service) Result(_ context.Context, id string) (Result, error) {
	res, ok := s.results.get(id)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownEvent, id)
	}
	return res, nil
}

// Competitor returns a competitor with tier and placement progress.
func (s *Service) Competitor(ctx context.Context, name string) (CompetitorView, error) {
	c, err := s.store.Competitor(ctx, name)
	if err != nil {
		return CompetitorView{}, err
	}
	view := CompetitorView{Name: c.Name, MMR: c.Current, PreviousSeason: c.PreviousSeason}
	if v, ok := c.Current.Value(); ok {
		view.Tier = ranktable.TierOf(v).Name
		return view, nil
	}
	rec, err := s.store.PlacementRecord(ctx, name)
	if err != nil {
		return CompetitorView{}, err
	}
	if rec == nil {
		rec = &model.PlacementRecord{Name: name}
	}
	view.Placement = rec
	return view, nil
}

// Leaderboard returns rated competitors, best first. limit is capped at the
// configured maximum.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]repository.Entry, error) {
	if limit > s.cfg.MaxLeaderboardLimit {
		limit = s.cfg.MaxLeaderboardLimit
	}
	return s.store.Leaderboard(ctx, limit)
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"dedupeSize":     s.dedupeSize,
		"dedupeLength":   s.ledger.Len(),
		"competitors":    s.store.Count(ctx),
		"scaleConstant":  s.cfg.ScaleConstant,
		"leaderboardMax": s.cfg.MaxLeaderboardLimit,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len()
		stats["activeWorkers"] = s.pool.Active()
	}
	return stats
}

func (s *Service) recordOutcomes(ctx context.Context, report model.Report, registered int) { //nolint:gocritic // hugeParam: read-only
	metrics.RecordEventRated(report.Mode)
	for _, o := range report.Outcomes {
		metrics.RecordMMRDelta(o.Delta)
		metrics.RecordTierMovement(string(o.Change.Direction))
		if o.Completion != model.CompletionNone {
			metrics.RecordPlacementAdvanced(o.Completion.String())
		}
	}
	if registered > 0 {
		metrics.UpdateCompetitorsTotal(s.store.Count(ctx))
	}
	s.logger.Info(ctx, "event rated",
		logger.String("event_id", report.EventID),
		logger.String("mode", report.Mode),
		logger.Int("competitors", len(report.Outcomes)),
		logger.Int("registered", registered),
	)
}
