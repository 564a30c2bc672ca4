package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/ltrc/internal/adapters/repository"
	"github.com/okian/ltrc/internal/config"
	"github.com/okian/ltrc/internal/domain/accolade"
	"github.com/okian/ltrc/internal/domain/model"
	"github.com/okian/ltrc/internal/domain/placement"
	"github.com/okian/ltrc/internal/domain/ranktable"
	"github.com/okian/ltrc/internal/domain/rating"
	"github.com/okian/ltrc/internal/domain/standings"
	"github.com/okian/ltrc/pkg/logger"
	"github.com/okian/ltrc/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Rater runs the rating pipeline for one event against a competitor store.
// Evaluate has no side effects; Commit writes the batch it produced.
type Rater struct {
	store   repository.Store
	cfg     *config.Config
	engine  *rating.Engine
	tracker *placement.Tracker
	tracer  trace.Tracer
	logger  logger.Logger
}

// NewRater builds a Rater from the rating tables in cfg.
func NewRater(store repository.Store, cfg *config.Config, tracer trace.Tracer, log logger.Logger) *Rater {
	return &Rater{
		store:   store,
		cfg:     cfg,
		engine:  rating.New(rating.WithScaleConstant(cfg.ScaleConstant)),
		tracker: placement.NewTracker(),
		tracer:  tracer,
		logger:  log,
	}
}

// Validate checks the shape of an event without touching the store.
func (r *Rater) Validate(ev model.Event) error { //nolint:gocritic // hugeParam: read-only
	if len(ev.Results) == 0 {
		return fmt.Errorf("%w: no racers found", model.ErrEmptyInput)
	}
	if _, err := ev.Mode.Units(len(ev.Results)); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(ev.Results))
	for _, res := range ev.Results {
		if res.Competitor == "" {
			return fmt.Errorf("%w: blank competitor name", model.ErrShapeMismatch)
		}
		if _, dup := seen[res.Competitor]; dup {
			return fmt.Errorf("%w: %s appears twice in the roster", model.ErrShapeMismatch, res.Competitor)
		}
		seen[res.Competitor] = struct{}{}
	}
	for name := range ev.Bonus {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("%w: bonus accolade for %s who is not in the roster", model.ErrShapeMismatch, name)
		}
	}
	units, err := standings.UnitScores(ev.Scores(), ev.Mode.TeamSize)
	if err != nil {
		return err
	}
	return standings.Ordered(units)
}

// Evaluate computes the report of ev and the batch that would persist it.
func (r *Rater) Evaluate(ctx context.Context, ev model.Event) (model.Report, model.Batch, error) { //nolint:gocritic // hugeParam: read-only
	ctx, span := r.tracer.Start(ctx, "Rater.Evaluate", trace.WithAttributes(
		attribute.String("event.id", ev.ID),
		attribute.String("event.mode", ev.Mode.Name),
		attribute.Int("event.roster", len(ev.Results)),
	))
	defer span.End()

	start := time.Now()
	report, batch, err := r.evaluate(ctx, ev)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.Report{}, model.Batch{}, err
	}
	metrics.RecordRatingLatency(float64(time.Since(start).Milliseconds()))
	return report, batch, nil
}

func (r *Rater) evaluate(ctx context.Context, ev model.Event) (model.Report, model.Batch, error) { //nolint:gocritic // hugeParam: read-only
	if err := r.Validate(ev); err != nil {
		return model.Report{}, model.Batch{}, err
	}
	mode := ev.Mode
	names := ev.Names()
	n := len(names)

	kTable, err := r.cfg.KTable(mode)
	if err != nil {
		return model.Report{}, model.Batch{}, err
	}
	accoladeBase, err := r.cfg.AccoladeBase(mode)
	if err != nil {
		return model.Report{}, model.Batch{}, err
	}

	known, err := r.store.Competitors(ctx, names)
	if err != nil {
		return model.Report{}, model.Batch{}, fmt.Errorf("load competitors: %w", err)
	}

	batch := model.Batch{EventID: ev.ID}
	competitors := make([]model.Competitor, n)
	records := make([]*model.PlacementRecord, n)
	for i, name := range names {
		c, ok := known[name]
		if !ok {
			batch.Registrations = append(batch.Registrations, name)
			competitors[i] = model.Competitor{Name: name}
			continue
		}
		competitors[i] = c
		if records[i], err = r.store.PlacementRecord(ctx, name); err != nil {
			return model.Report{}, model.Batch{}, fmt.Errorf("load placement of %s: %w", name, err)
		}
		if rec := records[i]; rec != nil && !c.Current.IsUnrated() && rec.Completion < model.CompletionPlaced {
			return model.Report{}, model.Batch{}, fmt.Errorf("%w: %s is rated but still has a placement record at %d/%d",
				model.ErrDataInconsistency, name, int(rec.Completion), model.PlacementEvents)
		}
	}

	unitRanks, ranks, err := standings.Rank(ev.Scores(), mode.TeamSize)
	if err != nil {
		return model.Report{}, model.Batch{}, err
	}
	ks, err := standings.KFactors(ranks, kTable)
	if err != nil {
		return model.Report{}, model.Batch{}, err
	}

	flags := placement.Flags{ReducedTrackCount: ev.Modifiers.ReducedTrackCount}
	resolutions := make([]placement.Resolution, n)
	effective := make([]float64, n)
	for i, c := range competitors {
		res, err := r.tracker.Resolve(c, records[i], float64(ev.Results[i].RawScore), flags)
		if err != nil {
			return model.Report{}, model.Batch{}, err
		}
		resolutions[i] = res
		effective[i] = res.EffectiveMMR
	}

	deltas, err := r.engine.Deltas(effective, ks, mode.TeamSize, rating.ModifiersFrom(ev.Modifiers))
	if err != nil {
		return model.Report{}, model.Batch{}, err
	}

	accolades, err := r.accolades(effective, unitRanks, mode, accoladeBase)
	if err != nil {
		return model.Report{}, model.Batch{}, err
	}
	accolade.AddBonus(accolades, names, ev.Bonus)

	report := model.Report{
		EventID:       ev.ID,
		Mode:          mode.Name,
		RoomAverage:   rating.RoomAverage(effective),
		ScaleConstant: r.engine.ScaleConstant(),
		Outcomes:      make([]model.Outcome, n),
	}
	for i, c := range competitors {
		res := resolutions[i]
		newMMR := rating.NewMMR(res.EffectiveMMR, deltas[i])

		var completion model.Completion
		if res.Record != nil {
			completion = res.Record.Completion
			if res.Provisional {
				res.Record.AccumulatedMMR += deltas[i]
			}
			batch.Placements = append(batch.Placements, *res.Record)
		}
		if !res.Provisional {
			batch.Ratings = append(batch.Ratings, model.RatingUpdate{Name: c.Name, MMR: newMMR})
		}

		report.Outcomes[i] = model.Outcome{
			Name:         c.Name,
			RawScore:     ev.Results[i].RawScore,
			Standing:     ranks[i],
			KFactor:      ks[i],
			PreviousMMR:  c.Current,
			EffectiveMMR: res.EffectiveMMR,
			Delta:        deltas[i],
			NewMMR:       newMMR,
			Change:       ranktable.Movement(c.Current, newMMR, res.Provisional, completion),
			Completion:   completion,
			Provisional:  res.Provisional,
			Winner:       unitRanks[i/mode.TeamSize] == 1,
			Accolade:     accolades[i],
		}
	}

	r.logger.Debug(ctx, "event evaluated",
		logger.String("event_id", ev.ID),
		logger.String("mode", mode.Name),
		logger.Float64("room_average", report.RoomAverage),
		logger.Int("registrations", len(batch.Registrations)),
		logger.Int("placements", len(batch.Placements)),
	)
	return report, batch, nil
}

// accolades averages effective MMR per team and broadcasts each team's
// accolade to its members.
func (r *Rater) accolades(effective []float64, unitRanks []int, mode model.TeamMode, base []int) ([]int, error) {
	teamAvg := make([]float64, len(unitRanks))
	for t := range teamAvg {
		sum := 0.0
		for _, v := range effective[t*mode.TeamSize : (t+1)*mode.TeamSize] {
			sum += v
		}
		teamAvg[t] = sum / float64(mode.TeamSize)
	}
	team, err := accolade.Compute(teamAvg, unitRanks, accolade.Config{
		Base:      base,
		UpsetWin:  r.cfg.Accolades.UpsetWin,
		UpsetLoss: r.cfg.Accolades.UpsetLoss,
	})
	if err != nil {
		return nil, err
	}
	return accolade.Broadcast(team, mode.TeamSize, len(effective)), nil
}

// Commit writes batch to the store atomically.
func (r *Rater) Commit(ctx context.Context, batch model.Batch) error { //nolint:gocritic // hugeParam: read-only
	if batch.Empty() {
		return nil
	}
	ctx, span := r.tracer.Start(ctx, "Rater.Commit", trace.WithAttributes(
		attribute.String("event.id", batch.EventID),
		attribute.Int("batch.ratings", len(batch.Ratings)),
		attribute.Int("batch.placements", len(batch.Placements)),
	))
	defer span.End()

	if err := r.store.Commit(ctx, batch); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("commit event %s: %w", batch.EventID, err)
	}
	return nil
}
