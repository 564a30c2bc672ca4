// Package simulate drives a running rating service with generated rooms and
// checks that what it serves back is consistent.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/ltrc/pkg/logger"
)

// maxLeaderboard matches the server's default leaderboard cap.
const maxLeaderboard = 100

// ErrUnsettled is returned when submitted rooms are still pending after Wait.
var ErrUnsettled = errors.New("rooms not settled")

// Run generates rooms, submits them concurrently, waits for every accepted
// room to be rated and verifies the leaderboard against competitor lookups.
func Run(ctx context.Context, cfg Config) (*Stats, error) { //nolint:gocritic // hugeParam: copied to apply defaults
	cfg.withDefaults()
	mode, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	log := logger.Get().Named("simulate")
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("rooms", cfg.Rooms),
		logger.Int("racers", cfg.Racers),
		logger.Int("roomSize", cfg.RoomSize),
		logger.String("mode", mode.Name),
		logger.Int("workers", cfg.Workers))

	if err := c.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	gen := newGenerator(cfg.Seed, cfg.Racers)
	rooms := gen.rooms(mode, cfg.RoomSize, cfg.Rooms)
	stats.RoomsGenerated = len(rooms)

	accepted := submitRooms(ctx, c, cfg.Workers, rooms, stats)

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Wait)
	defer cancel()
	if err := awaitRatings(waitCtx, c, accepted, cfg.PollInterval, stats); err != nil {
		return stats, err
	}

	limit := min(cfg.Racers, maxLeaderboard)
	entries, err := c.leaderboard(ctx, limit)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(entries)
	if err := verifyLeaderboard(ctx, c, entries); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats, entries)
	return stats, nil
}

// submitRooms posts rooms from a pool of workers and returns the IDs the
// service accepted.
func submitRooms(ctx context.Context, c *client, workers int, rooms []Room, stats *Stats) []string {
	var (
		submitted, ok, dup, rejected atomic.Int64
		mu                           sync.Mutex
		ids                          = make([]string, 0, len(rooms))
		wg                           sync.WaitGroup
	)
	ch := make(chan Room, workers*2)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range ch {
				submitted.Add(1)
				rc, err := c.submit(ctx, r)
				switch {
				case err != nil:
					rejected.Add(1)
					logger.Get().Debug(ctx, "room rejected", logger.String("event_id", r.EventID), logger.Error(err))
					continue
				case rc.Duplicate:
					dup.Add(1)
				default:
					ok.Add(1)
				}
				mu.Lock()
				ids = append(ids, rc.EventID)
				mu.Unlock()
			}
		}()
	}
	go func() {
		defer close(ch)
		for _, r := range rooms {
			select {
			case <-ctx.Done():
				return
			case ch <- r:
			}
		}
	}()
	wg.Wait()

	stats.RoomsSubmitted = int(submitted.Load())
	stats.RoomsAccepted = int(ok.Load())
	stats.RoomsDuplicate = int(dup.Load())
	stats.RoomsRejected = int(rejected.Load())
	return ids
}

// awaitRatings polls GET /events/{id} until every room is rated or failed.
func awaitRatings(ctx context.Context, c *client, ids []string, interval time.Duration, stats *Stats) error {
	pending := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		pending[id] = struct{}{}
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		for id := range pending {
			res, err := c.result(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					break
				}
				return fmt.Errorf("poll %s: %w", id, err)
			}
			switch res.Status {
			case "rated":
				stats.RoomsRated++
				delete(pending, id)
			case "failed":
				stats.RoomsFailed++
				delete(pending, id)
				logger.Get().Warn(ctx, "room failed", logger.String("event_id", id), logger.String("error", res.Error))
			}
		}
		if len(pending) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %d pending: %w", ErrUnsettled, len(pending), ctx.Err())
		case <-ticker.C:
		}
	}
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats, entries []Entry) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.RoomsRated) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("roomsGenerated", stats.RoomsGenerated),
		logger.Int("roomsSubmitted", stats.RoomsSubmitted),
		logger.Int("roomsAccepted", stats.RoomsAccepted),
		logger.Int("roomsDuplicate", stats.RoomsDuplicate),
		logger.Int("roomsRejected", stats.RoomsRejected),
		logger.Int("roomsRated", stats.RoomsRated),
		logger.Int("roomsFailed", stats.RoomsFailed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("roomsPerSecond", perSecond))
	for _, e := range entries[:min(len(entries), 10)] {
		log.Info(ctx, "leader",
			logger.Int("rank", e.Rank),
			logger.String("name", e.Name),
			logger.Int("mmr", e.MMR),
			logger.String("tier", e.Tier))
	}
}
