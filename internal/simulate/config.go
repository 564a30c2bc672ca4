package simulate

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/ltrc/internal/domain/model"
)

// Default simulation settings.
const (
	DefaultRooms        = 200
	DefaultRacers       = 48
	DefaultRoomSize     = 12
	DefaultWorkers      = 8
	DefaultTimeout      = 10 * time.Second
	DefaultWait         = 2 * time.Minute
	DefaultPollInterval = 100 * time.Millisecond
	maxScore            = 180
)

// ErrInvalidConfig is returned when a simulation cannot be generated.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config holds the parameters of a simulated season.
type Config struct {
	BaseURL      string        // Base URL of the service
	Rooms        int           // Number of rooms to generate
	Racers       int           // Size of the roster rooms are drawn from
	RoomSize     int           // Racers per room
	Mode         string        // Team mode of every room
	Workers      int           // Concurrent submitters
	Timeout      time.Duration // HTTP request timeout
	Wait         time.Duration // How long to wait for ratings to settle
	PollInterval time.Duration // Interval between result polls
	Seed         uint64        // Seed for names and scores; 0 picks one
}

func (c *Config) withDefaults() {
	if c.Rooms <= 0 {
		c.Rooms = DefaultRooms
	}
	if c.Racers <= 0 {
		c.Racers = DefaultRacers
	}
	if c.RoomSize <= 0 {
		c.RoomSize = DefaultRoomSize
	}
	if c.Mode == "" {
		c.Mode = model.FFA.Name
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Wait <= 0 {
		c.Wait = DefaultWait
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
}

func (c *Config) validate() (model.TeamMode, error) {
	mode, err := model.ParseMode(c.Mode)
	if err != nil {
		return model.TeamMode{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := mode.Units(c.RoomSize); err != nil {
		return model.TeamMode{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.RoomSize > c.Racers {
		return model.TeamMode{}, fmt.Errorf("%w: room size %d exceeds roster of %d", ErrInvalidConfig, c.RoomSize, c.Racers)
	}
	if c.BaseURL == "" {
		return model.TeamMode{}, fmt.Errorf("%w: missing base URL", ErrInvalidConfig)
	}
	return mode, nil
}

// Stats holds simulation statistics.
type Stats struct {
	RoomsGenerated     int
	RoomsSubmitted     int
	RoomsAccepted      int
	RoomsDuplicate     int
	RoomsRejected      int
	RoomsRated         int
	RoomsFailed        int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
