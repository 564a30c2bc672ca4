package simulate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// ErrInconsistent is returned when served data disagrees with itself.
var ErrInconsistent = errors.New("inconsistent results")

// verifyLeaderboard checks ordering and competition ranking, then looks every
// entry up by name and compares rating and tier.
func verifyLeaderboard(ctx context.Context, c *client, entries []Entry) error {
	for i, e := range entries {
		want := i + 1
		if i > 0 {
			prev := entries[i-1]
			if e.MMR > prev.MMR {
				return fmt.Errorf("%w: %s (%d) ranked below %s (%d)",
					ErrInconsistent, e.Name, e.MMR, prev.Name, prev.MMR)
			}
			if e.MMR == prev.MMR {
				want = prev.Rank
			}
		}
		if e.Rank != want {
			return fmt.Errorf("%w: %s has rank %d, want %d", ErrInconsistent, e.Name, e.Rank, want)
		}
		v, err := c.competitor(ctx, e.Name)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", e.Name, err)
		}
		mmr, err := strconv.Atoi(string(v.MMR))
		if err != nil {
			return fmt.Errorf("%w: %s listed but unrated (%s)", ErrInconsistent, e.Name, v.MMR)
		}
		if mmr != e.MMR || v.Tier != e.Tier {
			return fmt.Errorf("%w: %s listed at %d/%s but reads %d/%s",
				ErrInconsistent, e.Name, e.MMR, e.Tier, mmr, v.Tier)
		}
	}
	return nil
}
