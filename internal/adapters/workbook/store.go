package workbook

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/ltrc/internal/adapters/repository"
	"github.com/okian/ltrc/internal/domain/model"
	"github.com/okian/ltrc/internal/domain/ranktable"
)

var (
	_ repository.Store    = (*Workbook)(nil)
	_ repository.Importer = (*Workbook)(nil)
)

// load reads Players and Placements into a fresh MemoryStore. A 3/3 row of
// a rated player is the trail of a finished placement and is not loaded; any
// other 3/3 row is loaded so rating the player reports the inconsistency.
func (wb *Workbook) load() error {
	players, err := wb.rows(PlayersSheet)
	if err != nil {
		return err
	}
	placements, err := wb.rows(PlacementsSheet)
	if err != nil {
		return err
	}

	wb.playerRows = make(map[string]int)
	rated := make(map[string]bool)
	var competitors []model.Competitor
	for i, row := range players {
		name := strings.TrimSpace(cell(row, playerName))
		if i == 0 || name == "" {
			continue
		}
		current, err := model.ParseMMR(cell(row, playerMMR))
		if err != nil {
			return fmt.Errorf("%w: %s row %d: %w", ErrMalformed, PlayersSheet, i+1, err)
		}
		previous, err := model.ParseMMR(cell(row, playerPrevious))
		if err != nil {
			return fmt.Errorf("%w: %s row %d: %w", ErrMalformed, PlayersSheet, i+1, err)
		}
		wb.playerRows[name] = i + 1
		rated[name] = !current.IsUnrated()
		competitors = append(competitors, model.Competitor{Name: name, Current: current, PreviousSeason: previous})
	}

	wb.placementRows = make(map[string]int)
	var records []model.PlacementRecord
	for i, row := range placements {
		name := strings.TrimSpace(cell(row, placementName))
		if i == 0 || name == "" {
			continue
		}
		wb.placementRows[name] = i + 1
		rec, err := parsePlacement(name, row)
		if err != nil {
			return fmt.Errorf("%w: %s row %d: %w", ErrMalformed, PlacementsSheet, i+1, err)
		}
		if rec.Completion == model.CompletionPlaced && rated[name] {
			continue
		}
		records = append(records, rec)
	}

	wb.MemoryStore = repository.NewMemoryStore(
		repository.WithCompetitors(competitors...),
		repository.WithPlacementRecords(records...),
	)
	return nil
}

func parsePlacement(name string, row []string) (model.PlacementRecord, error) {
	completion, err := model.ParseCompletion(cell(row, placementCompletion))
	if err != nil {
		return model.PlacementRecord{}, err
	}
	rec := model.PlacementRecord{Name: name, Completion: completion}
	for i := 0; i < int(completion); i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell(row, placementScores+i)), 64)
		if err != nil {
			return model.PlacementRecord{}, fmt.Errorf("event %d score: %w", i+1, err)
		}
		rec.EventScores = append(rec.EventScores, v)
	}
	if acc := strings.TrimSpace(cell(row, placementAccumulated)); acc != "" {
		v, err := strconv.ParseFloat(acc, 64)
		if err != nil {
			return model.PlacementRecord{}, fmt.Errorf("accumulated mmr: %w", err)
		}
		rec.AccumulatedMMR = int(v)
	}
	return rec, rec.Validate()
}

// Commit applies batch to the in-memory state, mirrors it into the Players
// and Placements sheets and saves the file.
func (wb *Workbook) Commit(ctx context.Context, batch model.Batch) error { //nolint:gocritic // hugeParam: read-only
	wb.mu.Lock()
	defer wb.mu.Unlock()

	if err := wb.MemoryStore.Commit(ctx, batch); err != nil {
		return err
	}

	for _, name := range batch.Registrations {
		row := wb.nextRow(wb.playerRows)
		if err := wb.setRow(PlayersSheet, row, name, model.UnratedMarker, model.UnratedMarker); err != nil {
			return err
		}
		wb.playerRows[name] = row
	}
	for _, u := range batch.Ratings {
		row := wb.playerRows[u.Name]
		if err := wb.setCell(PlayersSheet, playerMMR, row, u.MMR); err != nil {
			return err
		}
		if err := wb.setCell(PlayersSheet, playerTier, row, ranktable.TierOf(u.MMR).Name); err != nil {
			return err
		}
	}
	for i := range batch.Placements {
		if err := wb.writePlacement(&batch.Placements[i]); err != nil {
			return err
		}
	}
	return wb.save()
}

func (wb *Workbook) writePlacement(rec *model.PlacementRecord) error {
	row, ok := wb.placementRows[rec.Name]
	if !ok {
		row = wb.nextRow(wb.placementRows)
		wb.placementRows[rec.Name] = row
	}
	values := []any{rec.Name, rec.Completion.String()}
	for i := 0; i < model.PlacementEvents; i++ {
		if i < len(rec.EventScores) {
			values = append(values, rec.EventScores[i])
		} else {
			values = append(values, "")
		}
	}
	values = append(values, rec.AccumulatedMMR)
	return wb.setRow(PlacementsSheet, row, values...)
}

// Import upserts competitors into the Players sheet and saves the file.
func (wb *Workbook) Import(ctx context.Context, cs []model.Competitor) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	if err := wb.MemoryStore.Import(ctx, cs); err != nil {
		return err
	}
	if err := wb.upsertPlayers(cs); err != nil {
		return err
	}
	return wb.save()
}

func (wb *Workbook) upsertPlayers(cs []model.Competitor) error {
	for _, c := range cs {
		row, ok := wb.playerRows[c.Name]
		if !ok {
			row = wb.nextRow(wb.playerRows)
			wb.playerRows[c.Name] = row
		}
		tier := ""
		if v, ok := c.Current.Value(); ok {
			tier = ranktable.TierOf(v).Name
		}
		if err := wb.setRow(PlayersSheet, row, c.Name, c.Current.String(), c.PreviousSeason.String(), tier); err != nil {
			return err
		}
	}
	return nil
}

// StartSeason upserts cs like Import, removes every Placements row below the
// header and saves the file.
func (wb *Workbook) StartSeason(ctx context.Context, cs []model.Competitor) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	if err := wb.MemoryStore.StartSeason(ctx, cs); err != nil {
		return err
	}
	rows := make([]int, 0, len(wb.placementRows))
	for _, r := range wb.placementRows {
		rows = append(rows, r)
	}
	slices.Sort(rows)
	for i := len(rows) - 1; i >= 0; i-- {
		if err := wb.file.RemoveRow(PlacementsSheet, rows[i]); err != nil {
			return fmt.Errorf("clear %s row %d: %w", PlacementsSheet, rows[i], err)
		}
	}
	wb.placementRows = make(map[string]int)
	if err := wb.upsertPlayers(cs); err != nil {
		return err
	}
	return wb.save()
}

// nextRow is the first row below every row in index and below the header.
func (wb *Workbook) nextRow(index map[string]int) int {
	last := 1
	for _, r := range index {
		last = max(last, r)
	}
	return last + 1
}
