package workbook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/ltrc/internal/domain/model"
)

// Event sheet columns. Each mode has a sheet named after it; blank racer
// rows separate teams and are skipped.
const (
	eventRacer = iota + 1
	eventScore
	eventMMR
	eventDelta
	eventNewMMR
	eventArrow
	eventChange
	eventAccolade
	eventBonus
)

var eventHeader = []any{"Racer", "Score", "MMR", "Delta", "New MMR", "Change", "Tier", "Accolade", "Bonus Acc."}

// ReadEvent reads the room on mode's sheet. Racers are listed in finishing
// order; team members are consecutive.
func (wb *Workbook) ReadEvent(id string, mode model.TeamMode) (model.Event, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	rows, err := wb.rows(mode.Name)
	if err != nil {
		return model.Event{}, err
	}

	var (
		names  []string
		scores []int
		mmrs   []model.MMR
		bonus  = make(map[string]int)
	)
	for i, row := range rows {
		name := strings.TrimSpace(cell(row, eventRacer))
		if i == 0 || name == "" {
			continue
		}
		names = append(names, name)

		if raw := strings.TrimSpace(cell(row, eventScore)); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return model.Event{}, fmt.Errorf("%w: %s row %d score %q", ErrMalformed, mode.Name, i+1, raw)
			}
			scores = append(scores, v)
		}

		mmr, err := model.ParseMMR(cell(row, eventMMR))
		if err != nil {
			return model.Event{}, fmt.Errorf("%w: %s row %d: %w", ErrMalformed, mode.Name, i+1, err)
		}
		mmrs = append(mmrs, mmr)

		if raw := strings.TrimSpace(cell(row, eventBonus)); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return model.Event{}, fmt.Errorf("%w: %s row %d bonus %q", ErrMalformed, mode.Name, i+1, raw)
			}
			bonus[name] = v
		}
	}

	ev, err := model.NewEvent(id, mode, names, scores, mmrs)
	if err != nil {
		return model.Event{}, err
	}
	if len(bonus) > 0 {
		ev.Bonus = bonus
	}
	return ev, nil
}

// WriteReport fills the result columns of mode's sheet for every racer in
// report and saves the file.
func (wb *Workbook) WriteReport(mode model.TeamMode, report model.Report) error { //nolint:gocritic // hugeParam: read-only
	wb.mu.Lock()
	defer wb.mu.Unlock()

	rows, err := wb.rows(mode.Name)
	if err != nil {
		return err
	}
	byName := make(map[string]int, len(rows))
	for i, row := range rows {
		if name := strings.TrimSpace(cell(row, eventRacer)); i > 0 && name != "" {
			byName[name] = i + 1
		}
	}

	for _, o := range report.Outcomes {
		row, ok := byName[o.Name]
		if !ok {
			return fmt.Errorf("%w: %s is not on the %s sheet", model.ErrShapeMismatch, o.Name, mode.Name)
		}
		if err := wb.setCell(mode.Name, eventDelta, row, o.Delta); err != nil {
			return err
		}
		if err := wb.setCell(mode.Name, eventNewMMR, row, o.NewMMR); err != nil {
			return err
		}
		if err := wb.setCell(mode.Name, eventArrow, row, o.Change.Arrow()); err != nil {
			return err
		}
		if err := wb.setCell(mode.Name, eventChange, row, o.Change.Label()); err != nil {
			return err
		}
		if err := wb.setCell(mode.Name, eventAccolade, row, o.Accolade); err != nil {
			return err
		}
	}
	return wb.save()
}

// ClearScores blanks the score and bonus columns of mode's sheet so the next
// room can be entered.
func (wb *Workbook) ClearScores(mode model.TeamMode) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	rows, err := wb.rows(mode.Name)
	if err != nil {
		return err
	}
	for i := 1; i < len(rows); i++ {
		for _, col := range []int{eventScore, eventBonus} {
			if err := wb.setCell(mode.Name, col, i+1, ""); err != nil {
				return err
			}
		}
	}
	return wb.save()
}
