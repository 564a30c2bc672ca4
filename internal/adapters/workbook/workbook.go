// Package workbook reads rooms from and writes ratings back to an .xlsx
// workbook. The workbook doubles as a competitor store: the Players and
// Placements sheets are loaded on open and rewritten on every commit.
package workbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/okian/ltrc/internal/adapters/repository"
	"github.com/okian/ltrc/internal/domain/model"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	PlayersSheet    = "Players"
	PlacementsSheet = "Placements"
	SettingsSheet   = "Settings"
)

// Players columns.
const (
	playerName = iota + 1
	playerMMR
	playerPrevious
	playerTier
)

// Placements columns. Scores occupy placementScores..placementScores+2.
const (
	placementName = iota + 1
	placementCompletion
	placementScores
	placementAccumulated = placementScores + model.PlacementEvents
)

var (
	playersHeader    = []any{"Name", "MMR", "Previous Season MMR", "Tier"}
	placementsHeader = []any{"Name", "Completion", "Event 1", "Event 2", "Event 3", "Accumulated MMR"}
)

// Workbook is an open .xlsx file. It is safe for concurrent use.
type Workbook struct {
	*repository.MemoryStore

	mu            sync.Mutex
	path          string
	file          *excelize.File
	playerRows    map[string]int
	placementRows map[string]int
}

// Open loads the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	wb := &Workbook{path: path, file: f}
	if err := wb.load(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return wb, nil
}

// Create writes a new workbook with empty Players and Placements sheets, a
// Settings sheet filled from settings and one event sheet per mode. An
// existing file is not overwritten.
func Create(path string, settings Settings) (*Workbook, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("create workbook %s: %w", path, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("create workbook %s: %w", path, err)
	}

	f := excelize.NewFile()
	wb := &Workbook{path: path, file: f}
	if err := f.SetSheetName(f.GetSheetName(0), PlayersSheet); err != nil {
		return nil, err
	}
	if err := wb.setRow(PlayersSheet, 1, playersHeader...); err != nil {
		return nil, err
	}
	type sheet struct {
		name   string
		header []any
	}
	sheets := []sheet{
		{PlacementsSheet, placementsHeader},
		{SettingsSheet, settingsHeader},
	}
	for _, m := range model.Modes() {
		sheets = append(sheets, sheet{m.Name, eventHeader})
	}
	for _, s := range sheets {
		if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("add sheet %s: %w", s.name, err)
		}
		if err := wb.setRow(s.name, 1, s.header...); err != nil {
			return nil, err
		}
	}
	if err := wb.writeSettings(settings); err != nil {
		return nil, err
	}
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("save workbook %s: %w", path, err)
	}
	if err := wb.load(); err != nil {
		return nil, err
	}
	return wb, nil
}

// Path returns the file the workbook saves to.
func (wb *Workbook) Path() string { return wb.path }

// Save writes pending changes to disk.
func (wb *Workbook) Save() error {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return wb.save()
}

func (wb *Workbook) save() error {
	if err := wb.file.SaveAs(wb.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", wb.path, err)
	}
	return nil
}

// Close releases the underlying file without saving.
func (wb *Workbook) Close() error {
	return wb.file.Close()
}

func (wb *Workbook) rows(sheet string) ([][]string, error) {
	idx, err := wb.file.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingSheet, sheet)
	}
	rows, err := wb.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func (wb *Workbook) setRow(sheet string, row int, values ...any) error {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := wb.file.SetSheetRow(sheet, axis, &values); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, axis, err)
	}
	return nil
}

func (wb *Workbook) setCell(sheet string, col, row int, value any) error {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := wb.file.SetCellValue(sheet, axis, value); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, axis, err)
	}
	return nil
}

// cell returns column col (1-based) of a row, or "" past its end.
func cell(row []string, col int) string {
	if col-1 < len(row) {
		return row[col-1]
	}
	return ""
}
