package workbook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/ltrc/internal/config"
	"github.com/okian/ltrc/internal/domain/model"
)

// Settings keys. K-tables and accolade tables use one row per mode, e.g.
// "k:2vs2" followed by one value per standing.
const (
	keyScaleConstant  = "scale_constant"
	keyUpsetWin       = "upset_win"
	keyUpsetLoss      = "upset_loss"
	keyKPrefix        = "k:"
	keyAccoladePrefix = "accolade:"
)

var settingsHeader = []any{"Setting", "Value"}

// Settings are the rating tables a workbook can carry.
type Settings struct {
	ScaleConstant int
	KFactors      map[string][]int
	AccoladeBase  map[string][]int
	UpsetWin      int
	UpsetLoss     int
}

// SettingsFrom copies the rating tables out of cfg.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		ScaleConstant: cfg.ScaleConstant,
		KFactors:      cfg.KFactors,
		AccoladeBase:  cfg.Accolades.Base,
		UpsetWin:      cfg.Accolades.UpsetWin,
		UpsetLoss:     cfg.Accolades.UpsetLoss,
	}
}

// ApplySettings overlays the Settings sheet onto cfg. Keys that are absent
// keep their configured value.
func (wb *Workbook) ApplySettings(cfg *config.Config) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	rows, err := wb.rows(SettingsSheet)
	if err != nil {
		return err
	}
	for i, row := range rows {
		key := strings.ToLower(strings.TrimSpace(cell(row, 1)))
		if i == 0 || key == "" {
			continue
		}
		values, err := ints(row[1:])
		if err != nil {
			return fmt.Errorf("%w: %s row %d (%s): %w", ErrMalformed, SettingsSheet, i+1, key, err)
		}
		if len(values) == 0 {
			continue
		}
		switch {
		case key == keyScaleConstant:
			cfg.ScaleConstant = values[0]
		case key == keyUpsetWin:
			cfg.Accolades.UpsetWin = values[0]
		case key == keyUpsetLoss:
			cfg.Accolades.UpsetLoss = values[0]
		case strings.HasPrefix(key, keyKPrefix):
			mode, err := model.ParseMode(strings.TrimPrefix(key, keyKPrefix))
			if err != nil {
				return fmt.Errorf("%s row %d: %w", SettingsSheet, i+1, err)
			}
			cfg.KFactors = withTable(cfg.KFactors, mode.Key(), values)
		case strings.HasPrefix(key, keyAccoladePrefix):
			mode, err := model.ParseMode(strings.TrimPrefix(key, keyAccoladePrefix))
			if err != nil {
				return fmt.Errorf("%s row %d: %w", SettingsSheet, i+1, err)
			}
			cfg.Accolades.Base = withTable(cfg.Accolades.Base, mode.Key(), values)
		}
	}
	return nil
}

func (wb *Workbook) writeSettings(s Settings) error {
	row := 2
	put := func(key string, values ...int) error {
		cells := make([]any, 0, len(values)+1)
		cells = append(cells, key)
		for _, v := range values {
			cells = append(cells, v)
		}
		err := wb.setRow(SettingsSheet, row, cells...)
		row++
		return err
	}
	if err := put(keyScaleConstant, s.ScaleConstant); err != nil {
		return err
	}
	if err := put(keyUpsetWin, s.UpsetWin); err != nil {
		return err
	}
	if err := put(keyUpsetLoss, s.UpsetLoss); err != nil {
		return err
	}
	for _, m := range model.Modes() {
		if table, ok := s.KFactors[m.Key()]; ok {
			if err := put(keyKPrefix+m.Key(), table...); err != nil {
				return err
			}
		}
	}
	for _, m := range model.Modes() {
		if table, ok := s.AccoladeBase[m.Key()]; ok {
			if err := put(keyAccoladePrefix+m.Key(), table...); err != nil {
				return err
			}
		}
	}
	return nil
}

// ints parses a row of cells, stopping at the first blank one.
func ints(cells []string) ([]int, error) {
	var out []int
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			break
		}
		v, err := strconv.Atoi(c)
		if err != nil {
			f, ferr := strconv.ParseFloat(c, 64)
			if ferr != nil {
				return nil, err
			}
			v = int(f)
		}
		out = append(out, v)
	}
	return out, nil
}

// withTable returns a copy of tables with key set, leaving the caller's map
// untouched.
func withTable(tables map[string][]int, key string, values []int) map[string][]int {
	out := make(map[string][]int, len(tables)+1)
	for k, v := range tables {
		out[k] = v
	}
	out[key] = values
	return out
}
