package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UnratedMarker is the textual form of an unknown MMR, as it appears in
// sheets and on the wire.
const UnratedMarker = "???"

// MMR is a matchmaking rating that may be unknown. The zero value is unrated.
type MMR struct {
	value int
	known bool
}

// Unrated is the sentinel for a competitor without a rating.
var Unrated = MMR{}

// Rated returns a known MMR.
func Rated(v int) MMR { return MMR{value: v, known: true} }

// Value returns the rating and whether it is known.
func (m MMR) Value() (int, bool) { return m.value, m.known }

// IsUnrated reports whether the rating is unknown.
func (m MMR) IsUnrated() bool { return !m.known }

// String renders the rating, using UnratedMarker when unknown.
func (m MMR) String() string {
	if !m.known {
		return UnratedMarker
	}
	return strconv.Itoa(m.value)
}

// ParseMMR accepts an integer or an unrated marker ("", "???", "unrated").
func ParseMMR(s string) (MMR, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", UnratedMarker, "unrated":
		return Unrated, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// Sheets hand back floats for formula cells.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return Unrated, fmt.Errorf("parse mmr %q: %w", s, err)
		}
		v = int(f)
	}
	return Rated(v), nil
}

// MarshalJSON encodes a known rating as a number and an unknown one as "unrated".
func (m MMR) MarshalJSON() ([]byte, error) {
	if !m.known {
		return []byte(`"unrated"`), nil
	}
	return []byte(strconv.Itoa(m.value)), nil
}

// UnmarshalJSON accepts a number, null, or any unrated marker string.
func (m *MMR) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Unrated
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := ParseMMR(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	v, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("decode mmr: %w", err)
	}
	*m = Rated(v)
	return nil
}
