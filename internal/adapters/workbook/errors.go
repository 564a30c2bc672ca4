package workbook

import "errors"

// Sentinel workbook errors.
var (
	ErrMissingSheet = errors.New("workbook sheet missing")
	ErrMalformed    = errors.New("malformed workbook cell")
)
