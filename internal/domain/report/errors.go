package report

import "errors"

var (
	ErrInvalidPeriod = errors.New("period must be in YYYY-MM format")
	ErrInvalidYear   = errors.New("year must be a valid year")
)
