// CheckFilters narrow the history list.
package dto

import "time"

type CheckFilters struct {
	ErrorOnly bool
	Class     string
	After     time.Time
	Before    time.Time
	Limit     int
	Offset    int
}
