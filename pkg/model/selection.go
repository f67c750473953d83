package model

import "time"

// FilterDescription is the serializable predicate a list view was showing when
// the user chose "select all". It is re-compiled into a store query at
// execution time and must never be cached as a materialized ID list: the row
// set can change between render and action.
type FilterDescription struct {
	Search      string          `json:"search,omitempty" validate:"omitempty,max=200"`
	Statuses    []BookingStatus `json:"statuses,omitempty" validate:"omitempty,max=5,dive,booking_status"`
	CustodianID string          `json:"custodian_id,omitempty" validate:"omitempty,mongodb"`
	Tags        []string        `json:"tags,omitempty" validate:"omitempty,max=20,dive,required"`
	StartAfter  *time.Time      `json:"start_after,omitempty"`
	EndBefore   *time.Time      `json:"end_before,omitempty"`
}

// Selection is either an explicit ordered ID list or the select-all marker
// plus the filter in effect. TakeAll lifts the pagination cap that otherwise
// bounds a resolved select-all set.
type Selection struct {
	IDs     []string           `json:"ids,omitempty" validate:"omitempty,max=2000,dive,mongodb"`
	All     bool               `json:"all,omitempty"`
	Filter  *FilterDescription `json:"filter,omitempty"`
	TakeAll bool               `json:"take_all,omitempty"`
}

// Explicit reports whether the selection carries a literal ID list rather
// than the select-all marker.
func (s *Selection) Explicit() bool {
	return !s.All
}

type BulkOperation string

const (
	BulkCancel       BulkOperation = "cancel"
	BulkDelete       BulkOperation = "delete"
	BulkStatusChange BulkOperation = "status_change"
	BulkExport       BulkOperation = "export"
)
