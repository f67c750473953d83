package model

import (
	"time"
)

type BookingStatus string

const (
	StatusDraft      BookingStatus = "draft"
	StatusReserved   BookingStatus = "reserved"
	StatusCheckedOut BookingStatus = "checked_out"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// Active reports whether the booking occupies its assets for overlap purposes.
// Drafts reserve nothing yet; completed and cancelled bookings have released
// their assets.
func (s BookingStatus) Active() bool {
	return s == StatusReserved || s == StatusCheckedOut
}

// Terminal reports whether any further transition is legal from this status.
func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ActiveStatuses are the statuses that participate in the overlap invariant.
var ActiveStatuses = []BookingStatus{StatusReserved, StatusCheckedOut}

// Booking reserves an ordered set of assets over the half-open window
// [StartTime, EndTime). Deletion is a terminal status transition, never a
// physical removal, so historical conflicts stay auditable.
type Booking struct {
	ID             string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OrganizationID string        `json:"organization_id" bson:"organization_id" validate:"required,mongodb"`
	CreatedBy      string        `json:"created_by" bson:"created_by" validate:"required,mongodb"`
	CustodianID    string        `json:"custodian_id,omitempty" bson:"custodian_id,omitempty" validate:"omitempty,mongodb"`
	Name           string        `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Status         BookingStatus `json:"status" bson:"status" validate:"required,booking_status"`
	StartTime      time.Time     `json:"start_time" bson:"start_time" validate:"required"`
	EndTime        time.Time     `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	AssetIDs       []string      `json:"asset_ids" bson:"asset_ids" validate:"omitempty,max=500,unique,dive,mongodb"`
	Tags           []string      `json:"tags,omitempty" bson:"tags,omitempty" validate:"omitempty,max=20,dive,required"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt      time.Time     `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`
}

// BookingUpdate carries partial edits. Status is deliberately absent: lifecycle
// changes go through the transition operation so the state machine guards run.
type BookingUpdate struct {
	Name        string     `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	CustodianID string     `json:"custodian_id,omitempty" validate:"omitempty,mongodb"`
	StartTime   *time.Time `json:"start_time,omitempty" validate:"omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty" validate:"omitempty"`
	AssetIDs    *[]string  `json:"asset_ids,omitempty" validate:"omitempty,max=500,unique,dive,mongodb"`
	Tags        *[]string  `json:"tags,omitempty" validate:"omitempty"`
}
