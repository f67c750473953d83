package model

import "time"

// ConflictQuery describes a candidate window to probe. ExcludeBookingID skips
// the caller's own booking so editing a window never collides with itself.
type ConflictQuery struct {
	AssetIDs         []string  `json:"asset_ids" validate:"required,min=1,max=500,unique,dive,mongodb"`
	StartTime        time.Time `json:"start_time" validate:"required"`
	EndTime          time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	ExcludeBookingID string    `json:"exclude_booking_id,omitempty" validate:"omitempty,mongodb"`
}

// Collision names one active booking whose window intersects the candidate
// window on a given asset. Windows are half-open, so EndTime == candidate
// start is not a collision.
type Collision struct {
	BookingID   string    `json:"booking_id"`
	BookingName string    `json:"booking_name,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// AssetVerdict is the per-asset outcome of a conflict check.
type AssetVerdict struct {
	AssetID    string      `json:"asset_id"`
	Clear      bool        `json:"clear"`
	Collisions []Collision `json:"collisions,omitempty"`
}

// ConflictReport aggregates verdicts for every requested asset. Clear is true
// only when every asset is clear; reserving a partial subset is never offered.
type ConflictReport struct {
	Clear    bool           `json:"clear"`
	Verdicts []AssetVerdict `json:"verdicts"`
}

// Conflicted returns only the verdicts that carry collisions.
func (r *ConflictReport) Conflicted() []AssetVerdict {
	var out []AssetVerdict
	for _, v := range r.Verdicts {
		if !v.Clear {
			out = append(out, v)
		}
	}
	return out
}
