package model

import "time"

// AssetUpdate carries partial edits. Availability changes go through the
// dedicated availability operation.
type AssetUpdate struct {
	Name string    `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Tags *[]string `json:"tags,omitempty" validate:"omitempty"`
}

// Asset is a physical item owned by exactly one organization. Available is an
// administrative flag independent of bookings: a disabled asset cannot be
// reserved even when no booking holds it.
type Asset struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OrganizationID string    `json:"organization_id" bson:"organization_id" validate:"required,mongodb"`
	Name           string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Available      bool      `json:"available" bson:"available"`
	Tags           []string  `json:"tags,omitempty" bson:"tags,omitempty" validate:"omitempty,max=20,dive,required"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`
}
