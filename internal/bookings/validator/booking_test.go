package validator

import (
	"strings"
	"testing"
	"time"

	"gearbase/pkg/logger"
	"gearbase/pkg/model"
)

func testLog() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
}

func validBooking() *model.Booking {
	start := time.Now().Add(time.Hour)
	return &model.Booking{
		OrganizationID: "64a0000000000000000000aa",
		CreatedBy:      "64a0000000000000000000cc",
		Name:           "Field shoot",
		Status:         model.StatusDraft,
		StartTime:      start,
		EndTime:        start.Add(2 * time.Hour),
		AssetIDs:       []string{"64b000000000000000000001"},
	}
}

func TestValidate(t *testing.T) {
	v := NewBookingValidator(testLog())

	tests := []struct {
		name    string
		mutate  func(b *model.Booking)
		wantErr string
	}{
		{"valid booking", func(b *model.Booking) {}, ""},
		{"missing name", func(b *model.Booking) { b.Name = "" }, "Name"},
		{"name too short", func(b *model.Booking) { b.Name = "x" }, "Name"},
		{"bad status", func(b *model.Booking) { b.Status = "confirmed" }, "Status"},
		{"missing organization", func(b *model.Booking) { b.OrganizationID = "" }, "OrganizationID"},
		{"malformed asset id", func(b *model.Booking) { b.AssetIDs = []string{"not-an-oid"} }, "AssetIDs"},
		{"duplicate asset ids", func(b *model.Booking) {
			b.AssetIDs = []string{"64b000000000000000000001", "64b000000000000000000001"}
		}, "AssetIDs"},
		{"end before start", func(b *model.Booking) { b.EndTime = b.StartTime.Add(-time.Hour) }, "EndTime"},
		{"zero-length window", func(b *model.Booking) { b.EndTime = b.StartTime }, "EndTime"},
		{"no assets is legal for a draft", func(b *model.Booking) { b.AssetIDs = nil }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBooking()
			tt.mutate(b)

			err := v.Validate(b)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateUpdate_WindowOrdering(t *testing.T) {
	v := NewBookingValidator(testLog())

	start := time.Now().Add(time.Hour)
	end := start.Add(-time.Minute)
	err := v.ValidateUpdate(&model.BookingUpdate{StartTime: &start, EndTime: &end})
	if err == nil {
		t.Fatal("expected error for inverted window")
	}

	end = start.Add(time.Hour)
	if err := v.ValidateUpdate(&model.BookingUpdate{StartTime: &start, EndTime: &end}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A lone bound is legal here; the service validates the merged result.
	if err := v.ValidateUpdate(&model.BookingUpdate{EndTime: &end}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateConflictQuery(t *testing.T) {
	v := NewBookingValidator(testLog())

	start := time.Now().Add(time.Hour)
	query := &model.ConflictQuery{
		AssetIDs:  []string{"64b000000000000000000001"},
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}
	if err := v.ValidateConflictQuery(query); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	query.AssetIDs = nil
	if err := v.ValidateConflictQuery(query); err == nil {
		t.Fatal("expected error for empty asset list")
	}
}

func TestValidateSelection(t *testing.T) {
	v := NewBookingValidator(testLog())

	if err := v.ValidateSelection(&model.Selection{IDs: []string{"64c000000000000000000001"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := v.ValidateSelection(&model.Selection{IDs: []string{"not-a-hex-id"}}); err == nil {
		t.Error("expected error for a malformed id")
	}

	// Validation dives into the nested filter.
	sel := &model.Selection{All: true, Filter: &model.FilterDescription{
		Statuses: []model.BookingStatus{"shipped"},
	}}
	if err := v.ValidateSelection(sel); err == nil {
		t.Error("expected error for an unknown status in the filter")
	}
}
