package repository

import (
	"testing"
	"time"

	"gearbase/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCompileFilter_AlwaysOrgScoped(t *testing.T) {
	filter := compileFilter("64a0000000000000000000aa", nil)
	if filter["organization_id"] != "64a0000000000000000000aa" {
		t.Fatalf("compiled filter must pin the organization, got %v", filter)
	}
	if len(filter) != 1 {
		t.Errorf("nil description should compile to the org pin alone, got %v", filter)
	}
}

func TestCompileFilter_Fields(t *testing.T) {
	after := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	filter := compileFilter("64a0000000000000000000aa", &model.FilterDescription{
		Search:      "tripod",
		Statuses:    []model.BookingStatus{model.StatusReserved, model.StatusCheckedOut},
		CustodianID: "64a0000000000000000000cc",
		Tags:        []string{"video", "field"},
		StartAfter:  &after,
		EndBefore:   &before,
	})

	statusClause, ok := filter["status"].(bson.M)
	if !ok {
		t.Fatalf("expected status clause, got %v", filter["status"])
	}
	statuses, ok := statusClause["$in"].([]model.BookingStatus)
	if !ok || len(statuses) != 2 {
		t.Errorf("expected two statuses in $in, got %v", statusClause["$in"])
	}

	nameClause, ok := filter["name"].(bson.M)
	if !ok || nameClause["$regex"] != "tripod" || nameClause["$options"] != "i" {
		t.Errorf("expected case-insensitive name regex, got %v", filter["name"])
	}

	if filter["custodian_id"] != "64a0000000000000000000cc" {
		t.Errorf("custodian clause missing, got %v", filter["custodian_id"])
	}

	tagsClause, ok := filter["tags"].(bson.M)
	if !ok {
		t.Fatalf("expected tags clause, got %v", filter["tags"])
	}
	if tags, ok := tagsClause["$all"].([]string); !ok || len(tags) != 2 {
		t.Errorf("expected $all with both tags, got %v", tagsClause["$all"])
	}

	if start, ok := filter["start_time"].(bson.M); !ok || !start["$gte"].(time.Time).Equal(after) {
		t.Errorf("expected start_time $gte clause, got %v", filter["start_time"])
	}
	if end, ok := filter["end_time"].(bson.M); !ok || !end["$lte"].(time.Time).Equal(before) {
		t.Errorf("expected end_time $lte clause, got %v", filter["end_time"])
	}
}

func TestCompileFilter_SearchIsLiteral(t *testing.T) {
	filter := compileFilter("64a0000000000000000000aa", &model.FilterDescription{
		Search: "(a+)+b",
	})

	nameClause := filter["name"].(bson.M)
	if nameClause["$regex"] == "(a+)+b" {
		t.Errorf("regex metacharacters must be quoted, got %v", nameClause["$regex"])
	}
	if nameClause["$regex"] != `\(a\+\)\+b` {
		t.Errorf("unexpected quoting: %v", nameClause["$regex"])
	}
}
