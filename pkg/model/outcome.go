package model

// BulkFailure records a single item that could not be mutated, with the error
// code so the caller can tell a lifecycle violation from a missing row.
type BulkFailure struct {
	ItemID  string `json:"item_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BulkOutcome is the ephemeral result of one bulk call. It is returned, never
// persisted. A partially failed bulk call still succeeds at the transport
// level; the failures are enumerated here.
type BulkOutcome struct {
	OperationID string        `json:"operation_id"`
	Operation   BulkOperation `json:"operation"`
	Attempted   int           `json:"attempted"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Failures    []BulkFailure `json:"failures,omitempty"`
	// Items carries the resolved bookings for export operations only.
	Items []*Booking `json:"items,omitempty"`
}
