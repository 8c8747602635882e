package domain

// FieldEventRequest is a change or blur on a top-level field
type FieldEventRequest struct {
	Field string `json:"field" binding:"required,oneof=firstname lastname email phoneNumber"`
	Value string `json:"value"`
	// Event defaults to "change"
	Event string `json:"event" binding:"omitempty,oneof=change blur"`
}

// EntryFieldRequest edits one field of a repeatable-section entry
type EntryFieldRequest struct {
	Field string `json:"field" binding:"required,max=32"`
	Value string `json:"value" binding:"max=2000"`
}

// ReadinessResponse reports the submission gate
type ReadinessResponse struct {
	Blocked bool `json:"blocked"`
}
