package logging

// Field names shared by every component so log lines can be filtered
// consistently.
const (
	FieldComponent  = "component"
	FieldFile       = "file"
	FieldBank       = "bank"
	FieldBatchID    = "batch_id"
	FieldOutcome    = "outcome"
	FieldErrorCode  = "error_code"
	FieldRow        = "row"
	FieldCount      = "count"
	FieldMovementID = "movement_id"
	FieldCategory   = "category"
	FieldKeyword    = "keyword"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
)
