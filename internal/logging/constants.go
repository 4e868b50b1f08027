package logging

// Field names shared by every component so categorization decisions, training
// runs and HTTP requests can be filtered on the same keys.
const (
	FieldCategory    = "category"
	FieldConfidence  = "confidence"
	FieldSource      = "source"
	FieldReason      = "reason"
	FieldOperation   = "operation"
	FieldStatus      = "status"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
	FieldCount       = "count"
	FieldRunID       = "run_id"
	FieldAccuracy    = "accuracy"
	FieldProvider    = "provider"
	FieldLocation    = "location"
	FieldIntent      = "intent"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldInputFile   = "input_file"
	FieldOutputFile  = "output_file"
	FieldSchedule    = "schedule"
	FieldDescription = "description"
	FieldMerchant    = "merchant"
)
