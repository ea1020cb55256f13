package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldScope       = "scope"
	FieldGroupID     = "group_id"
	FieldOwnerID     = "owner_id"
	FieldRecordCount = "record_count"
	FieldGeneration  = "generation"
	FieldAmountCents = "amount_cents"
	FieldTitle       = "title"
	FieldYear        = "year"
	FieldBackend     = "backend"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAggregate = "aggregate"
	ComponentStorage   = "storage"
	ComponentTracker   = "tracker"
	ComponentNotify    = "notify"
	ComponentMedia     = "media"
	ComponentReport    = "report"
	ComponentCharts    = "charts"
)
