package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldEventID    = "event_id"
	FieldEventDate  = "event_date"
	FieldVenue      = "venue"
	FieldManager    = "manager"
	FieldPriceCents = "price_cents"
	FieldObjectPath = "object_path"
	FieldSection    = "section"
	FieldGCalID     = "gcal_event_id"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentCalendar = "calendar"
	ComponentMedia    = "media"
	ComponentReminder = "reminder"
	ComponentCache    = "cache"
	ComponentSecurity = "security"
)
