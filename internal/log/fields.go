package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldJobKey    = "job_key"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldRendition = "rendition"

	// State fields
	FieldOldState = "old_state"

	// Path / URL fields
	FieldPath      = "path"
	FieldSourceURL = "source_url"
	FieldOutputDir = "output_dir"
)
