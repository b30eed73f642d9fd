package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeInvalidPayload = "invalid_payload"
	ErrCodeUnknownEvent   = "unknown_event"

	// Gameplay errors
	ErrCodeInvalidChoice = "invalid_choice"
	ErrCodeInvalidState  = "invalid_state"

	// Resource errors
	ErrCodeNotFound         = "not_found"
	ErrCodeScenarioNotFound = "scenario_not_found"
	ErrCodeSessionNotFound  = "session_not_found"
	ErrCodeSessionLimit     = "session_limit_reached"

	// WebSocket errors
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeConnectionError    = "connection_error"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)
