package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgValidation         = "Validation failed"
	ErrMsgNotFound           = "not found"
	ErrMsgPermissionDenied   = "permission denied"
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgInvalidCredentials = "Invalid credentials"
	ErrMsgInvitationRejected = "Invalid or already used credentials"
	ErrMsgInternal           = "Internal server error"
)
