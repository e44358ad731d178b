package models

// Error codes returned in ErrorResponse.Code.
const (
	ErrCodeBadRequest         = 40000
	ErrCodeValidation         = 40001
	ErrCodePasswordMismatch   = 40002
	ErrCodeWeakPassword       = 40003
	ErrCodeResetTokenInvalid  = 40004
	ErrCodeWrongCredentials   = 40101
	ErrCodeInactiveAccount    = 40102
	ErrCodeTokenInvalid       = 40103
	ErrCodeTokenExpired       = 40104
	ErrCodeLoginRequired      = 40105
	ErrCodeForbidden          = 40300
	ErrCodeNotFound           = 40400
	ErrCodeDuplicateIdentity  = 40901
	ErrCodeDuplicateTitle     = 40902
	ErrCodeTooManyRequests    = 42900
	ErrCodeInternal           = 50000
	ErrCodeServiceUnavailable = 50300
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code     int         `json:"code"`
	Message  string      `json:"message"`
	Fields   FieldErrors `json:"fields,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
	// Input echoes the submitted form so a client can redisplay it.
	Input any `json:"input,omitempty"`
}

// StatusResponse is the JSON body of every successful command.
type StatusResponse struct {
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Data     any    `json:"data,omitempty"`
}
