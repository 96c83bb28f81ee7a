package dto

import "time"

// ErrorResponse is the JSON body returned on every non-2xx API response.
type ErrorResponse struct {
	Message      string    `json:"message" example:"invalid filter"`
	ErrorDetails string    `json:"error_details,omitempty" example:"limit must be between 1 and 100"`
	Timestamp    time.Time `json:"timestamp"`
}

// Error implements error so handlers can push it through c.Error.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}

// NewErrorResponse builds an ErrorResponse stamped with the current time.
// err may be nil.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}
