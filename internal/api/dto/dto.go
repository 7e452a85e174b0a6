// Package dto defines the request/response shapes for the HTTP API.
package dto

// APIError represents a structured error response.
// All error responses from the API use this format for consistency.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeInternalError = "internal_error"
	ErrCodeValidation    = "validation_error"
)

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code, message string) APIError {
	return APIError{Code: code, Message: message}
}

// NotFoundError creates a not found error response.
func NotFoundError(resource string) APIError {
	return NewAPIError(ErrCodeNotFound, resource+" not found")
}

// BadRequestError creates a bad request error response.
func BadRequestError(message string) APIError {
	return NewAPIError(ErrCodeBadRequest, message)
}

// InternalError creates an internal server error response.
func InternalError() APIError {
	return NewAPIError(ErrCodeInternalError, "an internal error occurred")
}

// ValidationError creates a validation error response.
func ValidationError(message string) APIError {
	return NewAPIError(ErrCodeValidation, message)
}

// TransactionPayload is a transaction on the wire. Amount stays a string so
// decimal precision survives the round trip.
type TransactionPayload struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id" binding:"required"`
	VendorName string `json:"vendor_name" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	Date       string `json:"date" binding:"required"`
}

// ComputeFeaturesRequest asks for feature maps for the given transactions
// against the given history. An empty Transactions list means "all of
// History".
type ComputeFeaturesRequest struct {
	Transactions []TransactionPayload `json:"transactions"`
	History      []TransactionPayload `json:"history" binding:"required"`
}

// FeatureRow is the computed feature map for one transaction.
type FeatureRow struct {
	TxnID    string             `json:"txn_id"`
	Features map[string]float64 `json:"features,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// ComputeFeaturesResponse carries the batch result.
type ComputeFeaturesResponse struct {
	Rows []FeatureRow `json:"rows"`
}

// TransactionListResponse is a paginated transaction listing.
type TransactionListResponse struct {
	Transactions []TransactionPayload `json:"transactions"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}
