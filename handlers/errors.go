package handlers

import (
	"errors"
	"net/http"

	"omvsetup/constants"
	"omvsetup/flow"
	"omvsetup/i18n"
	"omvsetup/logger"
	"omvsetup/state"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    int
	Message string
	Key     string
}

// Common error responses with i18n keys
var (
	ErrNotFound = ErrorResponse{
		Code:    http.StatusNotFound,
		Key:     constants.MsgErrorNotFound,
		Message: "Resource not found",
	}
	ErrBadRequest = ErrorResponse{
		Code:    http.StatusBadRequest,
		Key:     constants.MsgErrorBadRequest,
		Message: "Invalid request",
	}
	ErrInvalidInput = ErrorResponse{
		Code:    http.StatusBadRequest,
		Key:     constants.MsgErrorInvalidInput,
		Message: "The submitted values do not match the form",
	}
	ErrUnknownFlow = ErrorResponse{
		Code:    http.StatusNotFound,
		Key:     constants.MsgErrorUnknownFlow,
		Message: "This setup session has expired or does not exist",
	}
	ErrDuplicateName = ErrorResponse{
		Code:    http.StatusConflict,
		Key:     constants.MsgErrorDuplicateName,
		Message: "Another setup created an entry with this name first",
	}
	ErrInternalServer = ErrorResponse{
		Code:    http.StatusInternalServerError,
		Key:     constants.MsgErrorInternalServer,
		Message: "Internal server error",
	}
)

// errorBody is the JSON shape of an error reply.
type errorBody struct {
	Error   string `json:"error"`
	Key     string `json:"key"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// RespondWithError sends a standardized error response with i18n support
func RespondWithError(w http.ResponseWriter, r *http.Request, errResp ErrorResponse, detail string) {
	message := i18n.Localize(i18n.GetLocalizer(r), errResp.Key)
	if message == errResp.Key {
		message = errResp.Message
	}
	writeJSON(w, errResp.Code, errorBody{
		Error:   http.StatusText(errResp.Code),
		Key:     errResp.Key,
		Message: message,
		Detail:  detail,
	})
}

// respondWithFlowError maps a flow or store error to its response.
func respondWithFlowError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, flow.ErrUnknownFlow):
		RespondWithError(w, r, ErrUnknownFlow, "")
	case errors.Is(err, state.ErrEntryNotFound):
		RespondWithError(w, r, ErrNotFound, "")
	case errors.Is(err, flow.ErrInvalidInput), errors.Is(err, flow.ErrUnknownStep):
		RespondWithError(w, r, ErrInvalidInput, err.Error())
	case errors.Is(err, state.ErrDuplicateName):
		RespondWithError(w, r, ErrDuplicateName, "")
	default:
		logger.Get().Error().Err(err).Str("path", r.URL.Path).Msg("Flow step failed")
		RespondWithError(w, r, ErrInternalServer, "")
	}
}
