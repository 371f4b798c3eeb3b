package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/rfp-agent/internal/common"
)

type errorResponse struct {
	Error  string                   `json:"error"`
	Reason string                   `json:"reason,omitempty"`
	Fields []common.ValidationError `json:"fields,omitempty"`
}

func writeJson(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJson(w, code, errorResponse{Error: err.Error(), Reason: common.ReasonCode(extractionErr(err))})
}

// writeValidation reports every failed field alongside the combined message.
func writeValidation(w http.ResponseWriter, v *common.Validator) {
	writeJson(w, http.StatusBadRequest, errorResponse{Error: v.Error().Error(), Fields: v.Errors()})
}

// extractionErr keeps only errors from the extraction taxonomy so the
// reason field is not reported as Internal for every other failure.
func extractionErr(err error) error {
	for _, target := range []error{
		common.ErrFileNotFound, common.ErrUnsupportedType, common.ErrToolNotAvailable,
		common.ErrToolInvocation, common.ErrParse, common.ErrEmptyResult,
	} {
		if errors.Is(err, target) {
			return err
		}
	}
	return nil
}

// statusFor maps a pipeline error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrFileNotFound), errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnsupportedType), errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrParse), errors.Is(err, common.ErrEmptyResult):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrToolNotAvailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
