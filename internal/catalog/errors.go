package catalog

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"SpareParts/pkg/kit"
)

// ValidationError rejects a request before any store call is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// writeStoreError maps the error taxonomy onto status codes. Anything not
// recognised is a store failure: logged, reported as 500 with fallback.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, fallback string, fields ...zap.Field) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		kit.WriteError(w, r, http.StatusBadRequest, ve.Msg, nil)
	case errors.Is(err, ErrNoNames):
		kit.WriteError(w, r, http.StatusBadRequest, "Please pass an array of names", nil)
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "Product with id not found", nil)
	case errors.Is(err, ErrInsufficientStock):
		kit.WriteError(w, r, http.StatusBadRequest, "Insufficient stock", nil)
	default:
		s.log().Error(fallback, append(fields, zap.Error(err))...)
		kit.WriteError(w, r, http.StatusInternalServerError, fallback, nil)
	}
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
