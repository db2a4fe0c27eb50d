package handlers

import (
	"errors"
	"net/http"
	"studyplanner-backend/internal/services"
	"studyplanner-backend/internal/store"
	"studyplanner-backend/pkg/httputil"
	"studyplanner-backend/pkg/log"
)

// statusForError maps service and store sentinels to an HTTP status.
func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConfirmationRequired),
		errors.Is(err, store.ErrInvalidMessage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes the JSON error for err. Internal errors are
// logged and hidden behind fallback.
func respondServiceError(w http.ResponseWriter, component, op string, err error, fallback string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Errorf("[%s] %s: %v", component, op, err)
		httputil.RespondError(w, status, fallback)
		return
	}
	log.Debugf("[%s] %s: %v", component, op, err)
	if errors.Is(err, store.ErrNotFound) {
		httputil.RespondError(w, status, "Project or message not found")
		return
	}
	httputil.RespondError(w, status, err.Error())
}
