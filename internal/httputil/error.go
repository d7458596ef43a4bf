package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/smkcup/kart-tournament/internal/service"
	"github.com/smkcup/kart-tournament/internal/store"
	"github.com/smkcup/kart-tournament/internal/token"
)

const internalErrorMessage = "the server encountered a problem and could not process your request"

// ErrBadRequest marks malformed requests: unreadable bodies and bad path or
// query parameters.
var ErrBadRequest = errors.New("bad request")

// Status maps an error from any layer to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInsufficientPlayers),
		errors.Is(err, service.ErrMatchCompleted):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrVersionConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Error writes the error envelope for err. Server errors are logged with the
// request and answered with a generic message.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		InternalServerError(w, r, logger, err)
		return
	}

	body := envelope{"error": err.Error(), "status": status}
	var conflict *store.VersionConflictError
	if errors.As(err, &conflict) {
		body["currentVersion"] = conflict.Current
	}
	if field := validationField(err); field != "" {
		body["field"] = field
	}

	logger.Warn("request rejected",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	writeEnvelope(w, logger, status, body, nil)
}

func validationField(err error) string {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return verr.Field
	}
	return ""
}

func InternalServerError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Error("internal server error",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeEnvelope(w, logger, http.StatusInternalServerError, envelope{
		"error":  internalErrorMessage,
		"status": http.StatusInternalServerError,
	}, nil)
}

func BadRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string) {
	Error(w, r, logger, badRequest(msg))
}

func NotFound(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	Error(w, r, logger, store.ErrNotFound)
}

func TooManyRequests(w http.ResponseWriter, logger *slog.Logger) {
	writeEnvelope(w, logger, http.StatusTooManyRequests, envelope{
		"error":  "too many requests",
		"status": http.StatusTooManyRequests,
	}, nil)
}

type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return ErrBadRequest }

func badRequest(msg string) error {
	return &requestError{msg: msg}
}
