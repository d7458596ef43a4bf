package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const maxBodyBytes = 1_048_576

type envelope map[string]any

// ReadJSON decodes a single JSON object from the request body into dst.
// Unknown fields and trailing data are rejected.
func ReadJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var typeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return badRequest(fmt.Sprintf("body contains badly-formed JSON (at character %d)", syntaxError.Offset))
		case errors.Is(err, io.ErrUnexpectedEOF):
			return badRequest("body contains badly-formed JSON")
		case errors.As(err, &typeError):
			if typeError.Field != "" {
				return badRequest(fmt.Sprintf("body contains incorrect JSON type for field %q", typeError.Field))
			}
			return badRequest(fmt.Sprintf("body contains incorrect JSON type (at character %d)", typeError.Offset))
		case errors.Is(err, io.EOF):
			return badRequest("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return badRequest("body contains unknown key " + strings.TrimPrefix(err.Error(), "json: unknown field "))
		case errors.As(err, &maxBytesError):
			return badRequest(fmt.Sprintf("body must not be larger than %d bytes", maxBodyBytes))
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("body must only contain a single JSON value")
	}
	return nil
}

// WriteJSON writes data inside the success envelope.
func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any, headers http.Header) {
	writeEnvelope(w, logger, status, envelope{"data": data, "status": status}, headers)
}

func writeEnvelope(w http.ResponseWriter, logger *slog.Logger, status int, body envelope, headers http.Header) {
	js, err := json.Marshal(body)
	if err != nil {
		logger.Error("failed to encode response", "error", err)
		http.Error(w, internalErrorMessage, http.StatusInternalServerError)
		return
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(js); err != nil {
		logger.Debug("failed to write response", "error", err)
	}
}

// ParseUUID parses a path or query parameter as a UUID.
func ParseUUID(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, badRequest(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}
