package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/erazemk/trznica/internal/demand"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// demandError maps a demand operation error to its HTTP status.
func demandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, demand.ErrValidation):
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, demand.ErrForbidden):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, demand.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, demand.ErrInvalidState):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		jsonError(w, http.StatusInternalServerError, "internal server error")
	}
}

// pathID returns the {id} path value if it is a well-formed id.
func pathID(r *http.Request) (string, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
