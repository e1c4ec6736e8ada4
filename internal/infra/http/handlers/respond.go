package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xavierca1/tork-crm/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeUseCaseError traduz DomainError/TechnicalError para HTTP.
func writeUseCaseError(w http.ResponseWriter, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case usecase.CodeNotFound:
			writeError(w, http.StatusNotFound, de.Message)
		case usecase.CodeConflict:
			writeError(w, http.StatusConflict, de.Message)
		default:
			writeError(w, http.StatusUnprocessableEntity, de.Message)
		}
		return
	}
	writeError(w, http.StatusInternalServerError, "erro interno")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
