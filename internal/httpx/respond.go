package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/PLManuel/Mitikas-sub000/internal/fault"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the fault taxonomy onto status codes; anything untagged is
// an internal error and its detail stays out of the response body.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch fault.KindOf(err) {
	case fault.KindNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case fault.KindInvalid:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case fault.KindForbidden:
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case fault.KindConflict:
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		slog.Error("request failed", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
