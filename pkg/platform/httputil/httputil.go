// Package httputil centralizes JSON response and error envelope writing
// so every handler produces the same shapes.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "cedent/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes the benign-outcome envelope: a 200 with a message
// body. Used for no-applicable-treaty, no-risk-ceded and no-allocation
// results, which are legitimate outcomes rather than faults.
func WriteMessage(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

// WriteError translates a domain error into the JSON error envelope.
// Internal errors omit the description so internals don't leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	if dErrors.IsBenign(err) {
		WriteMessage(w, dErrors.MessageOf(err))
		return
	}

	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		if msg := dErrors.MessageOf(err); msg != "" {
			body["error_description"] = msg
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
