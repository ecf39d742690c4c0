package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/openfieldhq/webcore/internal/errors"
)

// writeServiceError renders a ServiceError as the standard JSON error body.
func writeServiceError(w http.ResponseWriter, serr *errors.ServiceError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(serr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": serr})
}
