package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"

	"scriptorium/internal/config"
)

// maxBodyBytes leaves room for the JSON envelope around the largest allowed save
const maxBodyBytes = config.MaxDocumentContentBytes + 64<<10

// ParseJSON decodes a JSON request body into dest.
// Bodies over maxBodyBytes fail; unknown fields are rejected.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
