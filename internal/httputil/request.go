package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes bounds a request body. A full grid save of a few thousand
// rows fits comfortably.
const MaxBodyBytes = 10 << 20

// ErrEmptyBody is returned by ParseJSON when the body has no content.
var ErrEmptyBody = errors.New("request body is empty")

// ParseJSON decodes the request body into dest. Unknown top-level fields
// are ignored; row cells are checked against the column schema downstream.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
