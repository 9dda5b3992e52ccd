package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"networth/internal/core"
)

// maxBodyBytes bounds the size of a calculation payload.
const maxBodyBytes = 1 << 20

// CodeInvalidJSON marks a body that could not be decoded.
const CodeInvalidJSON = "invalid_json"

// decodeObject reads the request body as a single JSON object. Any decoding
// problem is reported as a one-element ValidationErrors.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, malformed(err)
	}
	if doc == nil {
		return nil, malformed(errors.New("expected a JSON object"))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed(errors.New("unexpected data after JSON object"))
	}
	return doc, nil
}

func malformed(err error) core.ValidationErrors {
	var tooLarge *http.MaxBytesError
	msg := err.Error()
	switch {
	case errors.As(err, &tooLarge):
		msg = fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit)
	case errors.Is(err, io.EOF):
		msg = "Request body is empty"
	}
	return core.ValidationErrors{{
		Path:    []string{},
		Message: "Malformed JSON: " + msg,
		Code:    CodeInvalidJSON,
	}}
}

// pathValue returns the trimmed route variable.
func pathValue(vars map[string]string, key string) string {
	return strings.TrimSpace(vars[key])
}
