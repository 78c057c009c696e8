// Package bind decodes and validates request bodies.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
)

// ErrNoFile is returned by File when the multipart field is absent.
var ErrNoFile = errors.New("bind: file field missing")

func maxBodyBytes() int64 {
	return config.Int64("MAX_BODY_BYTES", 4<<20)
}

// JSON decodes r.Body as JSON into dest and runs validation.
// Returns (errs, nil) on validation failures and (nil, err) when the body is
// malformed or too large.
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	dec := json.NewDecoder(r.Body)
	if err = dec.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return nil, errors.New("request body is empty")
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}

// Multipart parses a multipart/form-data body of at most maxBytes (plus a
// little headroom for the text fields).
func Multipart(r *http.Request, maxBytes int64) error {
	limit := maxBytes + 1<<20
	r.Body = http.MaxBytesReader(nil, r.Body, limit)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge) {
			return fmt.Errorf("upload too large (max %d bytes)", maxBytes)
		}
		return fmt.Errorf("invalid multipart form: %w", err)
	}
	return nil
}

// File opens the uploaded file named field. Call Multipart first.
func File(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	f, h, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, ErrNoFile
	}
	if err != nil {
		return nil, nil, fmt.Errorf("bind: read %s: %w", field, err)
	}
	return f, h, nil
}
