package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

// maxBodyBytes caps request bodies; a full score request is well under 4 KiB.
const maxBodyBytes = 64 << 10

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary         //nolint:gochecknoglobals
	validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals
)

// ErrInvalidRequest marks malformed or out-of-range input.
var ErrInvalidRequest = errors.New("invalid request")

// read decodes the request body into dest and validates it.
func read(w http.ResponseWriter, r *http.Request, dest any) error {
	return decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), dest, false)
}

// readOptional is read, but an empty body leaves dest untouched.
func readOptional(w http.ResponseWriter, r *http.Request, dest any) error {
	return decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), dest, true)
}

func decode(body io.Reader, dest any, optional bool) error {
	if err := json.NewDecoder(body).Decode(dest); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: json: %v", ErrInvalidRequest, err)
	}
	if err := validate.Struct(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}
