package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"

	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/perm"
)

var (
	wordType = reflect.TypeOf(perm.Word(nil))
	permType = reflect.TypeOf(perm.Perm(nil))
)

// parseStrings lets words and permutations arrive as "1,2,1" strings.
func parseStrings(from, to reflect.Type, data any) (any, error) {
	s, ok := data.(string)
	if !ok || from.Kind() != reflect.String {
		return data, nil
	}
	switch to {
	case wordType:
		return perm.ParseWord(s)
	case permType:
		return perm.Parse(s)
	}
	return data, nil
}

// decode reads a JSON body into dst. On failure it writes the error response
// and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, errs.New(errs.ErrCodeResourceExhausted, "request body exceeds %d bytes", maxBodyBytes))
			return false
		}
		s.writeError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "malformed JSON body"))
		return false
	}

	md, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  parseStrings,
		ErrorUnused: true,
		Result:      dst,
	})
	if err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInternal, err, "build decoder"))
		return false
	}
	if err := md.Decode(raw); err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid request"))
		return false
	}
	return true
}

func itoa(i int) string { return strconv.Itoa(i) }
