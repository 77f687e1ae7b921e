// Package llmjson pulls structured answers out of free-form model output.
//
// Models are asked to reply with a JSON object, but they often wrap it in
// prose or code fences and quote numbers as strings. Extract finds the
// first balanced object, Decode maps it onto a struct with weak typing,
// and Schema renders a JSON schema to embed in prompts.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/mitchellh/mapstructure"
)

// ErrNoObject is returned when the text holds no balanced JSON object.
var ErrNoObject = errors.New("no JSON object found")

// Extract returns the first balanced {...} block in text.
func Extract(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoObject
}

// Decode extracts the first object in text and decodes it into out,
// matching fields by their json tags. Numeric strings are accepted for
// numeric fields.
func Decode(text string, out any) error {
	raw, err := Extract(text)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return fmt.Errorf("invalid JSON object: %w", err)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("unexpected JSON shape: %w", err)
	}
	return nil
}

var schemas sync.Map // reflect.Type -> string

// Schema renders the JSON schema of v's type for inclusion in a prompt.
func Schema(v any) string {
	t := reflect.TypeOf(v)
	if cached, ok := schemas.Load(t); ok {
		return cached.(string)
	}
	ref, err := openapi3gen.NewSchemaRefForValue(v, nil)
	if err != nil || ref == nil || ref.Value == nil {
		return "{}"
	}
	b, err := json.Marshal(ref.Value)
	if err != nil {
		return "{}"
	}
	s := string(b)
	schemas.Store(t, s)
	return s
}
