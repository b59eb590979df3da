package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

// ErrMalformedOutput marks model output that is not JSON or does not match
// the requested schema.
var ErrMalformedOutput = errors.New("malformed model output")

// DecodeJSON validates raw model output against schema and decodes it into
// out. Decoding is weakly typed so "5" fills an int field.
func DecodeJSON(raw string, schema map[string]any, out any) error {
	var data any
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &data); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	if err := Validate(schema, data); err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "json",
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

// Validate checks already-decoded data against a JSON schema.
func Validate(schema map[string]any, data any) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrMalformedOutput, strings.Join(msgs, "; "))
	}
	return nil
}
