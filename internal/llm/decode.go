package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrNoJSON is returned when model output contains no JSON object.
	ErrNoJSON = errors.New("no JSON object in model output")
	// ErrInvalidJSON is returned when the JSON object cannot be decoded.
	ErrInvalidJSON = errors.New("invalid JSON in model output")
	// ErrSchema is returned when the decoded object violates its schema.
	ErrSchema = errors.New("model output does not match schema")
)

// MustCompileSchema compiles a Draft 2020-12 JSON Schema held in src.
// It panics on invalid schemas, which are programming errors.
func MustCompileSchema(name, src string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://execassist.schemas.local/%s.schema.json", name)
	if err := c.AddResource(url, strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return c.MustCompile(url)
}

// DecodeObject extracts the JSON object from model output and decodes it
// into a generic map.
func DecodeObject(text string) (map[string]interface{}, error) {
	raw := JSONObject(text)
	if raw == "" {
		return nil, ErrNoJSON
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return obj, nil
}

// Validate checks obj against schema and, on success, decodes it into out.
func Validate(schema *jsonschema.Schema, obj map[string]interface{}, out interface{}) error {
	if err := schema.Validate(obj); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}
