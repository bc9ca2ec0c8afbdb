package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Input schemas for each mutation. Unknown properties are ignored so older
// clients keep working.
const (
	createTodoSchema = `{
		"type": "object",
		"required": ["title"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"description": {"type": ["string", "null"]}
		}
	}`

	updateTodoSchema = `{
		"type": "object",
		"required": ["id"],
		"properties": {
			"id": {"type": "integer", "minimum": 1},
			"title": {"type": "string", "minLength": 1},
			"description": {"type": ["string", "null"]},
			"completed": {"type": "boolean"}
		}
	}`

	idOnlySchema = `{
		"type": "object",
		"required": ["id"],
		"properties": {
			"id": {"type": "integer", "minimum": 1}
		}
	}`
)

func compileSchema(name, source string) *jsonschema.Schema {
	return jsonschema.MustCompileString(name+".json", source)
}

// validateInput checks raw against schema and returns a message naming the
// first offending field.
func validateInput(schema *jsonschema.Schema, raw []byte) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return errors.New("input is required")
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var doc interface{}
	if err := decoder.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return errors.New(firstCause(ve))
		}
		return err
	}
	return nil
}

func firstCause(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}

	field := strings.TrimPrefix(ve.InstanceLocation, "/")
	if field == "" {
		return ve.Message
	}
	return fmt.Sprintf("%s: %s", strings.ReplaceAll(field, "/", "."), ve.Message)
}
