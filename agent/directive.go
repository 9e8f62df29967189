package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var errTrailingData = errors.New("unexpected data after JSON value")

// Directive is a tool call the model embedded in its text.
type Directive struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
}

// directiveSchema is the shape a parsed object must have to be acted upon.
// A non-string tool is still dispatched so the model hears it is unknown.
var directiveSchema = mustSchema(`{
	"type": "object",
	"required": ["tool", "params"],
	"properties": {
		"tool":   {"type": ["string", "number", "boolean"]},
		"params": {"type": "object"}
	}
}`)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(err)
	}
	return schema
}

// ExtractJSON parses the span from the first '{' to the last '}' of text.
// It reports false when either brace is missing or the span is not valid
// JSON. Sibling objects, or braces in prose after the directive, widen the
// span and make the parse fail; that case is treated as "no directive".
func ExtractJSON(text string) (any, bool) {
	span, ok := jsonSpan(text)
	if !ok {
		return nil, false
	}
	var v any
	if err := decode(span, &v); err != nil {
		return nil, false
	}
	return v, true
}

// ParseDirective extracts an actionable tool call from model text: an
// object with a scalar "tool" and an object "params".
func ParseDirective(text string) (Directive, bool) {
	span, ok := jsonSpan(strings.TrimSpace(text))
	if !ok {
		return Directive{}, false
	}

	result, err := directiveSchema.Validate(gojsonschema.NewStringLoader(span))
	if err != nil || !result.Valid() {
		return Directive{}, false
	}

	var raw struct {
		Tool   any            `json:"tool"`
		Params map[string]any `json:"params"`
	}
	if err := decode(span, &raw); err != nil {
		return Directive{}, false
	}
	return Directive{Tool: toolName(raw.Tool), Params: raw.Params}, true
}

func toolName(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return ""
}

func jsonSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// decode keeps numbers as json.Number so parsed values stay exact.
func decode(s string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errTrailingData
	}
	return nil
}
