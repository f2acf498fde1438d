package sections

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dgallion1/guideparse/internal/doctree"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// fragmentSchema accepts a bare array of fragments or {"fragments": [...]}.
// A fragment is either flat ({"text": ...}) or a LangChain document dump
// ({"page_content": ..., "metadata": {...}}).
const fragmentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "fields": {
      "type": "object",
      "properties": {
        "text": {"type": "string"},
        "section_title": {"type": ["string", "null"]},
        "pages": {"type": ["string", "number", "array", "null"]},
        "para": {"type": ["string", "number", "null"]}
      }
    },
    "fragment": {
      "anyOf": [
        {"allOf": [{"$ref": "#/definitions/fields"}, {"required": ["text"]}]},
        {
          "type": "object",
          "required": ["page_content"],
          "properties": {
            "page_content": {"type": "string"},
            "metadata": {"$ref": "#/definitions/fields"}
          }
        }
      ]
    },
    "list": {"type": "array", "items": {"$ref": "#/definitions/fragment"}}
  },
  "oneOf": [
    {"$ref": "#/definitions/list"},
    {
      "type": "object",
      "required": ["fragments"],
      "properties": {"fragments": {"$ref": "#/definitions/list"}}
    }
  ]
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("fragments.json", strings.NewReader(fragmentSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("fragments.json")
})

// ErrInvalidFragments wraps input that is not JSON or does not match the
// fragment schema.
var ErrInvalidFragments = errors.New("invalid fragments")

// rawItem covers both accepted fragment shapes.
type rawItem struct {
	doctree.RawFragment
	PageContent *string              `json:"page_content"`
	Metadata    *doctree.RawFragment `json:"metadata"`
}

// DecodeRaw reads fragment JSON, validates it and coerces it into typed
// fragments.
func DecodeRaw(r io.Reader) ([]doctree.Fragment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read fragments: %w", err)
	}
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFragments, err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFragments, err)
	}

	var items []rawItem
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		var env struct {
			Fragments []rawItem `json:"fragments"`
		}
		err = json.Unmarshal(data, &env)
		items = env.Fragments
	} else {
		err = json.Unmarshal(data, &items)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFragments, err)
	}

	raw := make([]doctree.RawFragment, len(items))
	for i, it := range items {
		raw[i] = it.RawFragment
		if it.PageContent != nil {
			if it.Metadata != nil {
				raw[i] = *it.Metadata
			}
			raw[i].Text = *it.PageContent
		}
	}
	return FromRaw(raw), nil
}
