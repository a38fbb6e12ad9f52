// Package wire converts between the local lowerCamelCase JSON field names and
// the snake_case names the backend speaks.
//
// Local types carry lowerCamel json tags (or none, in which case the Go field
// name is used). Marshal rewrites every object key to snake_case after
// encoding; Unmarshal rewrites every key to lowerCamel before decoding, so
// encoding/json's case-insensitive field matching lines it up with either
// form of local name.
package wire

import (
	"bytes"
	"encoding/json"

	"github.com/iancoleman/strcase"
)

// Marshal encodes v with snake_case object keys.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	tree, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rekey(tree, strcase.ToSnake))
}

// Unmarshal decodes snake_case data into v.
func Unmarshal(data []byte, v any) error {
	tree, err := parse(data)
	if err != nil {
		return err
	}
	converted, err := json.Marshal(rekey(tree, strcase.ToLowerCamel))
	if err != nil {
		return err
	}
	return json.Unmarshal(converted, v)
}

// parse keeps numbers as json.Number so large ids survive the round trip.
func parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func rekey(node any, convert func(string) string) any {
	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[convert(k)] = rekey(v, convert)
		}
		return out
	case []any:
		for i, v := range n {
			n[i] = rekey(v, convert)
		}
		return n
	default:
		return node
	}
}
