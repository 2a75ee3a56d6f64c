package tool

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Input is a JSON object that keeps its keys in the order they were decoded.
// Nested objects decode as Input as well and arrays decode as []any, so the
// caller's key order survives validation and re-encoding.
type Input struct {
	keys   []string
	values map[string]any
}

// NewInput builds an Input from a plain map. Go maps carry no order, so keys
// are sorted to keep encoding deterministic.
func NewInput(values map[string]any) Input {
	var in Input
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		in.Set(key, fromPlain(values[key]))
	}
	return in
}

func fromPlain(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return NewInput(typed)
	case map[string]string:
		plain := make(map[string]any, len(typed))
		for key, value := range typed {
			plain[key] = value
		}
		return NewInput(plain)
	case []any:
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = fromPlain(value)
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = value
		}
		return out
	default:
		return v
	}
}

// Len returns the number of keys.
func (in Input) Len() int { return len(in.keys) }

// Keys returns the keys in insertion order.
func (in Input) Keys() []string { return slices.Clone(in.keys) }

// Get returns the value stored under key.
func (in Input) Get(key string) (any, bool) {
	value, ok := in.values[key]
	return value, ok
}

// Set stores value under key. New keys are appended; existing keys keep their position.
func (in *Input) Set(key string, value any) {
	if in.values == nil {
		in.values = make(map[string]any)
	}
	if _, exists := in.values[key]; !exists {
		in.keys = append(in.keys, key)
	}
	in.values[key] = value
}

// Delete removes key if present.
func (in *Input) Delete(key string) {
	if _, exists := in.values[key]; !exists {
		return
	}
	delete(in.values, key)
	in.keys = slices.DeleteFunc(in.keys, func(k string) bool { return k == key })
}

// Clone returns a deep copy.
func (in Input) Clone() Input {
	var out Input
	for _, key := range in.keys {
		out.Set(key, cloneValue(in.values[key]))
	}
	return out
}

// Map converts the Input, including nested objects, into plain maps.
func (in Input) Map() map[string]any {
	out := make(map[string]any, len(in.keys))
	for _, key := range in.keys {
		out[key] = toPlain(in.values[key])
	}
	return out
}

func toPlain(v any) any {
	switch typed := v.(type) {
	case Input:
		return typed.Map()
	case []any:
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = toPlain(value)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON encodes the object with keys in insertion order.
func (in Input) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range in.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		encodedValue, err := json.Marshal(in.values[key])
		if err != nil {
			return nil, fmt.Errorf("tool: encode input %q: %w", key, err)
		}
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, remembering key order. A JSON null
// decodes to an empty Input.
func (in *Input) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("tool: decode input: %w", err)
	}
	if tok == nil {
		*in = Input{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("tool: input must be a JSON object")
	}
	out, err := decodeInputObject(dec)
	if err != nil {
		return err
	}
	*in = out
	return nil
}

func decodeInputObject(dec *json.Decoder) (Input, error) {
	var out Input
	out.values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Input{}, fmt.Errorf("tool: decode input key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return Input{}, fmt.Errorf("tool: unexpected input key token %v", tok)
		}
		value, err := decodeInputValue(dec)
		if err != nil {
			return Input{}, err
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return Input{}, fmt.Errorf("tool: decode input: %w", err)
	}
	return out, nil
}

func decodeInputValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("tool: decode input value: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		return decodeInputObject(dec)
	case '[':
		items := make([]any, 0)
		for dec.More() {
			item, err := decodeInputValue(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("tool: decode input array: %w", err)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("tool: unexpected delimiter %q in input", delim)
	}
}
