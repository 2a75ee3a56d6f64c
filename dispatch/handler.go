package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/petal-labs/modalmcp/tool"
)

// Handler implements one tool. Decode converts validated input into the
// handler's input model; Invoke runs the tool with that model.
type Handler interface {
	Decode(input tool.Input) (any, error)
	Invoke(ctx context.Context, input any) (map[string]any, error)
}

// HandlerFunc adapts a function over raw input to a Handler.
type HandlerFunc func(ctx context.Context, input tool.Input) (map[string]any, error)

// Decode returns input unchanged.
func (f HandlerFunc) Decode(input tool.Input) (any, error) {
	return input, nil
}

// Invoke calls f.
func (f HandlerFunc) Invoke(ctx context.Context, input any) (map[string]any, error) {
	in, _ := input.(tool.Input)
	return f(ctx, in)
}

type typedHandler[T any] struct {
	fn func(context.Context, T) (map[string]any, error)
}

// Typed builds a Handler whose input is decoded into T via encoding/json.
// Undeclared fields are ignored.
func Typed[T any](fn func(context.Context, T) (map[string]any, error)) Handler {
	return typedHandler[T]{fn: fn}
}

func (h typedHandler[T]) Decode(input tool.Input) (any, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("dispatch: encode input: %w", err)
	}
	var out T
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h typedHandler[T]) Invoke(ctx context.Context, input any) (map[string]any, error) {
	typed, ok := input.(T)
	if !ok {
		return nil, fmt.Errorf("dispatch: handler input has type %T", input)
	}
	return h.fn(ctx, typed)
}
