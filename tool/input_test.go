package tool

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestInputUnmarshalPreservesOrder(t *testing.T) {
	var in Input
	data := []byte(`{"zeta":"1","alpha":{"b":2,"a":[1,{"y":true,"x":null}]},"mid":false}`)
	if err := json.Unmarshal(data, &in); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if !slices.Equal(in.Keys(), []string{"zeta", "alpha", "mid"}) {
		t.Fatalf("Keys() = %v, want [zeta alpha mid]", in.Keys())
	}
	nested, ok := in.Get("alpha")
	if !ok {
		t.Fatal("Get(alpha) missing")
	}
	nestedInput, ok := nested.(Input)
	if !ok {
		t.Fatalf("alpha type = %T, want Input", nested)
	}
	if !slices.Equal(nestedInput.Keys(), []string{"b", "a"}) {
		t.Fatalf("nested Keys() = %v, want [b a]", nestedInput.Keys())
	}

	encoded, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(encoded) != string(data) {
		t.Fatalf("round trip = %s, want %s", encoded, data)
	}
}

func TestInputUnmarshalRejectsNonObject(t *testing.T) {
	var in Input
	if err := json.Unmarshal([]byte(`["a"]`), &in); err == nil {
		t.Fatal("expected error for array input")
	}
	if err := json.Unmarshal([]byte(`null`), &in); err != nil {
		t.Fatalf("json.Unmarshal(null) error = %v", err)
	}
	if in.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", in.Len())
	}
}

func TestInputZeroValueEncodesEmptyObject(t *testing.T) {
	encoded, err := json.Marshal(CallRequest{ToolName: "t"})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(encoded) != `{"tool_name":"t","tool_input":{}}` {
		t.Fatalf("encoded = %s", encoded)
	}
}

func TestNewInputSortsKeysAndConvertsNested(t *testing.T) {
	in := NewInput(map[string]any{
		"b": map[string]any{"d": 1, "c": 2},
		"a": []any{map[string]any{"k": "v"}},
	})
	if !slices.Equal(in.Keys(), []string{"a", "b"}) {
		t.Fatalf("Keys() = %v, want [a b]", in.Keys())
	}
	b, _ := in.Get("b")
	if _, ok := b.(Input); !ok {
		t.Fatalf("b type = %T, want Input", b)
	}
	plain := in.Map()
	if _, ok := plain["b"].(map[string]any); !ok {
		t.Fatalf("Map()[b] type = %T, want map[string]any", plain["b"])
	}
}

func TestInputSetDeleteClone(t *testing.T) {
	var in Input
	in.Set("a", 1)
	in.Set("b", 2)
	in.Set("a", 3)
	if !slices.Equal(in.Keys(), []string{"a", "b"}) {
		t.Fatalf("Keys() = %v, want [a b]", in.Keys())
	}
	clone := in.Clone()
	clone.Set("c", 4)
	in.Delete("a")
	if !slices.Equal(in.Keys(), []string{"b"}) {
		t.Fatalf("Keys() after delete = %v, want [b]", in.Keys())
	}
	if !slices.Equal(clone.Keys(), []string{"a", "b", "c"}) {
		t.Fatalf("clone Keys() = %v, want [a b c]", clone.Keys())
	}
	if v, _ := clone.Get("a"); v != 3 {
		t.Fatalf("clone a = %v, want 3", v)
	}
}

func TestCallResponseEncodesNullError(t *testing.T) {
	encoded, err := json.Marshal(SuccessResponse("modal_run", nil))
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(encoded) != `{"tool_name":"modal_run","tool_output":{},"error":null}` {
		t.Fatalf("encoded = %s", encoded)
	}

	failed := FailureResponse("nope", "Unknown tool: nope")
	if !failed.Failed() {
		t.Fatal("Failed() = false, want true")
	}
	encoded, err = json.Marshal(failed)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(encoded) != `{"tool_name":"nope","tool_output":{},"error":"Unknown tool: nope"}` {
		t.Fatalf("encoded = %s", encoded)
	}
}
