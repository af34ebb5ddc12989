// Package pkgText decodes the text stored in each package blob into an
// ordered field map.
//
// Blobs are newline separated Key=Value lines. Values are quoted
// strings, bare scalars, or {...} blocks; a block whose first entry is
// Key=Value is a map, anything else is a list.
package pkgText

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Value is one field value. The zero Value is the empty string.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	b    bool
	list []Value
	m    *Map
}

func String(s string) Value { return Value{kind: KindString, str: s} }
func Int(i int64) Value { return Value{kind: KindInt, num: i} }
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func List(items ...Value) Value { return Value{kind: KindList, list: items} }
func MapValue(m *Map) Value { return Value{kind: KindMap, m: m} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsZeroString() bool { return v.kind == KindString && v.str == "" }

// Str returns the string payload; ok is false for non-strings.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.num, true
}

func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.flt, true
	case KindInt:
		return float64(v.num), true
	}
	return 0, false
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsList returns the list items. The slice is shared with v.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

func (v Value) AsMap() (*Map, bool) {
	if v.kind != KindMap || v.m == nil {
		return nil, false
	}
	return v.m, true
}

// DeepClone copies nested lists and maps.
func (v Value) DeepClone() Value {
	switch v.kind {
	case KindList:
		items := make([]Value, len(v.list))
		for i, item := range v.list {
			items[i] = item.DeepClone()
		}
		return List(items...)
	case KindMap:
		if v.m == nil {
			return MapValue(NewMap())
		}
		return MapValue(v.m.DeepClone())
	}
	return v
}

// Interface converts v into plain Go values (string, int64, float64,
// bool, []any, map[string]any) for encoders.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		if v.m == nil {
			return map[string]any{}
		}
		return v.m.Interface()
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return fmt.Sprintf("%v", v.Interface())
}

// Map is an insertion-ordered field map.
type Map struct {
	keys []string
	vals map[string]Value
}

func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

func (m *Map) Len() int { return len(m.keys) }

// Keys returns field names in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// GetString returns the field if it is a string, else "".
func (m *Map) GetString(key string) string {
	v, ok := m.vals[key]
	if !ok {
		return ""
	}
	s, _ := v.Str()
	return s
}

// Set overwrites in place; a new key is appended.
func (m *Map) Set(key string, v Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

func (m *Map) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Overlay copies every field of other onto m. Nested maps are replaced,
// not merged.
func (m *Map) Overlay(other *Map) {
	for _, k := range other.keys {
		m.Set(k, other.vals[k])
	}
}

func (m *Map) DeepClone() *Map {
	out := &Map{
		keys: make([]string, len(m.keys)),
		vals: make(map[string]Value, len(m.vals)),
	}
	copy(out.keys, m.keys)
	for k, v := range m.vals {
		out.vals[k] = v.DeepClone()
	}
	return out
}

func (m *Map) Interface() map[string]any {
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = m.vals[k].Interface()
	}
	return out
}

func (m *Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Interface())
}
