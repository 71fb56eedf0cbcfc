package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies which variant of Value is populated.
type ValueKind int

const (
	KindAbsent ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "absent"
	}
}

// Value is a loosely typed answer or operand as it arrives from a respondent's
// browser: a string, a number, a boolean, a list of selections, or nothing.
// The zero Value is absent.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	list []string
}

func Absent() Value { return Value{} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsEmpty reports whether the value is absent, an empty string, or an empty list.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindAbsent:
		return true
	case KindString:
		return v.str == ""
	case KindList:
		return len(v.list) == 0
	default:
		return false
	}
}

// Text coerces the value to a string. Numbers use the shortest representation
// that round-trips, lists are joined with commas.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		return strings.Join(v.list, ",")
	default:
		return ""
	}
}

// Float coerces the value to a number. The second result is false when the
// value has no numeric interpretation; NaN and infinities never qualify.
func (v Value) Float() (float64, bool) {
	var f float64
	switch v.kind {
	case KindNumber:
		f = v.num
	case KindString:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindList:
		if len(v.list) != 1 {
			return 0, false
		}
		return String(v.list[0]).Float()
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Items returns the value as a list of selections. A non-empty scalar is a
// single selection.
func (v Value) Items() []string {
	switch v.kind {
	case KindList:
		cp := make([]string, len(v.list))
		copy(cp, v.list)
		return cp
	case KindAbsent:
		return nil
	default:
		if v.IsEmpty() {
			return nil
		}
		return []string{v.Text()}
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Absent()
		return nil
	}

	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}

	switch t := raw.(type) {
	case string:
		*v = String(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		*v = Number(f)
	case bool:
		*v = Bool(t)
	case []interface{}:
		items := make([]string, 0, len(t))
		for _, item := range t {
			switch it := item.(type) {
			case string:
				items = append(items, it)
			case json.Number:
				items = append(items, it.String())
			case bool:
				items = append(items, strconv.FormatBool(it))
			case nil:
				continue
			default:
				return fmt.Errorf("unsupported list element of type %T", item)
			}
		}
		*v = List(items...)
	default:
		return fmt.Errorf("unsupported value of type %T", raw)
	}
	return nil
}

// ValueOf converts a decoded JSON-ish Go value into a Value.
func ValueOf(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Absent()
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case float32:
		return Number(float64(t))
	case float64:
		return Number(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(f)
	case []string:
		return List(t...)
	case []interface{}:
		items := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			items = append(items, ValueOf(item).Text())
		}
		return List(items...)
	default:
		return String(fmt.Sprint(t))
	}
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
