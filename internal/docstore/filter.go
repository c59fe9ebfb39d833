package docstore

import (
	"fmt"
	"strings"
)

// Op is a comparison operator accepted by Query.
type Op string

const (
	OpEqual        Op = "=="
	OpNotEqual     Op = "!="
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
	OpIn           Op = "in"
)

// Filter selects documents whose top-level Field compares to Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds a Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Validate checks the operator and field and normalizes Value.
func (f Filter) Validate() (Filter, error) {
	if f.Field == "" || strings.ContainsAny(f.Field, ".$ ") {
		return f, fmt.Errorf("%w: field %q", ErrInvalidFilter, f.Field)
	}
	switch f.Op {
	case OpEqual, OpNotEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
	case OpIn:
	default:
		return f, fmt.Errorf("%w: operator %q", ErrInvalidFilter, f.Op)
	}
	v, err := Normalize(f.Value)
	if err != nil {
		return f, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if f.Op == OpIn {
		if _, ok := v.([]any); !ok {
			return f, fmt.Errorf("%w: operator in needs a list value", ErrInvalidFilter)
		}
	}
	f.Value = v
	return f, nil
}

// Match evaluates a validated filter against a document in memory.
func (f Filter) Match(data map[string]any) bool {
	got, present := data[f.Field]
	switch f.Op {
	case OpEqual:
		return present && equalValues(got, f.Value)
	case OpNotEqual:
		return present && !equalValues(got, f.Value)
	case OpIn:
		if !present {
			return false
		}
		for _, candidate := range f.Value.([]any) {
			if equalValues(got, candidate) {
				return true
			}
		}
		return false
	}
	if !present {
		return false
	}
	c, ok := compareValues(got, f.Value)
	if !ok {
		return false
	}
	switch f.Op {
	case OpLess:
		return c < 0
	case OpLessEqual:
		return c <= 0
	case OpGreater:
		return c > 0
	case OpGreaterEqual:
		return c >= 0
	}
	return false
}

func equalValues(a, b any) bool {
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return false
}

// compareValues orders two normalized scalars of the same kind.
func compareValues(a, b any) (int, bool) {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}
