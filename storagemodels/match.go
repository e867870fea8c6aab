/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"strings"

	"github.com/spf13/cast"
)

// Match reports whether row satisfies every condition.
func Match(row Row, conds []Condition) bool {
	for _, c := range conds {
		if !matchOne(row.value(c.Field), c) {
			return false
		}
	}
	return true
}

func matchOne(v any, c Condition) bool {
	switch c.Operator {
	case OpEq:
		return compare(v, c.Value) == 0
	case OpNeq:
		// NULL never compares unequal to a value.
		if c.Value == nil {
			return v != nil
		}
		return v != nil && compare(v, c.Value) != 0
	case OpGt:
		return v != nil && compare(v, c.Value) > 0
	case OpGte:
		return v != nil && compare(v, c.Value) >= 0
	case OpLt:
		return v != nil && compare(v, c.Value) < 0
	case OpLte:
		return v != nil && compare(v, c.Value) <= 0
	case OpIn:
		values, err := cast.ToStringSliceE(c.Value)
		if err != nil {
			return false
		}
		s := cast.ToString(v)
		for _, candidate := range values {
			if candidate == s {
				return true
			}
		}
		return false
	}
	return false
}

// compare orders two loosely typed values. nil sorts first; numbers compare numerically
// when both sides convert, everything else compares as strings.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if isNumber(a) || isNumber(b) {
		fa, errA := cast.ToFloat64E(a)
		fb, errB := cast.ToFloat64E(b)
		if errA == nil && errB == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, err := cast.ToBoolE(b); err == nil {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(cast.ToString(a), cast.ToString(b))
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}
