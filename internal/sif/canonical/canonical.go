// Package canonical produces a deterministic JSON encoding of a record so
// that two semantically identical payloads always hash to the same digest,
// regardless of map iteration order or how the payload was assembled.
//
// Rules: object keys sorted by codepoint, arrays kept in order, no
// whitespace, minimal string escaping, and numbers rendered with the
// ECMAScript JSON.stringify shortest-round-trip rule (plain decimal for
// magnitudes in [1e-6, 1e21), exponent notation outside, integral values
// without a fractional part). The numeric rule is pinned here so writer and
// verifier can never disagree.
package canonical

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedValue reports a payload that cannot be canonicalized:
// NaN/Inf, cyclic references, or a type outside maps/slices/primitives.
var ErrUnsupportedValue = errors.New("canonical: unsupported value")

// Marshal encodes v into its canonical byte form.
func Marshal(v any) ([]byte, error) {
	e := &encoder{seen: make(map[uintptr]struct{})}
	buf, err := e.encode(nil, v)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// String is Marshal rendered as a string.
func String(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type encoder struct {
	seen map[uintptr]struct{}
}

func (e *encoder) encode(dst []byte, v any) ([]byte, error) {
	if v == nil {
		return append(dst, "null"...), nil
	}

	switch val := v.(type) {
	case bool:
		if val {
			return append(dst, "true"...), nil
		}
		return append(dst, "false"...), nil
	case string:
		return appendString(dst, val), nil
	case int:
		return strconv.AppendInt(dst, int64(val), 10), nil
	case int8:
		return strconv.AppendInt(dst, int64(val), 10), nil
	case int16:
		return strconv.AppendInt(dst, int64(val), 10), nil
	case int32:
		return strconv.AppendInt(dst, int64(val), 10), nil
	case int64:
		return strconv.AppendInt(dst, val, 10), nil
	case uint:
		return strconv.AppendUint(dst, uint64(val), 10), nil
	case uint8:
		return strconv.AppendUint(dst, uint64(val), 10), nil
	case uint16:
		return strconv.AppendUint(dst, uint64(val), 10), nil
	case uint32:
		return strconv.AppendUint(dst, uint64(val), 10), nil
	case uint64:
		return strconv.AppendUint(dst, val, 10), nil
	case float32:
		return appendNumber(dst, float64(val))
	case float64:
		return appendNumber(dst, val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		return e.encode(dst, rv.Elem().Interface())
	case reflect.Map:
		return e.encodeMap(dst, rv)
	case reflect.Slice, reflect.Array:
		return e.encodeSequence(dst, rv)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func (e *encoder) encodeMap(dst []byte, rv reflect.Value) ([]byte, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%w: map key type %s", ErrUnsupportedValue, rv.Type().Key())
	}

	ptr := rv.Pointer()
	if _, ok := e.seen[ptr]; ok {
		return nil, fmt.Errorf("%w: cyclic reference", ErrUnsupportedValue)
	}
	e.seen[ptr] = struct{}{}
	defer delete(e.seen, ptr)

	keys := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	sort.Strings(keys)

	dst = append(dst, '{')
	for i, key := range keys {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendString(dst, key)
		dst = append(dst, ':')
		var err error
		dst, err = e.encode(dst, rv.MapIndex(reflect.ValueOf(key)).Interface())
		if err != nil {
			return nil, err
		}
	}
	return append(dst, '}'), nil
}

func (e *encoder) encodeSequence(dst []byte, rv reflect.Value) ([]byte, error) {
	if rv.Kind() == reflect.Slice && rv.Len() > 0 {
		ptr := rv.Pointer()
		if _, ok := e.seen[ptr]; ok {
			return nil, fmt.Errorf("%w: cyclic reference", ErrUnsupportedValue)
		}
		e.seen[ptr] = struct{}{}
		defer delete(e.seen, ptr)
	}

	dst = append(dst, '[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		dst, err = e.encode(dst, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
	}
	return append(dst, ']'), nil
}

// appendNumber renders f the way JSON.stringify would.
func appendNumber(dst []byte, f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: non-finite number", ErrUnsupportedValue)
	}
	if f == 0 {
		// -0 also prints as "0".
		return append(dst, '0'), nil
	}

	exp := decimalExponent(f)
	if exp >= -6 && exp < 21 {
		// Plain decimal notation for magnitudes in [1e-6, 1e21).
		return strconv.AppendFloat(dst, f, 'f', -1, 64), nil
	}

	// Exponent notation, without Go's zero-padded exponent.
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, expPart, _ := strings.Cut(s, "e")
	n, _ := strconv.Atoi(expPart)
	dst = append(dst, mantissa...)
	dst = append(dst, 'e')
	if n >= 0 {
		dst = append(dst, '+')
	}
	return strconv.AppendInt(dst, int64(n), 10), nil
}

func decimalExponent(f float64) int {
	s := strconv.FormatFloat(f, 'e', -1, 64)
	_, expPart, _ := strings.Cut(s, "e")
	n, _ := strconv.Atoi(expPart)
	return n
}

const hexDigits = "0123456789abcdef"

func appendString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for _, r := range s {
		switch r {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		default:
			if r < 0x20 {
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[r>>4], hexDigits[r&0xf])
			} else {
				dst = utf8.AppendRune(dst, r)
			}
		}
	}
	return append(dst, '"')
}
