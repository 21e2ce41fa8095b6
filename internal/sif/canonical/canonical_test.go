package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarshalSortsKeysRecursively(t *testing.T) {
	got, err := String(map[string]any{
		"b": 1,
		"a": map[string]any{
			"z": true,
			"m": "x",
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, `{"a":{"m":"x","z":true},"b":1}`, got)
}

func TestMarshalKeepsArrayOrder(t *testing.T) {
	got, err := String(map[string]any{
		"lines": []any{3, 1, 2},
	})
	assert.NoError(t, err)
	assert.Equal(t, `{"lines":[3,1,2]}`, got)
}

func TestMarshalIsDeterministic(t *testing.T) {
	payload := map[string]any{
		"series":   "2024",
		"number":   int64(2),
		"lines":    []map[string]any{{"quantity": 20.0, "unitPrice": 50.0}},
		"taxRate":  -15.0,
		"notes":    "Gracias por su confianza.",
		"discount": map[string]any{"type": "percentage", "value": 5.0},
	}
	first, err := String(payload)
	assert.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := String(payload)
		assert.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMarshalNumbers(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{0.0, "0"},
		{float64(42), "42"},
		{-15.0, "-15"},
		{21.5, "21.5"},
		{0.1, "0.1"},
		{1234.56, "1234.56"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{0.000001, "0.000001"},
		{0.0000001, "1e-7"},
		{-2.5e-9, "-2.5e-9"},
		{int64(9007199254740993), "9007199254740993"},
	}
	for _, tc := range cases {
		got, err := String(tc.in)
		assert.NoError(t, err)
		assert.Equal(t, tc.want, got, "value %v", tc.in)
	}
}

func TestMarshalNegativeZero(t *testing.T) {
	got, err := String(negativeZero())
	assert.NoError(t, err)
	assert.Equal(t, "0", got)
}

func negativeZero() float64 {
	zero := 0.0
	return -zero
}

func TestMarshalStringEscaping(t *testing.T) {
	got, err := String("a\"b\\c\nd\te\x01f€ñ")
	assert.NoError(t, err)
	assert.Equal(t, `"a\"b\\c\nd\te\u0001f€ñ"`, got)
}

func TestMarshalNullAndBool(t *testing.T) {
	got, err := String(map[string]any{"a": nil, "b": true, "c": false})
	assert.NoError(t, err)
	assert.Equal(t, `{"a":null,"b":true,"c":false}`, got)
}

func TestMarshalRejectsUnsupported(t *testing.T) {
	for _, v := range []any{
		func() {},
		make(chan int),
		struct{ A int }{1},
		map[int]string{1: "x"},
	} {
		_, err := Marshal(v)
		assert.ErrorIs(t, err, ErrUnsupportedValue, "value %T", v)
	}
}

func TestMarshalRejectsNonFinite(t *testing.T) {
	inf := 1.0
	inf /= 0.0 // +Inf without a constant division
	_, err := Marshal(inf)
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestMarshalRejectsCycles(t *testing.T) {
	m := map[string]any{}
	m["self"] = m
	_, err := Marshal(m)
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}
