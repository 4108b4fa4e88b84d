package attribute

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce_Boolean(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"true", true},
		{"TRUE", true},
		{"True", true},
		{"false", false},
		{"FALSE", false},
		{"fAlSe", false},
		{"1", true},
		{"2", true},
		{"-1", true},
		{"0", false},
		{"0.0", false},
		{"0.9", false}, // truncated to 0
		{"1.5", true},
		{"-0.5", false},
		{" 3 ", true},
		{"1e30", true},
		{"-1e300", true},
		{"1e-30", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v, err := Coerce(TypeBoolean, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, TypeBoolean, v.Type())
			assert.Equal(t, tt.want, v.Bool())
		})
	}
}

func TestCoerce_BooleanInvalid(t *testing.T) {
	for _, raw := range []string{"", "yes", "on", "nan", "inf", " true"} {
		_, err := Coerce(TypeBoolean, raw)
		assert.Error(t, err, "raw %q", raw)
	}
}

func TestCoerce_Integer(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"7", 7},
		{"7.8", 7},
		{"3.9", 3},
		{"-3.9", -3},
		{"0", 0},
		{"1e3", 1000},
		{" 42 ", 42},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v, err := Coerce(TypeInteger, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, TypeInteger, v.Type())
			assert.Equal(t, tt.want, v.Int())
		})
	}
}

func TestCoerce_IntegerInvalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "1,5", "NaN", "Inf", "1e30"} {
		_, err := Coerce(TypeInteger, raw)
		assert.Error(t, err, "raw %q", raw)
	}
}

func TestCoerce_Double(t *testing.T) {
	v, err := Coerce(TypeDouble, "3.14")
	require.NoError(t, err)
	assert.Equal(t, TypeDouble, v.Type())
	assert.InDelta(t, 3.14, v.Float(), 1e-12)

	v, err = Coerce(TypeDouble, "-2e-3")
	require.NoError(t, err)
	assert.InDelta(t, -0.002, v.Float(), 1e-12)

	v, err = Coerce(TypeDouble, "inf")
	require.NoError(t, err)
	assert.True(t, math.IsInf(v.Float(), 1))

	_, err = Coerce(TypeDouble, "")
	assert.Error(t, err)

	_, err = Coerce(TypeDouble, "three")
	assert.Error(t, err)
}

func TestCoerce_StringUnchanged(t *testing.T) {
	for _, raw := range []string{"", " padded ", "true", "3.9", "ünïcode"} {
		v, err := Coerce(TypeString, raw)
		require.NoError(t, err)
		assert.Equal(t, raw, v.Text())
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	tests := []struct {
		dt   DataType
		raw  string
		want string
	}{
		{TypeBoolean, "TRUE", `true`},
		{TypeInteger, "7.8", `7`},
		{TypeDouble, "3.14", `3.14`},
		{TypeString, "a \"quoted\" text", `"a \"quoted\" text"`},
		{TypeDouble, "NaN", `"NaN"`},
		{TypeDouble, "-inf", `"-Inf"`},
	}

	for _, tt := range tests {
		v, err := Coerce(tt.dt, tt.raw)
		require.NoError(t, err)

		data, err := json.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(data), "raw %q", tt.raw)
	}
}

func TestValue_Interface(t *testing.T) {
	v, _ := Coerce(TypeInteger, "12")
	assert.Equal(t, int64(12), v.Interface())
	assert.Equal(t, "12", v.String())

	v, _ = Coerce(TypeBoolean, "0")
	assert.Equal(t, false, v.Interface())
	assert.Equal(t, "false", v.String())
}
