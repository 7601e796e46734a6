package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWei(t *testing.T) {
	w, err := ParseWei("1000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", w.String())

	_, err = ParseWei("-5")
	assert.Error(t, err)

	_, err = ParseWei("abc")
	assert.Error(t, err)

	_, err = ParseWei("")
	assert.Error(t, err)
}

func TestWei_ZeroValueReadsAsZero(t *testing.T) {
	var w Wei
	assert.True(t, w.IsZero())
	assert.Equal(t, "0", w.String())

	v, err := w.Value()
	require.NoError(t, err)
	assert.Equal(t, "0", v)
}

func TestWei_Arithmetic(t *testing.T) {
	a := NewWei(300)
	b := NewWei(700)

	assert.Equal(t, "1000", a.Add(b).String())
	assert.Equal(t, "400", b.Sub(a).String())
	assert.Equal(t, "2100", a.MulUnits(7).String())
	assert.True(t, b.GTE(a))
	assert.True(t, a.LT(b))
	assert.False(t, a.Equal(b))
}

func TestWei_SubUnderflowPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewWei(1).Sub(NewWei(2))
	})
}

func TestWei_ScanRoundTrip(t *testing.T) {
	var w Wei
	require.NoError(t, w.Scan("123456789012345678901234567890"))
	assert.Equal(t, "123456789012345678901234567890", w.String())

	require.NoError(t, w.Scan([]byte("42")))
	assert.Equal(t, "42", w.String())

	require.NoError(t, w.Scan(nil))
	assert.True(t, w.IsZero())

	require.NoError(t, w.Scan(""))
	assert.True(t, w.IsZero())

	assert.Error(t, w.Scan("not-a-number"))
	assert.Error(t, w.Scan(3.14))
}

func TestWei_JSONRoundTrip(t *testing.T) {
	w := NewWei(987654321)
	b, err := json.Marshal(w)
	require.NoError(t, err)
	assert.Equal(t, `"987654321"`, string(b))

	var back Wei
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, w.Equal(back))

	var neg Wei
	assert.Error(t, json.Unmarshal([]byte(`"-1"`), &neg))
}
