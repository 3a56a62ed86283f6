package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestLocalizedTextIn(t *testing.T) {
	text := LocalizedText{Fr: "Anatomie", Ar: strPtr("تشريح")}

	assert.Equal(t, "Anatomie", text.In("fr"))
	assert.Equal(t, "تشريح", text.In("ar"))
	// Missing locale falls back to French.
	assert.Equal(t, "Anatomie", text.In("en"))
	assert.Equal(t, "Anatomie", text.In("unknown"))
}

func TestLocalizedTextScanRoundTrip(t *testing.T) {
	original := LocalizedText{Fr: "Soins", En: strPtr("Nursing")}
	value, err := original.Value()
	require.NoError(t, err)

	var scanned LocalizedText
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, original, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())
}

func TestNullableLocalizedTextJSON(t *testing.T) {
	var n NullableLocalizedText
	require.NoError(t, json.Unmarshal([]byte(`null`), &n))
	assert.False(t, n.Valid)

	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"fr":"Sous-titre"}`), &n))
	assert.True(t, n.Valid)
	assert.Equal(t, "Sous-titre", n.Text.Fr)

	value, err := n.Value()
	require.NoError(t, err)
	assert.NotNil(t, value)

	n.Valid = false
	value, err = n.Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestSpecialityDurationInYears(t *testing.T) {
	cases := []struct {
		duration *string
		want     *int
	}{
		{nil, nil},
		{strPtr(""), nil},
		{strPtr("3 ans"), intPtrVal(3)},
		{strPtr("Durée: 2 années"), intPtrVal(2)},
		{strPtr("ans"), nil},
	}
	for _, tc := range cases {
		got := Speciality{Duration: tc.duration}.DurationInYears()
		if tc.want == nil {
			assert.Nil(t, got)
		} else {
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		}
	}
}

func intPtrVal(n int) *int { return &n }
