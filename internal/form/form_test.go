package form

import (
	"testing"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_CheckForm_Trip(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		values  map[string]string
		canSave bool
	}{
		{name: "empty name", values: map[string]string{"name": ""}, canSave: false},
		{name: "blank name", values: map[string]string{"name": "   "}, canSave: false},
		{name: "missing name", values: map[string]string{}, canSave: false},
		{name: "valid name", values: map[string]string{"name": "My New Trip"}, canSave: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.CheckForm("trip", tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.canSave, res.CanSave)
			if !tt.canSave {
				assert.Equal(t, "required", res.Errors["name"])
			}
		})
	}
}

func TestValidator_CheckForm_PassNameEdit(t *testing.T) {
	v := New()
	values := map[string]string{
		"name":          "BahnCard 25",
		"member_name":   "Konqi",
		"member_number": "7081123456789",
	}

	res, err := v.CheckForm("pass", values)
	require.NoError(t, err)
	assert.True(t, res.CanSave)

	values["name"] = ""
	res, err = v.CheckForm("pass", values)
	require.NoError(t, err)
	assert.False(t, res.CanSave)

	values["name"] = "BahnCard 50"
	res, err = v.CheckForm("pass", values)
	require.NoError(t, err)
	assert.True(t, res.CanSave)
}

func TestValidator_CheckForm_PassValidity(t *testing.T) {
	v := New()

	res, err := v.CheckForm("pass", map[string]string{
		"name":        "KDE e.V.",
		"valid_from":  "2024-01-01T00:00:00Z",
		"valid_until": "2023-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.False(t, res.CanSave)
	assert.Contains(t, res.Errors, "valid_until")

	res, err = v.CheckForm("pass", map[string]string{
		"name":       "KDE e.V.",
		"valid_from": "not a date",
	})
	require.NoError(t, err)
	assert.False(t, res.CanSave)
	assert.Equal(t, "invalid", res.Errors["valid_from"])

	res, err = v.CheckForm("pass", map[string]string{
		"name":        "KDE e.V.",
		"valid_from":  "2024-01-01T10:00:00+02:00",
		"valid_until": "2025-01-01T10:00:00+02:00",
	})
	require.NoError(t, err)
	assert.True(t, res.CanSave)
	assert.Nil(t, res.Errors)
}

func TestValidator_CheckForm_StartRequired(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		form    string
		values  map[string]string
		canSave bool
		failing string
	}{
		{name: "event without name", form: "event", values: map[string]string{"name": "", "start": "2024-09-07T09:00:00Z"}, failing: "name"},
		{name: "event without start", form: "event", values: map[string]string{"name": "Akademy 2024"}, failing: "start"},
		{name: "event", form: "event", values: map[string]string{"name": "Akademy 2024", "start": "2024-09-07T09:00:00Z"}, canSave: true},
		{name: "reservation without start", form: "reservation", values: map[string]string{"name": "Hotel Randa"}, failing: "start"},
		{name: "reservation without name", form: "reservation", values: map[string]string{"start": "2017-09-10T14:00:00+02:00"}, canSave: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.CheckForm(tt.form, tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.canSave, res.CanSave)
			if !tt.canSave {
				assert.Equal(t, "required", res.Errors[tt.failing])
			}
		})
	}
}

func TestValidator_CheckForm_Unknown(t *testing.T) {
	v := New()

	_, err := v.CheckForm("boarding", map[string]string{})
	assert.True(t, domain.IsValidation(err))
}

func TestValidator_Require(t *testing.T) {
	v := New()

	err := v.Require("trip", map[string]string{"name": ""})
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "name")

	assert.NoError(t, v.Require("trip", map[string]string{"name": "Randa"}))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"event", "pass", "reservation", "trip"}, Names())
}
