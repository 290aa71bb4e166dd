package api

import (
	"net/http"
	"testing"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSettingsHandler_snapshot(t *testing.T) {
	mockSettings := &MockSettingsUseCase{}
	mockSettings.On("Snapshot", mock.Anything).Return(settings.Snapshot{
		MetricUnits:        true,
		HomeCountry:        "DE",
		InformationSources: []string{"db"},
	}, nil)

	w := serve(t, NewSettingsHandler(mockSettings), http.MethodGet, "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "DE", body["home_country"])
	assert.Equal(t, true, body["metric_units"])
}

func TestSettingsHandler_set(t *testing.T) {
	tests := []struct {
		name       string
		key        settings.Key
		value      string
		setErr     error
		wantStatus int
	}{
		{name: "home country", key: settings.HomeCountry, value: "fr", wantStatus: http.StatusOK},
		{name: "bad bool", key: settings.MetricUnits, value: "maybe", setErr: domain.ValidationError{Field: "metric_units", Msg: "expected a boolean"}, wantStatus: http.StatusBadRequest},
		{name: "unknown key", key: "colour", value: "red", setErr: domain.ValidationError{Field: "colour", Msg: "unknown setting"}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSettings := &MockSettingsUseCase{}
			mockSettings.On("Set", mock.Anything, tt.key, tt.value).Return(tt.setErr)
			if tt.setErr == nil {
				mockSettings.On("Get", mock.Anything, tt.key).Return("FR", nil)
			}

			w := serve(t, NewSettingsHandler(mockSettings), http.MethodPut, "/"+string(tt.key), settingRequest{Value: tt.value})

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.setErr == nil {
				assert.Equal(t, "FR", decode(t, w)["value"])
			}
			mockSettings.AssertExpectations(t)
		})
	}
}

func TestSettingsHandler_toggle(t *testing.T) {
	mockSettings := &MockSettingsUseCase{}
	mockSettings.On("Toggle", mock.Anything, settings.QueryLiveData).Return(true, nil)

	w := serve(t, NewSettingsHandler(mockSettings), http.MethodPost, "/query_live_data/toggle", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["value"])
}
