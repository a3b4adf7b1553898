package handlers

import (
	"net/url"
	"testing"
	"time"

	"campus-rides-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSearchQuery(t *testing.T) {
	values := url.Values{}
	values.Set("start", "Patiala")
	values.Set("dest", "Chandigarh")
	values.Set("departure", "2026-09-01T09:00:00Z")
	values.Set("scope", "day")
	values.Set("window_mins", "90")
	values.Set("min_capacity", "4")
	values.Set("min_seats_left", "2")

	query, err := parseSearchQuery(values)
	require.NoError(t, err)

	assert.Equal(t, "Patiala", query.StartTerm)
	assert.Equal(t, "Chandigarh", query.DestTerm)
	assert.Equal(t, services.ScopeDay, query.Scope)
	assert.Equal(t, 90, query.WindowMinutes)
	assert.Equal(t, 4, query.MinCapacity)
	assert.Equal(t, 2, query.MinSeatsLeft)
	require.NotNil(t, query.Departure)
	assert.True(t, query.Departure.Equal(time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)))
}

func TestParseSearchQueryDefaults(t *testing.T) {
	query, err := parseSearchQuery(url.Values{})
	require.NoError(t, err)

	assert.Equal(t, services.ScopeWindow, query.Scope)
	assert.Nil(t, query.Departure)
	assert.Zero(t, query.MinCapacity)
	assert.Zero(t, query.MinSeatsLeft)
	assert.Zero(t, query.WindowMinutes)
}

func TestParseSearchQueryRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad departure", "departure", "tomorrow"},
		{"bad scope", "scope", "week"},
		{"bad window", "window_mins", "-5"},
		{"bad min capacity", "min_capacity", "lots"},
		{"bad min seats", "min_seats_left", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := url.Values{}
			values.Set(tt.key, tt.value)
			_, err := parseSearchQuery(values)
			assert.Error(t, err)
		})
	}
}
