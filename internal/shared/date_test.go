package shared

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMonthsClamped(t *testing.T) {
	start := NewDate(2024, time.January, 31)
	assert.Equal(t, "2024-02-29", start.AddMonthsClamped(1).String())
	assert.Equal(t, "2024-03-31", start.AddMonthsClamped(2).String())
	assert.Equal(t, "2024-04-30", start.AddMonthsClamped(3).String())
	assert.Equal(t, "2025-02-28", start.AddMonthsClamped(13).String())
	assert.Equal(t, "2023-12-31", start.AddMonthsClamped(-1).String())
	assert.Equal(t, "2024-05-15", NewDate(2024, time.February, 15).AddMonthsClamped(3).String())
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Due  Date `json:"due"`
		Paid Date `json:"paid"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-06-15","paid":null}`), &payload))
	assert.Equal(t, NewDate(2024, time.June, 15), payload.Due)
	assert.True(t, payload.Paid.IsZero())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2024-06-15","paid":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"due":"15/06/2024"}`), &payload))
}

func TestTodayUsesLocation(t *testing.T) {
	now := time.Date(2024, time.June, 16, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-16", Today(now, time.UTC).String())
	assert.Equal(t, "2024-06-15", Today(now, time.FixedZone("BRT", -3*3600)).String())
}

func TestSearchKeyFoldsAccents(t *testing.T) {
	assert.Equal(t, "joao da silva", SearchKey("  João   da Silva "))
	assert.Equal(t, "acai", SearchKey("AÇAÍ"))
	assert.Equal(t, `%50\%\_off%`, LikePattern("50%_off"))
}
