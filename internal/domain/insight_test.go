package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexFloat_Unmarshal(t *testing.T) {
	cases := []struct {
		name string
		json string
		want float64
	}{
		{"number", `42.5`, 42.5},
		{"integer", `1000`, 1000},
		{"numeric string", `"75.00"`, 75},
		{"integer string", `"12"`, 12},
		{"empty string", `""`, 0},
		{"garbage string", `"abc"`, 0},
		{"null", `null`, 0},
		{"percent string", `"5%"`, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f FlexFloat
			require.NoError(t, json.Unmarshal([]byte(tc.json), &f))
			assert.Equal(t, tc.want, f.Float())
		})
	}
}

func TestRawAdInsight_MixedEncodings(t *testing.T) {
	var raw RawAdInsight
	err := json.Unmarshal([]byte(`{
		"impressions": "1000",
		"reach": 400,
		"spend": "75.50",
		"actions": [
			{"action_type": "lead", "value": "3"},
			{"action_type": "link_click", "value": 20}
		]
	}`), &raw)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, raw.Impressions.Float())
	assert.Equal(t, 400.0, raw.Reach.Float())
	assert.Equal(t, 75.5, raw.Spend.Float())
	assert.Equal(t, 3.0, ActionValue(raw.Actions, "lead"))
	assert.Equal(t, 20.0, ActionValue(raw.Actions, "link_click"))
}

func TestActionValue_Missing(t *testing.T) {
	entries := []ActionEntry{{ActionType: "lead", Value: 3}}
	assert.Equal(t, 0.0, ActionValue(entries, "purchase"))
	assert.Equal(t, 0.0, ActionValue(nil, "lead"))
}

func TestSumActions(t *testing.T) {
	entries := []ActionEntry{
		{ActionType: "post_engagement", Value: 10},
		{ActionType: "comment", Value: 2},
		{ActionType: "share", Value: 1},
		{ActionType: "link_click", Value: 50},
	}

	assert.Equal(t, 13.0, SumActions(entries, "post_engagement", "comment", "share"))
	assert.Equal(t, 0.0, SumActions(entries, "like"))
	assert.Equal(t, 0.0, SumActions(nil, "like"))
}
