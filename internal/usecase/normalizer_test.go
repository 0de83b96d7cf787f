package usecase

import (
	"encoding/json"
	"math"
	"testing"

	"adscope/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseInsight(t *testing.T, raw string) *domain.RawAdInsight {
	t.Helper()
	var insight domain.RawAdInsight
	require.NoError(t, json.Unmarshal([]byte(raw), &insight))
	return &insight
}

func allFields(m domain.AdMetrics) map[string]float64 {
	return map[string]float64{
		"impressions":       m.Impressions,
		"clicks":            m.Clicks,
		"ctr":               m.CTR,
		"cpc":               m.CPC,
		"spend":             m.Spend,
		"results":           m.Results,
		"cost_per_result":   m.CostPerResult,
		"conversions":       m.Conversions,
		"conversion_rate":   m.ConversionRate,
		"roas":              m.ROAS,
		"reach":             m.Reach,
		"frequency":         m.Frequency,
		"cpm":               m.CPM,
		"cpp":               m.CPP,
		"lpv":               m.LPV,
		"cost_per_lpv":      m.CostPerLPV,
		"thruplays":         m.Thruplays,
		"cost_per_thruplay": m.CostPerThruplay,
		"engagements":       m.Engagements,
	}
}

func TestNormalize_LeadScenario(t *testing.T) {
	raw := parseInsight(t, `{
		"impressions": "1000",
		"inline_link_clicks": "50",
		"spend": "75.00",
		"actions": [{"action_type": "lead", "value": "3"}],
		"cost_per_action_type": [{"action_type": "lead", "value": "25.00"}]
	}`)

	m := Normalize(raw, domain.AdContext{AdsetCustomEventType: "LEAD"})

	assert.Equal(t, 1000.0, m.Impressions)
	assert.Equal(t, 50.0, m.Clicks)
	assert.Equal(t, 5.0, m.CTR)
	assert.Equal(t, 1.5, m.CPC)
	assert.Equal(t, 75.0, m.Spend)
	assert.Equal(t, 3.0, m.Results)
	assert.Equal(t, 25.0, m.CostPerResult)
	assert.Equal(t, 6.0, m.ConversionRate)
}

func TestNormalize_MalformedInputIsFiniteAndNonNegative(t *testing.T) {
	cases := map[string]string{
		"empty object":    `{}`,
		"garbage strings": `{"impressions": "abc", "spend": "", "clicks": "-", "ctr": "x%"}`,
		"nulls":           `{"impressions": null, "spend": null, "actions": null}`,
		"negative values": `{"impressions": "-100", "spend": "-5", "reach": "-1"}`,
		"only actions":    `{"actions": [{"action_type": "lead", "value": "oops"}]}`,
	}

	for name, rawJSON := range cases {
		t.Run(name, func(t *testing.T) {
			raw := parseInsight(t, rawJSON)
			m := Normalize(raw, domain.AdContext{})

			for field, v := range allFields(m) {
				assert.False(t, math.IsNaN(v), "field %s is NaN", field)
				assert.False(t, math.IsInf(v, 0), "field %s is Inf", field)
				assert.GreaterOrEqual(t, v, 0.0, "field %s is negative", field)
			}
		})
	}
}

func TestNormalize_NilInsight(t *testing.T) {
	m := Normalize(nil, domain.AdContext{AdsetCustomEventType: "LEAD"})
	assert.Equal(t, domain.AdMetrics{}, m)
}

func TestNormalize_ZeroDivisionGuards(t *testing.T) {
	raw := parseInsight(t, `{"spend": "100"}`)
	m := Normalize(raw, domain.AdContext{})

	// impressions == 0
	assert.Equal(t, 0.0, m.CTR)
	assert.Equal(t, 0.0, m.CPM)
	// reach == 0
	assert.Equal(t, 0.0, m.Frequency)
	assert.Equal(t, 0.0, m.CPP)
	// link clicks == 0
	assert.Equal(t, 0.0, m.CPC)
	assert.Equal(t, 0.0, m.ConversionRate)

	// spend == 0 guards roas
	raw = parseInsight(t, `{"conversion_values": "500"}`)
	m = Normalize(raw, domain.AdContext{})
	assert.Equal(t, 0.0, m.ROAS)
}

func TestNormalize_CustomEventTypeBeatsLargerActions(t *testing.T) {
	raw := parseInsight(t, `{
		"spend": "10",
		"actions": [
			{"action_type": "purchase", "value": "100"},
			{"action_type": "lead", "value": "5"}
		]
	}`)

	m := Normalize(raw, domain.AdContext{AdsetCustomEventType: "LEAD"})

	// The configured event type wins even when another action is larger.
	assert.Equal(t, 5.0, m.Results)
	assert.Equal(t, 2.0, m.CostPerResult)
}

func TestNormalize_LinkClickFallbackFromActions(t *testing.T) {
	raw := parseInsight(t, `{
		"impressions": "200",
		"clicks": "80",
		"spend": "10",
		"actions": [{"action_type": "link_click", "value": "20"}]
	}`)

	m := Normalize(raw, domain.AdContext{})

	// Canonical clicks and CTR stay link-click-based even via the fallback
	// sum; the raw clicks field (80) never leaks into either.
	assert.Equal(t, 20.0, m.Clicks)
	assert.Equal(t, 10.0, m.CTR)
	assert.Equal(t, 0.5, m.CPC)
}

func TestNormalize_ReportedRatesPreferred(t *testing.T) {
	raw := parseInsight(t, `{
		"impressions": "1000",
		"reach": "400",
		"spend": "50",
		"inline_link_clicks": "10",
		"inline_link_click_ctr": "1.25",
		"cpm": "42",
		"cpp": "99",
		"frequency": "3.5"
	}`)

	m := Normalize(raw, domain.AdContext{})

	assert.Equal(t, 1.25, m.CTR)
	assert.Equal(t, 42.0, m.CPM)
	assert.Equal(t, 99.0, m.CPP)
	assert.Equal(t, 3.5, m.Frequency)
}

func TestNormalize_ComputedRatesWhenUnreported(t *testing.T) {
	raw := parseInsight(t, `{
		"impressions": "1000",
		"reach": "500",
		"spend": "20",
		"inline_link_clicks": "40"
	}`)

	m := Normalize(raw, domain.AdContext{})

	assert.Equal(t, 4.0, m.CTR)        // 40/1000*100
	assert.Equal(t, 20.0, m.CPM)       // 20/1000*1000
	assert.Equal(t, 40.0, m.CPP)       // 20/500*1000
	assert.Equal(t, 2.0, m.Frequency)  // 1000/500
	assert.Equal(t, 0.5, m.CPC)        // 20/40
}

func TestNormalize_TrafficObjectiveFallbackChain(t *testing.T) {
	// No custom event type, no optimization goal; objective resolves to
	// [link_click, landing_page_view]. Neither present: zero results.
	raw := parseInsight(t, `{"impressions": "100", "spend": "5", "actions": []}`)
	m := Normalize(raw, domain.AdContext{CampaignObjective: "OUTCOME_TRAFFIC"})
	assert.Equal(t, 0.0, m.Results)
	assert.Equal(t, 0.0, m.CostPerResult)

	// landing_page_view present but link_click absent: second candidate wins.
	raw = parseInsight(t, `{
		"spend": "6",
		"actions": [{"action_type": "landing_page_view", "value": "3"}]
	}`)
	m = Normalize(raw, domain.AdContext{CampaignObjective: "OUTCOME_TRAFFIC"})
	assert.Equal(t, 3.0, m.Results)
	assert.Equal(t, 2.0, m.CostPerResult)
}

func TestNormalize_CostPerResultFallsBackToSpend(t *testing.T) {
	raw := parseInsight(t, `{
		"spend": "30",
		"actions": [{"action_type": "lead", "value": "3"}]
	}`)

	m := Normalize(raw, domain.AdContext{AdsetCustomEventType: "LEAD"})
	assert.Equal(t, 10.0, m.CostPerResult)
}

func TestNormalize_ConversionsFallbackSum(t *testing.T) {
	raw := parseInsight(t, `{
		"actions": [
			{"action_type": "lead", "value": "2"},
			{"action_type": "purchase", "value": "3"},
			{"action_type": "complete_registration", "value": "1"},
			{"action_type": "submit_application", "value": "1"},
			{"action_type": "contact", "value": "1"},
			{"action_type": "link_click", "value": "50"}
		]
	}`)

	m := Normalize(raw, domain.AdContext{})
	assert.Equal(t, 8.0, m.Conversions)
}

func TestNormalize_VideoAndEngagementMetrics(t *testing.T) {
	raw := parseInsight(t, `{
		"spend": "24",
		"video_thruplay_watched_actions": [{"action_type": "video_view", "value": "12"}],
		"actions": [
			{"action_type": "landing_page_view", "value": "6"},
			{"action_type": "post_engagement", "value": "10"},
			{"action_type": "post_reaction", "value": "4"},
			{"action_type": "comment", "value": "1"}
		]
	}`)

	m := Normalize(raw, domain.AdContext{})

	assert.Equal(t, 12.0, m.Thruplays)
	assert.Equal(t, 2.0, m.CostPerThruplay)
	assert.Equal(t, 6.0, m.LPV)
	assert.Equal(t, 4.0, m.CostPerLPV)
	assert.Equal(t, 15.0, m.Engagements)
}

func TestNormalize_ThruplayFallbackToActions(t *testing.T) {
	raw := parseInsight(t, `{
		"spend": "10",
		"actions": [{"action_type": "video_view", "value": "5"}]
	}`)

	m := Normalize(raw, domain.AdContext{})
	assert.Equal(t, 5.0, m.Thruplays)
	assert.Equal(t, 2.0, m.CostPerThruplay)
}

func TestNormalize_ROAS(t *testing.T) {
	raw := parseInsight(t, `{"spend": "50", "conversion_values": "200"}`)
	m := Normalize(raw, domain.AdContext{})
	assert.Equal(t, 4.0, m.ROAS)
}

func TestAggregate_SpendWeightedROAS(t *testing.T) {
	summary := Aggregate([]domain.AdMetrics{
		{Spend: 100, ROAS: 2},
		{Spend: 300, ROAS: 6},
	})

	// (100*2 + 300*6) / 400, not the arithmetic mean 4.0.
	assert.Equal(t, 5.0, summary.AverageROAS)
}

func TestAggregate_TotalsAndGuardedAverages(t *testing.T) {
	summary := Aggregate([]domain.AdMetrics{
		{Impressions: 1000, Reach: 500, Clicks: 50, Results: 5, Conversions: 5, Spend: 100, ROAS: 2},
		{Impressions: 3000, Reach: 1500, Clicks: 150, Results: 15, Conversions: 10, Spend: 300, ROAS: 4},
	})

	assert.Equal(t, 4000.0, summary.TotalImpressions)
	assert.Equal(t, 2000.0, summary.TotalReach)
	assert.Equal(t, 200.0, summary.TotalClicks)
	assert.Equal(t, 20.0, summary.TotalResults)
	assert.Equal(t, 15.0, summary.TotalConversions)
	assert.Equal(t, 400.0, summary.TotalSpend)

	assert.Equal(t, 5.0, summary.AverageCTR)
	assert.Equal(t, 7.5, summary.AverageConversionRate)
	assert.Equal(t, 2.0, summary.AverageFrequency)
	assert.Equal(t, 20.0, summary.AverageCPA)
	assert.InDelta(t, 3.5, summary.AverageROAS, 1e-9)
}

func TestAggregate_EmptyAndZeroDenominators(t *testing.T) {
	summary := Aggregate(nil)
	assert.Equal(t, domain.AdsSummary{}, summary)

	summary = Aggregate([]domain.AdMetrics{{}, {}})
	assert.Equal(t, 0.0, summary.AverageCTR)
	assert.Equal(t, 0.0, summary.AverageConversionRate)
	assert.Equal(t, 0.0, summary.AverageFrequency)
	assert.Equal(t, 0.0, summary.AverageCPA)
	assert.Equal(t, 0.0, summary.AverageROAS)
}
