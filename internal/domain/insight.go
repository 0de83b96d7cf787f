package domain

import (
	"bytes"
	"math"
	"strconv"
	"time"
)

// FlexFloat is a float64 that unmarshals from JSON numbers, numeric strings,
// or null. Anything unparseable decodes to 0 rather than failing the whole
// record, since platform responses mix number and string encodings between
// releases.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			*f = 0
			return nil
		}
		data = []byte(s)
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

func (f FlexFloat) Float() float64 {
	return float64(f)
}

// ActionEntry is one named action count from the platform, e.g.
// {action_type: "lead", value: "3"}.
type ActionEntry struct {
	ActionType string    `json:"action_type"`
	Value      FlexFloat `json:"value"`
}

// RawAdInsight is the platform's per-ad insights record. Every field is
// optional and numerics may arrive as strings; FlexFloat absorbs both.
type RawAdInsight struct {
	Impressions                 FlexFloat     `json:"impressions"`
	Reach                       FlexFloat     `json:"reach"`
	Spend                       FlexFloat     `json:"spend"`
	Clicks                      FlexFloat     `json:"clicks"`
	InlineLinkClicks            FlexFloat     `json:"inline_link_clicks"`
	InlineLinkClickCTR          FlexFloat     `json:"inline_link_click_ctr"`
	CTR                         FlexFloat     `json:"ctr"`
	CPC                         FlexFloat     `json:"cpc"`
	CPM                         FlexFloat     `json:"cpm"`
	CPP                         FlexFloat     `json:"cpp"`
	Frequency                   FlexFloat     `json:"frequency"`
	Conversions                 FlexFloat     `json:"conversions"`
	ConversionValues            FlexFloat     `json:"conversion_values"`
	Actions                     []ActionEntry `json:"actions"`
	CostPerActionType           []ActionEntry `json:"cost_per_action_type"`
	VideoThruplayWatchedActions []ActionEntry `json:"video_thruplay_watched_actions"`
}

// ActionValue returns the value for the first entry matching actionType, or 0.
func ActionValue(entries []ActionEntry, actionType string) float64 {
	for _, e := range entries {
		if e.ActionType == actionType {
			return e.Value.Float()
		}
	}
	return 0
}

// SumActions sums the values of every entry whose action type appears in types.
func SumActions(entries []ActionEntry, types ...string) float64 {
	var total float64
	for _, t := range types {
		for _, e := range entries {
			if e.ActionType == t {
				total += e.Value.Float()
			}
		}
	}
	return total
}

// AdContext is the per-ad configuration that determines which action type
// counts as the ad's result. Supplied alongside the raw insight and immutable
// for the duration of one normalization call.
type AdContext struct {
	AdsetOptimizationGoal string `json:"adset_optimization_goal"`
	AdsetCustomEventType  string `json:"adset_custom_event_type"`
	CampaignObjective     string `json:"campaign_objective"`
}

// AdMetrics is the canonical normalized output. Every field is a finite
// number >= 0; Clicks and CTR are link-click-based throughout, matching the
// cost-metric convention (CPC is spend over link clicks).
type AdMetrics struct {
	AdID            string  `json:"ad_id,omitempty"`
	Impressions     float64 `json:"impressions"`
	Clicks          float64 `json:"clicks"`
	CTR             float64 `json:"ctr"`
	CPC             float64 `json:"cpc"`
	Spend           float64 `json:"spend"`
	Results         float64 `json:"results"`
	CostPerResult   float64 `json:"cost_per_result"`
	Conversions     float64 `json:"conversions"`
	ConversionRate  float64 `json:"conversion_rate"`
	ROAS            float64 `json:"roas"`
	Reach           float64 `json:"reach"`
	Frequency       float64 `json:"frequency"`
	CPM             float64 `json:"cpm"`
	CPP             float64 `json:"cpp"`
	LPV             float64 `json:"lpv"`
	CostPerLPV      float64 `json:"cost_per_lpv"`
	Thruplays       float64 `json:"thruplays"`
	CostPerThruplay float64 `json:"cost_per_thruplay"`
	Engagements     float64 `json:"engagements"`
}

// AdsSummary aggregates a list of AdMetrics. Averages are 0 whenever their
// denominator is 0, never NaN; AverageROAS is spend-weighted.
type AdsSummary struct {
	TotalImpressions      float64 `json:"total_impressions"`
	TotalReach            float64 `json:"total_reach"`
	TotalClicks           float64 `json:"total_clicks"`
	TotalResults          float64 `json:"total_results"`
	TotalConversions      float64 `json:"total_conversions"`
	TotalSpend            float64 `json:"total_spend"`
	AverageCTR            float64 `json:"average_ctr"`
	AverageConversionRate float64 `json:"average_conversion_rate"`
	AverageFrequency      float64 `json:"average_frequency"`
	AverageCPA            float64 `json:"average_cpa"`
	AverageROAS           float64 `json:"average_roas"`
}

// DateRange bounds an insights query.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}
