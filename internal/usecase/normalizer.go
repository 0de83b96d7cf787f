package usecase

import (
	"math"

	"adscope/internal/domain"
)

// Normalize converts one raw platform insight plus its ad context into
// canonical AdMetrics. Pure function: no I/O, no error cases — absent or
// malformed fields default to zero.
func Normalize(raw *domain.RawAdInsight, actx domain.AdContext) domain.AdMetrics {
	if raw == nil {
		return domain.AdMetrics{}
	}

	impressions := raw.Impressions.Float()
	reach := raw.Reach.Float()
	spend := raw.Spend.Float()

	linkClicks := raw.InlineLinkClicks.Float()
	if linkClicks == 0 {
		linkClicks = domain.SumActions(raw.Actions, domain.ActionLinkClick)
	}

	// Canonical clicks and CTR are link-click-based: the directly reported
	// ctr field counts all clicks and is deliberately ignored here so that
	// rate and cost metrics share one click base.
	ctr := raw.InlineLinkClickCTR.Float()
	if ctr == 0 && impressions > 0 {
		ctr = linkClicks / impressions * 100
	}

	var cpc float64
	if linkClicks > 0 {
		cpc = spend / linkClicks
	}

	cpm := raw.CPM.Float()
	if cpm == 0 && impressions > 0 {
		cpm = spend / impressions * 1000
	}

	cpp := raw.CPP.Float()
	if cpp == 0 && reach > 0 {
		cpp = spend / reach * 1000
	}

	frequency := raw.Frequency.Float()
	if frequency == 0 && reach > 0 {
		frequency = impressions / reach
	}

	resultType, results := resolveResult(raw, actx)

	costPerResult := domain.ActionValue(raw.CostPerActionType, resultType)
	if costPerResult == 0 && results > 0 {
		costPerResult = spend / results
	}

	conversions := raw.Conversions.Float()
	if conversions == 0 {
		conversions = domain.SumActions(raw.Actions, domain.ConversionActionTypes()...)
	}

	var conversionRate float64
	if linkClicks > 0 {
		conversionRate = results / linkClicks * 100
	}

	var roas float64
	if spend > 0 {
		roas = raw.ConversionValues.Float() / spend
	}

	lpv := domain.SumActions(raw.Actions, domain.ActionLandingPageView)
	costPerLPV := domain.ActionValue(raw.CostPerActionType, domain.ActionLandingPageView)
	if costPerLPV == 0 && lpv > 0 {
		costPerLPV = spend / lpv
	}

	thruplays := domain.ActionValue(raw.VideoThruplayWatchedActions, domain.ActionVideoView)
	if thruplays == 0 {
		thruplays = domain.ActionValue(raw.VideoThruplayWatchedActions, domain.ActionThruplay)
	}
	if thruplays == 0 {
		thruplays = domain.ActionValue(raw.Actions, domain.ActionVideoView)
	}
	costPerThruplay := domain.ActionValue(raw.CostPerActionType, domain.ActionVideoView)
	if costPerThruplay == 0 && thruplays > 0 {
		costPerThruplay = spend / thruplays
	}

	engagements := domain.SumActions(raw.Actions, domain.EngagementActionTypes()...)

	return domain.AdMetrics{
		Impressions:     sane(impressions),
		Clicks:          sane(linkClicks),
		CTR:             sane(ctr),
		CPC:             sane(cpc),
		Spend:           sane(spend),
		Results:         sane(results),
		CostPerResult:   sane(costPerResult),
		Conversions:     sane(conversions),
		ConversionRate:  sane(conversionRate),
		ROAS:            sane(roas),
		Reach:           sane(reach),
		Frequency:       sane(frequency),
		CPM:             sane(cpm),
		CPP:             sane(cpp),
		LPV:             sane(lpv),
		CostPerLPV:      sane(costPerLPV),
		Thruplays:       sane(thruplays),
		CostPerThruplay: sane(costPerThruplay),
		Engagements:     sane(engagements),
	}
}

// resolveResult scans the ordered candidate list for the ad's configured
// goal and returns the first action type present with a positive value.
// Exactly one action type is selected; counts are never summed across
// candidates.
func resolveResult(raw *domain.RawAdInsight, actx domain.AdContext) (string, float64) {
	candidates := domain.ResultCandidates(actx)
	for _, candidate := range candidates {
		if v := domain.ActionValue(raw.Actions, candidate); v > 0 {
			return candidate, v
		}
	}
	return candidates[0], 0
}

// Aggregate folds per-ad metrics into summary statistics. AverageROAS is a
// spend-weighted mean: ROAS is itself a ratio, and a plain average over
// ratios with differing denominators is misleading.
func Aggregate(metrics []domain.AdMetrics) domain.AdsSummary {
	var summary domain.AdsSummary
	var weightedRoas float64

	for _, m := range metrics {
		summary.TotalImpressions += m.Impressions
		summary.TotalReach += m.Reach
		summary.TotalClicks += m.Clicks
		summary.TotalResults += m.Results
		summary.TotalConversions += m.Conversions
		summary.TotalSpend += m.Spend
		weightedRoas += m.ROAS * m.Spend
	}

	if summary.TotalImpressions > 0 {
		summary.AverageCTR = summary.TotalClicks / summary.TotalImpressions * 100
	}
	if summary.TotalClicks > 0 {
		summary.AverageConversionRate = summary.TotalConversions / summary.TotalClicks * 100
	}
	if summary.TotalReach > 0 {
		summary.AverageFrequency = summary.TotalImpressions / summary.TotalReach
	}
	if summary.TotalResults > 0 {
		summary.AverageCPA = summary.TotalSpend / summary.TotalResults
	}
	if summary.TotalSpend > 0 {
		summary.AverageROAS = weightedRoas / summary.TotalSpend
	}

	return summary
}

// sane clamps a metric to a finite, non-negative value.
func sane(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
