package domain

// Conversion event constants as reported by the ads platform.
const (
	ActionLead                 = "lead"
	ActionPurchase             = "purchase"
	ActionCompleteRegistration = "complete_registration"
	ActionSubmitApplication    = "submit_application"
	ActionContact              = "contact"
	ActionLinkClick            = "link_click"
	ActionLandingPageView      = "landing_page_view"
	ActionVideoView            = "video_view"
	ActionThruplay             = "thruplay"
)

// CustomEventCandidates maps an adset's configured custom event type to the
// ordered list of action types that may report it. The first candidate found
// in an insight's actions list with a positive value is the ad's result.
var CustomEventCandidates = map[string][]string{
	"LEAD":                  {"lead", "onsite_web_lead", "offsite_conversion.fb_pixel_lead"},
	"PURCHASE":              {"purchase", "omni_purchase", "offsite_conversion.fb_pixel_purchase"},
	"COMPLETE_REGISTRATION": {"complete_registration", "omni_complete_registration", "offsite_conversion.fb_pixel_complete_registration", "offsite_complete_registration_add_meta_leads"},
	"INITIATED_CHECKOUT":    {"initiate_checkout", "omni_initiated_checkout", "offsite_conversion.fb_pixel_initiate_checkout"},
	"ADD_TO_CART":           {"add_to_cart", "omni_add_to_cart", "offsite_conversion.fb_pixel_add_to_cart"},
	"ADD_PAYMENT_INFO":      {"add_payment_info", "omni_add_payment_info", "offsite_conversion.fb_pixel_add_payment_info"},
	"VIEW_CONTENT":          {"view_content", "omni_view_content", "offsite_conversion.fb_pixel_view_content"},
	"SUBMIT_APPLICATION":    {"submit_application", "omni_submit_application", "offsite_conversion.fb_pixel_submit_application"},
	"CONTACT":               {"contact", "omni_contact", "offsite_conversion.fb_pixel_contact"},
}

// OptimizationGoalCandidates covers adsets without a usable custom event type.
var OptimizationGoalCandidates = map[string][]string{
	"OFFSITE_CONVERSIONS": {"lead", "complete_registration", "purchase"},
	"LEAD_GENERATION":     {"lead", "onsite_web_lead", "offsite_conversion.fb_pixel_lead"},
}

// CampaignObjectiveCandidates is the last fallback before the default.
var CampaignObjectiveCandidates = map[string][]string{
	"OUTCOME_LEADS":   {"lead", "onsite_web_lead", "offsite_conversion.fb_pixel_lead"},
	"OUTCOME_SALES":   {"complete_registration", "purchase", "omni_purchase", "offsite_conversion.fb_pixel_purchase"},
	"OUTCOME_TRAFFIC": {"link_click", "landing_page_view"},
}

var defaultResultCandidates = []string{ActionLead}

// ResultCandidates resolves the ordered candidate action types for an ad's
// result metric: custom event type first, then optimization goal, then
// campaign objective, defaulting to the lead action.
func ResultCandidates(actx AdContext) []string {
	if candidates, ok := CustomEventCandidates[actx.AdsetCustomEventType]; ok {
		return candidates
	}
	if candidates, ok := OptimizationGoalCandidates[actx.AdsetOptimizationGoal]; ok {
		return candidates
	}
	if candidates, ok := CampaignObjectiveCandidates[actx.CampaignObjective]; ok {
		return candidates
	}
	return defaultResultCandidates
}

// conversionActionTypes are the action families summed for the conversions
// field when the platform omits a direct conversions value.
var conversionActionTypes = []string{
	ActionLead,
	ActionPurchase,
	ActionCompleteRegistration,
	ActionSubmitApplication,
	ActionContact,
}

// engagementActionTypes are the action families summed into engagements.
var engagementActionTypes = []string{
	"post_engagement",
	"post_reaction",
	"comment",
	"post_save",
	"share",
	"like",
	"page_engagement",
}

// ConversionActionTypes returns the action families counted as conversions.
func ConversionActionTypes() []string {
	return conversionActionTypes
}

// EngagementActionTypes returns the action families counted as engagements.
func EngagementActionTypes() []string {
	return engagementActionTypes
}
