package domain

import "time"

// SearchStatus is the lifecycle state of one competitor search. Transitions
// only move forward: processing -> completed | failed | timed_out.
type SearchStatus string

const (
	SearchProcessing SearchStatus = "processing"
	SearchCompleted  SearchStatus = "completed"
	SearchFailed     SearchStatus = "failed"
	SearchTimedOut   SearchStatus = "timed_out"
)

// ScrapedAd is a competitor ad as delivered by the scraping service, before
// it is normalized into a cache entry. AdID may be empty; media URL fields
// may be plain URLs or JSON-array strings.
type ScrapedAd struct {
	AdID               string `json:"ad_id"`
	PageName           string `json:"page_name"`
	ImageURLs          string `json:"image_urls"`
	VideoURL           string `json:"video_url"`
	AdCopy             string `json:"ad_copy"`
	CTAText            string `json:"cta_text"`
	StartedRunningDate string `json:"started_running_date"`
}

// CompetitorAd is one durable cache row, keyed by (AdID, SearchKeyword).
type CompetitorAd struct {
	AdID               string    `json:"ad_id"`
	SearchKeyword      string    `json:"search_keyword"`
	PageName           string    `json:"page_name"`
	ImageURLs          []string  `json:"image_urls,omitempty"`
	VideoURL           string    `json:"video_url,omitempty"`
	AdCopy             string    `json:"ad_copy,omitempty"`
	CTAText            string    `json:"cta_text,omitempty"`
	AdFormat           string    `json:"ad_format"`
	StartedRunningDate string    `json:"started_running_date,omitempty"`
	IsActive           bool      `json:"is_active"`
	ScrapedAt          time.Time `json:"scraped_at"`
}

// SearchJob tracks one async scrape attempt so in-flight searches can be
// inspected while the poll loop runs.
type SearchJob struct {
	SearchID     string       `json:"search_id"`
	RunID        string       `json:"run_id"`
	Keyword      string       `json:"keyword"`
	Status       SearchStatus `json:"status"`
	AttemptsMade int          `json:"attempts_made"`
	ErrorMessage string       `json:"error_message,omitempty"`
	StartedAt    time.Time    `json:"started_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// SearchResult is the orchestrator's terminal answer for one keyword.
type SearchResult struct {
	Keyword   string         `json:"keyword"`
	Status    SearchStatus   `json:"status"`
	FromCache bool           `json:"from_cache"`
	Ads       []CompetitorAd `json:"ads"`
	Message   string         `json:"message,omitempty"`
}

// ScrapeKickoff is the trigger endpoint's response: either synchronously
// completed ads (fast path) or a processing handle (slow path).
type ScrapeKickoff struct {
	Status   SearchStatus `json:"status"`
	Ads      []ScrapedAd  `json:"ads,omitempty"`
	RunID    string       `json:"run_id,omitempty"`
	SearchID string       `json:"search_id,omitempty"`
}

// ScrapePoll is one poll endpoint response.
type ScrapePoll struct {
	Status       SearchStatus `json:"status"`
	Ads          []ScrapedAd  `json:"ads,omitempty"`
	ErrorMessage string       `json:"error,omitempty"`
}
