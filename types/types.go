package types

import "time"

// Identity - User-agent presentation used for one fetch
type Identity string

const (
	IdentityGooglebot Identity = "googlebot"
	IdentityBrowser   Identity = "browser"
)

// Status - Scan verdict status
type Status string

const (
	StatusClean      Status = "clean"
	StatusSuspicious Status = "suspicious"
	StatusInfected   Status = "infected"
	StatusError      Status = "error"
)

// RiskLevel - Scan verdict risk level
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
	RiskUnknown  RiskLevel = "unknown"
)

// Detector names as they appear in ScanResult.Issues and the findings object.
const (
	IssueCloaking         = "cloaking"
	IssueGamblingKeywords = "gambling_keywords"
	IssueSuspiciousLinks  = "suspicious_links"
	IssueHiddenElements   = "hidden_elements"
	IssueMetaInjection    = "meta_injection"
)

// Hop - One redirect response in a redirect chain
type Hop struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
}

// FetchResult - Response captured for one (URL, identity) pair.
// StatusCode is zero when no response was received.
type FetchResult struct {
	Identity      Identity          `json:"identity"`
	StatusCode    int               `json:"status_code,omitempty"`
	Body          string            `json:"-"`
	Headers       map[string]string `json:"headers"`
	RedirectChain []Hop             `json:"redirects"`
	FinalURL      string            `json:"final_url"`
	Error         string            `json:"error,omitempty"`
}

// Failed reports whether the fetch ended in a transport-level error.
func (r *FetchResult) Failed() bool {
	return r == nil || r.Error != ""
}

// FetchSummary - Per-identity fetch information reported in a ScanResult
type FetchSummary struct {
	StatusCode int    `json:"status_code,omitempty"`
	FinalURL   string `json:"final_url"`
	Redirects  []Hop  `json:"redirects"`
	Error      string `json:"error,omitempty"`
	// Title is the page title as seen by this identity, if one could be extracted.
	Title string `json:"title,omitempty"`
}

// FetchInfo - Fetch summaries for both identities
type FetchInfo struct {
	Googlebot FetchSummary `json:"googlebot"`
	Browser   FetchSummary `json:"browser"`
}

// KeywordFinding - Gambling keyword occurrence in the page text
type KeywordFinding struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
	Context string `json:"context"`
}

// LinkFinding - Suspicious outbound reference
type LinkFinding struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
	Reason string `json:"reason"`
	Source string `json:"source"`
}

// HiddenFinding - Concealed element carrying gambling text
type HiddenFinding struct {
	Tag         string `json:"tag"`
	Style       string `json:"style"`
	TextPreview string `json:"text_preview"`
}

// MetaFinding - Meta tag or title carrying gambling text
type MetaFinding struct {
	Meta    string `json:"meta"`
	Content string `json:"content"`
}

// CloakingVerdict - Outcome of comparing the crawler and browser responses
type CloakingVerdict struct {
	IsCloaking bool     `json:"is_cloaking"`
	Similarity float64  `json:"similarity"`
	Details    []string `json:"details"`
}

// Findings - Detector outputs keyed by detector name
type Findings struct {
	Cloaking         *CloakingVerdict `json:"cloaking,omitempty"`
	GamblingKeywords []KeywordFinding `json:"gambling_keywords,omitempty"`
	SuspiciousLinks  []LinkFinding    `json:"suspicious_links,omitempty"`
	HiddenElements   []HiddenFinding  `json:"hidden_elements,omitempty"`
	MetaInjection    []MetaFinding    `json:"meta_injection,omitempty"`
}

// ScanResult - Aggregated verdict for one scanned URL
type ScanResult struct {
	ScanID       string    `json:"scan_id"`
	URL          string    `json:"url"`
	Status       Status    `json:"status"`
	RiskLevel    RiskLevel `json:"risk_level"`
	Findings     Findings  `json:"findings"`
	FetchInfo    FetchInfo `json:"fetch_info"`
	Issues       []string  `json:"issues"`
	ErrorMessage string    `json:"error_message,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	DurationMs   int64     `json:"duration_ms"`
}

// HasIssue reports whether the named detector fired.
func (r *ScanResult) HasIssue(name string) bool {
	for _, issue := range r.Issues {
		if issue == name {
			return true
		}
	}
	return false
}

// ProgressEvent - Notification emitted while a scan runs
type ProgressEvent struct {
	ScanID    string         `json:"scan_id"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Candidate - Subpage proposed for a follow-up scan
type Candidate struct {
	URL string `json:"url"`
	// InjectedOnly is set when only the crawler identity links to this page.
	InjectedOnly bool `json:"injected_only"`
}

// DiscoveryResult - Prioritized subpages found under a base URL
type DiscoveryResult struct {
	BaseURL    string      `json:"base_url"`
	Candidates []Candidate `json:"candidates"`
}

// URLs returns the candidate URLs in priority order.
func (d *DiscoveryResult) URLs() []string {
	urls := make([]string, 0, len(d.Candidates))
	for _, c := range d.Candidates {
		urls = append(urls, c.URL)
	}
	return urls
}

// InjectedCount returns how many candidates are visible only to the crawler.
func (d *DiscoveryResult) InjectedCount() int {
	n := 0
	for _, c := range d.Candidates {
		if c.InjectedOnly {
			n++
		}
	}
	return n
}
