/*
Package bse fetches corporate announcement listings from the BSE web-facing
JSON API. The upstream contract is undocumented and unstable: requests must
mimic a browser session to pass the site's anti-bot defenses, field names vary
by endpoint version, and the only pagination signal is a page shrinking below
the usual size.
*/
package bse

// Announcement is one corporate disclosure record, normalized from the
// heterogeneous field names the upstream endpoints return. Any field may be
// empty when the upstream omits it.
type Announcement struct {
	DateTime    string `json:"datetime,omitempty"`
	ScripCode   string `json:"scrip_code,omitempty"`
	ScripName   string `json:"scrip_name,omitempty"`
	Headline    string `json:"headline,omitempty"`
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	NewsID      string `json:"news_id,omitempty"`
	PDFURL      string `json:"pdf_url,omitempty"`
	DetailURL   string `json:"detail_url,omitempty"`
}

// FetchOptions are the inputs to one Fetch call.
type FetchOptions struct {
	FromDate       string
	ToDate         string
	Segment        string
	SubmissionType string
	Category       string
	Subcategory    string
	Search         string
	MaxPages       int
}

// Detail is the scraped content of one announcement's detail page.
type Detail struct {
	NewsID    string   `json:"news_id"`
	ScripCode string   `json:"scrip_code"`
	Title     string   `json:"title,omitempty"`
	Body      string   `json:"body,omitempty"`
	PDFLinks  []string `json:"pdf_links,omitempty"`
}

// ProbeReport shows how the exchange responds to this environment, for
// debugging deployments that the anti-bot layer is blocking.
type ProbeReport struct {
	Warmup ProbeStep `json:"warmup"`
	Page   ProbeStep `json:"page"`
}

// ProbeStep is the outcome of a single probe request.
type ProbeStep struct {
	Status       int      `json:"status,omitempty"`
	SetCookie    bool     `json:"set_cookie,omitempty"`
	CookiesAfter []string `json:"cookies_after,omitempty"`
	URL          string   `json:"url,omitempty"`
	Length       int      `json:"len,omitempty"`
	Title        string   `json:"title,omitempty"`
	Sample       string   `json:"sample,omitempty"`
	Error        string   `json:"error,omitempty"`
}
