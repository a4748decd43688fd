package bse

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SiteDateFormat is the DD/MM/YYYY layout the upstream API expects.
const SiteDateFormat = "02/01/2006"

// dateFormats are the input layouts accepted from callers.
var dateFormats = []string{"2006-01-02", "02/01/2006", "02-01-2006", "2006/01/02"}

// NormalizeDate coerces a caller-supplied date string into the upstream's
// DD/MM/YYYY format. An empty string defaults to now's date.
func NormalizeDate(s string, now time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.Format(SiteDateFormat), nil
	}
	for _, layout := range dateFormats {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format(SiteDateFormat), nil
		}
	}
	return "", fmt.Errorf("invalid date: %s", s)
}

// extractRows locates the array of result rows inside the varying JSON
// envelope shapes the upstream wraps them in.
func extractRows(payload map[string]any) []map[string]any {
	for _, key := range []string{"Table", "table", "data", "Data"} {
		if rows, ok := asRowList(payload[key]); ok {
			return rows
		}
	}
	if nested, ok := payload["d"].(map[string]any); ok {
		if rows, ok := asRowList(nested["Table"]); ok {
			return rows
		}
	}
	return nil
}

func asRowList(v any) ([]map[string]any, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if row, ok := item.(map[string]any); ok {
			rows = append(rows, row)
		}
	}
	return rows, true
}

// normalizeRow maps a raw upstream record to the Announcement shape. Field
// names vary by endpoint/version, so each field is a first-match-wins lookup
// across its known aliases.
func (c *Client) normalizeRow(r map[string]any) Announcement {
	ann := Announcement{
		DateTime:    fieldString(r, "DT_TM", "DtTm", "NEWS_DT"),
		ScripCode:   fieldString(r, "SCRIP_CD", "Scripcode", "scripcode"),
		ScripName:   fieldString(r, "S_LONGNAME", "SLONGNAME", "SCRIPNAME", "Scripname"),
		Headline:    fieldString(r, "NEWSSUB", "HEADLINE", "NEWS_SUB"),
		Category:    fieldString(r, "CATEGORYNAME", "CATEGORY"),
		Subcategory: fieldString(r, "SUBCATEGORYNAME", "SUBCAT"),
		NewsID:      fieldString(r, "NEWSID", "newsid"),
	}
	ann.PDFURL = c.makePDFURL(r)
	ann.DetailURL = c.makeDetailURL(ann.NewsID, ann.ScripCode)
	return ann
}

// makePDFURL derives an attachment URL. Absolute URLs pass through; bare
// filenames are served from the historical path when PDFFLAG is "1" and from
// the live path otherwise.
func (c *Client) makePDFURL(r map[string]any) string {
	att := fieldString(r, "ATTACHMENTNAME", "ATTACHMENT", "FILE")
	if att == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(att), "http") {
		return att
	}
	if fieldString(r, "PDFFLAG", "pdfflag") == "1" {
		return c.cfg.AttachHisURL + att
	}
	return c.cfg.AttachLiveURL + att
}

// makeDetailURL builds the mobile detail-page URL; both the news ID and the
// scrip code are required.
func (c *Client) makeDetailURL(newsID, scripCode string) string {
	if newsID == "" || scripCode == "" {
		return ""
	}
	q := url.Values{}
	q.Set("Form", "STR")
	q.Set("newsid", newsID)
	q.Set("scrpcd", scripCode)
	return c.cfg.DetailBaseURL + "?" + q.Encode()
}

// fieldString returns the first non-empty value among the given key aliases,
// coerced to a string.
func fieldString(r map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if s := asString(v); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		// Scrip codes and flags arrive as JSON numbers on some endpoints.
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Dedupe removes announcements sharing a news ID, keeping the first
// occurrence and preserving order. Rows without an ID are dropped.
func Dedupe(rows []Announcement) []Announcement {
	out := make([]Announcement, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		id := strings.TrimSpace(r.NewsID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, r)
	}
	return out
}
