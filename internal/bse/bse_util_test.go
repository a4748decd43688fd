package bse

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"bse-announcements/internal/config"
)

func testUpstream() config.UpstreamConfig {
	return config.UpstreamConfig{
		AnnouncementsPage: "https://www.bseindia.com/corporates/ann.html",
		Endpoints: []string{
			"https://api.bseindia.com/BseIndiaAPI/api/Ann/w",
		},
		SiteRoot:       "https://www.bseindia.com/",
		DetailBaseURL:  "https://m.bseindia.com/MAnnDet.aspx",
		AttachLiveURL:  "https://www.bseindia.com/xml-data/corpfiling/AttachLive/",
		AttachHisURL:   "https://www.bseindia.com/xml-data/corpfiling/AttachHis/",
		UserAgent:      "test-agent",
		PageSize:       20,
		MaxPages:       30,
		WarmTimeout:    2 * time.Second,
		AssetTimeout:   2 * time.Second,
		RequestTimeout: 2 * time.Second,
	}
}

func testClient(cfg config.UpstreamConfig) *Client {
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	for _, input := range []string{"2025-01-01", "01/01/2025", "01-01-2025", "2025/01/01"} {
		got, err := NormalizeDate(input, now)
		if err != nil {
			t.Fatalf("NormalizeDate(%q) returned error: %v", input, err)
		}
		if got != "01/01/2025" {
			t.Fatalf("NormalizeDate(%q) = %q, want 01/01/2025", input, got)
		}
	}

	got, err := NormalizeDate("", now)
	if err != nil {
		t.Fatalf("NormalizeDate empty returned error: %v", err)
	}
	if got != "15/01/2025" {
		t.Fatalf("NormalizeDate empty = %q, want 15/01/2025", got)
	}

	for _, input := range []string{"not-a-date", "2025-13-01", "01.01.2025"} {
		if _, err := NormalizeDate(input, now); err == nil {
			t.Fatalf("NormalizeDate(%q) succeeded, want error", input)
		}
	}
}

func TestExtractRows(t *testing.T) {
	t.Parallel()

	row := map[string]any{"NEWSID": "a"}

	for name, payload := range map[string]map[string]any{
		"Table":  {"Table": []any{row}},
		"table":  {"table": []any{row}},
		"data":   {"data": []any{row}},
		"Data":   {"Data": []any{row}},
		"nested": {"d": map[string]any{"Table": []any{row}}},
	} {
		rows := extractRows(payload)
		if len(rows) != 1 || rows[0]["NEWSID"] != "a" {
			t.Fatalf("extractRows(%s) = %v, want one row", name, rows)
		}
	}

	if rows := extractRows(map[string]any{"Results": []any{row}}); len(rows) != 0 {
		t.Fatalf("extractRows(unknown shape) = %v, want empty", rows)
	}
	if rows := extractRows(map[string]any{"Table": "not a list"}); len(rows) != 0 {
		t.Fatalf("extractRows(non-list Table) = %v, want empty", rows)
	}
}

func TestNormalizeRowAliases(t *testing.T) {
	t.Parallel()

	c := testClient(testUpstream())

	ann := c.normalizeRow(map[string]any{
		"DT_TM":           "2025-01-01T10:30:00",
		"SCRIP_CD":        float64(500325),
		"S_LONGNAME":      "RELIANCE INDUSTRIES LTD.",
		"NEWSSUB":         "Board Meeting Intimation",
		"CATEGORYNAME":    "Board Meeting",
		"SUBCATEGORYNAME": "Intimation",
		"NEWSID":          "abc-123",
	})

	if ann.ScripCode != "500325" {
		t.Fatalf("numeric scrip code = %q, want 500325", ann.ScripCode)
	}
	if ann.Headline != "Board Meeting Intimation" {
		t.Fatalf("unexpected headline: %q", ann.Headline)
	}
	if ann.DetailURL == "" {
		t.Fatal("expected detail URL when news ID and scrip code are present")
	}

	// Alternate endpoint spelling of the same fields.
	alt := c.normalizeRow(map[string]any{
		"NEWS_DT":   "2025-01-01",
		"scripcode": "532540",
		"Scripname": "TCS",
		"HEADLINE":  "Earnings Call",
		"newsid":    "def-456",
	})
	if alt.ScripCode != "532540" || alt.Headline != "Earnings Call" || alt.NewsID != "def-456" {
		t.Fatalf("alias lookup failed: %+v", alt)
	}

	// No news ID means no detail URL.
	noID := c.normalizeRow(map[string]any{"SCRIP_CD": "500325"})
	if noID.DetailURL != "" {
		t.Fatalf("detail URL without news ID: %q", noID.DetailURL)
	}
}

func TestMakePDFURL(t *testing.T) {
	t.Parallel()

	c := testClient(testUpstream())

	// Absolute URLs pass through unchanged.
	got := c.makePDFURL(map[string]any{"ATTACHMENTNAME": "https://cdn.example.com/x.pdf"})
	if got != "https://cdn.example.com/x.pdf" {
		t.Fatalf("absolute attachment = %q", got)
	}

	// Flag "1" selects the historical prefix.
	got = c.makePDFURL(map[string]any{"ATTACHMENTNAME": "old.pdf", "PDFFLAG": float64(1)})
	if got != "https://www.bseindia.com/xml-data/corpfiling/AttachHis/old.pdf" {
		t.Fatalf("historical attachment = %q", got)
	}

	// Anything else selects the live prefix.
	got = c.makePDFURL(map[string]any{"ATTACHMENT": "new.pdf", "PDFFLAG": float64(0)})
	if got != "https://www.bseindia.com/xml-data/corpfiling/AttachLive/new.pdf" {
		t.Fatalf("live attachment = %q", got)
	}

	if got := c.makePDFURL(map[string]any{}); got != "" {
		t.Fatalf("no attachment = %q, want empty", got)
	}
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	rows := []Announcement{
		{NewsID: "a", Headline: "first"},
		{NewsID: "b"},
		{NewsID: "a", Headline: "duplicate"},
		{NewsID: ""},
		{NewsID: "c"},
		{NewsID: "b"},
	}

	out := Dedupe(rows)
	if len(out) != 3 {
		t.Fatalf("Dedupe returned %d rows, want 3", len(out))
	}
	if out[0].NewsID != "a" || out[1].NewsID != "b" || out[2].NewsID != "c" {
		t.Fatalf("first-occurrence order not preserved: %+v", out)
	}
	if out[0].Headline != "first" {
		t.Fatalf("kept the wrong duplicate: %+v", out[0])
	}
}

func TestParamVariants(t *testing.T) {
	t.Parallel()

	variants := paramVariants("", "0", "01/01/2025", "02/01/2025", 3, "tata", "", "")
	if len(variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(variants))
	}

	for i, v := range variants {
		if v.Get("strType") != "C" {
			t.Fatalf("variant %d: empty segment did not default to C", i)
		}
		if v.Get("strCat") != "-1" {
			t.Fatalf("variant %d: empty category did not default to -1", i)
		}
		if v.Get("pageno") != "3" {
			t.Fatalf("variant %d: pageno = %q", i, v.Get("pageno"))
		}
		if v.Get("strSearch") != "tata" {
			t.Fatalf("variant %d: strSearch = %q", i, v.Get("strSearch"))
		}
	}

	if !variants[0].Has("strIsXBRL") || variants[0].Has("strAnnSubmitType") {
		t.Fatalf("variant 1 field mix: %v", variants[0])
	}
	if !variants[1].Has("strAnnSubmitType") || variants[1].Has("strIsXBRL") {
		t.Fatalf("variant 2 field mix: %v", variants[1])
	}
	if !variants[2].Has("strIsXBRL") || !variants[2].Has("strPrevDate") {
		t.Fatalf("variant 3 field mix: %v", variants[2])
	}
}
