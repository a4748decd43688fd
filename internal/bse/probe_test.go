package bse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProbeConnectivity(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: "x", Path: "/"})
		w.Write([]byte("<html></html>"))
	})
	mux.HandleFunc("/corporates/ann.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head><title>Corporate Announcements</title></head><body>ok</body></html>"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := testUpstream()
	cfg.SiteRoot = server.URL + "/"
	cfg.AnnouncementsPage = server.URL + "/corporates/ann.html"

	report := testClient(cfg).ProbeConnectivity(context.Background())

	if report.Warmup.Status != http.StatusOK {
		t.Fatalf("warmup status = %d", report.Warmup.Status)
	}
	if !report.Warmup.SetCookie {
		t.Fatal("warmup did not observe Set-Cookie")
	}
	if len(report.Warmup.CookiesAfter) == 0 || report.Warmup.CookiesAfter[0] != "ASP.NET_SessionId" {
		t.Fatalf("cookie names = %v", report.Warmup.CookiesAfter)
	}
	if report.Page.Title != "Corporate Announcements" {
		t.Fatalf("page title = %q", report.Page.Title)
	}
	if report.Page.Length == 0 || report.Page.Sample == "" {
		t.Fatalf("page sample missing: %+v", report.Page)
	}
}

func TestProbeConnectivityUnreachable(t *testing.T) {
	t.Parallel()

	cfg := testUpstream()
	cfg.SiteRoot = "http://127.0.0.1:1/"
	cfg.AnnouncementsPage = "http://127.0.0.1:1/corporates/ann.html"

	report := testClient(cfg).ProbeConnectivity(context.Background())
	if report.Warmup.Error == "" || report.Page.Error == "" {
		t.Fatalf("expected error strings, got %+v", report)
	}
}
