package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"bse-announcements/internal/bse"
	"bse-announcements/internal/config"
	"bse-announcements/internal/logging"
)

const cliRowCap = 50

// Summary is the JSON output structure.
type Summary struct {
	Count int                `json:"count"`
	Rows  []bse.Announcement `json:"rows"`
}

func main() {
	today := time.Now()
	fromDefault := today.AddDate(0, 0, -6).Format("2006-01-02")
	toDefault := today.Format("2006-01-02")

	from := flag.String("from", fromDefault, "window start (YYYY-MM-DD or DD/MM/YYYY)")
	to := flag.String("to", toDefault, "window end (YYYY-MM-DD or DD/MM/YYYY)")
	segment := flag.String("segment", "C", "upstream segment filter")
	subm := flag.String("subm", "0", "submission type (XBRL flag)")
	category := flag.String("cat", "", "category filter")
	subcategory := flag.String("subcat", "", "subcategory filter")
	search := flag.String("search", "", "free-text search")
	verbose := flag.Bool("verbose", false, "log every request attempt")
	probe := flag.Bool("probe", false, "print a connectivity report to stderr")
	flag.Parse()

	cfg := config.Load()
	level := cfg.Log.Level
	if *verbose {
		level = "debug"
	}
	logger := logging.New(level)

	client := bse.New(cfg.Upstream, logger.With("component", "bse"))
	ctx := context.Background()

	if *probe {
		report := client.ProbeConnectivity(ctx)
		if raw, err := json.MarshalIndent(report, "", "  "); err == nil {
			fmt.Fprintln(os.Stderr, string(raw))
		}
	}

	rows, err := client.Fetch(ctx, bse.FetchOptions{
		FromDate:       *from,
		ToDate:         *to,
		Segment:        *segment,
		SubmissionType: *subm,
		Category:       *category,
		Subcategory:    *subcategory,
		Search:         *search,
	})
	if err != nil {
		logger.Error("fetch failed", "error", err)
		os.Exit(1)
	}

	rows = bse.Dedupe(rows)
	count := len(rows)
	if len(rows) > cliRowCap {
		rows = rows[:cliRowCap]
	}

	out, err := json.MarshalIndent(Summary{Count: count, Rows: rows}, "", "  ")
	if err != nil {
		logger.Error("marshal failed", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
