// Command parsecheck runs the structural extraction pipeline against a
// standards PDF and reports what it found, without touching a database or
// any LLM provider. Useful when tuning extraction against a new state's
// document layout:
//
//	go run -tags sqlite_fts5 ./cmd/parsecheck --pdf ./docs/music-standards.pdf
//	go run -tags sqlite_fts5 ./cmd/parsecheck --pdf ./docs/music-standards.pdf --json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dquintero/curricula/pdfio"
	"github.com/dquintero/curricula/standards"
)

func main() {
	var (
		pdfPath   = flag.String("pdf", "", "Path to standards PDF (required)")
		skipPages = flag.String("skip-pages", "", "Comma-separated 1-indexed pages to skip (e.g. 1,2,40)")
		asJSON    = flag.Bool("json", false, "Emit extracted records as JSON")
		verbose   = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *pdfPath == "" {
		fmt.Fprintln(os.Stderr, "parsecheck: --pdf is required")
		flag.Usage()
		os.Exit(2)
	}

	skip, err := parsePageList(*skipPages)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parsecheck: --skip-pages: %v\n", err)
		os.Exit(2)
	}

	parser := standards.NewParser(&pdfio.Reader{}, nil, nil, standards.ParserConfig{
		SkipPages:     skip,
		DisableVision: true,
	})

	result, err := parser.ParseDocument(context.Background(), *pdfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parsecheck: %v\n", err)
		os.Exit(1)
	}
	records := result.Records

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			fmt.Fprintf(os.Stderr, "parsecheck: encoding output: %v\n", err)
			os.Exit(1)
		}
	} else {
		for _, rec := range records {
			fmt.Printf("%-12s [%s/%s] %s\n", rec.StandardID, rec.GradeLevel, rec.StrandCode, rec.StandardText)
			for _, obj := range rec.Objectives {
				fmt.Printf("    %-12s %s\n", obj.ObjectiveID, obj.ObjectiveText)
			}
		}
	}

	objectives := 0
	for _, rec := range records {
		objectives += len(rec.Objectives)
	}
	fmt.Fprintf(os.Stderr, "\n%d standards, %d objectives\n", len(records), objectives)

	if err := standards.Validate(records, standards.DefaultValidationConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "validation: FAIL: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "validation: ok")
}

func parsePageList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var pages []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		pages = append(pages, n)
	}
	return pages, nil
}
