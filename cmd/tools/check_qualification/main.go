package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/david/tender-finder/internal/config"
	"github.com/david/tender-finder/internal/db"
	"github.com/david/tender-finder/internal/models"
	"github.com/david/tender-finder/internal/qualify"
	"github.com/david/tender-finder/internal/sanitize"
)

func main() {
	tenderFlag := flag.String("tender", "", "tender id (required)")
	vendorFlag := flag.String("vendor", "", "vendor profile id; empty checks anonymously")
	flag.Parse()

	tenderID, err := uuid.Parse(*tenderFlag)
	if err != nil {
		log.Fatalf("invalid -tender: %v", err)
	}

	cfg := config.Load()
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()
	store := db.NewStore(pool)

	tender, err := store.GetTender(ctx, tenderID)
	if err != nil {
		log.Fatalf("load tender: %v", err)
	}

	var profile *models.VendorProfile
	if *vendorFlag != "" {
		vendorID, err := uuid.Parse(*vendorFlag)
		if err != nil {
			log.Fatalf("invalid -vendor: %v", err)
		}
		if profile, err = store.GetVendor(ctx, vendorID); err != nil {
			log.Fatalf("load vendor: %v", err)
		}
		profile.Normalize()
	}

	result := qualify.Match(*tender, profile)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(sanitize.TruncateText(tender.Title, 70))
	t.AppendHeader(table.Row{"", "Requirement", "Type", "Note"})
	for _, r := range result.Requirements {
		t.AppendRow(table.Row{glyph(r.Met), sanitize.TruncateText(r.Name, 60), r.Type, r.Note})
	}
	t.Render()

	switch {
	case result.Verdict == nil:
		fmt.Println("No verdict: nothing could be checked automatically.")
	case result.Verdict.Qualifies:
		fmt.Println("Qualifies.")
	default:
		fmt.Printf("Does not qualify. Missing: %v\n", result.Verdict.Missing)
	}
}

func glyph(met *bool) string {
	switch {
	case met == nil:
		return "-"
	case *met:
		return "yes"
	}
	return "no"
}
