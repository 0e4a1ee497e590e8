package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/david/tender-finder/internal/compliance"
	"github.com/david/tender-finder/internal/config"
	"github.com/david/tender-finder/internal/db"
	"github.com/david/tender-finder/internal/sanitize"
)

func main() {
	status := flag.String("status", "", "only re-evaluate profiles in this status")
	dryRun := flag.Bool("dry-run", false, "print changes without saving")
	showAll := flag.Bool("all", false, "list every profile, not only changed ones")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()
	store := db.NewStore(pool)

	profiles, err := store.ListVendors(ctx, *status)
	if err != nil {
		log.Fatalf("list vendors failed: %v", err)
	}

	evaluator := compliance.NewEvaluator()
	now := time.Now().UTC()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Company", "Status", "Completeness", "Docs", "Risk Flags"})

	changed := 0
	for _, p := range profiles {
		p.Normalize()
		before := p.Metrics
		ev := evaluator.Evaluate(p, now)

		moved := ev.StatusChanged ||
			before.Completeness != ev.Metrics.Completeness ||
			before.DocumentCoverage != ev.Metrics.DocumentCoverage
		if moved {
			changed++
		}
		if moved && !*dryRun {
			if err := store.UpdateVendorEvaluation(ctx, p.ID, ev.Metrics, ev.Status); err != nil {
				log.Printf("update %s failed: %v", p.ID, err)
				continue
			}
		}
		if !moved && !*showAll {
			continue
		}

		statusCell := string(ev.Status)
		if ev.StatusChanged {
			statusCell = fmt.Sprintf("%s -> %s", p.Status, ev.Status)
		}
		t.AppendRow(table.Row{
			sanitize.TruncateText(p.CompanyName, 40),
			statusCell,
			fmt.Sprintf("%.2f -> %.2f", before.Completeness, ev.Metrics.Completeness),
			fmt.Sprintf("%.2f -> %.2f", before.DocumentCoverage, ev.Metrics.DocumentCoverage),
			strings.Join(ev.Metrics.RiskFlags, ", "),
		})
	}

	t.AppendFooter(table.Row{"", "", "", "Changed", fmt.Sprintf("%d / %d", changed, len(profiles))})
	t.Render()
	if *dryRun {
		fmt.Println("dry run: nothing saved")
	}
}
