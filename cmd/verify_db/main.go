package main

import (
	"context"
	"log"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/david/tender-finder/internal/config"
	"github.com/david/tender-finder/internal/db"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()
	store := db.NewStore(pool)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Table", "Status", "Rows"})

	for _, name := range []string{"vendor_profiles", "tenders", "applications"} {
		counts, err := store.Counts(ctx, name)
		if err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		statuses := make([]string, 0, len(counts))
		total := 0
		for status, n := range counts {
			statuses = append(statuses, status)
			total += n
		}
		sort.Strings(statuses)
		for _, status := range statuses {
			t.AppendRow(table.Row{name, status, counts[status]})
		}
		t.AppendFooter(table.Row{name, "total", total})
	}
	t.Render()
}
