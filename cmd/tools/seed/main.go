package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/david/tender-finder/internal/config"
	"github.com/david/tender-finder/internal/db"
	"github.com/david/tender-finder/internal/models"
)

func main() {
	file := flag.String("file", "", "YAML file of tenders; defaults to the built-in set")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, nil); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	now := time.Now().UTC()
	var tenders []models.Tender
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("read %s: %v", *file, err)
		}
		tenders, err = db.ParseSeedTenders(data, now)
		if err != nil {
			log.Fatalf("parse %s: %v", *file, err)
		}
	} else if tenders, err = db.LoadSeedTenders(now); err != nil {
		log.Fatalf("load seed tenders: %v", err)
	}

	inserted, err := db.NewStore(pool).SeedTenders(ctx, tenders)
	if err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	log.Printf("Seeded %d of %d tenders (existing titles skipped)", inserted, len(tenders))
}
