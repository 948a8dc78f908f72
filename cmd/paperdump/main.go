package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"paperdump/internal/config"
	"paperdump/internal/export"
	"paperdump/internal/fetch"
	"paperdump/internal/imagecache"
	"paperdump/internal/index"
	"paperdump/internal/journal"
	"paperdump/internal/paper"
	"paperdump/internal/pool"
	"paperdump/internal/registry"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: paperdump [--no-export]")
	fmt.Fprintln(os.Stderr, "unless --no-export is specified, writes all docs to a folder 'docs' in the current directory.")
	os.Exit(1)
}

func main() {
	exportContent := true
	switch args := os.Args[1:]; {
	case len(args) == 0:
	case len(args) == 1 && args[0] == "--no-export":
		exportContent = false
	default:
		usage()
	}

	if err := config.LoadConfig("paperdump.json"); err != nil {
		log.Printf("Note: paperdump.json invalid, using defaults: %v", err)
	}
	cfg := config.GlobalConfig

	if cfg.AccessToken == "" {
		log.Fatal("no access token: set PAPER_ACCESS_TOKEN or access_token in paperdump.json")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}
	if exportContent {
		if err := os.MkdirAll(filepath.Join(cfg.OutputDir, "images"), 0755); err != nil {
			log.Fatalf("failed to create images directory: %v", err)
		}
	}

	reg := registry.Load(filepath.Join(cfg.OutputDir, "list.json"))

	jrnl, err := journal.Open(cfg.OutputDir)
	if err != nil {
		// The journal is diagnostics only; its loss never blocks a run.
		log.Printf("journal unavailable: %v", err)
		jrnl = nil
	} else {
		defer jrnl.Close()
	}

	client := paper.NewHTTPClient(cfg.AccessToken)

	// Only the lister itself failing is fatal to the run.
	ids, err := client.ListDocIDs()
	if err != nil {
		log.Fatalf("failed to list docs: %v", err)
	}
	log.Printf("exporting %d docs with %d workers", len(ids), cfg.DocWorkers)

	pipeline := &export.Pipeline{
		Client:        client,
		Registry:      reg,
		Cache:         imagecache.New(cfg.OutputDir, fetch.NewClient(cfg.ImageRPS, cfg.Headers)),
		Images:        pool.New(cfg.ImageWorkers),
		Journal:       jrnl,
		OutDir:        cfg.OutputDir,
		ExportContent: exportContent,
		Attempts:      cfg.RetryAttempts,
		RetryDelay:    time.Duration(cfg.RetryDelaySec) * time.Second,
	}
	pipeline.Run(ids, cfg.DocWorkers)

	// Persist whatever accumulated, even if some documents failed.
	if err := reg.Save(); err != nil {
		log.Printf("failed to save registry: %v", err)
	}
	if err := index.Write(filepath.Join(cfg.OutputDir, "index.html"), reg.Records()); err != nil {
		log.Printf("failed to write index: %v", err)
	}
}
