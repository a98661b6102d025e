package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/config"
)

// pair-posts runs the join pass over a single, already-extracted Posts.xml.
func main() {
	var (
		xmlPath   = flag.String("xml", "", "Path to Posts.xml (required)")
		name      = flag.String("name", "", "Dump name used in output files (default: parent directory of --xml)")
		outputDir = flag.String("output-dir", "out", "Output directory")
		outFormat = flag.String("out-format", "text", "Output format: text or jsonl")
		minScore  = flag.Int("min-score", 3, "Minimum score for a non-accepted answer to be kept")
		maxResp   = flag.Int("max-responses", 3, "Maximum answers kept per question, by score")
		storeKind = flag.String("store", config.MemoryStore, "Pending-question store backend: memory or sqlite")
	)
	flag.Parse()

	if *xmlPath == "" {
		log.Fatal("--xml required")
	}

	label := *name
	if label == "" {
		label = filepath.Base(filepath.Dir(*xmlPath))
		if label == "." || label == string(filepath.Separator) {
			label = "posts"
		}
	}

	opts := config.Default()
	opts.OutputDir = *outputDir
	opts.OutFormat = *outFormat
	opts.MinScore = *minScore
	opts.MaxResponses = *maxResp
	opts.Store = *storeKind
	if err := opts.Validate(); err != nil {
		log.Fatal(err)
	}

	f, err := os.Open(*xmlPath)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if _, err := stackexchange.ProcessStream(context.Background(), label, f, opts); err != nil {
		log.Fatal(err)
	}
}
