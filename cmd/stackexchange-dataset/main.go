package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/lfoppiano/stackexchange-dataset/internal/dumps"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/config"
)

func main() {
	defaults := config.Default()

	var (
		list        = flag.Bool("list", false, "List all published StackExchange dumps and exit")
		names       = flag.String("names", "", `Comma-separated dump names to download and process, or "all" (required)`)
		configPath  = flag.String("config", "", "YAML options file (optional; flags override it)")
		outputDir   = flag.String("output-dir", defaults.OutputDir, "Output directory")
		outFormat   = flag.String("out-format", defaults.OutFormat, "Output format: text or jsonl")
		minScore    = flag.Int("min-score", defaults.MinScore, "Minimum score for a non-accepted answer to be kept")
		maxResp     = flag.Int("max-responses", defaults.MaxResponses, "Maximum answers kept per question, by score")
		storeKind   = flag.String("store", defaults.Store, "Pending-question store backend: memory or sqlite")
		keepSources = flag.Bool("keep-sources", defaults.KeepSources, "Do not delete downloaded archives afterwards")
		maxThreads  = flag.Int("max-num-threads", defaults.MaxNumThreads, "Worker pool size; 0 means CPUs-1")
		stream      = flag.Bool("stream", defaults.Stream, "Decompress Posts.xml on the fly instead of extracting it")
	)
	flag.Parse()

	opts, err := buildOptions(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	// Flags set on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output-dir":
			opts.OutputDir = *outputDir
		case "out-format":
			opts.OutFormat = *outFormat
		case "min-score":
			opts.MinScore = *minScore
		case "max-responses":
			opts.MaxResponses = *maxResp
		case "store":
			opts.Store = *storeKind
		case "keep-sources":
			opts.KeepSources = *keepSources
		case "max-num-threads":
			opts.MaxNumThreads = *maxThreads
		case "stream":
			opts.Stream = *stream
		}
	})

	if err := opts.Validate(); err != nil {
		log.Fatal(err)
	}

	dl, err := dumps.New("dumps")
	if err != nil {
		log.Fatal(err)
	}

	if *list {
		sites := dl.Sites()
		sort.Strings(sites)
		fmt.Println("Published StackExchange dumps:")
		for _, site := range sites {
			fmt.Println("-", site)
		}
		return
	}

	if *names == "" {
		log.Fatal("--names required (or --list)")
	}

	selected := resolveNames(dl, *names)
	if len(selected) == 0 {
		log.Fatal("no valid dump names to process")
	}

	log.Printf("processing %d dump(s) on %d worker(s)", len(selected), opts.Threads())
	failed := stackexchange.RunAll(context.Background(), selected, dl, opts)

	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	if failed == 0 {
		fmt.Println(green("✓"), "all", len(selected), "dump(s) processed")
		return
	}
	fmt.Println(red("✗"), failed, "of", len(selected), "dump(s) failed, see log above")
	os.Exit(1)
}

func buildOptions(path string) (config.Options, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// resolveNames expands "all" and drops unknown sites with a suggestion.
func resolveNames(dl *dumps.Downloader, raw string) []string {
	if strings.TrimSpace(strings.ToLower(raw)) == "all" {
		return stackexchange.OrderNames(dl.Sites())
	}

	var selected []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		if !dl.Known(name) {
			log.Printf("%s: not a published dump, perhaps you meant %v", name, dl.Suggest(name))
			continue
		}
		selected = append(selected, name)
	}
	return stackexchange.OrderNames(selected)
}
