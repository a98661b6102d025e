// Package stackexchange wires the full pipeline for turning StackExchange
// dumps into question/answer-pair datasets: acquisition, the streaming join
// pass, document assembly and archiving.
package stackexchange

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/lfoppiano/stackexchange-dataset/internal/dumps"
	"github.com/lfoppiano/stackexchange-dataset/internal/xmlrows"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/archive"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/config"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/pairer"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/store"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/store/memstore"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/store/sqlite"
)

// ProcessStream runs the join pass over one Posts.xml stream and writes the
// resulting archive chunks under <output_dir>/<name>. It owns the store and
// the archive for the duration of the pass and issues the final commit.
func ProcessStream(ctx context.Context, name string, r io.Reader, opts config.Options) (pairer.Stats, error) {
	st, cleanup, err := openStore(ctx, opts)
	if err != nil {
		return pairer.Stats{}, fmt.Errorf("%s: open store: %w", name, err)
	}
	defer cleanup()

	ar, err := archive.New(opts.OutFormat, filepath.Join(opts.OutputDir, name))
	if err != nil {
		return pairer.Stats{}, fmt.Errorf("%s: open archive: %w", name, err)
	}

	p := pairer.New(pairer.Options{
		Store:        st,
		Archive:      ar,
		Name:         name,
		MinScore:     opts.MinScore,
		MaxResponses: opts.MaxResponses,
	})

	if err := p.Process(ctx, xmlrows.New(r)); err != nil {
		return p.Stats(), err
	}
	if err := ar.Commit(name); err != nil {
		return p.Stats(), fmt.Errorf("%s: final commit: %w", name, err)
	}

	if open, err := st.Count(ctx); err == nil && open > 0 {
		log.Printf("%s: %d questions never completed (undercounted AnswerCount or answers before questions), dropped",
			name, open)
	}

	stats := p.Stats()
	log.Printf("%s: done: %d records, %d questions opened, %d documents emitted",
		name, stats.Records, stats.QuestionsOpened, stats.DocumentsEmitted)
	return stats, nil
}

// ProcessDump downloads, unpacks and pairs one dump. Unless keep_sources is
// set, the archive and extracted XML are removed after a successful pass.
func ProcessDump(ctx context.Context, name string, dl *dumps.Downloader, opts config.Options) (pairer.Stats, error) {
	if _, err := dl.Download(name); err != nil {
		return pairer.Stats{}, err
	}

	var r io.ReadCloser
	if opts.Stream {
		var err error
		r, err = dl.StreamPosts(name)
		if err != nil {
			return pairer.Stats{}, err
		}
	} else {
		xmlPath, err := dl.Extract(name)
		if err != nil {
			return pairer.Stats{}, err
		}
		r, err = os.Open(xmlPath)
		if err != nil {
			return pairer.Stats{}, err
		}
	}
	defer r.Close()

	stats, err := ProcessStream(ctx, name, r, opts)
	if err != nil {
		return stats, err
	}

	if !opts.KeepSources {
		dl.Cleanup(name)
	}
	return stats, nil
}

// RunAll processes the named dumps on a fixed-size worker pool and returns
// the number of dumps that failed. Failures, including panics, are isolated
// to their own dump.
func RunAll(ctx context.Context, names []string, dl *dumps.Downloader, opts config.Options) int {
	return runPool(ctx, names, opts.Threads(), func(ctx context.Context, name string) error {
		_, err := ProcessDump(ctx, name, dl, opts)
		return err
	})
}

// OrderNames moves stackoverflow, by far the largest dump, to the front so
// it starts first in a pooled run.
func OrderNames(names []string) []string {
	ordered := make([]string, 0, len(names))
	for _, name := range names {
		if name == "stackoverflow" {
			ordered = append([]string{name}, ordered...)
			continue
		}
		ordered = append(ordered, name)
	}
	return ordered
}

func openStore(ctx context.Context, opts config.Options) (store.Store, func(), error) {
	switch opts.Store {
	case config.MemoryStore:
		s := memstore.New()
		return s, func() { s.Close() }, nil
	case config.SQLiteStore:
		f, err := os.CreateTemp("", "stackexchange-pending-*.db")
		if err != nil {
			return nil, nil, err
		}
		path := f.Name()
		f.Close()

		s, err := sqlite.Open(ctx, path)
		if err != nil {
			os.Remove(path)
			return nil, nil, err
		}
		cleanup := func() {
			s.Close()
			os.Remove(path)
			os.Remove(path + "-wal")
			os.Remove(path + "-shm")
		}
		return s, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", opts.Store)
	}
}
