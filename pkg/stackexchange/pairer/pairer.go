// Package pairer joins questions with their answers in a single forward pass
// over a Posts.xml record stream. Only questions still awaiting answers are
// kept, in the pending-question store; as soon as a question has seen every
// answer it expects, its document is emitted and its state freed. Peak memory
// therefore tracks the number of concurrently open questions, not the size of
// the dump.
package pairer

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/archive"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/assemble"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/posts"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/store"
)

// RowReader yields successive records from a dump; io.EOF ends the pass.
type RowReader interface {
	Next() (posts.Record, error)
}

// Options configures a Pairer.
type Options struct {
	Store   store.Store
	Archive archive.Archive

	// Name identifies the dump in commits and log lines.
	Name string

	// MinScore is the minimum score for a non-accepted answer to be kept.
	MinScore int
	// MaxResponses caps the answers emitted per question.
	MaxResponses int
	// CommitEvery asks the archive to commit after that many records, so
	// un-persisted output stays bounded on very large dumps. Zero means
	// the default.
	CommitEvery int
}

// Stats counts what a pass did.
type Stats struct {
	Records            int64
	QuestionsOpened    int64
	QuestionsDiscarded int64
	AnswersMatched     int64
	OrphanAnswers      int64
	DocumentsEmitted   int64
	CompletedEmpty     int64
	RecordsSkipped     int64
}

// Pairer drives one pass over one dump. It is not safe for concurrent use;
// parallelism lives across dumps, each with its own Pairer.
type Pairer struct {
	store store.Store
	ar    archive.Archive
	name  string

	minScore     int
	maxResponses int
	commitEvery  int

	stats Stats
}

// New creates a Pairer with the given options. MinScore is used as given
// (config owns its default); MaxResponses defaults to 3 and CommitEvery to
// 100000 when unset.
func New(opts Options) *Pairer {
	if opts.MaxResponses <= 0 {
		opts.MaxResponses = 3
	}
	if opts.CommitEvery <= 0 {
		opts.CommitEvery = 100000
	}
	return &Pairer{
		store:        opts.Store,
		ar:           opts.Archive,
		name:         opts.Name,
		minScore:     opts.MinScore,
		maxResponses: opts.MaxResponses,
		commitEvery:  opts.CommitEvery,
	}
}

// Stats returns the counters accumulated so far.
func (p *Pairer) Stats() Stats {
	return p.stats
}

// Process consumes the record stream to the end. A failure on a single
// record is logged and skipped; only stream-level and store-level failures
// abort the pass. The final commit is left to the caller.
func (p *Pairer) Process(ctx context.Context, rows RowReader) error {
	for {
		rec, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: read record stream: %w", p.name, err)
		}

		p.stats.Records++
		if err := p.handle(ctx, rec); err != nil {
			p.stats.RecordsSkipped++
			log.Printf("%s: skipping record %s: %v", p.name, rec.Get("Id"), err)
		}

		if p.stats.Records%int64(p.commitEvery) == 0 {
			if err := p.ar.Commit(p.name); err != nil {
				return fmt.Errorf("%s: commit archive: %w", p.name, err)
			}
			log.Printf("%s: processed %d records, %d documents emitted",
				p.name, p.stats.Records, p.stats.DocumentsEmitted)
		}
	}
	return nil
}

func (p *Pairer) handle(ctx context.Context, rec posts.Record) error {
	switch {
	case posts.IsQuestion(rec):
		return p.handleQuestion(ctx, rec)
	case posts.IsAnswer(rec):
		return p.handleAnswer(ctx, rec)
	}
	// wiki posts, tag descriptions and other post types are not paired
	return nil
}

func (p *Pairer) handleQuestion(ctx context.Context, rec posts.Record) error {
	if !posts.HasAnswers(rec) {
		p.stats.QuestionsDiscarded++
		return nil
	}

	q, err := posts.TrimQuestion(rec)
	if err != nil {
		return err
	}

	// A reused question id overwrites the earlier entry (last-write-wins);
	// well-formed dumps never do this.
	if err := p.store.Put(ctx, q); err != nil {
		return fmt.Errorf("store question %s: %w", q.ID, err)
	}
	p.stats.QuestionsOpened++
	return nil
}

func (p *Pairer) handleAnswer(ctx context.Context, rec posts.Record) error {
	parentID := rec.Get("ParentId")
	if parentID == "" {
		p.stats.OrphanAnswers++
		return nil
	}

	parent, ok, err := p.store.Get(ctx, parentID)
	if err != nil {
		return fmt.Errorf("load question %s: %w", parentID, err)
	}
	if !ok {
		// Parent never qualified, or already completed. Designed outcome,
		// not an error.
		p.stats.OrphanAnswers++
		return nil
	}
	p.stats.AnswersMatched++

	switch {
	case parent.Accepts(rec.Get("Id")):
		// Acceptance overrides the score threshold.
		a, err := posts.TrimAnswer(rec, len(parent.Answers))
		if err != nil {
			return err
		}
		parent.Answers[a.ID] = a
		parent.ParsedAnswers++
	case p.aboveThreshold(rec):
		if rec.Has("Id") {
			a, err := posts.TrimAnswer(rec, len(parent.Answers))
			if err != nil {
				return err
			}
			parent.Answers[a.ID] = a
		}
		parent.ParsedAnswers++
	default:
		parent.ParsedAnswers++
	}

	// Values fetched from a store are detached copies, so every mutation
	// must be written back.
	if err := p.store.Put(ctx, parent); err != nil {
		return fmt.Errorf("store question %s: %w", parentID, err)
	}

	// Re-read and check completion. The pass is single-threaded, so this
	// is a plain read-after-write.
	current, ok, err := p.store.Get(ctx, parentID)
	if err != nil {
		return fmt.Errorf("load question %s: %w", parentID, err)
	}
	if ok && current.Complete() {
		return p.complete(ctx, current)
	}
	return nil
}

func (p *Pairer) aboveThreshold(rec posts.Record) bool {
	score, ok := posts.Score(rec)
	return ok && score >= p.minScore
}

// complete removes the question from the store and, when it retained at
// least one answer, emits its document.
func (p *Pairer) complete(ctx context.Context, q store.PendingQuestion) error {
	if err := p.store.Delete(ctx, q.ID); err != nil {
		return fmt.Errorf("delete question %s: %w", q.ID, err)
	}

	if len(q.Answers) == 0 {
		p.stats.CompletedEmpty++
		return nil
	}

	doc := assemble.Build(q, p.maxResponses)
	meta := map[string]string{"name": fmt.Sprintf("%s_%s", p.name, zfill(q.ID, 10))}
	if err := p.ar.AddData(doc, meta); err != nil {
		return fmt.Errorf("emit question %s: %w", q.ID, err)
	}
	p.stats.DocumentsEmitted++
	return nil
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
