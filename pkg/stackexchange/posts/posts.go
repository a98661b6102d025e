package posts

import (
	"fmt"
	"strconv"

	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/internalerr"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/store"
)

// Record is one flat attribute mapping parsed from a Posts.xml row. Dumps
// encode every value as a string; absent fields are simply missing keys.
type Record map[string]string

// PostTypeId values used by the StackExchange dumps.
const (
	typeQuestion = "1"
	typeAnswer   = "2"
)

// Get is a total lookup: it returns the empty string for missing keys and for
// a nil record, so call sites branch on the value instead of crashing on
// absent attributes.
func (r Record) Get(key string) string {
	if r == nil {
		return ""
	}
	return r[key]
}

// Has reports whether the record carries a non-empty value for key.
func (r Record) Has(key string) bool {
	return r.Get(key) != ""
}

// IsQuestion reports whether the record is a question post.
func IsQuestion(r Record) bool {
	return r.Get("PostTypeId") == typeQuestion
}

// IsAnswer reports whether the record is an answer post.
func IsAnswer(r Record) bool {
	return r.Get("PostTypeId") == typeAnswer
}

// HasAnswers reports whether a question record expects at least one answer.
// A missing or non-numeric AnswerCount counts as zero.
func HasAnswers(r Record) bool {
	n, err := strconv.Atoi(r.Get("AnswerCount"))
	return err == nil && n > 0
}

// Score returns the parsed answer score. ok is false when the field is
// missing or not numeric; such answers are never above any threshold.
func Score(r Record) (score int, ok bool) {
	n, err := strconv.Atoi(r.Get("Score"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// TrimQuestion projects a question record down to the fields the pipeline
// keeps, with accumulation state freshly initialized. The returned value
// shares nothing with the input record.
func TrimQuestion(r Record) (store.PendingQuestion, error) {
	if !r.Has("Id") {
		return store.PendingQuestion{}, fmt.Errorf("question without Id: %w", internalerr.ErrMalformed)
	}
	count, err := strconv.Atoi(r.Get("AnswerCount"))
	if err != nil {
		return store.PendingQuestion{}, fmt.Errorf("question %s AnswerCount %q: %w",
			r.Get("Id"), r.Get("AnswerCount"), internalerr.ErrMalformed)
	}

	return store.PendingQuestion{
		ID:               r.Get("Id"),
		Title:            r.Get("Title"),
		Body:             r.Get("Body"),
		AnswerCount:      count,
		AcceptedAnswerID: r.Get("AcceptedAnswerId"),
		ParsedAnswers:    0,
		Answers:          make(map[string]store.Answer),
	}, nil
}

// TrimAnswer projects an answer record down to the retained fields. seq is
// the arrival position among the parent's retained answers; it keeps
// equal-score ordering stable across store backends. A missing Score trims
// to zero.
func TrimAnswer(r Record, seq int) (store.Answer, error) {
	if !r.Has("Id") {
		return store.Answer{}, fmt.Errorf("answer without Id: %w", internalerr.ErrMalformed)
	}
	score, _ := Score(r)
	return store.Answer{
		ID:    r.Get("Id"),
		Body:  r.Get("Body"),
		Score: score,
		Seq:   seq,
	}, nil
}
