package store

import "context"

// Store holds questions that are still waiting for answers. Implementations
// must support point lookups keyed by question id; they are free to keep the
// data in memory or on disk, but mutations are only persisted through Put
// (read-modify-write, no in-place mutation of fetched values).
type Store interface {
	Close() error

	Get(ctx context.Context, id string) (PendingQuestion, bool, error)
	Put(ctx context.Context, q PendingQuestion) error
	Delete(ctx context.Context, id string) error
	Contains(ctx context.Context, id string) (bool, error)

	// Count returns the number of questions currently open.
	Count(ctx context.Context) (int64, error)
}

// PendingQuestion is a partially assembled question awaiting completion.
type PendingQuestion struct {
	ID               string
	Title            string
	Body             string
	AnswerCount      int
	AcceptedAnswerID string

	// ParsedAnswers counts every answer observed for this question,
	// kept or not. The question is complete once it reaches AnswerCount.
	ParsedAnswers int
	Answers       map[string]Answer
}

// Answer is a trimmed answer retained on its parent question.
type Answer struct {
	ID    string
	Body  string
	Score int

	// Seq records arrival order among this question's retained answers,
	// so equal-score answers sort the same way on every backend.
	Seq int
}

// Accepts reports whether answerID is the designated accepted answer.
func (q PendingQuestion) Accepts(answerID string) bool {
	return q.AcceptedAnswerID != "" && answerID != "" && q.AcceptedAnswerID == answerID
}

// Complete reports whether every expected answer has been observed.
func (q PendingQuestion) Complete() bool {
	return q.ParsedAnswers == q.AnswerCount
}
