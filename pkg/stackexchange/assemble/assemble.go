// Package assemble turns a completed pending question into the output
// document shape shared by every archive format.
package assemble

import (
	"sort"
	"strings"

	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/markup"
	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/store"
)

// Document is one question with its top answers, bodies already stripped of
// markup.
type Document struct {
	Question Question `json:"question"`
	Answers  []Answer `json:"answers"`
}

// Question is the question part of a document.
type Question struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Answer is one retained answer, plain text.
type Answer struct {
	ID    string `json:"id"`
	Body  string `json:"body"`
	Score int    `json:"score"`
}

// Build assembles the document for a completed question: markup stripped,
// answers sorted by score descending with equal scores kept in arrival
// order, truncated to maxResponses.
func Build(q store.PendingQuestion, maxResponses int) Document {
	doc := Document{
		Question: Question{
			Title: q.Title,
			Body:  markup.Strip(q.Body),
		},
	}

	answers := make([]store.Answer, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, a)
	}
	// Arrival order first, then a stable sort on score, so ties keep the
	// order the answers were accumulated in.
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].Seq < answers[j].Seq
	})
	sort.SliceStable(answers, func(i, j int) bool {
		return answers[i].Score > answers[j].Score
	})

	if maxResponses > 0 && len(answers) > maxResponses {
		answers = answers[:maxResponses]
	}

	doc.Answers = make([]Answer, len(answers))
	for i, a := range answers {
		doc.Answers[i] = Answer{
			ID:    a.ID,
			Body:  markup.Strip(a.Body),
			Score: a.Score,
		}
	}

	return doc
}

// Text renders the document as the plain-text training format: title and
// question body, then each answer body, blank-line separated.
func (d Document) Text() string {
	var buf strings.Builder
	if d.Question.Title != "" {
		buf.WriteString(d.Question.Title)
		buf.WriteString("\n")
	}
	buf.WriteString(d.Question.Body)
	for _, a := range d.Answers {
		buf.WriteString("\n\n")
		buf.WriteString(a.Body)
	}
	return buf.String()
}
