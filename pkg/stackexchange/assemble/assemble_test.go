package assemble

import (
	"strings"
	"testing"

	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/store"
)

func TestBuildStripsMarkup(t *testing.T) {
	q := store.PendingQuestion{
		Title: "A question",
		Body:  "<p>question body</p>",
		Answers: map[string]store.Answer{
			"10": {ID: "10", Body: "<p>answer body</p>", Score: 5, Seq: 0},
		},
	}

	doc := Build(q, 3)
	if doc.Question.Title != "A question" {
		t.Errorf("unexpected title %q", doc.Question.Title)
	}
	if doc.Question.Body != "question body" {
		t.Errorf("markup should be stripped from question body, got %q", doc.Question.Body)
	}
	if len(doc.Answers) != 1 || doc.Answers[0].Body != "answer body" {
		t.Errorf("markup should be stripped from answer bodies, got %+v", doc.Answers)
	}
}

func TestBuildSortsByScoreDescending(t *testing.T) {
	q := store.PendingQuestion{
		Answers: map[string]store.Answer{
			"10": {ID: "10", Score: 1, Seq: 0},
			"11": {ID: "11", Score: 9, Seq: 1},
			"12": {ID: "12", Score: 5, Seq: 2},
		},
	}

	doc := Build(q, 10)
	if len(doc.Answers) != 3 {
		t.Fatalf("expected 3 answers, got %d", len(doc.Answers))
	}
	if doc.Answers[0].ID != "11" || doc.Answers[1].ID != "12" || doc.Answers[2].ID != "10" {
		t.Errorf("answers not sorted by score descending: %+v", doc.Answers)
	}
}

func TestBuildTiesKeepArrivalOrder(t *testing.T) {
	q := store.PendingQuestion{
		Answers: map[string]store.Answer{
			"30": {ID: "30", Score: 5, Seq: 2},
			"10": {ID: "10", Score: 5, Seq: 0},
			"20": {ID: "20", Score: 5, Seq: 1},
		},
	}

	// Map iteration order is random; Seq must fix the tie order.
	for i := 0; i < 20; i++ {
		doc := Build(q, 10)
		if doc.Answers[0].ID != "10" || doc.Answers[1].ID != "20" || doc.Answers[2].ID != "30" {
			t.Fatalf("equal scores should keep arrival order, got %+v", doc.Answers)
		}
	}
}

func TestBuildTruncates(t *testing.T) {
	q := store.PendingQuestion{
		Answers: map[string]store.Answer{
			"10": {ID: "10", Score: 9, Seq: 0},
			"11": {ID: "11", Score: 8, Seq: 1},
			"12": {ID: "12", Score: 7, Seq: 2},
			"13": {ID: "13", Score: 6, Seq: 3},
		},
	}

	doc := Build(q, 2)
	if len(doc.Answers) != 2 {
		t.Fatalf("expected 2 answers after truncation, got %d", len(doc.Answers))
	}
	if doc.Answers[0].ID != "10" || doc.Answers[1].ID != "11" {
		t.Errorf("truncation should keep the highest scores, got %+v", doc.Answers)
	}
}

func TestBuildAbsentFields(t *testing.T) {
	doc := Build(store.PendingQuestion{}, 3)
	if doc.Question.Title != "" || doc.Question.Body != "" {
		t.Errorf("absent title/body should be empty strings, got %+v", doc.Question)
	}
	if len(doc.Answers) != 0 {
		t.Errorf("no retained answers should give empty answer list, got %+v", doc.Answers)
	}
}

func TestText(t *testing.T) {
	doc := Document{
		Question: Question{Title: "Title", Body: "body"},
		Answers: []Answer{
			{ID: "10", Body: "first answer", Score: 5},
			{ID: "11", Body: "second answer", Score: 2},
		},
	}

	text := doc.Text()
	if !strings.HasPrefix(text, "Title\nbody") {
		t.Errorf("text should start with title and body, got %q", text)
	}
	if !strings.Contains(text, "first answer") || !strings.Contains(text, "second answer") {
		t.Errorf("text should contain all answer bodies, got %q", text)
	}
	if strings.Index(text, "first answer") > strings.Index(text, "second answer") {
		t.Error("answers should render in document order")
	}
}

func TestTextNoTitle(t *testing.T) {
	doc := Document{Question: Question{Body: "body"}}
	if got := doc.Text(); got != "body" {
		t.Errorf("untitled document should render body only, got %q", got)
	}
}
