package sqlite

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/store"
)

// sqliteStore implements the store.Store interface using SQLite. It keeps the
// set of open questions on disk so that memory does not grow with the number
// of questions still awaiting answers (the stackoverflow dump holds millions
// of them at once).
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite-backed pending-question store at path, creating the
// schema if needed. WAL mode is enabled.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better write throughput
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys so answers are removed with their question
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS pending_questions (
	id TEXT PRIMARY KEY,
	title TEXT,
	body TEXT,
	answer_count INTEGER NOT NULL,
	accepted_answer_id TEXT,
	parsed_answers INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS pending_answers (
	question_id TEXT NOT NULL,
	answer_id TEXT NOT NULL,
	body TEXT,
	score INTEGER NOT NULL,
	seq INTEGER NOT NULL,
	PRIMARY KEY(question_id, answer_id),
	FOREIGN KEY(question_id) REFERENCES pending_questions(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// Get loads a question and its retained answers.
func (s *sqliteStore) Get(ctx context.Context, id string) (store.PendingQuestion, bool, error) {
	var q store.PendingQuestion
	err := s.db.QueryRowContext(ctx, `
SELECT id, title, body, answer_count, accepted_answer_id, parsed_answers
FROM pending_questions
WHERE id = ?;
`, id).Scan(&q.ID, &q.Title, &q.Body, &q.AnswerCount, &q.AcceptedAnswerID, &q.ParsedAnswers)
	if err == sql.ErrNoRows {
		return store.PendingQuestion{}, false, nil
	}
	if err != nil {
		return store.PendingQuestion{}, false, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT answer_id, body, score, seq
FROM pending_answers
WHERE question_id = ?;
`, id)
	if err != nil {
		return store.PendingQuestion{}, false, err
	}
	defer rows.Close()

	q.Answers = make(map[string]store.Answer)
	for rows.Next() {
		var a store.Answer
		if err := rows.Scan(&a.ID, &a.Body, &a.Score, &a.Seq); err != nil {
			return store.PendingQuestion{}, false, err
		}
		q.Answers[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return store.PendingQuestion{}, false, err
	}

	return q, true, nil
}

// Put writes the question and replaces its retained answers in one
// transaction. Callers must Put after every mutation; values fetched with Get
// are detached copies.
func (s *sqliteStore) Put(ctx context.Context, q store.PendingQuestion) error {
	if q.ID == "" {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO pending_questions (id, title, body, answer_count, accepted_answer_id, parsed_answers)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title=excluded.title,
	body=excluded.body,
	answer_count=excluded.answer_count,
	accepted_answer_id=excluded.accepted_answer_id,
	parsed_answers=excluded.parsed_answers;
`, q.ID, q.Title, q.Body, q.AnswerCount, q.AcceptedAnswerID, q.ParsedAnswers)
	if err != nil {
		return err
	}

	if err := replaceAnswers(ctx, tx, q.ID, q.Answers); err != nil {
		return err
	}

	return tx.Commit()
}

func replaceAnswers(ctx context.Context, tx *sql.Tx, questionID string, answers map[string]store.Answer) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_answers WHERE question_id=?`, questionID); err != nil {
		return err
	}
	if len(answers) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO pending_answers (question_id, answer_id, body, score, seq) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, a := range answers {
		if a.ID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, questionID, a.ID, a.Body, a.Score, a.Seq); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a question and, via the foreign key, its answers.
func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_questions WHERE id=?`, id)
	return err
}

// Contains reports whether a question is open.
func (s *sqliteStore) Contains(ctx context.Context, id string) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_questions WHERE id=?`, id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count returns the number of open questions.
func (s *sqliteStore) Count(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_questions`).Scan(&total)
	return total, err
}
