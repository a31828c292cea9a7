package quiz

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"examhub.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateTest(ctx context.Context, input TestCreate) (Test, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Test{}, err
	}
	defer func() { _ = tx.Rollback() }()

	test := Test{
		ID:          ids.New(),
		Title:       input.Title,
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx,
		`insert into tests(id, title, description, created_at) values($1,$2,$3,$4)`,
		test.ID, test.Title, test.Description, test.CreatedAt,
	); err != nil {
		return Test{}, err
	}

	for _, q := range input.Questions {
		question := Question{ID: ids.New(), Text: q.Text}
		if _, err := tx.ExecContext(ctx,
			`insert into questions(id, test_id, text) values($1,$2,$3)`,
			question.ID, test.ID, question.Text,
		); err != nil {
			return Test{}, err
		}
		for _, o := range q.Options {
			option := Option{ID: ids.New(), Text: o.Text, IsCorrect: o.IsCorrect}
			if _, err := tx.ExecContext(ctx,
				`insert into options(id, question_id, text, is_correct) values($1,$2,$3,$4)`,
				option.ID, question.ID, option.Text, option.IsCorrect,
			); err != nil {
				return Test{}, err
			}
			question.Options = append(question.Options, option)
		}
		test.Questions = append(test.Questions, question)
	}

	if err := tx.Commit(); err != nil {
		return Test{}, err
	}
	return test, nil
}

func (s *PGStore) GetTest(ctx context.Context, id string) (Test, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, title, description, created_at from tests where id=$1`, id)
	var test Test
	if err := row.Scan(&test.ID, &test.Title, &test.Description, &test.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, ErrNotFound
		}
		return Test{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`select q.id, q.text, o.id, o.text, o.is_correct
		 from questions q
		 left join options o on o.question_id = q.id
		 where q.test_id=$1
		 order by q.id, o.id`, id)
	if err != nil {
		return Test{}, err
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var (
			qid, qtext string
			oid, otext sql.NullString
			correct    sql.NullBool
		)
		if err := rows.Scan(&qid, &qtext, &oid, &otext, &correct); err != nil {
			return Test{}, err
		}
		pos, ok := index[qid]
		if !ok {
			pos = len(test.Questions)
			index[qid] = pos
			test.Questions = append(test.Questions, Question{ID: qid, Text: qtext})
		}
		if oid.Valid {
			test.Questions[pos].Options = append(test.Questions[pos].Options, Option{
				ID:        oid.String,
				Text:      otext.String,
				IsCorrect: correct.Bool,
			})
		}
	}
	return test, rows.Err()
}

func (s *PGStore) ListTests(ctx context.Context) ([]Test, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, title, description, created_at from tests order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []Test
	for rows.Next() {
		var t Test
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

func (s *PGStore) Assign(ctx context.Context, a Assignment) error {
	_, err := s.db.ExecContext(ctx,
		`insert into user_test_assignments(username, test_id, start_time, end_time, created_at)
		 values($1,$2,$3,$4,$5)`,
		a.Username, a.TestID, a.StartTime, a.EndTime, a.CreatedAt,
	)
	return err
}

func (s *PGStore) AssignmentsForUser(ctx context.Context, username string) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`select username, test_id, start_time, end_time, created_at
		 from user_test_assignments where username=$1 order by created_at asc`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (s *PGStore) Assignments(ctx context.Context) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`select username, test_id, start_time, end_time, created_at
		 from user_test_assignments order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func scanAssignments(rows *sql.Rows) ([]Assignment, error) {
	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.Username, &a.TestID, &a.StartTime, &a.EndTime, &a.CreatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
