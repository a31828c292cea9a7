package quiz

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreCreateTestTransactional(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("insert into tests").
		WithArgs(sqlmock.AnyArg(), "T1", "desc", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into questions").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "Q1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into options").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "O1", true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	test, err := store.CreateTest(context.Background(), TestCreate{
		Title:       "T1",
		Description: "desc",
		Questions: []QuestionCreate{
			{Text: "Q1", Options: []OptionCreate{{Text: "O1", IsCorrect: true}}},
		},
	})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	if test.ID == "" || len(test.Questions) != 1 {
		t.Fatalf("unexpected test: %+v", test)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreCreateTestRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("insert into tests").
		WithArgs(sqlmock.AnyArg(), "T1", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into questions").
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	store := NewPGStore(db)
	if _, err := store.CreateTest(context.Background(), TestCreate{
		Title:     "T1",
		Questions: []QuestionCreate{{Text: "Q1"}},
	}); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreGetTestMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select id, title, description, created_at from tests").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	store := NewPGStore(db)
	if _, err := store.GetTest(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreGetTestAggregatesOptions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("select id, title, description, created_at from tests").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "created_at"}).
			AddRow("t1", "T1", "", now))
	mock.ExpectQuery("select q.id, q.text, o.id, o.text, o.is_correct").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"qid", "qtext", "oid", "otext", "is_correct"}).
			AddRow("q1", "Q1", "o1", "O1", true).
			AddRow("q1", "Q1", "o2", "O2", false).
			AddRow("q2", "Q2", nil, nil, nil))

	store := NewPGStore(db)
	test, err := store.GetTest(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GetTest: %v", err)
	}
	if len(test.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(test.Questions))
	}
	if len(test.Questions[0].Options) != 2 || len(test.Questions[1].Options) != 0 {
		t.Fatalf("options not aggregated: %+v", test.Questions)
	}
}
