package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"question-board/internal/domain"
	"question-board/internal/repository"
)

const createAnswersTable = `
CREATE TABLE IF NOT EXISTS answers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	content TEXT NOT NULL,
	create_date DATETIME NOT NULL,
	modify_date DATETIME NULL
);
`

const answerColumns = `a.id, a.question_id, a.user_id, u.username, a.content, a.create_date, a.modify_date`

type AnswerRepository struct {
	db *sql.DB
}

func NewAnswerRepository(db *sql.DB) repository.AnswerRepository {
	return &AnswerRepository{db: db}
}

func (r *AnswerRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAnswersTable); err != nil {
		return fmt.Errorf("create answers table: %w", err)
	}
	return nil
}

func (r *AnswerRepository) Create(ctx context.Context, answer *domain.Answer) (int64, error) {
	if answer.CreateDate.IsZero() {
		answer.CreateDate = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO answers (question_id, user_id, content, create_date)
VALUES (?, ?, ?, ?)`,
		answer.QuestionID,
		answer.UserID,
		answer.Content,
		answer.CreateDate,
	)
	if err != nil {
		return 0, fmt.Errorf("insert answer: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("answer last insert id: %w", err)
	}
	answer.ID = id
	return id, nil
}

func (r *AnswerRepository) Get(ctx context.Context, id int64) (*domain.Answer, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+answerColumns+`
FROM answers a
JOIN users u ON u.id = a.user_id
WHERE a.id = ?`,
		id,
	)
	return scanAnswer(row)
}

func (r *AnswerRepository) Update(ctx context.Context, id int64, content string, modifyDate time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE answers
SET content=?, modify_date=?
WHERE id=?`,
		content,
		modifyDate.UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update answer: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("answer update rows affected: %w", err)
	}
	if aff == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AnswerRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM answers WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete answer: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("answer delete rows affected: %w", err)
	}
	if aff == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AnswerRepository) ListByQuestion(ctx context.Context, questionID int64) ([]domain.Answer, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+answerColumns+`
FROM answers a
JOIN users u ON u.id = a.user_id
WHERE a.question_id = ?
ORDER BY a.id ASC`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		answer, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		answers = append(answers, *answer)
	}

	return answers, rows.Err()
}

func scanAnswer(scanner interface {
	Scan(dest ...any) error
}) (*domain.Answer, error) {
	var (
		answer     domain.Answer
		modifyDate sql.NullTime
	)

	if err := scanner.Scan(
		&answer.ID,
		&answer.QuestionID,
		&answer.UserID,
		&answer.Username,
		&answer.Content,
		&answer.CreateDate,
		&modifyDate,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan answer: %w", err)
	}

	if modifyDate.Valid {
		t := modifyDate.Time
		answer.ModifyDate = &t
	}

	return &answer, nil
}
