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

const createQuestionsTable = `
CREATE TABLE IF NOT EXISTS questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	subject TEXT NOT NULL,
	content TEXT NOT NULL,
	create_date DATETIME NOT NULL,
	modify_date DATETIME NULL,
	image_path TEXT NULL,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE
);
`

const questionColumns = `q.id, q.subject, q.content, q.create_date, q.modify_date, q.image_path, q.user_id, u.username`

// searchCondition is the keyword predicate from the listing contract: a
// question matches when the keyword appears in its subject, content,
// author name, or in any answer's content or author name.
const searchCondition = `
q.subject LIKE ?1 OR q.content LIKE ?1 OR u.username LIKE ?1
OR EXISTS (
	SELECT 1 FROM answers a
	JOIN users au ON au.id = a.user_id
	WHERE a.question_id = q.id
	AND (a.content LIKE ?1 OR au.username LIKE ?1)
)`

type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) repository.QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createQuestionsTable); err != nil {
		return fmt.Errorf("create questions table: %w", err)
	}
	return nil
}

func (r *QuestionRepository) Create(ctx context.Context, question *domain.Question) (int64, error) {
	if question.CreateDate.IsZero() {
		question.CreateDate = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO questions (subject, content, create_date, image_path, user_id)
VALUES (?, ?, ?, ?, ?)`,
		question.Subject,
		question.Content,
		question.CreateDate,
		nullString(question.ImagePath),
		question.UserID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("question last insert id: %w", err)
	}
	question.ID = id
	return id, nil
}

func (r *QuestionRepository) Get(ctx context.Context, id int64) (*domain.Question, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+questionColumns+`
FROM questions q
JOIN users u ON u.id = q.user_id
WHERE q.id = ?`,
		id,
	)
	return scanQuestion(row)
}

func (r *QuestionRepository) Update(ctx context.Context, id int64, subject, content string, modifyDate time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE questions
SET subject=?, content=?, modify_date=?
WHERE id=?`,
		subject,
		content,
		modifyDate.UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("question update rows affected: %w", err)
	}
	if aff == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the question and its answers in one transaction. The
// answers carry an ON DELETE CASCADE rule as well; the explicit delete
// keeps the behavior independent of the foreign_keys pragma.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE question_id=?`, id); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("question delete rows affected: %w", err)
	}
	if aff == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit question delete: %w", err)
	}
	return nil
}

func (r *QuestionRepository) List(ctx context.Context, filter repository.ListFilter) ([]domain.Question, error) {
	query := `
SELECT ` + questionColumns + `
FROM questions q
JOIN users u ON u.id = q.user_id`
	args := []any{}

	if filter.Keyword != "" {
		query += `
WHERE ` + searchCondition
		args = append(args, likePattern(filter.Keyword))
	}

	query += `
ORDER BY q.create_date DESC, q.id ASC
LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *question)
	}

	return questions, rows.Err()
}

func (r *QuestionRepository) Count(ctx context.Context, keyword string) (int, error) {
	query := `
SELECT COUNT(*)
FROM questions q
JOIN users u ON u.id = q.user_id`
	args := []any{}

	if keyword != "" {
		query += `
WHERE ` + searchCondition
		args = append(args, likePattern(keyword))
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}

func scanQuestion(scanner interface {
	Scan(dest ...any) error
}) (*domain.Question, error) {
	var (
		question   domain.Question
		modifyDate sql.NullTime
		imagePath  sql.NullString
	)

	if err := scanner.Scan(
		&question.ID,
		&question.Subject,
		&question.Content,
		&question.CreateDate,
		&modifyDate,
		&imagePath,
		&question.UserID,
		&question.Username,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan question: %w", err)
	}

	if modifyDate.Valid {
		t := modifyDate.Time
		question.ModifyDate = &t
	}
	question.ImagePath = imagePath.String

	return &question, nil
}

// likePattern wraps the keyword for substring LIKE matching. LIKE in
// sqlite is case-insensitive for ASCII, matching the listing contract.
func likePattern(keyword string) string {
	return "%" + keyword + "%"
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
