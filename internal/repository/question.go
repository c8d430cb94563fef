package repository

import (
	"context"
	"time"

	"question-board/internal/domain"
)

// ListFilter narrows and pages the question listing. Keyword is a
// case-insensitive substring matched against the question subject,
// content, author name, and any answer's content or author name.
type ListFilter struct {
	Keyword string
	Limit   int
	Offset  int
}

// QuestionRepository exposes persistence operations for Question aggregates.
type QuestionRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, question *domain.Question) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Question, error)
	Update(ctx context.Context, id int64, subject, content string, modifyDate time.Time) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]domain.Question, error)
	Count(ctx context.Context, keyword string) (int, error)
}

// AnswerRepository manages answers attached to questions.
type AnswerRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, answer *domain.Answer) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Answer, error)
	Update(ctx context.Context, id int64, content string, modifyDate time.Time) error
	Delete(ctx context.Context, id int64) error
	ListByQuestion(ctx context.Context, questionID int64) ([]domain.Answer, error)
}
