package service

import (
	"context"
	"strings"
	"time"

	"question-board/internal/domain"
	"question-board/internal/repository"
)

// AnswerService coordinates answer level operations.
type AnswerService interface {
	Create(ctx context.Context, ownerID, questionID int64, content string) (*domain.Answer, error)
	Modify(ctx context.Context, actorID, id int64, content string) (*domain.Answer, error)
	// Delete removes the answer and returns the id of the question it
	// belonged to.
	Delete(ctx context.Context, actorID, id int64) (int64, error)
}

type answerService struct {
	answers   repository.AnswerRepository
	questions repository.QuestionRepository
}

func NewAnswerService(answers repository.AnswerRepository, questions repository.QuestionRepository) AnswerService {
	return &answerService{
		answers:   answers,
		questions: questions,
	}
}

func (s *answerService) Create(ctx context.Context, ownerID, questionID int64, content string) (*domain.Answer, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewValidationError("content", "content is required")
	}

	// Any authenticated user may answer, but the question must exist.
	if _, err := s.questions.Get(ctx, questionID); err != nil {
		return nil, err
	}

	answer := &domain.Answer{
		QuestionID: questionID,
		UserID:     ownerID,
		Content:    content,
	}
	if _, err := s.answers.Create(ctx, answer); err != nil {
		return nil, err
	}
	return answer, nil
}

func (s *answerService) Modify(ctx context.Context, actorID, id int64, content string) (*domain.Answer, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewValidationError("content", "content is required")
	}

	answer, err := s.answers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if answer.UserID != actorID {
		return nil, domain.ErrForbidden
	}

	now := time.Now().UTC()
	if err := s.answers.Update(ctx, id, content, now); err != nil {
		return nil, err
	}

	answer.Content = content
	answer.ModifyDate = &now
	return answer, nil
}

func (s *answerService) Delete(ctx context.Context, actorID, id int64) (int64, error) {
	answer, err := s.answers.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if answer.UserID != actorID {
		return 0, domain.ErrForbidden
	}

	if err := s.answers.Delete(ctx, id); err != nil {
		return 0, err
	}
	return answer.QuestionID, nil
}
