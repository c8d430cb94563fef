package service

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"question-board/internal/domain"
	"question-board/internal/repository"
	"question-board/internal/storage"
)

// PageSize is the number of questions per listing page.
const PageSize = 10

var allowedImageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// ImageUpload carries an incoming attachment before it is stored.
type ImageUpload struct {
	Filename string
	Reader   io.Reader
}

// QuestionService coordinates question level operations backed by repositories.
type QuestionService interface {
	Create(ctx context.Context, ownerID int64, subject, content string, image *ImageUpload) (*domain.Question, error)
	Get(ctx context.Context, id int64) (*domain.Question, error)
	List(ctx context.Context, page int, keyword string) ([]domain.Question, int, error)
	Modify(ctx context.Context, actorID, id int64, subject, content string) (*domain.Question, error)
	Delete(ctx context.Context, actorID, id int64) error
}

type questionService struct {
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	images    storage.Service
	logger    logrus.FieldLogger
}

func NewQuestionService(questions repository.QuestionRepository, answers repository.AnswerRepository, images storage.Service, logger logrus.FieldLogger) QuestionService {
	return &questionService{
		questions: questions,
		answers:   answers,
		images:    images,
		logger:    logger,
	}
}

func (s *questionService) Create(ctx context.Context, ownerID int64, subject, content string, image *ImageUpload) (*domain.Question, error) {
	subject = strings.TrimSpace(subject)
	content = strings.TrimSpace(content)
	if subject == "" {
		return nil, domain.NewValidationError("subject", "subject is required")
	}
	if content == "" {
		return nil, domain.NewValidationError("content", "content is required")
	}

	imagePath := ""
	if image != nil {
		relPath, err := s.storeImage(ctx, image)
		if err != nil {
			return nil, err
		}
		imagePath = relPath
	}

	question := &domain.Question{
		Subject:   subject,
		Content:   content,
		ImagePath: imagePath,
		UserID:    ownerID,
	}

	if _, err := s.questions.Create(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *questionService) Get(ctx context.Context, id int64) (*domain.Question, error) {
	question, err := s.questions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListByQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	question.Answers = answers
	return question, nil
}

// List returns one page of questions plus the total number of matches.
// Out-of-range pages come back empty, not as an error.
func (s *questionService) List(ctx context.Context, page int, keyword string) ([]domain.Question, int, error) {
	if page < 1 {
		page = 1
	}
	keyword = strings.TrimSpace(keyword)

	total, err := s.questions.Count(ctx, keyword)
	if err != nil {
		return nil, 0, err
	}

	questions, err := s.questions.List(ctx, repository.ListFilter{
		Keyword: keyword,
		Limit:   PageSize,
		Offset:  (page - 1) * PageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

func (s *questionService) Modify(ctx context.Context, actorID, id int64, subject, content string) (*domain.Question, error) {
	subject = strings.TrimSpace(subject)
	content = strings.TrimSpace(content)
	if subject == "" {
		return nil, domain.NewValidationError("subject", "subject is required")
	}
	if content == "" {
		return nil, domain.NewValidationError("content", "content is required")
	}

	question, err := s.questions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if question.UserID != actorID {
		return nil, domain.ErrForbidden
	}

	now := time.Now().UTC()
	if err := s.questions.Update(ctx, id, subject, content, now); err != nil {
		return nil, err
	}

	question.Subject = subject
	question.Content = content
	question.ModifyDate = &now
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, actorID, id int64) error {
	question, err := s.questions.Get(ctx, id)
	if err != nil {
		return err
	}
	if question.UserID != actorID {
		return domain.ErrForbidden
	}

	if err := s.questions.Delete(ctx, id); err != nil {
		return err
	}

	if question.ImagePath != "" && s.images != nil {
		if err := s.images.Remove(ctx, question.ImagePath); err != nil {
			s.logger.Warnf("remove question image %s: %v", question.ImagePath, err)
		}
	}
	return nil
}

// storeImage validates the attachment against the extension allow-list
// and writes it under a per-day directory.
func (s *questionService) storeImage(ctx context.Context, image *ImageUpload) (string, error) {
	name := sanitizeFilename(image.Filename)
	if name == "" {
		return "", domain.NewValidationError("image", "image filename is required")
	}
	ext := strings.ToLower(path.Ext(name))
	if _, ok := allowedImageExts[ext]; !ok {
		return "", domain.NewValidationError("image", "only jpg, jpeg, png and gif images are allowed")
	}
	if s.images == nil {
		return "", domain.NewValidationError("image", "image uploads are not enabled")
	}

	relPath := path.Join("photo", time.Now().Format("20060102"), name)
	if err := s.images.Save(ctx, relPath, image.Reader); err != nil {
		return "", err
	}
	return relPath, nil
}

// sanitizeFilename strips directories and flattens anything outside
// [A-Za-z0-9._-] so the stored name is safe as a path segment.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		return ""
	}
	return cleaned
}
