package service

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"question-board/internal/domain"
	"question-board/internal/repository"
	"question-board/internal/repository/sqlite"
	"question-board/internal/storage"
)

type testEnv struct {
	users      UserService
	questions  QuestionService
	answers    AnswerService
	userRepo   repository.UserRepository
	qRepo      repository.QuestionRepository
	aRepo      repository.AnswerRepository
	uploadRoot string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	qRepo := sqlite.NewQuestionRepository(db)
	aRepo := sqlite.NewAnswerRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, qRepo.Init(ctx))
	require.NoError(t, aRepo.Init(ctx))

	uploadRoot := filepath.Join(t.TempDir(), "static")
	images, err := storage.NewLocalService(uploadRoot)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &testEnv{
		users:      NewUserService(userRepo),
		questions:  NewQuestionService(qRepo, aRepo, images, logger),
		answers:    NewAnswerService(aRepo, qRepo),
		userRepo:   userRepo,
		qRepo:      qRepo,
		aRepo:      aRepo,
		uploadRoot: uploadRoot,
	}
}

func (e *testEnv) mustSignup(t *testing.T, username string) *domain.User {
	t.Helper()
	user, err := e.users.Signup(context.Background(), username, "secret", "secret", username+"@example.com")
	require.NoError(t, err)
	return user
}
