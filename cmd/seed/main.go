package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"question-board/internal/config"
	"question-board/internal/domain"
	"question-board/internal/repository/sqlite"
)

// seed inserts placeholder questions so listing and paging can be
// exercised against a populated board.
func main() {
	count := flag.Int("n", 300, "number of test questions to insert")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	userRepo := sqlite.NewUserRepository(db)
	questionRepo := sqlite.NewQuestionRepository(db)
	answerRepo := sqlite.NewAnswerRepository(db)
	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := questionRepo.Init(ctx); err != nil {
		logger.Fatalf("init question repository: %v", err)
	}
	if err := answerRepo.Init(ctx); err != nil {
		logger.Fatalf("init answer repository: %v", err)
	}

	seedUser, err := userRepo.GetByUsername(ctx, "seed")
	if errors.Is(err, domain.ErrNotFound) {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte("seed"), bcrypt.DefaultCost)
		if hashErr != nil {
			logger.Fatalf("hash seed password: %v", hashErr)
		}
		seedUser = &domain.User{
			Username:     "seed",
			PasswordHash: string(hash),
			Email:        "seed@example.com",
		}
		if _, err := userRepo.Create(ctx, seedUser); err != nil {
			logger.Fatalf("create seed user: %v", err)
		}
	} else if err != nil {
		logger.Fatalf("look up seed user: %v", err)
	}

	for i := 0; i < *count; i++ {
		question := &domain.Question{
			Subject: fmt.Sprintf("test data [%03d]", i),
			Content: "no content",
			UserID:  seedUser.ID,
		}
		if _, err := questionRepo.Create(ctx, question); err != nil {
			logger.Fatalf("insert test question %d: %v", i, err)
		}
	}

	logger.Infof("inserted %d test questions", *count)
}
