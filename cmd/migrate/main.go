// cmd/migrate/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"lingo_leitner/internal/config"
	"lingo_leitner/internal/model"
	"lingo_leitner/internal/repository"
)

// テーブルを作成し、必要ならデモ用ユーザーとカードを投入します。
//
//	go run ./cmd/migrate --config ./configs --seed
func main() {
	configDir := pflag.String("config", "./configs", "config.yaml を探すディレクトリ")
	seed := pflag.Bool("seed", false, "デモ用ユーザーとカードを投入する")
	seedEmail := pflag.String("seed-email", "demo@example.com", "デモ用ユーザーのメールアドレス")
	seedPassword := pflag.String("seed-password", "password123", "デモ用ユーザーのパスワード")
	pflag.Parse()

	if err := config.LoadConfig(*configDir); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	db, err := repository.NewDB(config.Cfg.Database, logger)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	if err := repository.Migrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}
	fmt.Println("Auto migration completed.")

	if !*seed {
		return
	}
	if err := seedDemo(context.Background(), db, *seedEmail, *seedPassword); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}
}

var demoCards = []struct {
	word       string
	meaning    string
	difficulty model.Difficulty
	box        int
}{
	{"ephemeral", "短命の", model.DifficultyMedium, 1},
	{"ubiquitous", "至る所にある", model.DifficultyEasy, 2},
	{"meticulous", "細心の", model.DifficultyMedium, 3},
	{"resilient", "回復力のある", model.DifficultyEasy, 4},
	{"serendipity", "思いがけない発見", model.DifficultyHard, 5},
}

// seedDemo はメールアドレスが未登録の場合だけ、各箱に1枚ずつカードを持つユーザーを作ります。
func seedDemo(ctx context.Context, db *gorm.DB, email, password string) error {
	userRepo := repository.NewGormUserRepository()
	cardRepo := repository.NewGormCardRepository()

	if _, err := userRepo.FindByEmail(ctx, db, email); err == nil {
		fmt.Printf("Demo user %s already exists, skipping.\n", email)
		return nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	user := &model.User{
		UserID:       uuid.New(),
		Name:         "Demo Learner",
		Email:        email,
		PasswordHash: string(hash),
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		for _, c := range demoCards {
			// Box 1 は新規扱いなので復習日は未設定のまま
			var next *time.Time
			if c.box > 1 {
				t := now.AddDate(0, 0, c.box-1)
				next = &t
			}
			card := &model.Card{
				CardID:         uuid.New(),
				UserID:         user.UserID,
				Word:           c.word,
				Meaning:        c.meaning,
				Difficulty:     c.difficulty,
				Box:            c.box,
				LastReviewedAt: now,
				NextReviewDate: next,
			}
			if err := cardRepo.Create(ctx, tx, card); err != nil {
				return err
			}
		}
		fmt.Printf("Created demo user %s (%s) with %d cards.\n", user.Email, user.UserID, len(demoCards))
		return nil
	})
}
