package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"lingo_leitner/internal/config"
	"lingo_leitner/internal/model"
	"lingo_leitner/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "password123"

// 2025-01-10 09:00 UTC に固定した時計
var testNow = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() Clock {
	return func() time.Time { return testNow }
}

func newTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:           "LingoLeitnerTest",
			ReviewLimit:    20,
			DailyWordLimit: 10,
			QuotaTimezone:  "UTC",
		},
		JWT: config.JWTConfig{
			SecretKey:      "test-secret-key",
			AccessTokenTTL: time.Hour,
		},
	}
}

// setupServiceTestDB は実リポジトリを通すテスト用のインメモリSQLiteです。
func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, repository.Migrate(db))
	return db
}

func createServiceTestUser(t *testing.T, db *gorm.DB, mutate func(u *model.User)) *model.User {
	t.Helper()
	id := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{
		UserID:       id,
		Name:         "learner",
		Email:        id.String() + "@example.com",
		PasswordHash: string(hash),
	}
	if mutate != nil {
		mutate(user)
	}
	require.NoError(t, repository.NewGormUserRepository().Create(context.Background(), db, user))
	return user
}

func intPtr(i int) *int {
	return &i
}
