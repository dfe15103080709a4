package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"lingo_leitner/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB はテストごとに独立したインメモリSQLiteを用意します。
func setupTestDB(t *testing.T) *gorm.DB {
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

	require.NoError(t, Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, mutate ...func(u *model.User)) *model.User {
	t.Helper()
	id := uuid.New()
	user := &model.User{
		UserID:       id,
		Name:         "learner",
		Email:        id.String() + "@example.com",
		PasswordHash: "hash",
	}
	for _, m := range mutate {
		m(user)
	}
	require.NoError(t, NewGormUserRepository().Create(context.Background(), db, user))
	return user
}

func createTestCard(t *testing.T, db *gorm.DB, userID uuid.UUID, box int, next *time.Time) *model.Card {
	t.Helper()
	card := &model.Card{
		CardID:         uuid.New(),
		UserID:         userID,
		Word:           "word-" + uuid.NewString()[:8],
		Meaning:        "meaning",
		Box:            box,
		LastReviewedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		NextReviewDate: next,
	}
	require.NoError(t, NewGormCardRepository().Create(context.Background(), db, card))
	return card
}

func timePtr(t time.Time) *time.Time {
	return &t
}
