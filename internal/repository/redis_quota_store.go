package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"lingo_leitner/internal/middleware"
	"lingo_leitner/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	quotaKeyPrefix  = "leitner:quota:"
	quotaFieldCount = "count"
	quotaFieldDay   = "day"
	// 前日より古いカウンタは不要なので期限切れで消す
	quotaKeyTTL          = 48 * time.Hour
	defaultQuotaMaxRetry = 100
)

// redisQuotaStore はカウンタを Redis のハッシュ {count, day} に保持します。
// プレミアムかどうかはデータベースのユーザー情報から読みます。
type redisQuotaStore struct {
	client     *redis.Client
	db         *gorm.DB
	userRepo   UserRepository
	maxRetries int
}

func NewRedisQuotaStore(client *redis.Client, db *gorm.DB, userRepo UserRepository) QuotaStore {
	return &redisQuotaStore{
		client:     client,
		db:         db,
		userRepo:   userRepo,
		maxRetries: defaultQuotaMaxRetry,
	}
}

func quotaKey(userID uuid.UUID) string {
	return quotaKeyPrefix + userID.String()
}

func (s *redisQuotaStore) GetQuota(ctx context.Context, userID uuid.UUID) (*model.DailyQuota, error) {
	logger := middleware.GetLogger(ctx)

	user, err := s.userRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	vals, err := s.client.HMGet(ctx, quotaKey(userID), quotaFieldCount, quotaFieldDay).Result()
	if err != nil {
		logger.Error("Error reading quota from redis", "error", err, "user_id", userID.String())
		return nil, fmt.Errorf("redisQuotaStore.GetQuota: %w", err)
	}
	count, day := parseQuotaFields(vals)

	return &model.DailyQuota{
		UserID:         userID,
		DailyWordCount: count,
		LastWordAddDay: day,
		IsPremium:      user.IsPremium,
	}, nil
}

func (s *redisQuotaStore) ResetQuota(ctx context.Context, userID uuid.UUID, today model.DayKey) error {
	_, err := s.transact(ctx, userID, today, func(count int, day model.DayKey) (int, bool) {
		if day == today {
			return count, false
		}
		return 0, true
	})
	if err != nil {
		return fmt.Errorf("redisQuotaStore.ResetQuota: %w", err)
	}
	return nil
}

func (s *redisQuotaStore) IncrementQuota(ctx context.Context, userID uuid.UUID, today model.DayKey, limit int) (bool, error) {
	ok, err := s.transact(ctx, userID, today, func(count int, day model.DayKey) (int, bool) {
		if day != today {
			count = 0
		}
		if limit != Unlimited && count >= limit {
			return count, false
		}
		return count + 1, true
	})
	if err != nil {
		return false, fmt.Errorf("redisQuotaStore.IncrementQuota: %w", err)
	}
	return ok, nil
}

// transact は WATCH/MULTI/EXEC でハッシュを読み書きします。他のクライアントと競合した場合はやり直します。
// update が false を返した場合は何も書き込まず false を返します。
func (s *redisQuotaStore) transact(ctx context.Context, userID uuid.UUID, today model.DayKey, update func(count int, day model.DayKey) (int, bool)) (bool, error) {
	logger := middleware.GetLogger(ctx)
	key := quotaKey(userID)

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		var written bool
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			vals, err := tx.HMGet(ctx, key, quotaFieldCount, quotaFieldDay).Result()
			if err != nil {
				return err
			}
			newCount, write := update(parseQuotaFields(vals))
			if !write {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, quotaFieldCount, newCount, quotaFieldDay, int(today))
				pipe.Expire(ctx, key, quotaKeyTTL)
				return nil
			})
			if err == nil {
				written = true
			}
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			logger.Debug("Quota transaction conflicted, retrying", "user_id", userID.String(), "attempt", attempt+1)
			continue
		}
		if err != nil {
			logger.Error("Error updating quota in redis", "error", err, "user_id", userID.String())
			return false, err
		}
		return written, nil
	}
	return false, fmt.Errorf("gave up after %d attempts: %w", s.maxRetries, redis.TxFailedErr)
}

func parseQuotaFields(vals []interface{}) (int, model.DayKey) {
	var count, day int
	if len(vals) > 0 {
		if v, ok := vals[0].(string); ok {
			count, _ = strconv.Atoi(v)
		}
	}
	if len(vals) > 1 {
		if v, ok := vals[1].(string); ok {
			day, _ = strconv.Atoi(v)
		}
	}
	return count, model.DayKey(day)
}

// NewRedisClient は URL (redis://host:port/db) から Redis クライアントを作成し、疎通を確認します。
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("repository.NewRedisClient: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("repository.NewRedisClient: %w", err)
	}
	return client, nil
}
