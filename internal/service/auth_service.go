//go:generate mockery --name AuthService --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"errors"
	"strings"

	"lingo_leitner/internal/config"
	"lingo_leitner/internal/middleware"
	"lingo_leitner/internal/model"
	"lingo_leitner/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService はアカウントの登録・ログイン・削除を扱います。
type AuthService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
	// DeleteAccount はユーザーのカードをすべて削除してからユーザーを削除します。
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type authService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	cardRepo repository.CardRepository
	cfg      *config.Config
	now      Clock
}

func NewAuthService(db *gorm.DB, userRepo repository.UserRepository, cardRepo repository.CardRepository, cfg *config.Config, opts ...Option) AuthService {
	o := buildOptions(opts)
	return &authService{
		db:       db,
		userRepo: userRepo,
		cardRepo: cardRepo,
		cfg:      cfg,
		now:      o.now,
	}
}

func (s *authService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	logger := middleware.GetLogger(ctx).With("email", email)

	_, err := s.userRepo.FindByEmail(ctx, s.db, email)
	if err == nil {
		logger.Warn("Email already exists")
		return nil, model.NewAppError("DUPLICATE_EMAIL", "このメールアドレスは既に使用されています。", "email", model.ErrConflict)
	}
	if !errors.Is(err, model.ErrNotFound) {
		logger.Error("Failed to check email existence", "error", err)
		return nil, storageError("サーバー内部でエラーが発生しました。", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "パスワードの処理中にエラーが発生しました。", "", err)
	}

	user := &model.User{
		UserID:       uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, s.db, user); err != nil {
		// 同時登録で一意制約に当たった場合
		if errors.Is(err, model.ErrConflict) {
			logger.Warn("Conflict during user creation (race condition)", "error", err)
			return nil, model.NewAppError("DUPLICATE_EMAIL", "このメールアドレスは既に使用されています。", "email", model.ErrConflict)
		}
		logger.Error("Failed to create user in DB", "error", err)
		return nil, storageError("ユーザーの作成に失敗しました。", err)
	}

	logger.Info("User registered", "user_id", user.UserID.String())
	return user, nil
}

func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	logger := middleware.GetLogger(ctx).With("email", email)

	user, err := s.userRepo.FindByEmail(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Login failed: user not found")
			return nil, model.NewAppError("AUTHENTICATION_FAILED", "メールアドレスまたはパスワードが正しくありません。", "", model.ErrUserNotFound)
		}
		logger.Error("Login failed: db error on FindByEmail", "error", err)
		return nil, storageError("サーバー内部でエラーが発生しました。", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("Login failed: password mismatch", "user_id", user.UserID.String())
		return nil, model.NewAppError("AUTHENTICATION_FAILED", "メールアドレスまたはパスワードが正しくありません。", "", model.ErrUserNotFound)
	}

	now := s.now()
	claims := &jwt.RegisteredClaims{
		Issuer:    s.cfg.App.Name,
		Subject:   user.UserID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.AccessTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		logger.Error("Failed to sign JWT", "error", err, "user_id", user.UserID.String())
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "トークンの生成に失敗しました。", "", err)
	}

	logger.Info("Login successful", "user_id", user.UserID.String())
	return &model.LoginResponse{AccessToken: signedToken}, nil
}

func (s *authService) GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	logger := middleware.GetLogger(ctx)

	user, err := s.userRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("User not found", "user_id", userID.String())
			return nil, userNotFoundError()
		}
		logger.Error("Error finding user by ID", "error", err)
		return nil, storageError("ユーザー情報の取得に失敗しました。", err)
	}
	return user, nil
}

func (s *authService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("user_id", userID.String())

	var deletedCards int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.cardRepo.DeleteByUser(ctx, tx, userID)
		if err != nil {
			return storageError("カードの削除に失敗しました。", err)
		}
		deletedCards = n

		if err := s.userRepo.Delete(ctx, tx, userID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return userNotFoundError()
			}
			return storageError("アカウントの削除に失敗しました。", err)
		}
		return nil
	})
	if err != nil {
		logger.Warn("Failed to delete account", "error", err)
		return err
	}

	logger.Info("Account deleted", "deleted_cards", deletedCards)
	return nil
}
