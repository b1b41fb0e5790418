package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/cache"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/credentials"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/models"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pkg/redact"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pkg/reqctx"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/storage"
)

// CreateUser регистрирует нового пользователя со свежим token_id.
func (s *Service) CreateUser(ctx context.Context, username, email, password string) (*models.User, error) {
	const op = "service.auth.CreateUser"

	if err := validateUser(username, email, password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err := s.storage.UserByUsername(ctx, username)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.creds.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		TokenID:      uuid.New(),
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reqctx.Logger(ctx).Info("user_created",
		slog.Int64("user_id", user.ID),
		slog.String("username", redact.Username(user.Username)),
		slog.String("email", redact.Email(user.Email)),
	)

	return user, nil
}

// Login проверяет пару имя/пароль и выпускает токен сессии.
// Отсутствующий пользователь и неверный пароль неразличимы (ErrInvalidCredentials).
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	const op = "service.auth.Login"

	user, err := s.storage.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !s.creds.CheckPassword(user.PasswordHash, password) {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.creds.Issue(user.ID, user.TokenID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// Logout ротирует token_id текущего пользователя: все ранее выданные токены
// этого аккаунта перестают проходить Authenticate.
func (s *Service) Logout(ctx context.Context) error {
	const op = "service.auth.Logout"

	id := reqctx.Identity(ctx)
	if id == nil {
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	tokenID := uuid.New()
	if err := s.storage.UpdateTokenID(ctx, id.UserID, tokenID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	// Новый token_id пишется в кэш безусловно: запоздалое заполнение по промаху
	// (SetIfAbsent со старым token_id) его уже не перезапишет.
	if s.rcache != nil {
		entry := &cache.SessionEntry{TokenID: tokenID, Username: id.Username}
		if err := s.rcache.Set(ctx, id.UserID, entry, s.cacheTTL); err != nil {
			reqctx.Logger(ctx).Warn("revocation_cache_set_failed",
				slog.Int64("user_id", id.UserID),
				slog.String("err", err.Error()),
			)
			if err := s.rcache.Delete(ctx, id.UserID); err != nil {
				reqctx.Logger(ctx).Warn("revocation_cache_delete_failed",
					slog.Int64("user_id", id.UserID),
					slog.String("err", err.Error()),
				)
			}
		}
	}

	reqctx.Logger(ctx).Info("user_logged_out", slog.Int64("user_id", id.UserID))

	return nil
}

// Authenticate проверяет токен и сверяет его token_id с текущим значением
// у пользователя (сначала в кэше, затем в БД).
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*models.Identity, error) {
	const op = "service.auth.Authenticate"

	claims, err := s.creds.Verify(rawToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if s.rcache != nil {
		entry, ok, err := s.rcache.Get(ctx, claims.UserID)
		switch {
		case err != nil:
			reqctx.Logger(ctx).Warn("revocation_cache_get_failed",
				slog.Int64("user_id", claims.UserID),
				slog.String("err", err.Error()),
			)
		case ok && credentials.TokenIDString(entry.TokenID) == claims.TokenID:
			return &models.Identity{UserID: claims.UserID, Username: entry.Username}, nil
		}
		// промах или несовпадение: решает БД.
	}

	user, err := s.storage.UserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUnknownUser)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if credentials.TokenIDString(user.TokenID) != claims.TokenID {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	if s.rcache != nil {
		entry := &cache.SessionEntry{TokenID: user.TokenID, Username: user.Username}
		if _, err := s.rcache.SetIfAbsent(ctx, user.ID, entry, s.cacheTTL); err != nil {
			reqctx.Logger(ctx).Warn("revocation_cache_set_failed",
				slog.Int64("user_id", user.ID),
				slog.String("err", err.Error()),
			)
		}
	}

	return &models.Identity{UserID: user.ID, Username: user.Username}, nil
}

// validateUser проверяет минимальные требования к регистрационным данным.
func validateUser(username, email, password string) error {
	if strings.TrimSpace(username) == "" {
		return invalid("username is empty")
	}

	if password == "" {
		return invalid("password is empty")
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("invalid email format")
	}

	return nil
}
