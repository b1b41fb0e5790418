package credentials

import (
	"encoding/hex"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// sessionClaims — формат клеймов на проводе: {"id": <int>, "token_id": "<hex>"}.
// Зарегистрированные клеймы пусты (omitempty), кроме exp при заданном TTL.
type sessionClaims struct {
	ID      int64  `json:"id"`
	TokenID string `json:"token_id"`
	jwt.RegisteredClaims
}

// TokenIDString кодирует token_id в формат клейма: 32 hex-символа без дефисов.
func TokenIDString(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

// Issue подписывает токен сессии для пользователя userID с маркером отзыва tokenID.
func (c *Credentials) Issue(userID int64, tokenID uuid.UUID) (string, error) {
	const op = "credentials.token.Issue"

	claims := sessionClaims{
		ID:      userID,
		TokenID: TokenIDString(tokenID),
	}

	if c.ttl > 0 {
		now := c.now().UTC()
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Verify проверяет подпись и структуру токена и возвращает его клеймы.
// Любая ошибка разбора или проверки сводится к ErrInvalidToken.
func (c *Credentials) Verify(raw string) (*Claims, error) {
	const op = "credentials.token.Verify"

	token, err := jwt.ParseWithClaims(raw, &sessionClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrInvalidToken
			}

			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if _, err := uuid.Parse(claims.TokenID); err != nil || len(claims.TokenID) != 32 {
		return nil, fmt.Errorf("%s: %w: bad token_id", op, ErrInvalidToken)
	}

	return &Claims{UserID: claims.ID, TokenID: claims.TokenID}, nil
}
