package models

import (
	"time"

	"github.com/google/uuid"
)

// User - модель пользователя (аккаунта) в системе.
//
// TokenID — маркер отзыва: он зашивается в каждый выданный токен сессии,
// и токен действителен лишь пока его TokenID совпадает с текущим значением в БД.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	TokenID      uuid.UUID
	CreatedAt    time.Time
}
