package models

import "time"

// Post - публикация пользователя. После создания не изменяется.
type Post struct {
	ID        int64
	Title     string
	Body      string
	UserID    int64
	CreatedAt time.Time

	// User — владелец публикации; может быть nil, если связь ещё не загружена.
	User *User
}
