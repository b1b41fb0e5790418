package models

// Identity — аутентифицированный субъект запроса.
// Кладётся в контекст мидлваром аутентификации после проверки токена.
type Identity struct {
	UserID   int64
	Username string
}
