// credentials выпускает и проверяет токены сессии и задаёт политику
// хэширования паролей.
//
// Токен — подписанный HS256 JWT с клеймами {id, token_id}. Токен не шифруется,
// поэтому в клеймы нельзя класть чувствительные данные. Проверка подписи не
// отвечает на вопрос «отозван ли токен»: это решает вызывающий код, сравнивая
// token_id из клеймов с текущим значением у пользователя.
package credentials

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken — подпись не сошлась, алгоритм не HS256, структура токена
// повреждена или истёк exp. Транспорт: HTTP 401.
var ErrInvalidToken = errors.New("invalid token")

// Claims — полезная нагрузка токена сессии.
type Claims struct {
	UserID  int64
	TokenID string // hex UUID без дефисов
}

// Config — параметры выпуска токенов и хэширования.
type Config struct {
	Secret     string
	TTL        time.Duration // 0 — без exp
	BcryptCost int
}

// Credentials владеет секретом подписи и политикой хэширования.
// Безопасен для конкурентного использования.
type Credentials struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// New создаёт Credentials. Некорректная стоимость bcrypt заменяется на bcrypt.DefaultCost.
func New(cfg Config) *Credentials {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Credentials{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		cost:   cost,
		now:    time.Now,
	}
}
