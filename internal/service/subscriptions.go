package service

import (
	"context"
	"time"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/models"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pubsub"
)

// NewPosts возвращает поток публикаций, созданных после вызова.
// Канал закрывается при отмене ctx или закрытии шины.
func (s *Service) NewPosts(ctx context.Context) <-chan *models.Post {
	events := s.bus.Subscribe(ctx, pubsub.EventNewPost)
	out := make(chan *models.Post)

	go func() {
		defer close(out)

		for ev := range events {
			post, ok := ev.(*models.Post)
			if !ok {
				continue
			}

			select {
			case out <- post:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Count выдаёт 1..limit, ожидая countInterval перед каждым значением.
// limit <= 0 закрывает поток сразу.
func (s *Service) Count(ctx context.Context, limit int) <-chan int {
	out := make(chan int)

	go func() {
		defer close(out)

		ticker := time.NewTicker(s.countInterval)
		defer ticker.Stop()

		for i := 1; i <= limit; i++ {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
			if ctx.Err() != nil {
				return
			}

			select {
			case out <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
