// Package pubsub реализует внутрипроцессную шину событий для GraphQL-подписок.
//
// Гарантии:
//   - Publish никогда не блокируется: при переполненном буфере подписчика событие отбрасывается;
//   - порядок доставки для одного подписчика совпадает с порядком Publish;
//   - события до Subscribe не воспроизводятся.
package pubsub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/metrics"
)

// EventNewPost — событие о новой публикации, payload: *models.Post.
const EventNewPost = "new_post"

const defaultBuffer = 16

type Options struct {
	// Buffer — размер буфера канала подписчика (по умолчанию 16).
	Buffer  int
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

type Bus struct {
	buffer  int
	log     *slog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]chan any
	closed bool
}

func New(opts Options) *Bus {
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Bus{
		buffer:  opts.Buffer,
		log:     opts.Logger,
		metrics: opts.Metrics,
		subs:    make(map[string]map[uint64]chan any),
	}
}

// Subscribe регистрирует нового подписчика на event.
// Канал закрывается после отмены ctx или Close шины.
func (b *Bus) Subscribe(ctx context.Context, event string) <-chan any {
	ch := make(chan any, b.buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}

	b.nextID++
	id := b.nextID
	if b.subs[event] == nil {
		b.subs[event] = make(map[uint64]chan any)
	}
	b.subs[event][id] = ch
	b.mu.Unlock()

	b.metrics.SubscriberAdded(event)
	b.log.Debug("bus_subscribed", slog.String("event", event), slog.Uint64("sub_id", id))

	go func() {
		<-ctx.Done()
		b.unsubscribe(event, id)
	}()

	return ch
}

func (b *Bus) unsubscribe(event string, id uint64) {
	b.mu.Lock()
	ch, ok := b.subs[event][id]
	if ok {
		delete(b.subs[event], id)
		if len(b.subs[event]) == 0 {
			delete(b.subs, event)
		}
		close(ch)
	}
	b.mu.Unlock()

	if ok {
		b.metrics.SubscriberRemoved(event)
		b.log.Debug("bus_unsubscribed", slog.String("event", event), slog.Uint64("sub_id", id))
	}
}

// Publish рассылает payload всем текущим подписчикам event и
// возвращает число подписчиков, получивших событие.
func (b *Bus) Publish(event string, payload any) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.metrics.EventPublished(event)

	delivered := 0
	for id, ch := range b.subs[event] {
		select {
		case ch <- payload:
			delivered++
		default:
			b.metrics.EventDropped(event)
			b.log.Debug("bus_event_dropped", slog.String("event", event), slog.Uint64("sub_id", id))
		}
	}

	return delivered
}

// Subscribers возвращает число активных подписчиков event.
func (b *Bus) Subscribers(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs[event])
}

// Close закрывает все каналы подписчиков; последующие Subscribe получают закрытый канал.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for event, subs := range b.subs {
		for _, ch := range subs {
			close(ch)
			b.metrics.SubscriberRemoved(event)
		}
	}
	b.subs = make(map[string]map[uint64]chan any)
}
