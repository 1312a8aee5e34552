package event

import (
	"context"
	"sync"

	"github.com/cloudflare/cfssl/log"
	"github.com/hotoken/meta"
)

// 已提交日志的外部接收方（例如 redis 列表）
type Sink interface {
	Push(ctx context.Context, l meta.Log) error
}

// 日志总线：交易提交后由 VM 发布，转发给 Sink 与订阅者
type Bus struct {
	mu    sync.RWMutex
	sinks []Sink
	subs  map[int]chan meta.Log
	next  int
}

func NewBus() *Bus {
	return &Bus{subs: map[int]chan meta.Log{}}
}

func (b *Bus) AddSink(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// 订阅日志，返回的函数用于取消订阅
// 订阅者处理过慢时日志会被丢弃，不会阻塞交易提交
func (b *Bus) Subscribe(buffer int) (<-chan meta.Log, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan meta.Log, buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

func (b *Bus) Publish(ctx context.Context, logs []meta.Log) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, l := range logs {
		for _, s := range b.sinks {
			if err := s.Push(ctx, l); err != nil {
				log.Errorf("event push to sink error: %s", err)
			}
		}
		for id, ch := range b.subs {
			select {
			case ch <- l:
			default:
				log.Infof("订阅者 %d 处理过慢，丢弃日志 %s", id, l.Event)
			}
		}
	}
}
