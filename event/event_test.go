package event

import (
	"context"
	"errors"
	"testing"

	"github.com/hotoken/meta"
	"gotest.tools/v3/assert"
)

type memSink struct {
	logs []meta.Log
	err  error
}

func (m *memSink) Push(_ context.Context, l meta.Log) error {
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, l)
	return nil
}

func TestPublishToSinksAndSubscribers(t *testing.T) {
	bus := NewBus()
	sink := &memSink{}
	broken := &memSink{err: errors.New("down")}
	bus.AddSink(broken)
	bus.AddSink(sink)

	ch, cancel := bus.Subscribe(4)
	defer cancel()

	logs := []meta.Log{{Event: meta.RefundTransferEvent}, {Event: meta.DirectContributionEvent}}
	bus.Publish(context.Background(), logs)

	assert.DeepEqual(t, sink.logs, logs)
	assert.Equal(t, (<-ch).Event, meta.RefundTransferEvent)
	assert.Equal(t, (<-ch).Event, meta.DirectContributionEvent)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)

	bus.Publish(context.Background(), []meta.Log{{Event: "a"}, {Event: "b"}, {Event: "c"}})
	assert.Equal(t, (<-ch).Event, "a")

	cancel()
	cancel()
	_, ok := <-ch
	assert.Assert(t, !ok)

	// 取消订阅后继续发布不会 panic
	bus.Publish(context.Background(), []meta.Log{{Event: "d"}})
}
