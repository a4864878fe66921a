package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	b := New()
	defer b.Close()

	var mu sync.Mutex
	var got []string
	b.Subscribe(EventDocumentSaved, func(e DomainEvent) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.(DocumentSavedEvent).Path)
	})

	b.Publish(DocumentSavedEvent{Path: "notes.txt"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "notes.txt", got[0])
}

func TestSubscribersOnlySeeTheirType(t *testing.T) {
	b := New()
	defer b.Close()

	var errors atomic.Int32
	b.Subscribe(EventError, func(DomainEvent) { errors.Add(1) })

	b.Publish(DocumentLoadedEvent{Path: "a"})
	b.Publish(ErrorEvent{Message: "boom"})

	require.Eventually(t, func() bool { return errors.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), errors.Load())
}

func TestUnsubscribeRemovesOnlyThatHandler(t *testing.T) {
	b := New()
	defer b.Close()

	var first, second atomic.Int32
	unsubscribe := b.Subscribe(EventConfigSaved, func(DomainEvent) { first.Add(1) })
	b.Subscribe(EventConfigSaved, func(DomainEvent) { second.Add(1) })

	unsubscribe()
	b.Publish(ConfigSavedEvent{Path: "config.toml"})

	require.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

func TestHandlerPanicDoesNotStopBus(t *testing.T) {
	b := New()
	defer b.Close()

	var ok atomic.Bool
	b.Subscribe(EventError, func(DomainEvent) { panic("handler bug") })
	b.Subscribe(EventDocumentSaved, func(DomainEvent) { ok.Store(true) })

	b.Publish(ErrorEvent{Message: "x"})
	b.Publish(DocumentSavedEvent{Path: "y"})

	require.Eventually(t, ok.Load, time.Second, 5*time.Millisecond)
}

func TestPublishAfterCloseIsIgnored(t *testing.T) {
	b := New()
	var calls atomic.Int32
	b.Subscribe(EventError, func(DomainEvent) { calls.Add(1) })

	b.Close()
	b.Publish(ErrorEvent{Message: "late"})
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int32(0), calls.Load())
}
