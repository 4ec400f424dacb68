package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestListenerRegistryThrottlesIdenticalPayloads(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	registry := NewListenerRegistry(clock)
	rec := &notificationRecorder{}
	registry.Subscribe(rec.listener)

	assert.True(t, registry.Notify(true, testAddress))
	clock.Advance(900 * time.Millisecond)
	assert.False(t, registry.Notify(true, testAddress))
	assert.Len(t, rec.all(), 1)

	clock.Advance(200 * time.Millisecond)
	assert.True(t, registry.Notify(true, testAddress))
	assert.Len(t, rec.all(), 2)
}

func TestListenerRegistryAddressComparisonIgnoresCase(t *testing.T) {
	t.Parallel()

	registry := NewListenerRegistry(newManualClock())
	rec := &notificationRecorder{}
	registry.Subscribe(rec.listener)

	assert.True(t, registry.Notify(true, "0xAbCdEf0000000000000000000000000000000001"))
	assert.False(t, registry.Notify(true, "0xabcdef0000000000000000000000000000000001"))
}

func TestListenerRegistryDistinctPayloadsAlwaysPass(t *testing.T) {
	t.Parallel()

	registry := NewListenerRegistry(newManualClock())
	rec := &notificationRecorder{}
	registry.Subscribe(rec.listener)

	assert.True(t, registry.Notify(true, testAddress))
	assert.True(t, registry.Notify(true, otherTestAddress))
	assert.True(t, registry.Notify(false, otherTestAddress))
	assert.True(t, registry.Notify(true, otherTestAddress))

	assert.Equal(t, []recordedNotification{
		{connected: true, address: testAddress},
		{connected: true, address: otherTestAddress},
		{connected: false, address: ""},
		{connected: true, address: otherTestAddress},
	}, rec.all())
}

func TestListenerRegistryUnsubscribe(t *testing.T) {
	t.Parallel()

	registry := NewListenerRegistry(newManualClock())
	kept := &notificationRecorder{}
	dropped := &notificationRecorder{}
	registry.Subscribe(kept.listener)
	unsubscribe := registry.Subscribe(dropped.listener)
	assert.Equal(t, 2, registry.Len())

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 1, registry.Len())

	registry.Notify(false, "")
	assert.Len(t, kept.all(), 1)
	assert.Empty(t, dropped.all())

	assert.NotPanics(t, func() { registry.Subscribe(nil)() })
}

func TestListenerRegistryListenerMayUnsubscribeDuringDelivery(t *testing.T) {
	t.Parallel()

	registry := NewListenerRegistry(newManualClock())
	var unsubscribe func()
	calls := 0
	unsubscribe = registry.Subscribe(func(bool, string) {
		calls++
		unsubscribe()
	})

	registry.Notify(true, testAddress)
	registry.Notify(false, "")
	assert.Equal(t, 1, calls)
	assert.Zero(t, registry.Len())
}
