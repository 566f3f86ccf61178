package services_test

import (
	"sync"

	"github.com/lryanle/bingobongo/internal/services"
)

// recordedEvent is one captured broadcast
type recordedEvent struct {
	RoomID  string
	Event   string
	Payload interface{}
}

// recordingBroadcaster captures published events for assertions
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) Publish(roomID, event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{RoomID: roomID, Event: event, Payload: payload})
}

// count returns how many events of the given type were published
func (b *recordingBroadcaster) count(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// last returns the most recent event of the given type
func (b *recordingBroadcaster) last(event string) (recordedEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].Event == event {
			return b.events[i], true
		}
	}
	return recordedEvent{}, false
}

// fakeScheduler records countdown requests and lets tests fire them
type fakeScheduler struct {
	mu        sync.Mutex
	countdown map[string]*fakeCountdown
}

type fakeCountdown struct {
	seconds int
	onTick  func(remaining int)
	onDone  func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{countdown: make(map[string]*fakeCountdown)}
}

func (f *fakeScheduler) Schedule(roomID string, seconds int, onTick func(remaining int), onDone func()) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.countdown[roomID]; exists {
		return false
	}
	f.countdown[roomID] = &fakeCountdown{seconds: seconds, onTick: onTick, onDone: onDone}
	return true
}

func (f *fakeScheduler) Cancel(roomID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.countdown[roomID]; !exists {
		return false
	}
	delete(f.countdown, roomID)
	return true
}

func (f *fakeScheduler) Pending(roomID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, exists := f.countdown[roomID]
	return exists
}

// expire fires a pending countdown's completion callback
func (f *fakeScheduler) expire(roomID string) {
	f.mu.Lock()
	c, exists := f.countdown[roomID]
	delete(f.countdown, roomID)
	f.mu.Unlock()
	if exists && c.onDone != nil {
		c.onDone()
	}
}

var _ services.RestartScheduler = (*fakeScheduler)(nil)
