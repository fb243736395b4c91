package locator

import (
	"sync"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

// State holds the latest message and result for concurrent readers such as
// the HTTP server.
type State struct {
	mu        sync.RWMutex
	message   *gtfsrtpb.FeedMessage
	result    *Result
	watermark uint64
	updatedAt time.Time
}

// NewState returns an empty state.
func NewState() *State { return &State{} }

// SetMessage records the latest message and the source watermark after it.
func (s *State) SetMessage(fm *gtfsrtpb.FeedMessage, watermark uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = fm
	s.watermark = watermark
	s.updatedAt = time.Now()
}

// SetResult records the latest result.
func (s *State) SetResult(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = &r
}

// Message returns the latest message, or nil. Callers must not modify it.
func (s *State) Message() *gtfsrtpb.FeedMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.message
}

// Result returns the latest result and whether there is one.
func (s *State) Result() (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// Watermark returns the source watermark recorded with the latest message.
func (s *State) Watermark() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watermark
}

// UpdatedAt returns when the latest message was recorded.
func (s *State) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
