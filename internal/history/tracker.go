package history

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/khanglvm/piece-hub/internal/storage"
)

const (
	// eventQueueSize is the buffer size for the event queue.
	// If full, events are dropped (non-blocking).
	eventQueueSize = 1000

	// batchFlushSize is the number of events that triggers an immediate flush.
	batchFlushSize = 10

	// flushInterval is how often pending events are written.
	flushInterval = 50 * time.Millisecond
)

// Tracker records search events in the background with non-blocking writes.
type Tracker struct {
	storage    storage.Storage
	eventQueue chan SearchEvent
	stopChan   chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	enabled    bool
	mu         sync.RWMutex
}

// NewTracker initializes s and starts background processing.
func NewTracker(s storage.Storage) *Tracker {
	t := &Tracker{
		storage:    s,
		eventQueue: make(chan SearchEvent, eventQueueSize),
		stopChan:   make(chan struct{}),
		enabled:    true,
	}

	if err := t.storage.Init(); err != nil {
		log.Warn().Err(err).Msg("search history storage initialization failed")
		t.enabled = false
	}

	t.wg.Add(1)
	go t.processEvents()

	return t
}

// Track queues a search event (non-blocking).
// If the queue is full, the event is dropped and a warning is logged.
func (t *Tracker) Track(event SearchEvent) {
	if !t.isEnabled() {
		return
	}

	select {
	case t.eventQueue <- event:
	default:
		log.Warn().Str("search_id", event.SearchID).Msg("history queue full, dropping event")
	}
}

// Stop flushes queued events and shuts the tracker down. Events tracked
// after Stop are ignored.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		t.Disable()
		close(t.stopChan)
		t.wg.Wait()
	})
}

// Disable disables tracking (events are ignored).
func (t *Tracker) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
}

// Enable enables tracking.
func (t *Tracker) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = true
}

// IsEnabled returns whether tracking is enabled.
func (t *Tracker) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func (t *Tracker) isEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled && t.storage != nil
}

// processEvents collects queued searches into batches and writes them
// when a batch fills, on every tick, and once more on Stop.
func (t *Tracker) processEvents() {
	defer t.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	pending := make([]SearchEvent, 0, batchFlushSize)
	add := func(event SearchEvent) {
		pending = append(pending, event)
		if len(pending) >= batchFlushSize {
			t.flush(pending)
			pending = pending[:0]
		}
	}

	for {
		select {
		case event := <-t.eventQueue:
			add(event)

		case <-ticker.C:
			t.flush(pending)
			pending = pending[:0]

		case <-t.stopChan:
			for {
				select {
				case event := <-t.eventQueue:
					add(event)
				default:
					t.flush(pending)
					return
				}
			}
		}
	}
}

// batchReport summarises one flushed batch of searches.
type batchReport struct {
	Recorded    int
	Failed      int
	Nested      int
	ZeroResults int
	Results     int
}

// flush writes a batch of searches to storage and logs what it held.
func (t *Tracker) flush(events []SearchEvent) batchReport {
	var report batchReport
	if len(events) == 0 {
		return report
	}

	for _, event := range events {
		if err := t.storage.RecordSearch(event.ToStorage()); err != nil {
			report.Failed++
			log.Warn().Err(err).Str("search_id", event.SearchID).Msg("failed to record search")
			continue
		}
		report.Recorded++
		report.Results += event.ResultsCount
		if event.Nested {
			report.Nested++
		}
		if event.ResultsCount == 0 {
			report.ZeroResults++
		}
	}

	log.Debug().
		Int("recorded", report.Recorded).
		Int("failed", report.Failed).
		Int("nested", report.Nested).
		Int("zero_results", report.ZeroResults).
		Int("results", report.Results).
		Msg("search history batch flushed")

	return report
}

// QueueSize returns the current number of events in the queue.
func (t *Tracker) QueueSize() int {
	return len(t.eventQueue)
}
