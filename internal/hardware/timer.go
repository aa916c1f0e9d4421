package hardware

import (
	"sync"
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
)

// DefaultTimerInterval is the fixed period of the shared plugin timer.
const DefaultTimerInterval = 15 * time.Second

// sharedTimer is the single periodic tick multiplexed across plugins.
//
// Registration is reference-counted per configured device: the timer runs
// iff at least one configured device's plugin requires ResourceTimer. The
// first subscriber also triggers an immediate kick tick so plugins can
// initialise without waiting a full period.
type sharedTimer struct {
	bus      *Bus
	logger   Logger
	interval time.Duration

	mu    sync.Mutex
	users map[device.DeviceID]struct{}
	done  chan struct{}
}

func newSharedTimer(bus *Bus) *sharedTimer {
	return &sharedTimer{
		bus:      bus,
		logger:   noopLogger{},
		interval: DefaultTimerInterval,
		users:    make(map[device.DeviceID]struct{}),
	}
}

func (t *sharedTimer) addUser(id device.DeviceID) {
	t.mu.Lock()
	t.users[id] = struct{}{}
	first := t.done == nil
	if first {
		t.done = make(chan struct{})
		go t.run(t.done)
	}
	t.mu.Unlock()

	if first {
		t.logger.Debug("shared timer started", "interval", t.interval)
		// Kick tick so subscribers initialise immediately.
		t.bus.dispatch(t.tick)
	}
}

func (t *sharedTimer) removeUser(id device.DeviceID) {
	t.mu.Lock()
	delete(t.users, id)
	if len(t.users) == 0 && t.done != nil {
		close(t.done)
		t.done = nil
		t.logger.Debug("shared timer stopped")
	}
	t.mu.Unlock()
}

func (t *sharedTimer) active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done != nil
}

func (t *sharedTimer) stop() {
	t.mu.Lock()
	if t.done != nil {
		close(t.done)
		t.done = nil
	}
	t.users = make(map[device.DeviceID]struct{})
	t.mu.Unlock()
}

func (t *sharedTimer) run(done chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			t.bus.dispatch(t.tick)
		}
	}
}

// tick broadcasts Heartbeat to every plugin requiring the timer, in
// plugin-load order. Runs on the dispatch path.
func (t *sharedTimer) tick() {
	for _, p := range t.bus.plugins.Plugins() {
		if p.RequiredHardware().Has(device.ResourceTimer) {
			p.Heartbeat()
		}
	}
}
