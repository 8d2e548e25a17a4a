package presenter

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/turtacn/molview/internal/application/analysis"
	"github.com/turtacn/molview/internal/infrastructure/clock"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/pkg/types/molecule"
)

// DefaultNotificationTTL is how long a notification stays visible.
const DefaultNotificationTTL = 5 * time.Second

// Level is the kind of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is a transient message.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier shows notifications that dismiss themselves after a TTL.
type Notifier struct {
	clock  clock.Clock
	logger logging.Logger

	mu     sync.Mutex
	ttl    time.Duration
	items  []Notification
	timers map[string]clock.Timer
}

// NewNotifier creates a Notifier.  Zero ttl and nil clock or logger use
// defaults.
func NewNotifier(ttl time.Duration, clk clock.Clock, logger logging.Logger) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Notifier{clock: clk, logger: logger, ttl: ttl, timers: map[string]clock.Timer{}}
}

// SetTTL changes the lifetime of notifications shown from now on.
func (n *Notifier) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ttl = ttl
}

func (n *Notifier) Notify(level Level, message string) Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	note := Notification{ID: uuid.NewString(), Level: level, Message: message, CreatedAt: n.clock.Now()}
	n.items = append(n.items, note)
	id := note.ID
	n.timers[id] = n.clock.AfterFunc(n.ttl, func() { n.Dismiss(id) })

	n.logger.Debug("notification shown", logging.String("level", string(level)), logging.String("message", message))
	return note
}

func (n *Notifier) Success(message string) Notification { return n.Notify(LevelSuccess, message) }
func (n *Notifier) Error(message string) Notification   { return n.Notify(LevelError, message) }
func (n *Notifier) Info(message string) Notification    { return n.Notify(LevelInfo, message) }

// Dismiss removes a notification early.  It reports whether it was shown.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns the visible notifications, oldest first.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}

// Close dismisses everything and stops pending timers.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.items = nil
}

// OnEvent implements analysis.Listener: completions and failures are
// announced, transitions are not.
func (n *Notifier) OnEvent(e analysis.Event) {
	switch e.Kind {
	case analysis.EventCompleted:
		if e.State.Route == molecule.RouteDirectPDB {
			n.Success("PDB file loaded successfully!")
		} else {
			n.Success("Analysis completed successfully!")
		}
	case analysis.EventFailed:
		n.Error(e.State.Message)
	}
}
