package service

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// autoSubmitController schedules one deferred submission per timed session.
// Firing and manual submission share the session store's transition guard, so
// whichever side wins the race submits and the other becomes a no-op; the
// controller itself only needs to guarantee at most one armed timer per
// session.
type autoSubmitController struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	logger zerolog.Logger
}

func newAutoSubmitController(logger zerolog.Logger) *autoSubmitController {
	return &autoSubmitController{
		timers: make(map[string]*time.Timer),
		logger: logger.With().Str("component", "auto_submit").Logger(),
	}
}

// schedule arms a timer that fires fn after d. Re-scheduling an already armed
// session is a no-op: the deadline derives from the recorded start timestamp,
// so the first armed timer is always the correct one.
func (c *autoSubmitController) schedule(sessionID string, d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, armed := c.timers[sessionID]; armed {
		return
	}

	c.logger.Debug().Str("session_id", sessionID).Dur("in", d).Msg("auto-submit armed")
	c.timers[sessionID] = time.AfterFunc(d, func() {
		c.mu.Lock()
		delete(c.timers, sessionID)
		c.mu.Unlock()
		fn()
	})
}

// cancel disarms the session's timer, typically after a manual submission or
// a termination made it moot.
func (c *autoSubmitController) cancel(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timer, ok := c.timers[sessionID]; ok {
		timer.Stop()
		delete(c.timers, sessionID)
	}
}
