package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/inbox/internal/core/notify"
)

const (
	defaultToastTTL   = 5 * time.Second
	defaultMaxToasts  = 3
	toastTickInterval = 100 * time.Millisecond
)

type toast struct {
	level     notify.Level
	message   string
	remaining time.Duration
}

type toastTickMsg time.Time

func scheduleToastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// ToastController manages the lifecycle of status toasts: push, eviction,
// TTL countdown and dismissal.
type ToastController struct {
	toasts  []toast
	ticking bool
}

func NewToastController() *ToastController {
	return &ToastController{}
}

// Push adds a toast. When the stack exceeds defaultMaxToasts the oldest is
// evicted.
func (c *ToastController) Push(level notify.Level, message string) {
	c.toasts = append(c.toasts, toast{
		level:     level,
		message:   message,
		remaining: defaultToastTTL,
	})
	if len(c.toasts) > defaultMaxToasts {
		c.toasts = c.toasts[len(c.toasts)-defaultMaxToasts:]
	}
}

// Tick decrements the remaining TTL on all toasts by d and removes any that
// have expired.
func (c *ToastController) Tick(d time.Duration) {
	alive := c.toasts[:0]
	for _, t := range c.toasts {
		t.remaining -= d
		if t.remaining > 0 {
			alive = append(alive, t)
		}
	}
	c.toasts = alive
}

// Dismiss removes the newest toast.
func (c *ToastController) Dismiss() {
	if len(c.toasts) > 0 {
		c.toasts = c.toasts[:len(c.toasts)-1]
	}
}

// HasToasts reports whether any toast is active.
func (c *ToastController) HasToasts() bool {
	return len(c.toasts) > 0
}

// Toasts returns the active toasts, oldest first.
func (c *ToastController) Toasts() []toast {
	return c.toasts
}

// Ticking returns whether the tick timer is currently running.
func (c *ToastController) Ticking() bool {
	return c.ticking
}

// SetTicking sets the tick timer state.
func (c *ToastController) SetTicking(v bool) {
	c.ticking = v
}
