// Package tui implements the interactive inbox view.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/inbox/internal/core/eventbus"
	"github.com/colonyops/inbox/internal/core/notify"
)

// actionTimeout bounds a single mark-read or refresh triggered from the UI.
const actionTimeout = 30 * time.Second

const (
	defaultWidth  = 80
	defaultHeight = 24

	// chromeHeight covers the header, the blank line under it and the help
	// line with its top margin.
	chromeHeight = 4
	// detailFrame is the border around the detail viewport.
	detailFrame = 2
)

// Inbox is the session surface the view drives. Its operations report
// failures on the event bus, not to the caller.
type Inbox interface {
	Notifications() []notify.Notification
	UnreadCount() int
	State() notify.ConnectionState
	MarkRead(ctx context.Context, id int64)
	MarkAllRead(ctx context.Context)
	Refresh(ctx context.Context)
}

// Opts configures the view.
type Opts struct {
	UserID   string
	Markdown bool
	Now      func() time.Time // defaults to time.Now
}

// actionDoneMsg reports that an inbox action run off the UI loop finished.
type actionDoneMsg struct {
	action string
}

// Model is the Bubble Tea model for the inbox.
type Model struct {
	inbox  Inbox
	buffer *EventBuffer
	toasts *ToastController
	body   *bodyRenderer
	keys   keyMap
	help   help.Model
	userID string
	now    func() time.Time

	list     list.Model
	viewport viewport.Model

	items  []notify.Notification
	unread int
	state  notify.ConnectionState

	detail   bool
	detailID int64
	width    int
	height   int
}

// New creates the model. buffer delivers bus events; it may be nil, in which
// case the view only refreshes after its own actions.
func New(inbox Inbox, buffer *EventBuffer, opts Opts) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := list.New(nil, notificationDelegate{now: opts.Now}, defaultWidth, defaultHeight)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("notification", "notifications")
	l.DisableQuitKeybindings()
	l.KeyMap.GoToStart.SetKeys("home")

	m := Model{
		inbox:    inbox,
		buffer:   buffer,
		toasts:   NewToastController(),
		body:     newBodyRenderer(opts.Markdown),
		keys:     defaultKeyMap(),
		help:     help.New(),
		userID:   opts.UserID,
		now:      opts.Now,
		list:     l,
		viewport: viewport.New(defaultWidth, defaultHeight),
		width:    defaultWidth,
		height:   defaultHeight,
	}
	m.body.SetWidth(m.detailWidth())
	m.sync()
	m.layout()
	return m
}

// Init starts listening for bus events.
func (m Model) Init() tea.Cmd {
	if m.buffer == nil {
		return nil
	}
	return m.buffer.WaitForSignal()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	m.layout()
	return m, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.body.SetWidth(m.detailWidth())
		if m.detail {
			m.setDetailContent()
		}
		return m, nil

	case tea.KeyMsg:
		if m.detail {
			return m.handleDetailKey(msg)
		}
		return m.handleListKey(msg)

	case drainEventsMsg:
		return m.handleEvents()

	case actionDoneMsg:
		log.Debug().Str("action", msg.action).Msg("tui: action finished")
		m.sync()
		return m, nil

	case toastTickMsg:
		m.toasts.Tick(toastTickInterval)
		if m.toasts.HasToasts() {
			return m, scheduleToastTick()
		}
		m.toasts.SetTicking(false)
		return m, nil
	}

	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Open):
		n, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.detail = true
		m.detailID = n.ID
		m.setDetailContent()
		m.viewport.GotoTop()
		if !n.IsRead {
			return m, m.markRead(n.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Back):
		if m.toasts.HasToasts() {
			m.toasts.Dismiss()
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkRead):
		if n, ok := m.selected(); ok && !n.IsRead {
			return m, m.markRead(n.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkAll):
		if m.unread > 0 {
			return m, m.run("mark all read", m.inbox.MarkAllRead)
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.run("refresh", m.inbox.Refresh)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		m.detail = false
		return m, nil

	case key.Matches(msg, m.keys.MarkRead):
		if n, ok := m.find(m.detailID); ok && !n.IsRead {
			return m, m.markRead(n.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.run("refresh", m.inbox.Refresh)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleEvents() (Model, tea.Cmd) {
	cmds := []tea.Cmd{m.buffer.WaitForSignal()}

	resync := false
	for _, ev := range m.buffer.Drain() {
		switch p := ev.(type) {
		case eventbus.InboxChangedPayload:
			resync = true
		case eventbus.ConnectionStateChangedPayload:
			m.state = p.New
		case eventbus.StatusPostedPayload:
			m.toasts.Push(p.Level, p.Message)
			cmds = append(cmds, m.ensureToastTick())
		}
	}

	if resync {
		m.sync()
	}
	return m, tea.Batch(cmds...)
}

// sync copies the current inbox contents into the model and keeps the
// selection on the same notification when it is still present.
func (m *Model) sync() {
	selectedID := int64(-1)
	if n, ok := m.selected(); ok {
		selectedID = n.ID
	}

	m.items = m.inbox.Notifications()
	m.unread = m.inbox.UnreadCount()
	m.state = m.inbox.State()

	_ = m.list.SetItems(toItems(m.items))
	index := min(m.list.Index(), max(len(m.items)-1, 0))
	for i, n := range m.items {
		if n.ID == selectedID {
			index = i
			break
		}
	}
	m.list.Select(index)

	if m.detail {
		if _, ok := m.find(m.detailID); !ok {
			m.detail = false
			return
		}
		m.setDetailContent()
	}
}

// layout sizes the list, viewport and help to the window, leaving room for
// the chrome and any visible toasts.
func (m *Model) layout() {
	content := max(m.height-chromeHeight-m.toastHeight(), 1)

	m.list.SetSize(m.width, content)
	m.viewport.Width = m.detailWidth()
	m.viewport.Height = max(content-detailFrame, 1)
	m.help.Width = m.width
}

// detailWidth is the text width inside the detail border and padding.
func (m Model) detailWidth() int {
	return max(m.width-4, 20)
}

func (m *Model) setDetailContent() {
	n, ok := m.find(m.detailID)
	if !ok {
		return
	}
	m.viewport.SetContent(m.detailContent(n))
}

func (m Model) selected() (notify.Notification, bool) {
	it, ok := m.list.SelectedItem().(notificationItem)
	if !ok {
		return notify.Notification{}, false
	}
	return it.Notification, true
}

func (m Model) find(id int64) (notify.Notification, bool) {
	for _, n := range m.items {
		if n.ID == id {
			return n, true
		}
	}
	return notify.Notification{}, false
}

func (m Model) markRead(id int64) tea.Cmd {
	return m.run("mark read", func(ctx context.Context) {
		m.inbox.MarkRead(ctx, id)
	})
}

func (m Model) run(action string, fn func(context.Context)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		fn(ctx)
		return actionDoneMsg{action: action}
	}
}

func (m Model) ensureToastTick() tea.Cmd {
	if m.toasts.Ticking() {
		return nil
	}
	m.toasts.SetTicking(true)
	return scheduleToastTick()
}
