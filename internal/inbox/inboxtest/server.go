// Package inboxtest runs a fake notification server speaking the same REST
// and event-stream protocol as the real one. Tests drive it directly: seed
// notifications, push new ones to live subscribers, reject the stream or fail
// read confirmations.
package inboxtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/inbox/internal/core/auth"
	"github.com/colonyops/inbox/internal/core/notify"
)

const (
	basePath   = "/api/v1/notifications"
	ctxUserKey = "user_id"
)

// Server is a fake upstream bound to a random local port.
type Server struct {
	URL string

	secret []byte
	done   chan struct{}

	mu            sync.Mutex
	items         map[string][]notify.Notification // newest first
	subscribers   map[string][]chan notify.Notification
	streamStatus  int
	failConfirm   bool
	confirmations []string
}

// New starts a server and stops it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		secret:      []byte("inboxtest-secret"),
		done:        make(chan struct{}),
		items:       make(map[string][]notify.Notification),
		subscribers: make(map[string][]chan notify.Notification),
	}

	srv := httptest.NewServer(s.routes())
	s.URL = srv.URL

	// Registered first so it runs last: open streams must end before Close
	// waits for outstanding requests.
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(s.done) })

	return s
}

// Token issues a credential the server accepts for userID.
func (s *Server) Token(t testing.TB, userID string) string {
	t.Helper()
	token, err := auth.Sign(s.secret, userID, time.Hour)
	require.NoError(t, err)
	return token
}

// Seed adds notifications for userID without notifying subscribers. Items
// are given newest first.
func (s *Server) Seed(userID string, items ...notify.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[userID] = append(s.items[userID], items...)
}

// Push stores n as the newest notification and sends it to every open stream
// for userID.
func (s *Server) Push(userID string, n notify.Notification) {
	s.mu.Lock()
	s.items[userID] = append([]notify.Notification{n}, s.items[userID]...)
	subs := slices.Clone(s.subscribers[userID])
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- n:
		case <-s.done:
			return
		}
	}
}

// Subscribers returns the number of open streams for userID.
func (s *Server) Subscribers(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers[userID])
}

// RejectStream makes subscribe requests fail with code. Zero accepts again.
func (s *Server) RejectStream(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamStatus = code
}

// FailConfirmations makes read confirmations answer 500.
func (s *Server) FailConfirmations(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failConfirm = fail
}

// Confirmations lists the read confirmations received, as "<id>" or "all".
func (s *Server) Confirmations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.confirmations)
}

// Notifications returns the server-side list for userID, newest first.
func (s *Server) Notifications(userID string) []notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items[userID])
}

func (s *Server) routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group(basePath)
	api.Use(s.authenticate())
	{
		api.GET("", s.handleList)
		api.GET("/unread-count", s.handleUnreadCount)
		api.GET("/subscribe", s.handleSubscribe)
		api.PUT("/read-all", s.handleReadAll)
		api.PUT("/:id/read", s.handleRead)
	}

	return r
}

// authenticate accepts a bearer header, or the token query parameter used by
// the event stream, and requires it to match the userId parameter.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credential"})
			return
		}

		userID, err := auth.Verify(s.secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
			return
		}
		if userID != c.Query("userId") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "credential does not match userId"})
			return
		}

		c.Set(ctxUserKey, userID)
		c.Next()
	}
}

func (s *Server) handleList(c *gin.Context) {
	items := s.Notifications(c.GetString(ctxUserKey))
	if items == nil {
		items = []notify.Notification{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleUnreadCount(c *gin.Context) {
	n := 0
	for _, item := range s.Notifications(c.GetString(ctxUserKey)) {
		if !item.IsRead {
			n++
		}
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": n})
}

func (s *Server) handleRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.confirmations = append(s.confirmations, strconv.FormatInt(id, 10))
	if s.failConfirm {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "confirmation failed"})
		return
	}

	items := s.items[c.GetString(ctxUserKey)]
	for i := range items {
		if items[i].ID == id {
			items[i].IsRead = true
		}
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleReadAll(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.confirmations = append(s.confirmations, "all")
	if s.failConfirm {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "confirmation failed"})
		return
	}

	items := s.items[c.GetString(ctxUserKey)]
	for i := range items {
		items[i].IsRead = true
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSubscribe(c *gin.Context) {
	userID := c.GetString(ctxUserKey)

	s.mu.Lock()
	if code := s.streamStatus; code != 0 {
		s.mu.Unlock()
		c.Status(code)
		return
	}
	ch := make(chan notify.Notification, 16)
	s.subscribers[userID] = append(s.subscribers[userID], ch)
	s.mu.Unlock()

	defer s.unsubscribe(userID, ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(io.Writer) bool {
		select {
		case n := <-ch:
			data, err := json.Marshal(n)
			if err != nil {
				return false
			}
			c.SSEvent("notification", string(data))
			return true
		case <-c.Request.Context().Done():
			return false
		case <-s.done:
			return false
		}
	})
}

func (s *Server) unsubscribe(userID string, ch chan notify.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[userID] = slices.DeleteFunc(s.subscribers[userID], func(c chan notify.Notification) bool {
		return c == ch
	})
}
