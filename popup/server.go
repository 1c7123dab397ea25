// Package popup serves the capture popup as a small local web page.
package popup

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagedrop/capture"
	"github.com/use-agent/pagedrop/trigger"
	"github.com/use-agent/pagedrop/ui"
)

// Server is the popup: one panel, one controller, one endpoint.
type Server struct {
	panel    *ui.Panel
	ctrl     *trigger.Controller
	endpoint string
	tabReady bool

	// base is the parent context of background cycles; cancelled on shutdown.
	base context.Context

	mu      sync.Mutex
	lastURL string
}

// NewServer creates a popup over ctrl, which must draw into panel. tabReady
// tells the page whether an empty URL means "capture the active tab".
func NewServer(base context.Context, panel *ui.Panel, ctrl *trigger.Controller, endpoint string, tabReady bool) *Server {
	return &Server{panel: panel, ctrl: ctrl, endpoint: endpoint, tabReady: tabReady, base: base}
}

// Router returns the gin engine serving the popup.
func (s *Server) Router(mode string) *gin.Engine {
	gin.SetMode(mode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.index)
	r.GET("/state", s.state)
	r.POST("/send", s.send)
	return r
}

func (s *Server) index(c *gin.Context) {
	s.mu.Lock()
	last := s.lastURL
	s.mu.Unlock()

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	view := pageView{Snapshot: s.panel.Snapshot(), Endpoint: s.endpoint, URL: last, TabReady: s.tabReady}
	if err := popupPage(view).Render(c.Request.Context(), c.Writer); err != nil {
		slog.Error("popup render failed", "error", err)
	}
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state": s.ctrl.State().String(),
		"panel": s.panel.Snapshot(),
	})
}

// send starts a cycle in the background and redirects back to the page,
// which keeps refreshing while the button is disabled.
func (s *Server) send(c *gin.Context) {
	raw := strings.TrimSpace(c.PostForm("url"))
	t := capture.Target{ActiveTab: true}
	if raw != "" {
		t = capture.ParseTarget(raw)
		if t.Path != "" {
			// Never let the page read local files.
			c.JSON(http.StatusBadRequest, gin.H{"error": "url must be http or https"})
			return
		}
	}

	s.mu.Lock()
	s.lastURL = raw
	s.mu.Unlock()

	done, err := s.ctrl.Start(s.base, t)
	switch {
	case errors.Is(err, trigger.ErrBusy):
		// The disabled button should have prevented this; ignore it.
		slog.Debug("send ignored while submitting")
	case err != nil:
		slog.Error("send failed to start", "error", err)
	default:
		go func() {
			o := <-done
			if o.OK() {
				slog.Info("popup cycle finished", "target", t.String(), "message", o.Response().Message)
			} else {
				slog.Warn("popup cycle failed", "target", t.String(), "error", o.Err())
			}
		}()
	}

	if wantsJSON(c) {
		s.state(c)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
