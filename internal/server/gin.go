package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sevir/botshell/internal/backend"
	"github.com/sevir/botshell/ui"
)

func (s *Server) newGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/ui")
	})

	r.GET("/ui", s.handleUI)
	r.GET("/ui/", s.handleUI)

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	{
		api.GET("/version", s.handleVersion)
		api.GET("/status", s.handleStatus)
		api.POST("/restart", s.handleRestart)
		api.GET("/info", s.handleInfo)
		api.GET("/launches", s.handleLaunches)
		api.POST("/shutdown", s.handleShutdown)
	}

	return r
}

func (s *Server) handleUI(c *gin.Context) {
	data, err := ui.FS.ReadFile("index.html")
	if err != nil {
		c.String(http.StatusInternalServerError, "ui assets missing")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": s.version,
		"commit":  s.commit,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"running": s.probe.Check()})
}

func (s *Server) handleRestart(c *gin.Context) {
	ok := s.supervisor.Restart()
	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"info": backend.Info(s.locator, s.probe)})
}

func (s *Server) handleLaunches(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusOK, gin.H{"launches": []struct{}{}})
		return
	}

	recs := s.journal.List()

	type launchItem struct {
		LaunchID  string `json:"launch_id"`
		Strategy  string `json:"strategy"`
		PID       int    `json:"pid"`
		StartedAt string `json:"started_at"`
		EndedAt   string `json:"ended_at,omitempty"`
		ExitCode  *int   `json:"exit_code,omitempty"`
	}

	items := make([]launchItem, 0, len(recs))
	for _, rec := range recs {
		item := launchItem{
			LaunchID:  rec.LaunchID,
			Strategy:  rec.Strategy,
			PID:       rec.PID,
			StartedAt: rec.StartedAt.Format(time.RFC3339Nano),
			ExitCode:  rec.ExitCode,
		}
		if rec.EndedAt != nil {
			item.EndedAt = rec.EndedAt.Format(time.RFC3339Nano)
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"launches": items})
}

func (s *Server) handleShutdown(c *gin.Context) {
	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)
	})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
