package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	notificationdomain "github.com/smallbiznis/scanprice/internal/notification/domain"
	"github.com/smallbiznis/scanprice/internal/notification/liveevents"
)

const streamHeartbeat = 15 * time.Second

func (s *Server) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": notificationViews(s.notificationSvc.List(c.Request.Context()))})
}

func (s *Server) DismissNotification(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.notificationSvc.Dismiss(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// StreamNotifications sends the current list, then every change, as
// server-sent events.
func (s *Server) StreamNotifications(c *gin.Context) {
	if s.liveEvents == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	subscription, err := s.liveEvents.Subscribe()
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	defer subscription.Close()

	writer := c.Writer
	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := writer.(http.Flusher)
	if !ok {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}

	ctx := c.Request.Context()
	if err := writeStreamEvent(writer, "snapshot", notificationViews(s.notificationSvc.List(ctx))); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-subscription.Events():
			if err := writeStreamEvent(writer, event.Kind, liveEventView(event)); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeStreamEvent(w io.Writer, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

func notificationViews(items []notificationdomain.Notification) []notificationdomain.View {
	out := make([]notificationdomain.View, 0, len(items))
	for _, n := range items {
		out = append(out, notificationdomain.View{Notification: n, Style: n.Type.Style()})
	}
	return out
}

func liveEventView(event liveevents.Event) notificationdomain.View {
	return notificationdomain.View{
		Notification: event.Notification,
		Style:        event.Notification.Type.Style(),
	}
}
