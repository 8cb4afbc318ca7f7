package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/sse"
	"github.com/goccy/go-json"
)

// ProgressHandler streams payroll batch progress for one month as server-sent events.
type ProgressHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

type progressHandlerImpl struct {
	hub       *sse.Hub
	keepalive time.Duration
}

func NewProgressHandler(hub *sse.Hub) ProgressHandler {
	return &progressHandlerImpl{hub: hub, keepalive: 30 * time.Second}
}

func (h *progressHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	month, details, ok := monthParam(r)
	if !ok {
		response.BadRequest(w, "Invalid month, expected YYYY-MM", details)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(month.String())
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"month\":%q}\n\n", month.String())
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
