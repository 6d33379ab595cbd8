// internal/app/features/eventstream/handler.go
package eventstream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/guardian/internal/app/system/events"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// DefaultKeepAlive is how often an idle stream gets a comment line so
// proxies do not close it.
const DefaultKeepAlive = 25 * time.Second

// Source hands out event subscriptions.
type Source interface {
	Subscribe(buffer int) (<-chan events.Event, func())
}

// Handler streams dispatch events to dashboards as Server-Sent Events.
type Handler struct {
	Source    Source
	Buffer    int
	KeepAlive time.Duration
	Log       *zap.Logger
}

func NewHandler(src Source, buffer int, logger *zap.Logger) *Handler {
	return &Handler{
		Source:    src,
		Buffer:    buffer,
		KeepAlive: DefaultKeepAlive,
		Log:       logger,
	}
}

// Serve handles GET /api/events.
//
// Each event is written as
//
//	id: <event id>
//	event: <event name>
//	data: <payload JSON>
//
// ?events=officer-assigned,officer-unassigned limits the stream to those
// names. A client that falls behind misses events rather than stalling
// dispatch.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	want := parseFilter(query.Get(r, "events"))

	ch, unsubscribe := h.Source.Subscribe(h.Buffer)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(h.KeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if len(want) > 0 && !want[ev.Name] {
				continue
			}
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				h.Log.Warn("eventstream: marshal failed", zap.String("event", ev.Name), zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Name, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func parseFilter(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	out := map[string]bool{}
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out[name] = true
		}
	}
	return out
}
