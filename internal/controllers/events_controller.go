package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aftras/crm/internal/constants"
	"github.com/aftras/crm/internal/events"
	"github.com/aftras/crm/internal/utils"
)

// EventsController streams bus topics to browsers as server-sent events.
type EventsController struct {
	bus       *events.Bus
	keepAlive time.Duration
}

func NewEventsController(bus *events.Bus) *EventsController {
	return &EventsController{bus: bus, keepAlive: constants.EventStreamKeepAlive}
}

// GET /api/v1/events[?topics=a,b]
func (c *EventsController) StreamHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Streaming not supported", nil)
		return
	}
	topics, err := parseTopics(r.URL.Query().Get("topics"))
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil)
		return
	}

	// Handlers run on the publisher's goroutine; never block them.
	ch := make(chan events.Topic, constants.EventStreamBuffer)
	for _, topic := range topics {
		unsubscribe := c.bus.Subscribe(topic, func(t events.Topic) {
			select {
			case ch <- t:
			default:
				utils.Logger.WithField("topic", t).Debug("event stream buffer full; dropping signal")
			}
		})
		defer unsubscribe()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "retry: %d\n\n", constants.EventStreamRetryDelay.Milliseconds())
	flusher.Flush()

	ticker := time.NewTicker(c.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case t := <-ch:
			if _, err := fmt.Fprintf(w, "event: %s\ndata: {\"topic\":%q}\n\n", t, t); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func parseTopics(raw string) ([]events.Topic, error) {
	if raw == "" {
		return events.Topics, nil
	}
	known := make(map[events.Topic]bool, len(events.Topics))
	for _, t := range events.Topics {
		known[t] = true
	}
	seen := make(map[events.Topic]bool)
	var out []events.Topic
	for _, part := range strings.Split(raw, ",") {
		t := events.Topic(strings.TrimSpace(part))
		if !known[t] {
			return nil, fmt.Errorf("unknown topic %q", t)
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}
