package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lavanderia/ops-console/internal/core/guard"
)

const eventBuffer = 16

// eventQueue buffers events between the guard callbacks, which run on the
// mutating goroutine and must not block, and the stream writer. A full
// decision buffer drops its oldest entry so the latest decision always
// arrives. Redirects have their own slot and are never dropped; a redirect
// already waiting there covers a second one for the same login route.
type eventQueue struct {
	decisions chan guardEvent
	redirects chan guardEvent
}

func newEventQueue(size int) *eventQueue {
	return &eventQueue{
		decisions: make(chan guardEvent, size),
		redirects: make(chan guardEvent, 1),
	}
}

// decision reports whether an older decision had to be dropped.
func (q *eventQueue) decision(ev guardEvent) (dropped bool) {
	for {
		select {
		case q.decisions <- ev:
			return dropped
		default:
		}
		select {
		case <-q.decisions:
			dropped = true
		default:
		}
	}
}

func (q *eventQueue) redirect(ev guardEvent) {
	select {
	case q.redirects <- ev:
	default:
	}
}

// guardEvent is one server-sent event on a family's guard stream.
type guardEvent struct {
	Family   string `json:"family"`
	Decision string `json:"decision,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// EventsHandler streams a family's guard decisions to a connected shell so it
// can react to logins and logouts without polling.
type EventsHandler struct {
	guard     *guard.Guard
	heartbeat time.Duration
	log       zerolog.Logger
}

// NewEventsHandler returns a handler that sends a comment line every
// heartbeat to keep idle connections open.
func NewEventsHandler(g *guard.Guard, heartbeat time.Duration, log zerolog.Logger) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &EventsHandler{
		guard:     g,
		heartbeat: heartbeat,
		log:       log.With().Str("component", "events").Str("family", g.Family()).Logger(),
	}
}

// Stream handles GET {base}/auth/events.
//
// Every distinct decision is sent as a "decision" event; entering a denied
// state additionally sends one "redirect" event naming the login route.
// Disconnecting detaches the watcher.
//
// @Summary      Stream guard decisions
// @Tags         auth
// @Produce      text/event-stream
// @Success      200
// @Router       /{family}/auth/events [get]
func (h *EventsHandler) Stream(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	queue := newEventQueue(eventBuffer)
	family := h.guard.Family()
	unmount := h.guard.Mount(
		guard.NavigatorFunc(func(route string) {
			queue.redirect(guardEvent{Family: family, Redirect: route})
		}),
		func(d guard.Decision) {
			if queue.decision(guardEvent{Family: family, Decision: d.String()}) {
				h.log.Warn().Msg("event buffer full, dropped oldest decision")
			}
		},
	)
	defer unmount()

	h.log.Debug().Msg("event stream connected")
	defer h.log.Debug().Msg("event stream disconnected")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-queue.decisions:
			if err := h.write(w, "decision", ev); err != nil {
				return nil
			}
		case ev := <-queue.redirects:
			// Decisions queued before the redirect go out first.
			for pending := true; pending; {
				select {
				case d := <-queue.decisions:
					if err := h.write(w, "decision", d); err != nil {
						return nil
					}
				default:
					pending = false
				}
			}
			if err := h.write(w, "redirect", ev); err != nil {
				return nil
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func (h *EventsHandler) write(w *echo.Response, name string, ev guardEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Msg("encode event")
		return nil
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
