package http

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const heartbeatInterval = 15 * time.Second

// Subscriber is the read side of the log hub.
type Subscriber interface {
	Subscribe(ctx context.Context, streamID string) <-chan string
}

// StreamHandler serves pipeline output as server-sent events.
type StreamHandler struct {
	hub       Subscriber
	logger    zerolog.Logger
	heartbeat time.Duration
}

func NewStreamHandler(hub Subscriber, logger zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		hub:       hub,
		logger:    logger.With().Str("component", "sse").Logger(),
		heartbeat: heartbeatInterval,
	}
}

// Stream subscribes to the stream in the path and writes one event per
// line until the stream closes or the client goes away.
func (h *StreamHandler) Stream(c *fiber.Ctx) error {
	// Params aliases the pooled request buffer, and the id outlives the
	// handler as a hub key.
	id := utils.CopyString(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "stream id is required")
	}

	// Subscribe before the handler returns so no line sent after the
	// request was accepted is missed.
	ctx, cancel := context.WithCancel(context.Background())
	lines := h.hub.Subscribe(ctx, id)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	logger := h.logger.With().Str("stream_id", id).Logger()
	logger.Debug().Msg("client subscribed")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		// Flush headers right away so clients see the stream open.
		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case line, ok := <-lines:
				if !ok {
					logger.Debug().Msg("stream closed")
					return
				}
				writeEvent(w, line)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				logger.Debug().Err(err).Msg("client disconnected")
				return
			}
		}
	}))
	return nil
}

// writeEvent writes line as one SSE event. Embedded newlines become
// additional data fields of the same event.
func writeEvent(w *bufio.Writer, line string) {
	for _, part := range strings.Split(line, "\n") {
		fmt.Fprintf(w, "data: %s\n", part)
	}
	w.WriteString("\n")
}
