package notify

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"placelink/internal/logger"
	rds "placelink/internal/platform/redis"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type Handler struct {
	redis *rds.Service
	log   *logger.Logger
}

func NewHandler(redis *rds.Service) *Handler {
	return &Handler{redis: redis, log: logger.New("UpdatesSSE")}
}

// HandleUpdates streams patch events for one request id over SSE. The
// subscription starts before the first byte is written, so a patch
// published right after the search response cannot slip past the client.
func (h *Handler) HandleUpdates(c *fiber.Ctx) error {
	requestID := c.Params("requestId")
	if requestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "requestId is required"})
	}

	sub := h.redis.Subscribe(context.Background(), Channel(requestID))
	h.log.LogDebugf("subscriber attached for request %s", requestID)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()
		ch := sub.Channel()
		keepalive := time.NewTicker(25 * time.Second)
		defer keepalive.Stop()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
				if err := w.Flush(); err != nil {
					// Client went away; patches after this point are lost
					// by design.
					return
				}
			case <-keepalive.C:
				fmt.Fprint(w, ": keepalive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}
