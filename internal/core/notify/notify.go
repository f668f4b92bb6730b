package notify

import (
	"context"
	"encoding/json"
	"time"

	"placelink/internal/core/resolve"
	"placelink/internal/logger"
)

// PatchEntry is the per-provider payload merged into the client's result row.
type PatchEntry struct {
	Status    resolve.Status `json:"status"`
	URL       *string        `json:"url"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Meta      *resolve.Meta  `json:"meta,omitempty"`
}

// PatchEvent is the wire shape pushed to clients waiting on a search
// request. Transient: never persisted, delivery is at-most-once.
type PatchEvent struct {
	Type      string                `json:"type"`
	RequestID string                `json:"requestId"`
	PlaceID   string                `json:"placeId"`
	Patch     map[string]PatchEntry `json:"patch"`
}

const EventTypeResultPatch = "RESULT_PATCH"

// Channel names the pub/sub channel scoped to one originating search
// request, so only clients waiting on that request receive the patch.
func Channel(requestID string) string { return "updates:" + requestID }

// publisher is the slice of the redis service the notifier needs.
type publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type Publisher struct {
	pub publisher
	log *logger.Logger
}

func NewPublisher(pub publisher) *Publisher {
	return &Publisher{pub: pub, log: logger.New("Notify")}
}

// PublishPatch builds the patch event and publishes it on the request's
// channel. If no subscriber is attached the event is simply lost; clients
// that miss a patch see the place without enrichment, a valid terminal
// state.
func (p *Publisher) PublishPatch(ctx context.Context, provider, placeID, requestID string, entry PatchEntry) error {
	event := PatchEvent{
		Type:      EventTypeResultPatch,
		RequestID: requestID,
		PlaceID:   placeID,
		Patch:     map[string]PatchEntry{provider: entry},
	}
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.pub.Publish(ctx, Channel(requestID), b); err != nil {
		p.log.LogErrorf("publish patch for %s/%s failed: %v", provider, placeID, err)
		return err
	}
	p.log.LogDebugf("published %s patch for %s/%s to request %s", entry.Status, provider, placeID, requestID)
	return nil
}
