package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/storefront/internal/events"
)

// CatalogEvent is the shape the catalog handlers publish for new stores
// and products.
type CatalogEvent struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StoreName   string `json:"store_name,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Consumer reads catalog events and forwards announcements to the
// poster. It decouples catalog writes from the social service's
// availability.
type Consumer struct {
	reader *kafka.Reader
	poster Poster
	log    *slog.Logger
}

func NewConsumer(brokers []string, groupID string, poster Poster, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   events.TopicCatalog,
	})
	return &Consumer{reader: r, poster: poster, log: log}
}

// Run blocks until ctx is cancelled. Malformed or unknown events are
// skipped; post failures are logged and the offset advances anyway.
func (c *Consumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return
			}
			c.log.Error("notify: read message", "error", err)
			continue
		}

		var ev CatalogEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.log.Warn("notify: malformed event", "error", err)
			continue
		}

		var message string
		switch ev.Type {
		case events.TypeStoreCreated:
			message = StoreMessage(ev.Name, ev.Description)
		case events.TypeProductCreated:
			message = ProductMessage(ev.StoreName, ev.Name, ev.Description)
		default:
			continue
		}

		if err := c.poster.Post(ctx, message, ev.ImageURL); err != nil {
			c.log.Error("notify: post failed", "type", ev.Type, "error", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
