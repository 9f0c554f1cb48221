// Package events publishes the hub's audit events to KurrentDB
// (EventStoreDB). The policy engine only ever appends; the fraud and
// billing consumers read the streams out of band.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/EventStore/EventStore-Client-Go/v4/esdb"
	"github.com/google/uuid"

	"github.com/identity-federation/hub/internal/shared/config"
)

// Event is one audit record as it appears on the wire.
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Data          any       `json:"data"`
}

func NewEvent(eventType, source string, data any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// WithCorrelation ties the event to a session. Correlated events share a
// stream, so a whole session journey can be read back in order.
func (e Event) WithCorrelation(correlationID string) Event {
	e.CorrelationID = correlationID
	return e
}

// Publisher is the write-side interface the policy engine depends on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus appends audit events to KurrentDB. Events carrying a correlation id
// land on that session's stream; uncorrelated events land on a per-type
// stream.
type Bus struct {
	client *esdb.Client
	prefix string
}

func NewBus(ctx context.Context, cfg config.KurrentDBConfig) (*Bus, error) {
	settings, err := esdb.ParseConnectionString(connectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse KurrentDB connection string: %w", err)
	}

	client, err := esdb.NewClient(settings)
	if err != nil {
		return nil, fmt.Errorf("create KurrentDB client: %w", err)
	}

	return &Bus{client: client, prefix: "hub"}, nil
}

func connectionString(cfg config.KurrentDBConfig) string {
	var auth string
	if cfg.Username != "" && cfg.Password != "" {
		auth = fmt.Sprintf("%s:%s@", cfg.Username, cfg.Password)
	}

	params := ""
	if cfg.Insecure {
		params = "?tls=false&tlsVerifyCert=false" +
			"&keepAliveInterval=10000&keepAliveTimeout=10000" +
			"&discoveryInterval=100&maxDiscoverAttempts=3&gossipTimeout=5"
	}

	return fmt.Sprintf("esdb://%s%s:%d%s", auth, cfg.Host, cfg.Port, params)
}

// Publish appends the event to its stream. Appends use ExpectedRevision Any:
// audit streams are append-only journals, never optimistic-concurrency
// aggregates.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	eventID, err := uuid.Parse(event.ID)
	if err != nil {
		eventID = uuid.New()
	}

	_, err = b.client.AppendToStream(ctx, b.streamFor(event), esdb.AppendToStreamOptions{
		ExpectedRevision: esdb.Any{},
	}, esdb.EventData{
		EventType:   event.Type,
		ContentType: esdb.ContentTypeJson,
		Data:        data,
		EventID:     eventID,
	})
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// streamFor picks the stream name: hub-session-<id> for correlated events,
// hub-<type> otherwise. Dots are not valid in stream names.
func (b *Bus) streamFor(event Event) string {
	if event.CorrelationID != "" {
		return fmt.Sprintf("%s-session-%s", b.prefix, event.CorrelationID)
	}
	return fmt.Sprintf("%s-%s", b.prefix, strings.ReplaceAll(event.Type, ".", "-"))
}

func (b *Bus) Close() {
	if b.client != nil {
		b.client.Close()
	}
}

// Health checks the KurrentDB connection, for the readiness probe.
func (b *Bus) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := b.client.ReadStream(ctx, "$streams", esdb.ReadStreamOptions{
		From:      esdb.Start{},
		Direction: esdb.Forwards,
	}, 1)
	if err != nil {
		return fmt.Errorf("KurrentDB health check failed: %w", err)
	}
	defer stream.Close()
	return nil
}
