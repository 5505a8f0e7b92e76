// Package notify announces published snapshots to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"sdnscreen/internal/sdn/models"
)

const EventSnapshotPublished = "sdn.snapshot.published"

// Event is the JSON payload of a snapshot announcement.
type Event struct {
	Type            string    `json:"type"`
	SnapshotID      string    `json:"snapshot_id"`
	PublicationDate string    `json:"publication_date,omitempty"`
	IngestedAt      time.Time `json:"ingested_at"`
	SourceURL       string    `json:"source_url,omitempty"`
	RecordCount     int       `json:"record_count"`
}

func NewEvent(info models.SnapshotInfo) Event {
	return Event{
		Type:            EventSnapshotPublished,
		SnapshotID:      info.ID.String(),
		PublicationDate: info.PublicationDate,
		IngestedAt:      info.IngestedAt,
		SourceURL:       info.SourceURL,
		RecordCount:     info.RecordCount,
	}
}

// Kafka produces one record per published snapshot, keyed by snapshot ID.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafka(client *kgo.Client, topic string, logger *slog.Logger) *Kafka {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{client: client, topic: topic, logger: logger}
}

// EnsureTopic creates the topic if the cluster does not have it yet.
func (k *Kafka) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	admin := kadm.NewClient(k.client)
	resp, err := admin.CreateTopic(ctx, partitions, replicationFactor, nil, k.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", k.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", k.topic, resp.Err)
	}
	return nil
}

func (k *Kafka) SnapshotPublished(ctx context.Context, info models.SnapshotInfo) error {
	payload, err := json.Marshal(NewEvent(info))
	if err != nil {
		return fmt.Errorf("encode snapshot event: %w", err)
	}
	rec := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(info.ID.String()),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(EventSnapshotPublished)},
		},
	}
	if err := k.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce snapshot event: %w", err)
	}
	k.logger.InfoContext(ctx, "snapshot event published",
		"topic", k.topic,
		"snapshot_id", info.ID,
		"record_count", info.RecordCount,
	)
	return nil
}

// Nop discards announcements. Used when no broker is configured.
type Nop struct{}

func (Nop) SnapshotPublished(context.Context, models.SnapshotInfo) error { return nil }
