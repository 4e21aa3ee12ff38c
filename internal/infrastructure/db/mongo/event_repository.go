package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/evanio/checkout-service/internal/core/domain"
)

const collectionCheckoutEvents = "checkout_events"

// EventRepository implements ports.EventRepository using MongoDB.
type EventRepository struct {
	col *mongo.Collection
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{col: db.Collection(collectionCheckoutEvents)}
}

// InsertEvent persists a checkout event to the audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.CheckoutEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"flow_id":     event.FlowID,
		"step":        string(event.Step),
		"kind":        string(event.Kind),
		"at":          event.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.Message != "" {
		doc["message"] = event.Message
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert checkout event: %w", err)
	}
	return nil
}

// ListByFlow returns the flow's events oldest first.
func (r *EventRepository) ListByFlow(ctx context.Context, flowID string) ([]domain.CheckoutEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"flow_id": flowID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list checkout events: %w", err)
	}
	defer cur.Close(ctx)

	events := make([]domain.CheckoutEvent, 0)
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode checkout events: %w", err)
	}
	return events, nil
}

// EnsureIndexes creates the indexes of the checkout_events collection.
func (r *EventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "flow_id", Value: 1}, {Key: "at", Value: 1}},
	})
	return err
}
