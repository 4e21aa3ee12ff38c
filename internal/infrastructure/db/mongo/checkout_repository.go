package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/evanio/checkout-service/internal/core/domain"
)

const collectionCheckoutFlows = "checkout_flows"

// CheckoutRepository implements ports.CheckoutRepository using MongoDB.
type CheckoutRepository struct {
	col       *mongo.Collection
	retention time.Duration
}

// NewCheckoutRepository creates a CheckoutRepository. Flows untouched for
// longer than retention are removed by a TTL index; zero disables expiry.
func NewCheckoutRepository(db *mongo.Database, retention time.Duration) *CheckoutRepository {
	return &CheckoutRepository{col: db.Collection(collectionCheckoutFlows), retention: retention}
}

func (r *CheckoutRepository) Create(ctx context.Context, f *domain.CheckoutFlow) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, f); err != nil {
		return fmt.Errorf("insert checkout flow: %w", err)
	}
	return nil
}

// FindByID returns domain.ErrCheckoutNotFound when no flow has the id.
func (r *CheckoutRepository) FindByID(ctx context.Context, id string) (*domain.CheckoutFlow, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var f domain.CheckoutFlow
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCheckoutNotFound
		}
		return nil, fmt.Errorf("find checkout flow: %w", err)
	}
	return &f, nil
}

// Update replaces the stored flow with f.
func (r *CheckoutRepository) Update(ctx context.Context, f *domain.CheckoutFlow) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": f.ID}, f)
	if err != nil {
		return fmt.Errorf("update checkout flow: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCheckoutNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes of the checkout_flows collection.
func (r *CheckoutRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "device_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	if r.retention > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(r.retention.Seconds())),
		})
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
