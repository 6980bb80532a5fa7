package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/brahimcontact64-ctrl/E-vizza/config"
)

// CounterRepository hands out application sequence numbers from a
// counters collection, one document per calendar year. The upserted
// $inc is atomic on the server, so concurrent submissions each get a
// distinct value without a transaction.
type CounterRepository struct {
	counters *mongo.Collection
}

func NewCounterRepository(client *mongo.Client) *CounterRepository {
	return &CounterRepository{counters: config.GetCollection(client, "counters")}
}

// Next implements workflow.Sequencer.
func (r *CounterRepository) Next(ctx context.Context, year int) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": fmt.Sprintf("applications-%d", year)},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("incrementing application counter for %d: %w", year, err)
	}
	return counter.Seq, nil
}
