package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quantbrief/oracle/internal/models"
)

// cotCacheID keys the single cache document.
const cotCacheID = "positioning"

type cotCacheDoc struct {
	ID        string                              `bson:"_id"`
	Data      map[string]models.PositioningRecord `bson:"data"`
	Timestamp time.Time                           `bson:"timestamp"`
}

// LoadPositioningCache returns the persisted COT snapshot and its
// refresh time. A missing document is not an error: it comes back as
// nil data with a zero time.
func (s *Store) LoadPositioningCache(ctx context.Context) (map[string]models.PositioningRecord, time.Time, error) {
	var doc cotCacheDoc
	err := s.cotCache.FindOne(ctx, bson.M{"_id": cotCacheID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	return doc.Data, doc.Timestamp, nil
}

// SavePositioningCache replaces the persisted COT snapshot.
func (s *Store) SavePositioningCache(ctx context.Context, data map[string]models.PositioningRecord, refreshedAt time.Time) error {
	doc := cotCacheDoc{ID: cotCacheID, Data: data, Timestamp: refreshedAt}
	opts := options.Replace().SetUpsert(true)
	_, err := s.cotCache.ReplaceOne(ctx, bson.M{"_id": cotCacheID}, doc, opts)
	return err
}
