package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeliveryEntry records the outcome of one delivery attempt.
type DeliveryEntry struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	Title     string    `bson:"title" json:"title"`
	Status    string    `bson:"status" json:"status"` // sent | failed | skipped
	MessageID string    `bson:"messageId,omitempty" json:"messageId,omitempty"`
	Error     string    `bson:"error,omitempty" json:"error,omitempty"`
	SentAt    time.Time `bson:"sentAt" json:"sentAt"`
}

// LogStore persists delivery outcomes to the notification_logs collection.
// Writes are best-effort; the dispatcher only warns on failure.
type LogStore struct {
	col *mongo.Collection
}

func NewLogStore(col *mongo.Collection) *LogStore {
	return &LogStore{col: col}
}

func (s *LogStore) Record(ctx context.Context, e *DeliveryEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SentAt.IsZero() {
		e.SentAt = time.Now().UTC()
	}
	_, err := s.col.InsertOne(ctx, e)
	return err
}

// RecentForUser returns the newest delivery entries for a user, most recent
// first.
func (s *LogStore) RecentForUser(ctx context.Context, userID string, limit int64) ([]*DeliveryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sentAt", Value: -1}}).SetLimit(limit)
	cur, err := s.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*DeliveryEntry{}
	for cur.Next(ctx) {
		var e DeliveryEntry
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, cur.Err()
}
