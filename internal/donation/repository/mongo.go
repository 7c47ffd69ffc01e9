package repository

import (
	"context"
	"time"

	"github.com/donr-app/go-services/internal/donation"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements a MongoDB-backed repository for donations.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	// status is the hot query field for matching
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}}}
	col.Indexes().CreateOne(context.Background(), idxModel)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, d *donation.Donation) (string, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if _, err := m.col.InsertOne(ctx, d); err != nil {
		return "", err
	}
	return d.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*donation.Donation, error) {
	var d donation.Donation
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) ListAvailable(ctx context.Context) ([]*donation.Donation, error) {
	cur, err := m.col.Find(ctx, bson.M{"status": donation.StatusAvailable})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*donation.Donation{}
	for cur.Next(ctx) {
		var d donation.Donation
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

// Claim performs the available->claimed transition as a single conditional
// update. When the filter does not match, the document is re-read to tell
// "missing" apart from "state moved on".
func (m *MongoRepo) Claim(ctx context.Context, id, distributorID string, at time.Time) (*donation.Donation, error) {
	filter := bson.M{"_id": id, "status": donation.StatusAvailable}
	update := bson.M{"$set": bson.M{
		"status":        donation.StatusClaimed,
		"distributorId": distributorID,
		"claimedAt":     at,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d donation.Donation
	if err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			if _, gerr := m.Get(ctx, id); gerr == ErrNotFound {
				return nil, ErrNotFound
			} else if gerr != nil {
				return nil, gerr
			}
			return nil, ErrConflict
		}
		return nil, err
	}
	return &d, nil
}

// Distribute performs the claimed->distributed transition, conditional on the
// caller being the claiming distributor.
func (m *MongoRepo) Distribute(ctx context.Context, id, distributorID string, at time.Time) (*donation.Donation, error) {
	filter := bson.M{"_id": id, "status": donation.StatusClaimed, "distributorId": distributorID}
	update := bson.M{"$set": bson.M{
		"status":        donation.StatusDistributed,
		"distributedAt": at,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d donation.Donation
	if err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			if _, gerr := m.Get(ctx, id); gerr == ErrNotFound {
				return nil, ErrNotFound
			} else if gerr != nil {
				return nil, gerr
			}
			return nil, ErrConflict
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) SetPhotoKey(ctx context.Context, id, key string) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"photoKey": key}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
