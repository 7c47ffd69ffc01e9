package request

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound means the request id matched no document.
var ErrNotFound = errors.New("request not found")

// Repository defines persistence operations for food requests.
type Repository interface {
	Create(ctx context.Context, r *Request) (string, error)
	Get(ctx context.Context, id string) (*Request, error)
	List(ctx context.Context) ([]*Request, error)
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (*Request, error)
}

// MongoRepository stores requests in the requests collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection("requests")}
}

func (m *MongoRepository) Create(ctx context.Context, r *Request) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	if _, err := m.col.InsertOne(ctx, r); err != nil {
		return "", err
	}
	return r.ID, nil
}

func (m *MongoRepository) Get(ctx context.Context, id string) (*Request, error) {
	var r Request
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (m *MongoRepository) List(ctx context.Context) ([]*Request, error) {
	cur, err := m.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*Request
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoRepository) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (*Request, error) {
	res := m.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var r Request
	if err := res.Decode(&r); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// MemoryRepository is the in-memory counterpart used in tests and the
// standalone service binaries.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*Request
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*Request)}
}

func (m *MemoryRepository) Create(ctx context.Context, r *Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	cp := *r
	m.store[r.ID] = &cp
	return r.ID, nil
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (*Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.store[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) List(ctx context.Context) ([]*Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Request, 0, len(m.store))
	for _, r := range m.store {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryRepository) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = at
	cp := *r
	return &cp, nil
}
