// Package center manages the directory of distribution centers where
// claimed donations can be dropped off.
package center

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/geo"
)

var ErrNotFound = errors.New("center not found")

type Center struct {
	ID        string          `bson:"_id" json:"id"`
	Name      string          `bson:"name" json:"name"`
	Address   string          `bson:"address" json:"address"`
	Location  geo.Coordinates `bson:"location" json:"location"`
	CreatedBy string          `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time       `bson:"createdAt" json:"createdAt"`
}

// Repository defines persistence operations for centers.
type Repository interface {
	Create(ctx context.Context, c *Center) (string, error)
	List(ctx context.Context) ([]*Center, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection("centers")}
}

func (m *MongoRepository) Create(ctx context.Context, c *Center) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if _, err := m.col.InsertOne(ctx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}

func (m *MongoRepository) List(ctx context.Context) ([]*Center, error) {
	cur, err := m.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*Center
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*Center
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*Center)}
}

func (m *MemoryRepository) Create(ctx context.Context, c *Center) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	cp := *c
	m.store[c.ID] = &cp
	return c.ID, nil
}

func (m *MemoryRepository) List(ctx context.Context) ([]*Center, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Center, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// Service validates and stores centers.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// CreateInput is the payload for registering a center.
type CreateInput struct {
	Name     string
	Address  string
	Location *geo.Coordinates
}

func (s *Service) Create(ctx context.Context, createdBy string, in CreateInput) (*Center, error) {
	if in.Name == "" || in.Address == "" || in.Location == nil || !in.Location.Valid() {
		return nil, apperr.Validation("Missing required fields: name, address, lat, lng")
	}
	c := &Center{
		Name:      in.Name,
		Address:   in.Address,
		Location:  *in.Location,
		CreatedBy: createdBy,
	}
	if _, err := s.repo.Create(ctx, c); err != nil {
		return nil, apperr.Upstream(err, "create center")
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]*Center, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Upstream(err, "list centers")
	}
	return out, nil
}
