package providers

import (
	"context"
	"errors"
	"fmt"

	"clinicflow/pkg/config"
	"clinicflow/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Providers"

var ErrNotFound = errors.New("provider not found")

// Source reads provider records owned by the practice directory.
type Source interface {
	FindByID(ctx context.Context, id string) (*model.Provider, error)
}

type mongoSource struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSource(cfg *config.Config) Source {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSource{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (s *mongoSource) FindByID(ctx context.Context, id string) (*model.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var provider model.Provider
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&provider)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find provider: %w", err)
	}
	return &provider, nil
}
