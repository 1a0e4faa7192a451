package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/brewdesk/pkg/config"
	"github.com/example/brewdesk/pkg/models"
)

// MongoRepository is the staff action journal.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	return &MongoRepository{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

type actionDoc struct {
	ID        string            `bson:"_id,omitempty"`
	TabID     string            `bson:"tab_id"`
	UserID    string            `bson:"user_id"`
	Action    string            `bson:"action"`
	Target    string            `bson:"target"`
	Detail    map[string]string `bson:"detail,omitempty"`
	CreatedAt time.Time         `bson:"created_at"`
}

func (m *MongoRepository) Record(ctx context.Context, a models.StaffAction) error {
	doc := actionDoc{
		TabID:     a.TabID,
		UserID:    a.UserID,
		Action:    a.Action,
		Target:    a.Target,
		Detail:    a.Detail,
		CreatedAt: a.Timestamp,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert staff action: %w", err)
	}
	return nil
}

// Actions returns the latest journal entries for target, newest first.
func (m *MongoRepository) Actions(ctx context.Context, target string, limit int64) ([]models.StaffAction, error) {
	filter := bson.M{"target": target}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find staff actions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []actionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode staff actions: %w", err)
	}

	out := make([]models.StaffAction, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.StaffAction{
			TabID:     d.TabID,
			UserID:    d.UserID,
			Action:    d.Action,
			Target:    d.Target,
			Detail:    d.Detail,
			Timestamp: d.CreatedAt,
		})
	}
	return out, nil
}
