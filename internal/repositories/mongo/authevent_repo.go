package mongo

import (
	"context"
	"time"

	"github.com/eventflow/eventflow/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuthEventRepository interface {
	Insert(ctx context.Context, ev *models.AuthEvent) error
	CountByKindSince(ctx context.Context, kind string, since time.Time) (int64, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.AuthEvent, error)
	// RecentUserIDs returns the distinct subject ids seen at the auth
	// boundary since the given time; the reconcile worker sweeps these.
	RecentUserIDs(ctx context.Context, since time.Time) ([]string, error)
}

type authEventRepo struct {
	col *mongo.Collection
}

func NewAuthEventRepo(db *mongo.Database) AuthEventRepository {
	return &authEventRepo{col: db.Collection("auth_events")}
}

func (r *authEventRepo) Insert(ctx context.Context, ev *models.AuthEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, ev)
	return err
}

func (r *authEventRepo) CountByKindSince(ctx context.Context, kind string, since time.Time) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{
		"kind":       kind,
		"created_at": bson.M{"$gte": since.UTC()},
	})
}

func (r *authEventRepo) RecentUserIDs(ctx context.Context, since time.Time) ([]string, error) {
	raw, err := r.col.Distinct(ctx, "user_id", bson.M{
		"user_id":    bson.M{"$ne": ""},
		"created_at": bson.M{"$gte": since.UTC()},
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *authEventRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.AuthEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AuthEvent
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
