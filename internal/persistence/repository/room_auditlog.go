package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tabshare/tabshare/internal/domain"
	"github.com/tabshare/tabshare/internal/persistence/db"
)

type roomAuditRepository struct {
	db *mongo.Database
}

func NewRoomAuditRepository(database *mongo.Database) domain.RoomAuditRepository {
	return &roomAuditRepository{
		db: database,
	}
}

func (r *roomAuditRepository) Log(ctx context.Context, entry *domain.RoomAuditLog) error {
	if entry == nil || entry.RoomID == "" {
		return domain.ErrInvalidInput
	}

	_, err := r.db.Collection(db.RoomAuditLogsCollection).InsertOne(ctx, entry)
	return err
}

func (r *roomAuditRepository) GetByRoomID(ctx context.Context, roomID string, limit int) ([]domain.RoomAuditLog, error) {
	if roomID == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(db.RoomAuditLogsCollection).Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []domain.RoomAuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *roomAuditRepository) DeleteOlderThan(ctx context.Context, before time.Time) error {
	_, err := r.db.Collection(db.RoomAuditLogsCollection).DeleteMany(ctx, bson.M{
		"timestamp": bson.M{"$lt": before},
	})
	return err
}

func (r *roomAuditRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "timestamp", Value: 1}},
		},
	}

	_, err := r.db.Collection(db.RoomAuditLogsCollection).Indexes().CreateMany(ctx, indexes)
	return err
}
