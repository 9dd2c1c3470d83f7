package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tabshare/tabshare/internal/domain"
	"github.com/tabshare/tabshare/internal/persistence/db"
)

type roomDirectory struct {
	db *mongo.Database
}

func NewRoomDirectory(database *mongo.Database) domain.RoomDirectory {
	return &roomDirectory{
		db: database,
	}
}

func (r *roomDirectory) Create(ctx context.Context, room *domain.Room) error {
	if room == nil || room.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := r.db.Collection(db.RoomsCollection).InsertOne(ctx, room)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrRoomAlreadyExists
	}
	return err
}

func (r *roomDirectory) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	var room domain.Room
	err := r.db.Collection(db.RoomsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	return &room, nil
}

func (r *roomDirectory) ListForUser(ctx context.Context, userID string) ([]domain.Room, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}

	filter := bson.M{
		"$or": []bson.M{
			{"creator_id": userID},
			{"participant_ids": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.db.Collection(db.RoomsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rooms []domain.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}

	return rooms, nil
}

func (r *roomDirectory) AddParticipant(ctx context.Context, roomID string, userID string) (*domain.Room, error) {
	if roomID == "" || userID == "" {
		return nil, domain.ErrInvalidInput
	}

	filter := bson.M{"_id": roomID}
	update := bson.M{"$addToSet": bson.M{"participant_ids": userID}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var room domain.Room
	err := r.db.Collection(db.RoomsCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	return &room, nil
}
