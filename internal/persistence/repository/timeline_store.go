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

type timelineStore struct {
	db            *mongo.Database
	snapshotLimit int64
}

// NewTimelineStore returns a mongo-backed timeline store. snapshotLimit
// bounds ListEvents to the trailing N events; zero keeps the full history.
func NewTimelineStore(database *mongo.Database, snapshotLimit int64) domain.TimelineStore {
	return &timelineStore{
		db:            database,
		snapshotLimit: snapshotLimit,
	}
}

type counterDoc struct {
	Seq int64 `bson:"seq"`
}

// nextSeq hands out the per-room monotonic event identifier. The
// findOneAndUpdate upsert is atomic on the server, which is what serializes
// concurrent appends for the same room.
func (s *timelineStore) nextSeq(ctx context.Context, roomID string) (int64, error) {
	collection := s.db.Collection(db.CountersCollection)

	filter := bson.M{"_id": roomID}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter counterDoc
	if err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, err
	}

	return counter.Seq, nil
}

func (s *timelineStore) AppendEvent(ctx context.Context, roomID string, sender domain.Sender, kind domain.EventKind, payload string) (domain.TimelineEvent, error) {
	if roomID == "" || !kind.Valid() || payload == "" {
		return domain.TimelineEvent{}, domain.ErrEventInvalid
	}

	seq, err := s.nextSeq(ctx, roomID)
	if err != nil {
		return domain.TimelineEvent{}, err
	}

	event := domain.TimelineEvent{
		ID:        seq,
		RoomID:    roomID,
		Sender:    sender,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if _, err := s.db.Collection(db.EventsCollection).InsertOne(ctx, event); err != nil {
		return domain.TimelineEvent{}, err
	}

	return event, nil
}

func (s *timelineStore) ListEvents(ctx context.Context, roomID string) ([]domain.TimelineEvent, error) {
	if roomID == "" {
		return nil, domain.ErrEventInvalid
	}

	collection := s.db.Collection(db.EventsCollection)
	filter := bson.M{"room_id": roomID}

	ascending := bson.D{{Key: "created_at", Value: 1}, {Key: "seq", Value: 1}}

	if s.snapshotLimit <= 0 {
		cursor, err := collection.Find(ctx, filter, options.Find().SetSort(ascending))
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var events []domain.TimelineEvent
		if err := cursor.All(ctx, &events); err != nil {
			return nil, err
		}
		return events, nil
	}

	// Trailing window: fetch the newest N descending, then reverse.
	descending := bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}}
	cursor, err := collection.Find(ctx, filter, options.Find().SetSort(descending).SetLimit(s.snapshotLimit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []domain.TimelineEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// EnsureTimelineIndexes creates the indexes the store relies on. Called once
// at startup.
func EnsureTimelineIndexes(ctx context.Context, database *mongo.Database) error {
	collection := database.Collection(db.EventsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "seq", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
