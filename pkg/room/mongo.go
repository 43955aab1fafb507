package room

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// Default MongoDB database and collection names.
const (
	DefaultMongoDatabase   = "tilegrid"
	DefaultMongoCollection = "participants"
)

// participantDoc is the stored form of a participant.
type participantDoc struct {
	Room              string `bson:"room"`
	tiles.Participant `bson:",inline"`
}

// MongoStore keeps one document per (room, participant) pair.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// NewMongoStore connects to uri, pings the server, and ensures the
// collection's indexes exist.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongodb")
	}

	s := NewMongoStoreFromCollection(client.Database(database).Collection(DefaultMongoCollection))
	s.client = client
	s.owned = true
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// NewMongoStoreFromCollection wraps an existing collection. Close does not
// disconnect its client.
func NewMongoStoreFromCollection(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the unique (room, participant_id) index and the
// roster ordering index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "room", Value: 1}, {Key: "participant_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "room", Value: 1}, {Key: "joined_at", Value: 1}},
		},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create indexes")
	}
	return nil
}

func mongoFilter(room, id string) bson.D {
	return bson.D{{Key: "room", Value: room}, {Key: "participant_id", Value: id}}
}

// mongoFields returns the mutable participant fields.
func mongoFields(p tiles.Participant) bson.D {
	return bson.D{
		{Key: "name", Value: p.Name},
		{Key: "speaking", Value: p.Speaking},
		{Key: "camera_on", Value: p.CameraOn},
		{Key: "screen_share", Value: p.ScreenShare},
		{Key: "muted", Value: p.Muted},
	}
}

func (s *MongoStore) Join(ctx context.Context, room string, p tiles.Participant) error {
	if err := validate(room, p); err != nil {
		return err
	}
	joined := p.JoinedAt
	if joined.IsZero() {
		joined = now()
	}
	update := bson.D{
		{Key: "$set", Value: mongoFields(p)},
		{Key: "$setOnInsert", Value: bson.D{{Key: "joined_at", Value: joined}}},
	}
	_, err := s.coll.UpdateOne(ctx, mongoFilter(room, p.ID), update, options.Update().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "join participant %q", p.ID)
	}
	return nil
}

func (s *MongoStore) Leave(ctx context.Context, room, id string) error {
	if err := errors.ValidateRoomID(room); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, mongoFilter(room, id))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "remove participant %q", id)
	}
	if res.DeletedCount == 0 {
		return notFound(room, id)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, room string, p tiles.Participant) error {
	if err := validate(room, p); err != nil {
		return err
	}
	res, err := s.coll.UpdateOne(ctx, mongoFilter(room, p.ID), bson.D{{Key: "$set", Value: mongoFields(p)}})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "update participant %q", p.ID)
	}
	if res.MatchedCount == 0 {
		return notFound(room, p.ID)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, room string) ([]tiles.Participant, error) {
	if err := errors.ValidateRoomID(room); err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}, {Key: "participant_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{{Key: "room", Value: room}}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list room %q", room)
	}
	var docs []participantDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode room %q", room)
	}

	out := make([]tiles.Participant, len(docs))
	for i, d := range docs {
		out[i] = d.Participant
		// BSON datetimes carry millisecond precision in UTC.
		out[i].JoinedAt = d.JoinedAt.UTC()
	}
	return out, nil
}

// Close disconnects the client if the store created it.
func (s *MongoStore) Close() error {
	if !s.owned || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
