package room

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/tilegrid/pkg/cache"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// RedisStore keeps each room in a Redis hash keyed by participant ID with
// JSON-encoded participants as values.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	owned  bool

	// afterRead runs between a transaction's read and its write. Tests use
	// it to land a competing write in that window.
	afterRead func()
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRoomPrefix sets the key prefix. Default "tilegrid:room:".
func WithRoomPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithRoomTTL expires idle rooms after ttl. Every write refreshes the TTL.
// Zero keeps rooms forever.
func WithRoomTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// NewRedisStore connects to addr and pings the server.
func NewRedisStore(ctx context.Context, addr string, opts ...RedisStoreOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to redis at %s", addr)
	}
	s := NewRedisStoreFromClient(client, opts...)
	s.owned = true
	return s, nil
}

// NewRedisStoreFromClient wraps an existing client. Close does not close it.
func NewRedisStoreFromClient(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "tilegrid:room:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(room string) string { return s.prefix + room }

// modify reads participant id from room, lets change build the value to
// store, and writes it in one optimistic transaction. The room key is
// watched, so a concurrent write (including a Leave) between the read and
// the write aborts the transaction and the whole step is retried with
// fresh data.
func (s *RedisStore) modify(ctx context.Context, room, id string, change func(existing tiles.Participant, ok bool) (tiles.Participant, error)) error {
	key := s.key(room)
	txf := func(tx *redis.Tx) error {
		existing, ok, err := s.get(ctx, tx, key, id)
		if err != nil {
			return err
		}
		if s.afterRead != nil {
			s.afterRead()
		}
		p, err := change(existing, ok)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(p)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode participant %q", p.ID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, p.ID, raw)
			if s.ttl > 0 {
				pipe.Expire(ctx, key, s.ttl)
			}
			return nil
		})
		return err
	}

	err := cache.ContentionBackoff.Retry(ctx, func() error {
		err := s.client.Watch(ctx, txf, key)
		if stderrors.Is(err, redis.TxFailedErr) {
			return cache.Retryable(err)
		}
		return err
	})
	switch {
	case err == nil:
		return nil
	case errors.GetCode(err) != "":
		return err
	case stderrors.Is(err, redis.TxFailedErr):
		return errors.Wrap(errors.ErrCodeStorage, err, "participant %q: too many concurrent writes to room %q", id, room)
	default:
		return errors.Wrap(errors.ErrCodeStorage, err, "save participant %q", id)
	}
}

func (s *RedisStore) get(ctx context.Context, c redis.Cmdable, key, id string) (tiles.Participant, bool, error) {
	var p tiles.Participant
	raw, err := c.HGet(ctx, key, id).Bytes()
	if err == redis.Nil {
		return p, false, nil
	}
	if err != nil {
		return p, false, errors.Wrap(errors.ErrCodeStorage, err, "load participant %q", id)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, false, errors.Wrap(errors.ErrCodeInternal, err, "decode participant %q", id)
	}
	return p, true, nil
}

// Join keeps the stored join time when p is already in the room.
func (s *RedisStore) Join(ctx context.Context, room string, p tiles.Participant) error {
	if err := validate(room, p); err != nil {
		return err
	}
	return s.modify(ctx, room, p.ID, func(existing tiles.Participant, ok bool) (tiles.Participant, error) {
		switch {
		case ok:
			p.JoinedAt = existing.JoinedAt
		case p.JoinedAt.IsZero():
			p.JoinedAt = now()
		}
		return p, nil
	})
}

func (s *RedisStore) Leave(ctx context.Context, room, id string) error {
	if err := errors.ValidateRoomID(room); err != nil {
		return err
	}
	n, err := s.client.HDel(ctx, s.key(room), id).Result()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "remove participant %q", id)
	}
	if n == 0 {
		return notFound(room, id)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, room string, p tiles.Participant) error {
	if err := validate(room, p); err != nil {
		return err
	}
	return s.modify(ctx, room, p.ID, func(existing tiles.Participant, ok bool) (tiles.Participant, error) {
		if !ok {
			return p, notFound(room, p.ID)
		}
		p.JoinedAt = existing.JoinedAt
		return p, nil
	})
}

func (s *RedisStore) List(ctx context.Context, room string) ([]tiles.Participant, error) {
	if err := errors.ValidateRoomID(room); err != nil {
		return nil, err
	}
	var fields map[string]string
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		fields, err = s.client.HGetAll(ctx, s.key(room)).Result()
		if err != nil {
			return cache.Retryable(err)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list room %q", room)
	}

	out := make([]tiles.Participant, 0, len(fields))
	for id, raw := range fields {
		var p tiles.Participant
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode participant %q", id)
		}
		out = append(out, p)
	}
	sortRoster(out)
	return out, nil
}

// Close closes the client if the store created it.
func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
