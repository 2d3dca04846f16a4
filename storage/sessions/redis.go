package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/session"
)

const keyPrefix = "session:"

type redisStore struct {
	client *redis.Client
}

var _ session.Store = (*redisStore)(nil)

// NewRedisClient connects to conf.Redis.Addr and pings it.
func NewRedisClient(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

// NewRedisStore keeps sessions as JSON values under "session:<id>", expiring after their TTL.
func NewRedisStore(client *redis.Client) session.Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, id string) (*session.Session, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, errors.Wrap(err, "getting session")
	}

	sess := new(session.Session)
	if err = json.Unmarshal(data, sess); err != nil {
		return nil, errors.Wrap(err, "decoding session")
	}
	return sess, nil
}

func (s *redisStore) Save(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return errors.Wrap(s.client.Set(ctx, keyPrefix+sess.ID, data, ttl).Err(), "setting session")
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	return errors.Wrap(s.client.Del(ctx, keyPrefix+id).Err(), "deleting session")
}
