package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nightdesk/backend/internal/models"
)

const (
	stateKeyPrefix  = "nightdesk:callstate:"
	caseKeyPrefix   = "nightdesk:case:"
	recentCasesKey  = "nightdesk:cases:recent"
	ledgerKeyPrefix = "nightdesk:notify:"
	recentCasesKeep = 1000

	caseWriteAttempts = 3
)

type RedisStore struct {
	Client   *redis.Client
	StateTTL time.Duration
	CaseTTL  time.Duration
}

func NewRedisStore(ctx context.Context, url string, stateTTL time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{Client: client, StateTTL: stateTTL}, nil
}

func (s *RedisStore) LoadState(ctx context.Context, callID string) (*models.CallConversationState, error) {
	b, err := s.Client.Get(ctx, stateKeyPrefix+callID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var state models.CallConversationState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("decode call state %s: %w", callID, err)
	}
	return &state, nil
}

func (s *RedisStore) SaveState(ctx context.Context, state *models.CallConversationState) error {
	key := stateKeyPrefix + state.CallID
	var saved models.CallConversationState
	err := s.Client.Watch(ctx, func(tx *redis.Tx) error {
		var current int64
		b, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var existing models.CallConversationState
			if err := json.Unmarshal(b, &existing); err != nil {
				return fmt.Errorf("decode call state %s: %w", state.CallID, err)
			}
			current = existing.Version
		}
		if current != state.Version {
			return ErrVersionConflict
		}

		saved = *state
		saved.Version++
		saved.UpdatedAt = time.Now().UTC()
		payload, err := json.Marshal(saved)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.StateTTL)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}
	*state = saved
	return nil
}

func (s *RedisStore) RecordCase(ctx context.Context, c models.CaseSummary) (bool, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return false, err
	}
	key := caseKeyPrefix + c.CallID
	for attempt := 0; attempt < caseWriteAttempts; attempt++ {
		var written bool
		err := s.Client.Watch(ctx, func(tx *redis.Tx) error {
			replacing := false
			b, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				return err
			default:
				var existing models.CaseSummary
				if err := json.Unmarshal(b, &existing); err != nil {
					return fmt.Errorf("decode case %s: %w", c.CallID, err)
				}
				if !Supersedes(existing, c) {
					return nil
				}
				replacing = true
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, s.CaseTTL)
				if !replacing {
					pipe.LPush(ctx, recentCasesKey, c.CallID)
					pipe.LTrim(ctx, recentCasesKey, 0, recentCasesKeep-1)
				}
				return nil
			})
			written = err == nil
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return written, err
	}
	return false, fmt.Errorf("record case %s: %w", c.CallID, redis.TxFailedErr)
}

func (s *RedisStore) GetCase(ctx context.Context, callID string) (*models.CaseSummary, error) {
	b, err := s.Client.Get(ctx, caseKeyPrefix+callID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var c models.CaseSummary
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode case %s: %w", callID, err)
	}
	return &c, nil
}

func (s *RedisStore) ListCases(ctx context.Context, limit int) ([]models.CaseSummary, error) {
	if limit <= 0 || limit > recentCasesKeep {
		limit = recentCasesKeep
	}
	ids, err := s.Client.LRange(ctx, recentCasesKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.CaseSummary, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetCase(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *RedisStore) MarkDispatched(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.Client.SetNX(ctx, ledgerKeyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *RedisStore) Close() {
	_ = s.Client.Close()
}
