// Package leaderboard keeps the opt-in XP ranking in a Redis sorted set.
package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const key = "leaderboard:xp"

type Entry struct {
	Username string `json:"username"`
	XP       int    `json:"xp"`
	Rank     int    `json:"rank"`
}

type Service struct {
	client *redis.Client
}

// NewService connects to Redis and verifies the connection.
func NewService(addr, password string) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Service{client: client}, nil
}

// Record upserts a user's XP score on the board.
func (s *Service) Record(ctx context.Context, username string, xp int) error {
	return s.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(xp),
		Member: username,
	}).Err()
}

// Remove de-lists a user, used when they opt out.
func (s *Service) Remove(ctx context.Context, username string) error {
	return s.client.ZRem(ctx, key, username).Err()
}

// Top returns the highest-XP entries, best first.
func (s *Service) Top(ctx context.Context, n int) ([]Entry, error) {
	results, err := s.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for i, z := range results {
		name, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Username: name,
			XP:       int(z.Score),
			Rank:     i + 1,
		})
	}
	return entries, nil
}
