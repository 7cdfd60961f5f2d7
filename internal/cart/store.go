package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

// RedisStore keeps one cart per buyer under a TTL. The cart is a working
// copy, not the source of truth; losing it costs the buyer a re-add, never
// an order.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func cartKey(buyerID string) string {
	return "cart:" + buyerID
}

func (s *RedisStore) Get(ctx context.Context, buyerID string) (*domain.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(buyerID)).Bytes()
	if err == redis.Nil {
		return &domain.Cart{BuyerID: buyerID, Items: []domain.CartItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	cart := &domain.Cart{}
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return cart, nil
}

func (s *RedisStore) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(cart.BuyerID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, buyerID string) error {
	if err := s.client.Del(ctx, cartKey(buyerID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
