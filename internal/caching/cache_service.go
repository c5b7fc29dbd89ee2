package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"clubsync/internal/models"
)

// CacheService is a read-through accelerator in front of Postgres. Every
// method degrades to a miss or a no-op on redis failure; storage stays
// authoritative.
type CacheService interface {
	// Customer caching
	GetCustomer(ctx context.Context, customerID string) (*models.Customer, error)
	SetCustomer(ctx context.Context, customer *models.Customer, ttl time.Duration) error
	DeleteCustomer(ctx context.Context, customerID string) error

	// Login failure counters, mirroring the authoritative Postgres tally
	CountLoginFailures(ctx context.Context, email string) (int, error)
	RecordLoginFailure(ctx context.Context, email string, window time.Duration) error
	ClearLoginFailures(ctx context.Context, email string) error

	// Generic string operations
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	InvalidateAll(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept both host:port and redis://host:port forms.
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARNING: redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func customerKey(customerID string) string {
	return fmt.Sprintf("clubsync:customer:%s", customerID)
}

func loginFailureKey(email string) string {
	return fmt.Sprintf("clubsync:loginfail:%s", strings.ToLower(email))
}

func (r *redisCacheService) GetCustomer(ctx context.Context, customerID string) (*models.Customer, error) {
	data, err := r.client.Get(ctx, customerKey(customerID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var customer models.Customer
	if err := json.Unmarshal(data, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *redisCacheService) SetCustomer(ctx context.Context, customer *models.Customer, ttl time.Duration) error {
	data, err := json.Marshal(customer)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, customerKey(customer.ID), data, ttl).Err()
}

func (r *redisCacheService) DeleteCustomer(ctx context.Context, customerID string) error {
	return r.client.Del(ctx, customerKey(customerID)).Err()
}

func (r *redisCacheService) CountLoginFailures(ctx context.Context, email string) (int, error) {
	count, err := r.client.Get(ctx, loginFailureKey(email)).Int()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func (r *redisCacheService) RecordLoginFailure(ctx context.Context, email string, window time.Duration) error {
	key := loginFailureKey(email)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	// Expiry starts at the first failure in the window.
	if count == 1 {
		r.client.Expire(ctx, key, window)
	}
	return nil
}

func (r *redisCacheService) ClearLoginFailures(ctx context.Context, email string) error {
	return r.client.Del(ctx, loginFailureKey(email)).Err()
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, fmt.Sprintf("clubsync:%s", key), value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, fmt.Sprintf("clubsync:%s", key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, fmt.Sprintf("clubsync:%s", key)).Err()
}

func (r *redisCacheService) InvalidateAll(ctx context.Context) error {
	keys, err := r.client.Keys(ctx, "clubsync:*").Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}
