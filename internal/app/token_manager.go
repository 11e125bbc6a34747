package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/cgpacalc/internal/models"
)

const (
	timeFormat  = "2006-01-02 15:04:05"
	authKeyTpl  = "auth:%s" // auth:${token}
	tokenPrefix = "sk-cgpa-"
)

// UserSession is the explicit context of a logged in user: who they are and
// the course list they are currently editing. It lives from login or
// registration until logout.
type UserSession struct {
	models.TokenInfo
	Session *models.Session
}

type TokenStore interface {
	Issue(ctx context.Context, username string, session *models.Session) (*UserSession, error)
	Fetch(ctx context.Context, token string) (*UserSession, error)
	Update(ctx context.Context, us *UserSession) error
	Revoke(ctx context.Context, token string) error
	Close() error
}

func NewTokenStore(config *Config) (TokenStore, error) {
	ttl := time.Duration(config.Auth.TokenTTLHours) * time.Hour

	if config.Auth.RedisURL == "" {
		logger.Info.Println("No redis configured, keeping login tokens in memory")
		return NewMemoryTokenStore(ttl), nil
	}

	opt, err := redis.ParseURL(config.Auth.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisTokenStore(client, ttl), nil
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

type RedisTokenStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisTokenStore(client *redis.Client, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{redis: client, ttl: ttl}
}

func (ts *RedisTokenStore) Issue(ctx context.Context, username string, session *models.Session) (*UserSession, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	workspace, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workspace: %w", err)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf(authKeyTpl, token)

	pipe := ts.redis.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"username":              username,
		"workspace":             string(workspace),
		"request_count":         1,
		"last_request_dttm_utc": now.Format(timeFormat),
		"created_dttm_utc":      now.Format(timeFormat),
	})
	if ts.ttl > 0 {
		pipe.Expire(ctx, key, ts.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &UserSession{
		TokenInfo: models.TokenInfo{
			Token:           token,
			Username:        username,
			RequestCount:    1,
			LastRequestTime: now.Truncate(time.Second),
			CreatedTime:     now.Truncate(time.Second),
		},
		Session: session,
	}, nil
}

func (ts *RedisTokenStore) Fetch(ctx context.Context, token string) (*UserSession, error) {
	key := fmt.Sprintf(authKeyTpl, token)

	values, err := ts.redis.HGetAll(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to fetch token: %w", err)
	}
	if len(values) == 0 {
		logger.Debug.Printf("Token not found for key: %s", key)
		return nil, ErrUnauthorized
	}

	now := time.Now().UTC()
	pipe := ts.redis.Pipeline()
	pipe.HIncrBy(ctx, key, "request_count", 1)
	pipe.HSet(ctx, key, "last_request_dttm_utc", now.Format(timeFormat))
	if ts.ttl > 0 {
		pipe.Expire(ctx, key, ts.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to update token stats: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(values["workspace"]), &session); err != nil {
		return nil, fmt.Errorf("failed to decode workspace: %w", err)
	}
	if session.Courses == nil {
		session.Courses = []models.Course{}
	}

	createdTime, _ := time.Parse(timeFormat, values["created_dttm_utc"])
	reqCount, _ := strconv.Atoi(values["request_count"])

	return &UserSession{
		TokenInfo: models.TokenInfo{
			Token:           token,
			Username:        values["username"],
			RequestCount:    reqCount + 1,
			LastRequestTime: now.Truncate(time.Second),
			CreatedTime:     createdTime,
		},
		Session: &session,
	}, nil
}

func (ts *RedisTokenStore) Update(ctx context.Context, us *UserSession) error {
	key := fmt.Sprintf(authKeyTpl, us.Token)

	exists, err := ts.redis.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check token: %w", err)
	}
	if exists == 0 {
		return ErrUnauthorized
	}

	workspace, err := json.Marshal(us.Session)
	if err != nil {
		return fmt.Errorf("failed to encode workspace: %w", err)
	}
	return ts.redis.HSet(ctx, key, "workspace", string(workspace)).Err()
}

func (ts *RedisTokenStore) Revoke(ctx context.Context, token string) error {
	return ts.redis.Del(ctx, fmt.Sprintf(authKeyTpl, token)).Err()
}

func (ts *RedisTokenStore) Close() error {
	if ts.redis != nil {
		return ts.redis.Close()
	}
	return nil
}

type memoryEntry struct {
	info    models.TokenInfo
	session *models.Session
}

// MemoryTokenStore is the single-process fallback used when no redis is configured.
type MemoryTokenStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*memoryEntry
}

func NewMemoryTokenStore(ttl time.Duration) *MemoryTokenStore {
	return &MemoryTokenStore{
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
		entries: make(map[string]*memoryEntry),
	}
}

func (ts *MemoryTokenStore) Issue(_ context.Context, username string, session *models.Session) (*UserSession, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := ts.now()
	entry := &memoryEntry{
		info: models.TokenInfo{
			Token:           token,
			Username:        username,
			RequestCount:    1,
			LastRequestTime: now,
			CreatedTime:     now,
		},
		session: session.Clone(),
	}

	ts.mu.Lock()
	ts.entries[token] = entry
	ts.mu.Unlock()

	return &UserSession{TokenInfo: entry.info, Session: session}, nil
}

func (ts *MemoryTokenStore) Fetch(_ context.Context, token string) (*UserSession, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	entry, ok := ts.entries[token]
	if !ok {
		return nil, ErrUnauthorized
	}

	now := ts.now()
	if ts.ttl > 0 && now.Sub(entry.info.LastRequestTime) > ts.ttl {
		delete(ts.entries, token)
		return nil, ErrUnauthorized
	}

	entry.info.RequestCount++
	entry.info.LastRequestTime = now

	return &UserSession{TokenInfo: entry.info, Session: entry.session.Clone()}, nil
}

func (ts *MemoryTokenStore) Update(_ context.Context, us *UserSession) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	entry, ok := ts.entries[us.Token]
	if !ok {
		return ErrUnauthorized
	}
	entry.session = us.Session.Clone()
	return nil
}

func (ts *MemoryTokenStore) Revoke(_ context.Context, token string) error {
	ts.mu.Lock()
	delete(ts.entries, token)
	ts.mu.Unlock()
	return nil
}

func (ts *MemoryTokenStore) Close() error {
	return nil
}
