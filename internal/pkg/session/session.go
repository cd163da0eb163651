package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"
	"github.com/google/uuid"

	"github.com/headshop-br/headshop/internal/pkg/cache"
	"github.com/headshop-br/headshop/internal/pkg/env"
)

const (
	cartTokenKey = "cart_token"
	userIDKey    = "user_id"

	// Guest carts survive a month; abandoned sessions expire in Redis.
	sessionExpiration = 30 * 24 * time.Hour
)

var sessionStore *session.Store

func NewSessionStore() *session.Store {
	// Get Redis client configuration from existing cache setup
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		// Prefer password from the underlying client if present
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	// Create Redis storage for sessions using database 1 (cache uses DB 0)
	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1, // Separate database for sessions
		Reset:    false,
	})

	sessionStore = session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		// CookieSecure:   true, // Enable in production with HTTPS
		Expiration: sessionExpiration,
		KeyLookup:  "cookie:session_id",
	})

	return sessionStore
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// SetSessionValue stores a key-value pair in the user's individual session
func SetSessionValue(c *fiber.Ctx, key string, value string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}

	sess.Set(key, value)
	return sess.Save()
}

// GetSessionValue retrieves a value by key from the user's individual session
func GetSessionValue(c *fiber.Ctx, key string) string {
	if sessionStore == nil {
		return ""
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}

	value := sess.Get(key)
	if value == nil {
		return ""
	}

	if strValue, ok := value.(string); ok {
		return strValue
	}

	return ""
}

// CartToken returns the session's cart token, minting one on first use.
func CartToken(c *fiber.Ctx) (string, error) {
	if token := GetSessionValue(c, cartTokenKey); token != "" {
		return token, nil
	}
	token := uuid.New().String()
	if err := SetSessionValue(c, cartTokenKey, token); err != nil {
		return "", err
	}
	return token, nil
}

// SetUserID binds a customer to the current session.
func SetUserID(c *fiber.Ctx, userID uint) error {
	return SetSessionValue(c, userIDKey, strconv.FormatUint(uint64(userID), 10))
}

// UserID returns the session's customer id, or 0 when anonymous.
func UserID(c *fiber.Ctx) uint {
	raw := GetSessionValue(c, userIDKey)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
