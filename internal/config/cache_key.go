package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key registering a user's active login JTI.
// Role is "teacher" or "student" so the two ID spaces never collide.
func (r *CacheKeyStruct) UserSessionKey(role string, userID int) string {
	return fmt.Sprintf("login:%s:%d", role, userID)
}

// TestPayloadKey returns the cache key for a test's sanitized question payload.
func (r *CacheKeyStruct) TestPayloadKey(testID string) string {
	return fmt.Sprintf("test:%s:payload", testID)
}

// ResetOTPKey returns the cache key holding a pending password-reset code.
func (r *CacheKeyStruct) ResetOTPKey(email string) string {
	return fmt.Sprintf("otp:reset:%s", email)
}

var CacheKey = NewCacheKeyStruct()
