package rediskey

import "fmt"

// User keys shared with the profile service.
const (
	UserProfilePrefix = "user:profile"
	UserStatsPrefix   = "user:stats"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildUserProfileKey returns "user:profile:{userID}"
func BuildUserProfileKey(userID string) string {
	return NamespaceKey(UserProfilePrefix, userID)
}

// BuildUserStatsKey returns "user:stats:{userID}"
func BuildUserStatsKey(userID string) string {
	return NamespaceKey(UserStatsPrefix, userID)
}

// UserKeys lists every cached key derived from a user's balance.
func UserKeys(userID string) []string {
	return []string{BuildUserProfileKey(userID), BuildUserStatsKey(userID)}
}
