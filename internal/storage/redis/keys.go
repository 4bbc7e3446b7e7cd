package redis

import "fmt"

// Key prefix for all session server data
const keyPrefix = "playersession"

// documentKey returns the Redis key holding a whole document
func documentKey(name string) string {
	return fmt.Sprintf("%s:doc:%s", keyPrefix, name)
}
