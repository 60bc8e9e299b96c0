package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

// SessionTimerKey returns the key holding the last timer snapshot of a
// session, so a reconnecting stream resumes the question countdown.
func (r *CacheKeyStruct) SessionTimerKey(sessionID int) string {
	return fmt.Sprintf("quiz:session:%d:timer", sessionID)
}

var CacheKey = &CacheKeyStruct{}
