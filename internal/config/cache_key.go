package config

import (
	"fmt"
	"time"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// MockExamUsageKey returns the counter key for mock exams a user started on day (UTC).
func (r *CacheKeyStruct) MockExamUsageKey(userID int, day time.Time) string {
	return fmt.Sprintf("user:%d:mock_exam:usage:%s", userID, day.UTC().Format("2006-01-02"))
}

var CacheKey = NewCacheKeyStruct()
