// Package config reads typed values from the service configuration.
package config

import (
	"io"
	"time"
)

// TimeConfig reads integers as durations in the named unit.
type TimeConfig interface {
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
	GetDay(key string) time.Duration
}

// Config is the read-only view every component receives. Missing keys yield
// the zero value.
type Config interface {
	io.Closer
	TimeConfig

	GetInt(key string) int
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint64(key string) uint64
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 value. Invalid base64 yields nil.
	GetBinary(key string) []byte

	// GetArray splits "a,b,c", trimming blanks.
	GetArray(key string) []string

	// GetMap parses "k1:v1,k2:v2".
	GetMap(key string) map[string]string
}
