// Package uid generates identifiers: numeric snowflakes for rows and
// UUIDv7 strings for correlation ids.
package uid

// NumberID generates unique, roughly time ordered 64-bit ids.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string ids.
type StringID interface {
	Generate() string
}
