// Package hash provides keyed digests for secrets that must be looked up but
// never stored, such as session tokens.
package hash
