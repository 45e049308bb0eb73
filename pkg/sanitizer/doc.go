// Package sanitizer normalizes user supplied booking data before it is
// validated and stored.
//
// All functions are idempotent. Input that cannot be normalized is returned
// trimmed so that validation, not normalization, reports the problem.
package sanitizer
