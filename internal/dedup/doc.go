// Package dedup decides whether a built record is new or an update of one
// already stored, and merges the two without losing good values.
package dedup
