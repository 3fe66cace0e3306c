// Package dedupe provides a time-based response cache that coalesces
// concurrent identical requests into a single upstream call.
package dedupe
