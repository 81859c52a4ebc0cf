// Package verification runs the phone one-time-code challenge.
//
// Each challenge moves ISSUED -> (verify)* -> VERIFIED | EXHAUSTED | EXPIRED.
// Every terminal state purges the record. Attempt counters are committed to
// storage before the submitted code is compared, so an interrupted verify
// still consumes an attempt.
package verification
