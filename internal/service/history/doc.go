// Package history manages the per-campaign delivery ledger.
//
// The ledger is the engine's sole source of truth for which addresses were
// sent, failed, or are in flight, and how many messages went out on each
// calendar day. Every mutation is persisted as a full-record replace
// immediately, never batched, so a crash can leave at most one recipient's
// status ambiguous.
//
// Repository implementations live in repository/postgres/.
package history
