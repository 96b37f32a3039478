// Package store holds in-progress worksheets for the HTTP API.
//
// Each worksheet lives in memory under a generated ID together with the
// result of its most recent explicit calculation. An entry that is not
// modified within the TTL expires; every write slides the deadline forward.
// Nothing is persisted.
package store
