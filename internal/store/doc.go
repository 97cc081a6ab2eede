// Package store provides a durable audit log of pass decisions.
//
// Every fold committed by a pass run can be recorded as one row, keyed by
// the module's id and fingerprint, so a transformation can be traced after
// the fact without re-running the pass. The log is append-only; replaying
// a recorded run never mutates earlier rows.
package store
