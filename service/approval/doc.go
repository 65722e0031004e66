// Package approval implements the founder-in-the-loop approval queue. A
// request whose verdict requires approval is parked here keyed by its trace
// id until an explicit approve or reject decision is recorded; the
// orchestrator then resumes it right after the gate.
package approval
