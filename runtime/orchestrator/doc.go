// Package orchestrator sequences one routing call: intent detection,
// priority scoring, the hard constraint gate and the soft alignment gate,
// then either stops (blocked, deferred), parks the request in the approval
// queue, or dispatches exactly one workflow and records the outcome.
//
// The orchestrator holds no per-request lock and is safe for concurrent use
// with distinct trace ids. A parked request never blocks a goroutine: the
// founder decision arrives as an independent Approve, Reject or Resume call,
// which resumes the pipeline right after the gate.
package orchestrator
