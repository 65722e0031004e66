// Package costguard enforces per-provider daily token and cost ceilings.
//
// Counters reset lazily: the first access after the UTC date advances past a
// ledger's reset date zeroes it. Two APIs are offered:
//
//   - AssertAllowed followed by RecordUsage. Each call is atomic on its own
//     but concurrent callers may both pass the check before either records,
//     so the ceiling can be overshot by the in-flight requests. This overshoot
//     is tolerated.
//   - Reserve followed by Reservation.Commit or Reservation.Release. The
//     estimate is held against the ceiling from admission until commit, which
//     closes the race; generation providers use this path.
package costguard
