package model

// Stage is a state of the routing state machine.
type Stage string

const (
	StageStart              Stage = "start"
	StageIntentDetected     Stage = "intent_detected"
	StagePriorityScored     Stage = "priority_scored"
	StageConstraintChecked  Stage = "constraint_checked"
	StageAlignmentEvaluated Stage = "alignment_evaluated"
	StageRejected           Stage = "rejected"
	StageDeferred           Stage = "deferred"
	StageAwaitingApproval   Stage = "awaiting_approval"
	StageAllowed            Stage = "allowed"
	StageWorkflowExecuted   Stage = "workflow_executed"
	StageFailed             Stage = "failed"
	StageReflected          Stage = "reflected"
)

// Trail records the stages a request passed through.
type Trail []Stage

// Append adds stages and returns the trail.
func (t *Trail) Append(stages ...Stage) {
	*t = append(*t, stages...)
}

// Has reports whether stage was visited.
func (t Trail) Has(stage Stage) bool {
	for _, s := range t {
		if s == stage {
			return true
		}
	}
	return false
}
