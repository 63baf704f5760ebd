package domain

// Stage identifies a step of the pipeline state machine.
type Stage string

// Pipeline stages in execution order.
const (
	StageNotStarted  Stage = "not_started"
	StageSampling    Stage = "sampling"
	StageSummarizing Stage = "summarizing"
	StageDiscovering Stage = "discovering"
	StageRevising    Stage = "revising"
	StageReview      Stage = "review"
	StageFinalized   Stage = "finalized"
	StageLabeling    Stage = "labeling"
	StageCompleted   Stage = "completed"
)

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// IsTerminal returns true for stages after which no work remains.
func (s Stage) IsTerminal() bool {
	return s == StageCompleted
}

// Path is the branch a run takes, chosen once at run start.
type Path string

// Available run paths.
const (
	// PathDiscovery samples, summarizes and builds a taxonomy before labeling.
	PathDiscovery Path = "discovery"

	// PathDirectLabel labels against a caller-supplied taxonomy.
	PathDirectLabel Path = "direct_label"
)

// String returns the string representation.
func (p Path) String() string {
	return string(p)
}

// Stages returns the stages visited on this path, in order.
func (p Path) Stages() []Stage {
	if p == PathDirectLabel {
		return []Stage{StageFinalized, StageLabeling, StageCompleted}
	}
	return []Stage{
		StageSampling,
		StageSummarizing,
		StageDiscovering,
		StageRevising,
		StageReview,
		StageFinalized,
		StageLabeling,
		StageCompleted,
	}
}
