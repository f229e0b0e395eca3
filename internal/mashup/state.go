package mashup

// Stage identifies where a run currently is in its lifecycle.
type Stage string

const (
	StageResolving  Stage = "resolving"
	StagePipelining Stage = "pipelining"
	StageMerging    Stage = "merging"
	StageCleaningUp Stage = "cleaning_up"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// stageTransitions lists the allowed successor stages. Every active
// stage can jump straight to cleanup since failures abort the run.
var stageTransitions = map[Stage][]Stage{
	StageResolving:  {StagePipelining, StageCleaningUp},
	StagePipelining: {StageMerging, StageCleaningUp},
	StageMerging:    {StageCleaningUp},
	StageCleaningUp: {StageDone, StageFailed},
}

func isValidTransition(from, to Stage) bool {
	for _, next := range stageTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
