package analysis

import "github.com/turtacn/molview/pkg/types/molecule"

// Stage is the position of the pipeline.
type Stage string

const (
	StageInput      Stage = "input"
	StageParsing    Stage = "parsing"
	StageConformer  Stage = "conformer"
	StagePredicting Stage = "predicting"
	StageResults    Stage = "results"
)

// Steps lists the working stages in execution order.
var Steps = []Stage{StageParsing, StageConformer, StagePredicting}

// StepStatus is the progress of one working stage.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepActive    StepStatus = "active"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// StepStates holds the status of each working stage.
type StepStates struct {
	Parsing    StepStatus `json:"parsing"`
	Conformer  StepStatus `json:"conformer"`
	Predicting StepStatus `json:"predicting"`
}

func pendingSteps() StepStates {
	return StepStates{Parsing: StepPending, Conformer: StepPending, Predicting: StepPending}
}

// Get returns the status of stage; non-working stages report pending.
func (s StepStates) Get(stage Stage) StepStatus {
	switch stage {
	case StageParsing:
		return s.Parsing
	case StageConformer:
		return s.Conformer
	case StagePredicting:
		return s.Predicting
	}
	return StepPending
}

func (s *StepStates) set(stage Stage, status StepStatus) {
	switch stage {
	case StageParsing:
		s.Parsing = status
	case StageConformer:
		s.Conformer = status
	case StagePredicting:
		s.Predicting = status
	}
}

// PipelineState is a snapshot of the orchestrator's progress.
type PipelineState struct {
	RunID  uint64         `json:"run_id"`
	Stage  Stage          `json:"stage"`
	Steps  StepStates     `json:"steps"`
	Route  molecule.Route `json:"route,omitempty"`
	Failed bool           `json:"failed"`

	// Message is the diagnostic of the last failure.
	Message string `json:"message,omitempty"`
}

// Busy reports whether a run is in flight.
func (s PipelineState) Busy() bool {
	switch s.Stage {
	case StageParsing, StageConformer, StagePredicting:
		return true
	}
	return false
}

func initialState(runID uint64) PipelineState {
	return PipelineState{RunID: runID, Stage: StageInput, Steps: pendingSteps()}
}
