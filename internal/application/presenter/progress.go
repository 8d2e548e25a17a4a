// Package presenter reflects pipeline state into what the user sees: step
// indicators, transient notifications and the service status light.  It
// holds no business state.
package presenter

import (
	"sync"

	"github.com/turtacn/molview/internal/application/analysis"
)

// Visual is the look of one step indicator.
type Visual string

const (
	VisualIdle      Visual = ""
	VisualActive    Visual = "active"
	VisualCompleted Visual = "completed"
	VisualFailed    Visual = "failed"
)

// StepIndicator is one entry of the progress bar.
type StepIndicator struct {
	Step   string `json:"step"`
	Label  string `json:"label"`
	Visual Visual `json:"visual"`
}

var indicatorLabels = []struct {
	step  analysis.Stage
	label string
}{
	{analysis.StageInput, "Input"},
	{analysis.StageParsing, "Parsing"},
	{analysis.StageConformer, "3D Structure"},
	{analysis.StagePredicting, "Predicting"},
	{analysis.StageResults, "Results"},
}

// Indicators maps a pipeline state to the five step indicators.  It is a
// pure function of state.
func Indicators(state analysis.PipelineState) []StepIndicator {
	out := make([]StepIndicator, len(indicatorLabels))
	for i, il := range indicatorLabels {
		out[i] = StepIndicator{Step: string(il.step), Label: il.label, Visual: visualFor(state, il.step)}
	}
	return out
}

func visualFor(state analysis.PipelineState, step analysis.Stage) Visual {
	switch step {
	case analysis.StageInput:
		if state.Stage == analysis.StageInput {
			return VisualActive
		}
		return VisualCompleted
	case analysis.StageResults:
		if state.Stage == analysis.StageResults {
			return VisualActive
		}
		return VisualIdle
	}
	switch state.Steps.Get(step) {
	case analysis.StepActive:
		return VisualActive
	case analysis.StepCompleted:
		return VisualCompleted
	case analysis.StepFailed:
		return VisualFailed
	}
	return VisualIdle
}

// Progress keeps the indicators of the latest applied state.
type Progress struct {
	mu         sync.RWMutex
	indicators []StepIndicator
}

func NewProgress() *Progress {
	return &Progress{indicators: Indicators(analysis.PipelineState{Stage: analysis.StageInput})}
}

// Apply replaces the indicators with those of state.  Applying the same state
// twice yields the same indicators.
func (p *Progress) Apply(state analysis.PipelineState) []StepIndicator {
	ind := Indicators(state)
	p.mu.Lock()
	p.indicators = ind
	p.mu.Unlock()
	return copyIndicators(ind)
}

// Indicators returns the current indicators.
func (p *Progress) Indicators() []StepIndicator {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return copyIndicators(p.indicators)
}

// OnEvent implements analysis.Listener.
func (p *Progress) OnEvent(e analysis.Event) {
	p.Apply(e.State)
}

func copyIndicators(in []StepIndicator) []StepIndicator {
	out := make([]StepIndicator, len(in))
	copy(out, in)
	return out
}
