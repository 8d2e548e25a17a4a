package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molview/pkg/client"
	"github.com/turtacn/molview/pkg/errors"
	"github.com/turtacn/molview/pkg/types/molecule"
)

// Remote is the chemistry service as seen by the pipeline.  *client.Client
// satisfies it.
type Remote interface {
	Parse(ctx context.Context, smiles string) (*molecule.MoleculeRecord, error)
	GenerateConformer(ctx context.Context, smiles string, forcefield molecule.Forcefield) (*molecule.ConformerRecord, error)
	Analyze(ctx context.Context, smiles string) (*client.AnalyzeResponse, error)
}

var _ Remote = (*client.Client)(nil)

// ErrStaleRun is returned to the caller of a run that was reset (or
// superseded) before it finished.  Its outputs are discarded.
var ErrStaleRun = errors.New(errors.ErrCodeStaleRun, "analysis was reset before it completed")

// EventKind classifies orchestrator events.
type EventKind string

const (
	EventTransition EventKind = "transition"
	EventCompleted  EventKind = "completed"
	EventFailed     EventKind = "failed"
	EventReset      EventKind = "reset"
)

// Event is delivered to listeners after every state change.
type Event struct {
	Kind   EventKind
	State  PipelineState
	Result *molecule.AnalysisResult
	Err    error
}

// Listener observes the orchestrator.  OnEvent is called synchronously on the
// goroutine that caused the change, outside the orchestrator's lock, so it
// may read the orchestrator but must not block.
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) OnEvent(e Event) { f(e) }

// Orchestrator runs one pipeline at a time and owns the PipelineState.
type Orchestrator struct {
	remote     Remote
	forcefield molecule.Forcefield
	logger     logging.Logger
	metrics    *prometheus.AppMetrics

	// deliver orders state changes with their delivery: every mutation that
	// emits holds it until all listeners have seen the event.  It is always
	// taken before mu, and listeners must not call Submit or Reset.
	deliver sync.Mutex

	mu        sync.Mutex
	state     PipelineState
	result    *molecule.AnalysisResult
	inFlight  uint64
	listeners []Listener
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithForcefield sets the force field used for conformer generation.
func WithForcefield(ff molecule.Forcefield) Option {
	return func(o *Orchestrator) {
		if ff != "" {
			o.forcefield = ff
		}
	}
}

func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithListener(l Listener) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.listeners = append(o.listeners, l)
		}
	}
}

// NewOrchestrator creates an idle orchestrator.  remote may be nil when only
// PDB files will be submitted.
func NewOrchestrator(remote Remote, logger logging.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	o := &Orchestrator{
		remote:     remote,
		forcefield: molecule.ForcefieldUFF,
		logger:     logger,
		state:      initialState(0),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Subscribe adds a listener.
func (o *Orchestrator) Subscribe(l Listener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, l)
}

// State returns the current pipeline snapshot.
func (o *Orchestrator) State() PipelineState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Result returns a copy of the last completed result, or nil.
func (o *Orchestrator) Result() *molecule.AnalysisResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return copyResult(o.result)
}

// Busy reports whether a run is in flight.  Submission surfaces disable
// themselves while it is true.  A run abandoned by Reset no longer counts.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busyLocked()
}

func (o *Orchestrator) busyLocked() bool {
	return o.inFlight != 0 && o.inFlight == o.state.RunID
}

// Forcefield returns the force field used for conformer generation.
func (o *Orchestrator) Forcefield() molecule.Forcefield { return o.forcefield }

// Reset abandons any in-flight run, clears the result and returns to Input.
func (o *Orchestrator) Reset() {
	o.deliver.Lock()
	defer o.deliver.Unlock()

	o.mu.Lock()
	o.state = initialState(o.state.RunID + 1)
	o.result = nil
	ev := Event{Kind: EventReset, State: o.state}
	listeners := o.snapshotListeners()
	o.mu.Unlock()

	o.logger.Info("pipeline reset", logging.Int64("run_id", int64(ev.State.RunID)))
	emit(listeners, ev)
}

// Submit runs the pipeline for spec and blocks until it finishes.  Every
// failure leaves the pipeline at Input with the diagnostic recorded; the
// returned error carries the same message.  A run abandoned by Reset returns
// ErrStaleRun and changes nothing.
func (o *Orchestrator) Submit(ctx context.Context, spec molecule.InputSpec) (*molecule.AnalysisResult, error) {
	cls := Classify(spec)

	o.deliver.Lock()
	o.mu.Lock()
	if o.busyLocked() {
		o.mu.Unlock()
		o.deliver.Unlock()
		return nil, errors.InvalidState("analysis already in progress")
	}
	run := o.state.RunID + 1
	o.state = initialState(run)
	o.state.Route = cls.Route
	o.result = nil
	o.inFlight = run
	o.mu.Unlock()
	o.deliver.Unlock()

	prometheus.TrackActiveRun(o.metrics, 1)
	defer func() {
		prometheus.TrackActiveRun(o.metrics, -1)
		o.mu.Lock()
		if o.inFlight == run {
			o.inFlight = 0
		}
		o.mu.Unlock()
	}()

	log := o.logger.With(logging.Int64("run_id", int64(run)), logging.String("route", string(cls.Route)))
	timer := prometheus.StartPipelineRun(o.metrics, string(cls.Route))

	var res *molecule.AnalysisResult
	err := spec.Validate()
	switch {
	case err != nil:
		err = o.fail(run, "", err, log)
	case cls.Route == molecule.RouteDirectPDB:
		res, err = o.runDirectPDB(run, spec, log)
	case cls.Route == molecule.RouteRemoteSMILES:
		res, err = o.runRemote(ctx, run, spec.Text, log)
	default:
		err = o.fail(run, "", errors.Capability(cls.UnsupportedMessage()).WithDetail("extension="+cls.Extension), log)
	}

	outcome := "completed"
	switch {
	case err == ErrStaleRun:
		outcome = "stale"
	case err != nil:
		outcome = "failed"
	}
	timer.ObserveDuration()
	prometheus.RecordPipelineRun(o.metrics, string(cls.Route), outcome)
	return res, err
}

func (o *Orchestrator) runDirectPDB(run uint64, spec molecule.InputSpec, log logging.Logger) (*molecule.AnalysisResult, error) {
	log.Info("deriving structure from uploaded file", logging.String("file", spec.Name))

	var (
		mol  molecule.MoleculeRecord
		conf molecule.ConformerRecord
	)
	steps := []struct {
		stage Stage
		work  func()
	}{
		{StageParsing, func() { mol, conf = DerivePDB(spec.Name, spec.Content) }},
		{StageConformer, func() {}},
		{StagePredicting, func() {}},
	}
	for _, s := range steps {
		if err := o.begin(run, s.stage); err != nil {
			return nil, err
		}
		s.work()
		if err := o.complete(run, s.stage); err != nil {
			return nil, err
		}
	}

	res := Normalize(molecule.RouteDirectPDB, RawOutputs{Molecule: mol, Conformer: conf})
	return o.finish(run, res, log)
}

func (o *Orchestrator) runRemote(ctx context.Context, run uint64, smiles string, log logging.Logger) (*molecule.AnalysisResult, error) {
	if o.remote == nil {
		return nil, o.fail(run, StageParsing, errors.Remote("Analysis service is not configured"), log)
	}

	var raw RawOutputs

	if err := o.step(ctx, run, StageParsing, log, func(ctx context.Context) error {
		m, err := o.remote.Parse(ctx, smiles)
		if err == nil {
			raw.Molecule = *m
		}
		return err
	}); err != nil {
		return nil, err
	}

	if err := o.step(ctx, run, StageConformer, log, func(ctx context.Context) error {
		c, err := o.remote.GenerateConformer(ctx, smiles, o.forcefield)
		if err == nil {
			raw.Conformer = *c
		}
		return err
	}); err != nil {
		return nil, err
	}

	if err := o.step(ctx, run, StagePredicting, log, func(ctx context.Context) error {
		a, err := o.remote.Analyze(ctx, smiles)
		if err == nil {
			raw.Analysis = a
		}
		return err
	}); err != nil {
		return nil, err
	}

	return o.finish(run, Normalize(molecule.RouteRemoteSMILES, raw), log)
}

// step runs one remote call between the active and completed transitions.
// The call itself runs without the lock; its outcome is applied only if run
// is still current.
func (o *Orchestrator) step(ctx context.Context, run uint64, stage Stage, log logging.Logger, call func(context.Context) error) error {
	if err := o.begin(run, stage); err != nil {
		return err
	}

	start := time.Now()
	err := call(ctx)
	prometheus.RecordPipelineStep(o.metrics, string(stage), err == nil, time.Since(start))

	if !o.current(run) {
		prometheus.RecordStaleResponse(o.metrics, string(stage))
		log.Info("discarding response of abandoned run", logging.String("step", string(stage)))
		return ErrStaleRun
	}
	if err != nil {
		return o.fail(run, stage, err, log)
	}
	log.Debug("step completed", logging.String("step", string(stage)), logging.Duration("elapsed", time.Since(start)))
	return o.complete(run, stage)
}

func (o *Orchestrator) current(run uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.RunID == run
}

func (o *Orchestrator) begin(run uint64, stage Stage) error {
	return o.mutate(run, EventTransition, func(s *PipelineState) {
		s.Stage = stage
		s.Steps.set(stage, StepActive)
	})
}

func (o *Orchestrator) complete(run uint64, stage Stage) error {
	return o.mutate(run, EventTransition, func(s *PipelineState) {
		s.Steps.set(stage, StepCompleted)
	})
}

// fail records err as the outcome of run and returns the error to surface.
// stage is empty for failures before any step started.
func (o *Orchestrator) fail(run uint64, stage Stage, err error, log logging.Logger) error {
	msg := errors.UserMessage(err)
	staleErr := o.mutateWith(run, func(s *PipelineState) Event {
		if stage != "" {
			s.Steps.set(stage, StepFailed)
		}
		s.Stage = StageInput
		s.Failed = true
		s.Message = msg
		return Event{Kind: EventFailed, Err: err}
	})
	if staleErr != nil {
		return staleErr
	}

	category := errors.Category(errors.GetCode(err))
	prometheus.RecordError(o.metrics, "pipeline", category)
	log.Warn("analysis failed",
		logging.String("step", string(stage)),
		logging.String("category", category),
		logging.Err(err))
	return err
}

func (o *Orchestrator) finish(run uint64, res molecule.AnalysisResult, log logging.Logger) (*molecule.AnalysisResult, error) {
	stored := &res
	err := o.mutateWith(run, func(s *PipelineState) Event {
		s.Stage = StageResults
		o.result = stored
		return Event{Kind: EventCompleted, Result: copyResult(stored)}
	})
	if err != nil {
		return nil, err
	}
	log.Info("analysis completed",
		logging.String("formula", res.Molecule.Formula),
		logging.Int("atom_count", res.Conformer.AtomCount),
		logging.Int("admet_count", len(res.Admet)))
	return copyResult(stored), nil
}

func (o *Orchestrator) mutate(run uint64, kind EventKind, fn func(*PipelineState)) error {
	return o.mutateWith(run, func(s *PipelineState) Event {
		fn(s)
		return Event{Kind: kind}
	})
}

// mutateWith applies fn under the lock when run is current and then notifies
// listeners with the resulting state.  No other change is applied until the
// listeners return, so a Reset can never be delivered ahead of a late event
// of the run it abandons.
func (o *Orchestrator) mutateWith(run uint64, fn func(*PipelineState) Event) error {
	o.deliver.Lock()
	defer o.deliver.Unlock()

	o.mu.Lock()
	if o.state.RunID != run {
		o.mu.Unlock()
		return ErrStaleRun
	}
	ev := fn(&o.state)
	ev.State = o.state
	listeners := o.snapshotListeners()
	o.mu.Unlock()

	emit(listeners, ev)
	return nil
}

// snapshotListeners must be called with o.mu held.
func (o *Orchestrator) snapshotListeners() []Listener {
	out := make([]Listener, len(o.listeners))
	copy(out, o.listeners)
	return out
}

func emit(listeners []Listener, ev Event) {
	for _, l := range listeners {
		l.OnEvent(ev)
	}
}

func copyResult(r *molecule.AnalysisResult) *molecule.AnalysisResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Admet = append([]molecule.AdmetPrediction{}, r.Admet...)
	if r.Molecule.Descriptors != nil {
		c.Molecule.Descriptors = make(map[string]interface{}, len(r.Molecule.Descriptors))
		for k, v := range r.Molecule.Descriptors {
			c.Molecule.Descriptors[k] = v
		}
	}
	if r.AgentStatus != nil {
		st := *r.AgentStatus
		c.AgentStatus = &st
	}
	return &c
}
