// Package session assembles the per-user services (orchestrator, viewer,
// presenter) and passes them around explicitly instead of through globals.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/turtacn/molview/internal/application/analysis"
	"github.com/turtacn/molview/internal/application/presenter"
	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/internal/infrastructure/clock"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molview/pkg/errors"
	"github.com/turtacn/molview/pkg/types/molecule"
)

// Deps are the shared collaborators and settings every session is built from.
type Deps struct {
	Remote     analysis.Remote
	Forcefield molecule.Forcefield

	MaxUploadSize     int64
	AllowedExtensions []string

	ViewerRetryDelay       time.Duration
	ViewerRotationInterval time.Duration
	ViewerRotationStep     float64
	ViewerDefaultStyle     viewer.Style

	NotificationTTL time.Duration

	Clock   clock.Clock
	Logger  logging.Logger
	Metrics *prometheus.AppMetrics
}

// Session is one user's workspace.  Its viewer surface is a headless Scene.
type Session struct {
	ID        string
	CreatedAt time.Time

	Resolver     *analysis.Resolver
	Orchestrator *analysis.Orchestrator
	Viewer       *viewer.Controller
	Scene        *viewer.Scene
	Presenter    *presenter.Presenter

	logger logging.Logger
}

// New builds a session with a fresh id.
func New(deps Deps) *Session {
	return NewWithID(uuid.NewString(), deps)
}

// NewWithID builds a session with the given id.
func NewWithID(id string, deps Deps) *Session {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	log := deps.Logger.With(logging.String("session_id", id))

	scene := viewer.NewScene()
	s := &Session{
		ID:        id,
		CreatedAt: deps.Clock.Now(),
		Resolver:  analysis.NewResolver(deps.MaxUploadSize, deps.AllowedExtensions),
		Scene:     scene,
		Viewer: viewer.NewController(scene,
			viewer.WithClock(deps.Clock),
			viewer.WithLogger(log.Named("viewer")),
			viewer.WithMetrics(deps.Metrics),
			viewer.WithRetryDelay(deps.ViewerRetryDelay),
			viewer.WithRotation(deps.ViewerRotationInterval, deps.ViewerRotationStep),
			viewer.WithDefaultStyle(deps.ViewerDefaultStyle),
		),
		Presenter: presenter.New(presenter.NewNotifier(deps.NotificationTTL, deps.Clock, log.Named("presenter"))),
		logger:    log,
	}
	s.Orchestrator = analysis.NewOrchestrator(deps.Remote, log.Named("pipeline"),
		analysis.WithForcefield(deps.Forcefield),
		analysis.WithMetrics(deps.Metrics),
		analysis.WithListener(s.Presenter),
		analysis.WithListener(analysis.ListenerFunc(s.onPipelineEvent)),
	)
	return s
}

// onPipelineEvent hands finished structures to the viewer.
func (s *Session) onPipelineEvent(e analysis.Event) {
	switch e.Kind {
	case analysis.EventCompleted:
		if e.Result == nil || e.Result.Conformer.PDBBlock == "" {
			return
		}
		if err := s.Viewer.Load(e.Result.Conformer.PDBBlock, molecule.InfoFromConformer(e.Result.Conformer)); err != nil {
			s.Presenter.Notifier.Error(errors.UserMessage(err))
		}
	case analysis.EventReset:
		s.Viewer.Clear()
	}
}

// Analyze resolves form and runs the pipeline.  Input problems are shown as
// notifications and returned without touching the pipeline.
func (s *Session) Analyze(ctx context.Context, form analysis.Form) (*molecule.AnalysisResult, error) {
	spec, err := s.Resolver.Resolve(form)
	if err != nil {
		s.Presenter.Notifier.Error(errors.UserMessage(err))
		return nil, err
	}
	return s.Orchestrator.Submit(ctx, spec)
}

// Reset returns the pipeline to Input and clears the viewer.
func (s *Session) Reset() {
	s.Orchestrator.Reset()
}

// Snapshot is everything a client needs to draw the session.
type Snapshot struct {
	ID            string                    `json:"id"`
	Busy          bool                      `json:"busy"`
	Pipeline      analysis.PipelineState    `json:"pipeline"`
	Steps         []presenter.StepIndicator `json:"steps"`
	Viewer        viewer.ViewerState        `json:"viewer"`
	Scene         viewer.SceneState         `json:"scene"`
	Notifications []presenter.Notification  `json:"notifications"`
	Result        *molecule.AnalysisResult  `json:"result,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:            s.ID,
		Busy:          s.Orchestrator.Busy(),
		Pipeline:      s.Orchestrator.State(),
		Steps:         s.Presenter.Progress.Indicators(),
		Viewer:        s.Viewer.State(),
		Scene:         s.Scene.Snapshot(),
		Notifications: s.Presenter.Notifier.Active(),
		Result:        s.Orchestrator.Result(),
	}
}

// Close stops the session's timers.  In-flight runs are abandoned.
func (s *Session) Close() {
	s.Orchestrator.Reset()
	s.Viewer.Close()
	s.Presenter.Notifier.Close()
	s.logger.Debug("session closed")
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session carried by ctx.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
