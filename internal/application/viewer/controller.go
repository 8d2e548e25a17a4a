// Package viewer drives the 3D rendering surface: model loading with
// retry-until-ready, style changes, rotation and camera control.
package viewer

import (
	"strconv"
	"sync"
	"time"

	"github.com/turtacn/molview/internal/infrastructure/clock"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molview/pkg/errors"
	"github.com/turtacn/molview/pkg/types/molecule"
)

// Defaults for the controller's timing.
const (
	DefaultRetryDelay       = 100 * time.Millisecond
	DefaultRotationInterval = 50 * time.Millisecond
	DefaultRotationStep     = 2.0

	// SurfaceOpacity is the opacity of the solvent-accessible overlay of
	// the surface style.
	SurfaceOpacity = 0.7
)

// Banner texts.
const (
	BannerNotReady    = "3D viewer is initializing. Retrying..."
	BannerRenderError = "Failed to render molecule structure"
)

const placeholder = "-"

// State is the controller's mode.
type State string

const (
	StateEmpty  State = "empty"
	StateLoaded State = "loaded"
)

// InfoPanel holds the display strings of the structure info panel.
type InfoPanel struct {
	AtomCount   string `json:"atom_count"`
	Forcefield  string `json:"forcefield"`
	Coordinates string `json:"coordinates"`
	Status      string `json:"status"`
}

func placeholderPanel() InfoPanel {
	return InfoPanel{AtomCount: placeholder, Forcefield: placeholder, Coordinates: placeholder, Status: placeholder}
}

func panelFromInfo(info molecule.StructureInfo) InfoPanel {
	p := InfoPanel{
		AtomCount:   strconv.Itoa(info.AtomCount),
		Forcefield:  info.ForcefieldUsed,
		Coordinates: "Not available",
		Status:      info.Status,
	}
	if info.Has3DCoords {
		p.Coordinates = "Available"
	}
	if p.Forcefield == "" {
		p.Forcefield = placeholder
	}
	if p.Status == "" {
		p.Status = placeholder
	}
	return p
}

// ViewerState is a snapshot of the controller.
type ViewerState struct {
	State        State     `json:"state"`
	Style        Style     `json:"style"`
	Rotating     bool      `json:"rotating"`
	Structure    string    `json:"structure,omitempty"`
	PendingRetry bool      `json:"pending_retry"`
	Info         InfoPanel `json:"info"`
	Banner       string    `json:"banner,omitempty"`
}

// Controller is the only writer of its Surface.  All operations are safe for
// concurrent use.
type Controller struct {
	surface Surface
	clock   clock.Clock
	logger  logging.Logger
	metrics *prometheus.AppMetrics

	retryDelay       time.Duration
	rotationInterval time.Duration
	rotationStep     float64

	mu         sync.Mutex
	state      State
	style      Style
	structure  string
	info       InfoPanel
	banner     string
	rotating   bool
	rotation   clock.Timer
	retry      clock.Timer
	generation uint64
}

// Option configures a Controller.
type Option func(*Controller)

func WithClock(c clock.Clock) Option {
	return func(v *Controller) {
		if c != nil {
			v.clock = c
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(v *Controller) {
		if l != nil {
			v.logger = l
		}
	}
}

func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(v *Controller) { v.metrics = m }
}

// WithRetryDelay sets the wait before re-attempting a load on a surface that
// was not ready.
func WithRetryDelay(d time.Duration) Option {
	return func(v *Controller) {
		if d > 0 {
			v.retryDelay = d
		}
	}
}

// WithRotation sets the rotation tick and the degrees turned per tick.
func WithRotation(interval time.Duration, step float64) Option {
	return func(v *Controller) {
		if interval > 0 {
			v.rotationInterval = interval
		}
		if step != 0 {
			v.rotationStep = step
		}
	}
}

// WithDefaultStyle sets the style applied to the first load.
func WithDefaultStyle(s Style) Option {
	return func(v *Controller) {
		if s != "" {
			v.style = s
		}
	}
}

func NewController(surface Surface, opts ...Option) *Controller {
	v := &Controller{
		surface:          surface,
		clock:            clock.Real(),
		logger:           logging.NewNopLogger(),
		retryDelay:       DefaultRetryDelay,
		rotationInterval: DefaultRotationInterval,
		rotationStep:     DefaultRotationStep,
		state:            StateEmpty,
		style:            StyleStick,
		info:             placeholderPanel(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// State returns a snapshot of the controller.
func (v *Controller) State() ViewerState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ViewerState{
		State:        v.state,
		Style:        v.style,
		Rotating:     v.rotating,
		Structure:    v.structure,
		PendingRetry: v.retry != nil,
		Info:         v.info,
		Banner:       v.banner,
	}
}

func (v *Controller) Info() InfoPanel {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.info
}

func (v *Controller) Banner() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.banner
}

// Load shows block, replacing whatever was shown.  When the surface is not
// ready the load is deferred: a banner is shown and the load is retried every
// retry delay until it succeeds or is superseded by another Load or Clear.
// Load returns an error only when the surface rejects the data.
func (v *Controller) Load(block string, info molecule.StructureInfo) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.generation++
	v.cancelRetryLocked()
	return v.loadLocked(v.generation, block, info, 0)
}

func (v *Controller) loadLocked(gen uint64, block string, info molecule.StructureInfo, attempt int) error {
	if !v.surface.Ready() {
		v.banner = BannerNotReady
		v.logger.Warn("viewer surface not ready, deferring load",
			logging.Int("attempt", attempt+1),
			logging.Duration("retry_in", v.retryDelay))
		prometheus.RecordViewerLoad(v.metrics, "deferred")
		v.retry = v.clock.AfterFunc(v.retryDelay, func() { v.retryLoad(gen, block, info, attempt+1) })
		return nil
	}

	v.surface.RemoveAllSurfaces()
	v.surface.RemoveAllModels()
	if err := v.surface.AddModel(block, "pdb"); err != nil {
		v.state = StateEmpty
		v.structure = ""
		v.info = placeholderPanel()
		v.banner = BannerRenderError
		v.surface.Render()
		prometheus.RecordViewerLoad(v.metrics, "rejected")
		prometheus.RecordError(v.metrics, "viewer", "RenderError")
		v.logger.Error("viewer rejected structure data", logging.Err(err))
		if errors.IsCode(err, errors.CodeRender) {
			return err
		}
		return errors.Wrap(err, errors.CodeRender, BannerRenderError)
	}

	v.applyStyleLocked(v.style)
	v.surface.ZoomTo()
	v.surface.Render()

	v.state = StateLoaded
	v.structure = block
	v.info = panelFromInfo(info)
	v.banner = ""
	prometheus.RecordViewerLoad(v.metrics, "rendered")
	v.logger.Debug("structure loaded", logging.Int("atom_count", info.AtomCount), logging.String("style", string(v.style)))
	return nil
}

func (v *Controller) retryLoad(gen uint64, block string, info molecule.StructureInfo, attempt int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		return
	}
	v.retry = nil
	_ = v.loadLocked(gen, block, info, attempt)
}

// cancelRetryLocked must be called with v.mu held.
func (v *Controller) cancelRetryLocked() {
	if v.retry != nil {
		v.retry.Stop()
		v.retry = nil
	}
}

// ApplyStyle changes the representation of the loaded structure without
// reloading it.
func (v *Controller) ApplyStyle(style Style) error {
	style, err := ParseStyle(string(style))
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != StateLoaded {
		return errors.New(errors.ErrCodeNoStructure, "No structure loaded")
	}
	v.applyStyleLocked(style)
	v.surface.Render()
	return nil
}

// applyStyleLocked must be called with v.mu held.
func (v *Controller) applyStyleLocked(style Style) {
	v.surface.RemoveAllSurfaces()
	if style == StyleSurface {
		v.surface.SetStyle(StyleStick)
		v.surface.AddSurface(SurfaceOpacity)
	} else {
		v.surface.SetStyle(style)
	}
	v.style = style
}

// CycleStyle advances to the next style in StyleOrder and returns it.
func (v *Controller) CycleStyle() (Style, error) {
	v.mu.Lock()
	next := v.style.Next()
	v.mu.Unlock()

	if err := v.ApplyStyle(next); err != nil {
		return "", err
	}
	return next, nil
}

// ToggleRotation starts or stops continuous rotation about the vertical axis
// and returns whether the view is now rotating.
func (v *Controller) ToggleRotation() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.rotating {
		v.stopRotationLocked()
		return false
	}
	v.rotating = true
	v.rotation = v.clock.Every(v.rotationInterval, v.tick)
	return true
}

func (v *Controller) tick() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.rotating {
		return
	}
	v.surface.Rotate(v.rotationStep, AxisY)
	v.surface.Render()
}

// stopRotationLocked must be called with v.mu held.
func (v *Controller) stopRotationLocked() {
	if v.rotation != nil {
		v.rotation.Stop()
		v.rotation = nil
	}
	v.rotating = false
}

// ResetView stops rotation and restores the canonical camera, fitted to the
// loaded geometry.
func (v *Controller) ResetView() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopRotationLocked()
	v.surface.ResetCamera()
	if v.state == StateLoaded {
		v.surface.ZoomTo()
	}
	v.surface.Render()
}

// Clear removes everything from the surface and cancels pending work.
func (v *Controller) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	v.cancelRetryLocked()
	v.stopRotationLocked()
	v.surface.RemoveAllSurfaces()
	v.surface.RemoveAllModels()
	v.surface.Render()
	v.state = StateEmpty
	v.structure = ""
	v.info = placeholderPanel()
	v.banner = ""
}

// Close stops timers without touching the surface.
func (v *Controller) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	v.cancelRetryLocked()
	v.stopRotationLocked()
}
