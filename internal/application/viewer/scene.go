package viewer

import (
	"sync"

	"github.com/turtacn/molview/internal/application/analysis"
	"github.com/turtacn/molview/pkg/errors"
)

// Axis is a rotation axis of the camera.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// Surface is the 3D rendering surface driven by the Controller.
type Surface interface {
	// Ready reports whether the surface can accept models.
	Ready() bool

	RemoveAllModels()

	// AddModel ingests structure data in the given format.  It fails when
	// the surface cannot interpret the data.
	AddModel(data, format string) error

	SetStyle(style Style)

	// AddSurface overlays a solvent-accessible surface with the given
	// opacity.
	AddSurface(opacity float64)

	RemoveAllSurfaces()

	// ZoomTo fits the camera to the loaded geometry.
	ZoomTo()

	Rotate(degrees float64, axis Axis)

	// ResetCamera restores the canonical camera pose.
	ResetCamera()

	Render()
}

// SceneState is what a Scene currently shows.
type SceneState struct {
	Ready    bool             `json:"ready"`
	Models   int              `json:"models"`
	Format   string           `json:"format,omitempty"`
	Style    Style            `json:"style,omitempty"`
	Overlays []float64        `json:"surfaces,omitempty"`
	Rotation map[Axis]float64 `json:"rotation"`
	Fits     int              `json:"fits"`
	Renders  int              `json:"renders"`
}

// Scene is a headless Surface.  It records what a browser renderer would be
// told to draw so that the server can mirror it to clients.  A Scene is not
// ready until Attach is called.
type Scene struct {
	mu       sync.Mutex
	ready    bool
	models   []string
	format   string
	style    Style
	overlays []float64
	rotation map[Axis]float64
	fits     int
	renders  int
}

var _ Surface = (*Scene)(nil)

func NewScene() *Scene {
	return &Scene{rotation: map[Axis]float64{}}
}

// Attach marks the scene ready, as when a client reports its canvas is up.
func (s *Scene) Attach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
}

// Detach marks the scene not ready.
func (s *Scene) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = false
}

func (s *Scene) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *Scene) RemoveAllModels() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = nil
	s.format = ""
}

func (s *Scene) AddModel(data, format string) error {
	if format != "pdb" {
		return errors.Render("unsupported model format").WithDetail(format)
	}
	if analysis.CountAtomRecords(data) == 0 {
		return errors.Render("structure data contains no atoms")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = append(s.models, data)
	s.format = format
	return nil
}

func (s *Scene) SetStyle(style Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.style = style
}

func (s *Scene) AddSurface(opacity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays = append(s.overlays, opacity)
}

func (s *Scene) RemoveAllSurfaces() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays = nil
}

func (s *Scene) ZoomTo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fits++
}

func (s *Scene) Rotate(degrees float64, axis Axis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotation[axis] += degrees
}

func (s *Scene) ResetCamera() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotation = map[Axis]float64{}
}

func (s *Scene) Render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders++
}

// Snapshot returns a copy of the scene's state.
func (s *Scene) Snapshot() SceneState {
	s.mu.Lock()
	defer s.mu.Unlock()
	rot := make(map[Axis]float64, len(s.rotation))
	for k, v := range s.rotation {
		rot[k] = v
	}
	return SceneState{
		Ready:    s.ready,
		Models:   len(s.models),
		Format:   s.format,
		Style:    s.style,
		Overlays: append([]float64(nil), s.overlays...),
		Rotation: rot,
		Fits:     s.fits,
		Renders:  s.renders,
	}
}
