package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/molview/internal/application/analysis"
	"github.com/turtacn/molview/internal/application/presenter"
	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/testutil"
	"github.com/turtacn/molview/pkg/errors"
)

const pdbUpload = "COMPND    MOLECULE: Water;\nHETATM    1  O1  UNL     1       0.000   0.000   0.000  1.00  0.00           O\nEND\n"

func newTestSession(t *testing.T) (*Session, *testutil.FakeClock) {
	t.Helper()
	clk := testutil.NewFakeClock()
	return NewWithID("s-1", Deps{Clock: clk, Logger: testutil.NewMockLogger()}), clk
}

func pdbForm() analysis.Form {
	return analysis.Form{Mode: analysis.ModeFile, File: &analysis.FileUpload{Name: "water.pdb", Content: []byte(pdbUpload)}}
}

func TestSession_AnalyzeLoadsViewer(t *testing.T) {
	s, _ := newTestSession(t)
	s.Scene.Attach()

	res, err := s.Analyze(context.Background(), pdbForm())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Conformer.AtomCount)

	snap := s.Snapshot()
	assert.Equal(t, "s-1", snap.ID)
	assert.False(t, snap.Busy)
	assert.Equal(t, analysis.StageResults, snap.Pipeline.Stage)
	assert.Equal(t, viewer.StateLoaded, snap.Viewer.State)
	assert.Equal(t, "1", snap.Viewer.Info.AtomCount)
	assert.Equal(t, "File", snap.Viewer.Info.Forcefield)
	assert.Equal(t, 1, snap.Scene.Models)
	assert.Equal(t, presenter.VisualActive, snap.Steps[4].Visual)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "PDB file loaded successfully!", snap.Notifications[0].Message)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "Water", snap.Result.Molecule.Descriptors["compound_name"])
}

func TestSession_ViewerWaitsForAttach(t *testing.T) {
	s, clk := newTestSession(t)

	_, err := s.Analyze(context.Background(), pdbForm())
	require.NoError(t, err)
	assert.Equal(t, viewer.StateEmpty, s.Viewer.State().State)
	assert.Equal(t, viewer.BannerNotReady, s.Viewer.Banner())

	s.Scene.Attach()
	clk.Advance(viewer.DefaultRetryDelay)
	assert.Equal(t, viewer.StateLoaded, s.Viewer.State().State)
}

func TestSession_InputErrorsAreNotified(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := s.Analyze(context.Background(), analysis.Form{Mode: analysis.ModeText})
	assert.True(t, errors.IsCode(err, errors.CodeEmptyInput))

	notes := s.Presenter.Notifier.Active()
	require.Len(t, notes, 1)
	assert.Equal(t, presenter.LevelError, notes[0].Level)
	assert.Equal(t, analysis.StageInput, s.Orchestrator.State().Stage)
}

func TestSession_UnsupportedFileFails(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := s.Analyze(context.Background(), analysis.Form{Mode: analysis.ModeFile,
		File: &analysis.FileUpload{Name: "x.mol", Content: []byte("x")}})
	assert.True(t, errors.IsCode(err, errors.CodeCapability))
	assert.True(t, s.Snapshot().Pipeline.Failed)
	assert.Len(t, s.Presenter.Notifier.Active(), 1)
}

func TestSession_ResetClearsViewer(t *testing.T) {
	s, _ := newTestSession(t)
	s.Scene.Attach()
	_, err := s.Analyze(context.Background(), pdbForm())
	require.NoError(t, err)
	s.Viewer.ToggleRotation()

	s.Reset()

	snap := s.Snapshot()
	assert.Equal(t, analysis.StageInput, snap.Pipeline.Stage)
	assert.Nil(t, snap.Result)
	assert.Equal(t, viewer.StateEmpty, snap.Viewer.State)
	assert.False(t, snap.Viewer.Rotating)
	assert.Equal(t, 0, snap.Scene.Models)
	assert.Equal(t, presenter.VisualActive, snap.Steps[0].Visual)
}

func TestSession_Close(t *testing.T) {
	s, clk := newTestSession(t)
	_, err := s.Analyze(context.Background(), pdbForm())
	require.NoError(t, err)

	s.Close()
	assert.Equal(t, 0, clk.Pending())
	assert.Empty(t, s.Presenter.Notifier.Active())
}

func TestContext(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := NewContext(context.Background(), s)

	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, s, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestNew_GeneratesIDs(t *testing.T) {
	a := New(Deps{})
	b := New(Deps{})
	defer a.Close()
	defer b.Close()
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.WithinDuration(t, time.Now(), a.CreatedAt, time.Minute)
}

// gateLogger holds the first "notification shown" debug entry until gate is
// closed, stalling event delivery inside the notifier.
type gateLogger struct {
	logging.Logger
	once    *sync.Once
	entered chan struct{}
	gate    chan struct{}
}

func newGateLogger() *gateLogger {
	return &gateLogger{
		Logger:  testutil.NewMockLogger(),
		once:    &sync.Once{},
		entered: make(chan struct{}),
		gate:    make(chan struct{}),
	}
}

func (g *gateLogger) Debug(msg string, fields ...logging.Field) {
	if msg == "notification shown" {
		first := false
		g.once.Do(func() { first = true })
		if first {
			close(g.entered)
			<-g.gate
		}
	}
	g.Logger.Debug(msg, fields...)
}

func (g *gateLogger) With(fields ...logging.Field) logging.Logger {
	c := *g
	c.Logger = g.Logger.With(fields...)
	return &c
}

func (g *gateLogger) Named(name string) logging.Logger {
	c := *g
	c.Logger = g.Logger.Named(name)
	return &c
}

func TestSession_ResetDuringCompletionDeliveryClearsViewer(t *testing.T) {
	gl := newGateLogger()
	s := NewWithID("s-1", Deps{Clock: testutil.NewFakeClock(), Logger: gl})
	s.Scene.Attach()

	analyzed := make(chan struct{})
	go func() {
		defer close(analyzed)
		_, _ = s.Analyze(context.Background(), pdbForm())
	}()

	select {
	case <-gl.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("completion was never delivered")
	}

	resetDone := make(chan struct{})
	go func() {
		s.Reset()
		close(resetDone)
	}()

	// Reset waits for the completion to finish delivery.
	select {
	case <-resetDone:
		t.Fatal("reset delivered while the completion was still being delivered")
	case <-time.After(50 * time.Millisecond):
	}
	close(gl.gate)

	for _, ch := range []chan struct{}{analyzed, resetDone} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatal("analysis or reset did not finish")
		}
	}

	snap := s.Snapshot()
	assert.Equal(t, analysis.StageInput, snap.Pipeline.Stage)
	assert.Nil(t, snap.Result)
	assert.Equal(t, viewer.StateEmpty, snap.Viewer.State)
	assert.Zero(t, snap.Scene.Models)
	for _, step := range snap.Steps[1:] {
		assert.NotEqual(t, presenter.VisualCompleted, step.Visual, step.Label)
	}
}
