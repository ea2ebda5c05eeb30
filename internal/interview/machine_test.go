package interview

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/fadilmartias/interview-proctor/internal/proctor"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

type fakeCall struct {
	mu      sync.Mutex
	handler func(CallEvent)
	starts  []CallParams
	stops   int
	failErr error
}

func (c *fakeCall) Start(ctx context.Context, params CallParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failErr != nil {
		return c.failErr
	}
	c.starts = append(c.starts, params)
	return nil
}

func (c *fakeCall) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	return nil
}

func (c *fakeCall) OnEvent(handler func(CallEvent)) {
	c.handler = handler
}

func (c *fakeCall) emit(ev CallEvent) {
	c.handler(ev)
}

func (c *fakeCall) stopCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

type fakeStream struct {
	mu     sync.Mutex
	closed int
}

func (s *fakeStream) CurrentFrame() (image.Image, error) {
	return image.NewGray(image.Rect(0, 0, 2, 2)), nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeStream) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeMedia struct {
	mu      sync.Mutex
	opened  []*fakeStream
	denyErr error
}

func (m *fakeMedia) Open(ctx context.Context) (MediaStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denyErr != nil {
		return nil, m.denyErr
	}
	s := &fakeStream{}
	m.opened = append(m.opened, s)
	return s, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	started int
	stopped int
	blob    []byte
}

func (r *fakeRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
	return nil
}

func (r *fakeRecorder) Stop() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped++
	return r.blob, nil
}

type fakeUploader struct {
	mu       sync.Mutex
	uploaded map[string][]byte
	err      error
}

func (u *fakeUploader) UploadRecording(ctx context.Context, sessionID string, data []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return u.err
	}
	if u.uploaded == nil {
		u.uploaded = make(map[string][]byte)
	}
	u.uploaded[sessionID] = data
	return nil
}

type constantFaces struct {
	n int
}

func (c constantFaces) CountFaces(ctx context.Context, frame image.Image) (int, error) {
	return c.n, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []proctor.Violation
}

func (s *recordingSink) LogViolation(ctx context.Context, v proctor.Violation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, v)
	return nil
}

func (s *recordingSink) types() []proctor.ViolationType {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []proctor.ViolationType
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	call     *fakeCall
	media    *fakeMedia
	recorder *fakeRecorder
	uploader *fakeUploader
	sink     *recordingSink
	machine  *Machine
}

func newFixture(t *testing.T, cfg Config, faces int, opts ...func(*Deps)) *fixture {
	t.Helper()
	f := &fixture{
		call:     &fakeCall{},
		media:    &fakeMedia{},
		recorder: &fakeRecorder{blob: []byte("webm-bytes")},
		uploader: &fakeUploader{},
		sink:     &recordingSink{},
	}
	if cfg.SampleInterval == 0 {
		cfg.SampleInterval = time.Hour
	}
	deps := Deps{
		Call:  f.call,
		Media: f.media,
		NewRecorder: func(stream MediaStream) (Recorder, error) {
			return f.recorder, nil
		},
		Uploader:   f.uploader,
		Faces:      constantFaces{n: faces},
		Violations: f.sink,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.machine = NewMachine(cfg, deps, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go f.machine.Run(ctx)
	t.Cleanup(cancel)
	return f
}

func (f *fixture) startActive(t *testing.T) {
	t.Helper()
	require.NoError(t, f.machine.Prepare("session-1", "Ada"))
	require.Equal(t, Ready, f.machine.State())
	require.NoError(t, f.machine.Start(context.Background()))
	require.Equal(t, Active, f.machine.State())
}

func TestMachine_HappyPathThroughEndPhrase(t *testing.T) {
	f := newFixture(t, Config{}, 1)
	f.startActive(t)

	require.Len(t, f.media.opened, 1)
	assert.Equal(t, 1, f.recorder.started)
	require.Len(t, f.call.starts, 1)
	assert.Equal(t, "session-1", f.call.starts[0].Variables()["db_id"])

	f.call.emit(CallEvent{Kind: CallMessage, Text: "Great. THIS CONCLUDES THE INTERVIEW, goodbye."})

	assert.Eventually(t, func() bool { return f.machine.State() == Completed }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.call.stopCount())
	assert.Equal(t, 1, f.recorder.stopped)
	assert.Equal(t, 1, f.media.opened[0].closeCount())
	assert.Equal(t, []byte("webm-bytes"), f.uploader.uploaded["session-1"])
}

func TestMachine_EndPhraseIsIdempotent(t *testing.T) {
	block := make(chan struct{})
	var mu sync.Mutex
	var transitions []State
	cfg := Config{OnTransition: func(from, to State) {
		mu.Lock()
		transitions = append(transitions, to)
		mu.Unlock()
	}}
	// hold the machine in Processing until every end signal is delivered
	f := newFixture(t, cfg, 1, func(d *Deps) {
		d.Uploader = uploaderFunc(func(ctx context.Context, id string, data []byte) error {
			<-block
			return nil
		})
	})
	f.startActive(t)

	f.call.emit(CallEvent{Kind: CallMessage, Text: "this concludes the interview"})
	f.call.emit(CallEvent{Kind: CallMessage, Text: "this concludes the interview"})
	f.call.emit(CallEvent{Kind: CallEnded})

	assert.Eventually(t, func() bool { return f.machine.State() == Processing }, time.Second, 5*time.Millisecond)
	close(block)
	assert.Eventually(t, func() bool { return f.machine.State() == Completed }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, f.call.stopCount())
	assert.Equal(t, 1, f.recorder.stopped)
	mu.Lock()
	assert.Equal(t, []State{Ready, Active, Processing, Completed}, transitions)
	mu.Unlock()
}

type uploaderFunc func(ctx context.Context, sessionID string, data []byte) error

func (f uploaderFunc) UploadRecording(ctx context.Context, sessionID string, data []byte) error {
	return f(ctx, sessionID, data)
}

func TestMachine_CallEndWithoutPhrase(t *testing.T) {
	f := newFixture(t, Config{}, 1)
	f.startActive(t)

	f.call.emit(CallEvent{Kind: CallError, Text: BenignEndError})
	f.call.emit(CallEvent{Kind: CallEnded})

	assert.Eventually(t, func() bool { return f.machine.State() == Completed }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, f.call.stopCount(), "provider already ended the call")
}

func TestMachine_UploadFailureStillCompletes(t *testing.T) {
	f := newFixture(t, Config{}, 1)
	f.uploader.err = errors.New("bucket unavailable")
	f.startActive(t)

	f.call.emit(CallEvent{Kind: CallEnded})
	assert.Eventually(t, func() bool { return f.machine.State() == Completed }, time.Second, 5*time.Millisecond)
}

func TestMachine_EmptyRecordingStillCompletes(t *testing.T) {
	f := newFixture(t, Config{}, 1)
	f.recorder.blob = nil
	f.startActive(t)

	f.call.emit(CallEvent{Kind: CallEnded})
	assert.Eventually(t, func() bool { return f.machine.State() == Completed }, time.Second, 5*time.Millisecond)
	assert.Empty(t, f.uploader.uploaded)
}

func TestMachine_MediaDeniedReturnsToIdle(t *testing.T) {
	f := newFixture(t, Config{}, 1)
	f.media.denyErr = errors.New("NotAllowedError")

	require.NoError(t, f.machine.Prepare("session-1", "Ada"))
	err := f.machine.Start(context.Background())

	var mediaErr *MediaAccessError
	require.ErrorAs(t, err, &mediaErr)
	assert.Equal(t, Idle, f.machine.State())
	assert.Empty(t, f.call.starts)
}

func TestMachine_CallStartFailureReleasesMedia(t *testing.T) {
	f := newFixture(t, Config{}, 1)
	f.call.failErr = errors.New("invalid assistant")

	require.NoError(t, f.machine.Prepare("session-1", "Ada"))
	require.Error(t, f.machine.Start(context.Background()))

	assert.Equal(t, Idle, f.machine.State())
	require.Len(t, f.media.opened, 1)
	assert.Equal(t, 1, f.media.opened[0].closeCount())
	assert.Equal(t, 1, f.recorder.stopped)
}

func TestMachine_SDKErrorAbortsActiveSession(t *testing.T) {
	f := newFixture(t, Config{}, 1)
	f.startActive(t)

	f.call.emit(CallEvent{Kind: CallError, Text: "ejected: transport failure"})
	assert.Eventually(t, func() bool { return f.machine.State() == Idle }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.media.opened[0].closeCount())
}

func TestMachine_CloseReleasesActiveResources(t *testing.T) {
	f := newFixture(t, Config{}, 1)
	f.startActive(t)

	require.NoError(t, f.machine.Close())

	assert.Equal(t, 1, f.media.opened[0].closeCount())
	assert.Equal(t, 1, f.recorder.stopped)
	assert.Equal(t, 1, f.call.stopCount())
	assert.Equal(t, Idle, f.machine.State())
	assert.ErrorIs(t, f.machine.Prepare("session-2", "Bob"), ErrMachineStopped)
}

func TestMachine_InvalidTransitions(t *testing.T) {
	f := newFixture(t, Config{}, 1)

	assert.ErrorIs(t, f.machine.Start(context.Background()), ErrInvalidTransition)
	assert.ErrorIs(t, f.machine.Prepare("", "Ada"), ErrInvalidTransition)

	f.startActive(t)
	assert.ErrorIs(t, f.machine.Prepare("session-2", "Bob"), ErrInvalidTransition)
}

func TestMachine_OneActiveCallPerGuard(t *testing.T) {
	guard := &CallGuard{}
	shared := func(d *Deps) { d.Guard = guard }
	first := newFixture(t, Config{}, 1, shared)
	second := newFixture(t, Config{}, 1, shared)

	first.startActive(t)
	require.NoError(t, second.machine.Prepare("session-2", "Bob"))
	assert.ErrorIs(t, second.machine.Start(context.Background()), ErrCallInProgress)

	first.call.emit(CallEvent{Kind: CallEnded})
	assert.Eventually(t, func() bool { return first.machine.State() == Completed }, time.Second, 5*time.Millisecond)
	assert.NoError(t, second.machine.Start(context.Background()))
}

func TestMachine_ViolationsOnlyWhileActive(t *testing.T) {
	f := newFixture(t, Config{}, 1)

	require.NoError(t, f.machine.Prepare("session-1", "Ada"))
	f.machine.PageHidden()
	f.machine.WindowBlurred()

	require.NoError(t, f.machine.Start(context.Background()))
	f.machine.PageHidden()
	f.machine.WindowBlurred()

	assert.Eventually(t, func() bool { return len(f.sink.types()) == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []proctor.ViolationType{proctor.TabSwitch, proctor.WindowBlur}, f.sink.types())
}

func TestMachine_FaceSamplingEmitsNoFace(t *testing.T) {
	f := newFixture(t, Config{SampleInterval: 5 * time.Millisecond, AbsenceSamples: 3}, 0)
	f.startActive(t)

	assert.Eventually(t, func() bool {
		for _, v := range f.sink.types() {
			if v == proctor.NoFaceVisible {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	// cooldown keeps the persisted count at one
	time.Sleep(50 * time.Millisecond)
	count := 0
	for _, v := range f.sink.types() {
		if v == proctor.NoFaceVisible {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

// stuckFaces blocks every count until released and reports each entry.
type stuckFaces struct {
	entered chan struct{}
	release chan struct{}
}

func (s *stuckFaces) CountFaces(ctx context.Context, frame image.Image) (int, error) {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release
	return 1, nil
}

func TestMachine_SlowFaceCountDoesNotBlockClose(t *testing.T) {
	faces := &stuckFaces{entered: make(chan struct{}, 1), release: make(chan struct{})}
	defer close(faces.release)
	f := newFixture(t, Config{SampleInterval: 5 * time.Millisecond}, 1, func(d *Deps) {
		d.Faces = faces
	})
	f.startActive(t)

	select {
	case <-faces.entered:
	case <-time.After(time.Second):
		t.Fatal("face sample never started")
	}

	closed := make(chan error, 1)
	go func() { closed <- f.machine.Close() }()
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Close waited for a face sample")
	}
	assert.Equal(t, 1, f.media.opened[0].closeCount())
	assert.Equal(t, 1, f.call.stopCount())
	assert.Equal(t, Idle, f.machine.State())
}

func TestMachine_SlowFaceCountDoesNotBlockEndPhrase(t *testing.T) {
	faces := &stuckFaces{entered: make(chan struct{}, 1), release: make(chan struct{})}
	defer close(faces.release)
	f := newFixture(t, Config{SampleInterval: 5 * time.Millisecond}, 1, func(d *Deps) {
		d.Faces = faces
	})
	f.startActive(t)
	<-faces.entered

	f.call.emit(CallEvent{Kind: CallMessage, Text: "this concludes the interview"})
	assert.Eventually(t, func() bool { return f.machine.State() == Completed }, 500*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 1, f.call.stopCount())
}
