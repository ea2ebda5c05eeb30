package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fadilmartias/interview-proctor/internal/config"
	"github.com/fadilmartias/interview-proctor/internal/metrics"
	"github.com/fadilmartias/interview-proctor/internal/proctor"
	"github.com/sirupsen/logrus"
)

type State int32

const (
	Idle State = iota
	Ready
	Active
	Processing
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Active:
		return "active"
	case Processing:
		return "processing"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

const (
	DefaultEndPhrase     = "this concludes the interview"
	DefaultUploadTimeout = 2 * time.Minute
	eventBuffer          = 64
)

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrCallInProgress    = errors.New("another call is already active")
	ErrMachineStopped    = errors.New("session machine stopped")
)

// CallGuard allows one active call per browser context. Share one guard
// between machines of the same context.
type CallGuard struct {
	mu    sync.Mutex
	owner *Machine
}

func (g *CallGuard) acquire(m *Machine) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.owner != nil && g.owner != m {
		return false
	}
	g.owner = m
	return true
}

func (g *CallGuard) release(m *Machine) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.owner == m {
		g.owner = nil
	}
}

type Config struct {
	EndPhrase      string
	SampleInterval time.Duration
	AbsenceSamples int
	Cooldown       time.Duration
	UploadTimeout  time.Duration
	// OnTransition runs on the machine loop after every state change.
	OnTransition func(from, to State)
}

// ConfigFrom copies the proctoring settings loaded from the environment.
func ConfigFrom(pc *config.ProctorConfig) Config {
	return Config{
		EndPhrase:      pc.EndPhrase,
		SampleInterval: pc.SampleInterval,
		AbsenceSamples: pc.AbsenceSamples,
		Cooldown:       pc.Cooldown,
	}
}

type Deps struct {
	Call        CallClient
	Media       MediaDevices
	NewRecorder RecorderFactory
	Uploader    RecordingUploader
	Faces       proctor.FaceCounter
	Violations  proctor.Sink
	Status      StatusReporter
	Guard       *CallGuard
}

type event interface{}

type prepareCmd struct {
	sessionID string
	name      string
	reply     chan error
}

type startCmd struct {
	ctx   context.Context
	reply chan error
}

type closeCmd struct {
	reply chan error
}

type sdkEvent struct {
	ev CallEvent
}

type pageHidden struct{}

type windowBlurred struct{}

type faceResult struct {
	sample *proctor.FaceSample
	faces  int
	err    error
}

type uploadDone struct {
	sessionID string
	err       error
}

// Machine drives one interview session. All transitions run on the single
// goroutine started by Run; public methods only enqueue events.
type Machine struct {
	cfg    Config
	deps   Deps
	logger *logrus.Logger

	events chan event
	done   chan struct{}
	state  atomic.Int32
	idMu   sync.RWMutex

	// owned by the loop
	sessionID  string
	name       string
	stream     MediaStream
	recorder   Recorder
	detector   *proctor.Detector
	violations *proctor.Logger
	ticker     *time.Ticker
	// canceled when monitoring stops, abandoning samples still counting
	sampleCtx     context.Context
	cancelSamples context.CancelFunc
	background    sync.WaitGroup
}

func NewMachine(cfg Config, deps Deps, logger *logrus.Logger) *Machine {
	if cfg.EndPhrase == "" {
		cfg.EndPhrase = DefaultEndPhrase
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}
	if deps.Guard == nil {
		deps.Guard = &CallGuard{}
	}
	m := &Machine{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		events: make(chan event, eventBuffer),
		done:   make(chan struct{}),
	}
	m.detector = proctor.NewDetector(proctor.DetectorConfig{
		SampleInterval: cfg.SampleInterval,
		AbsenceSamples: cfg.AbsenceSamples,
	}, deps.Faces, m.emitViolation, logger)
	deps.Call.OnEvent(func(ev CallEvent) {
		m.post(sdkEvent{ev: ev})
	})
	return m
}

// State is safe to call from any goroutine.
func (m *Machine) State() State {
	return State(m.state.Load())
}

func (m *Machine) SessionID() string {
	return m.sessionIDSnapshot()
}

// Run processes events until ctx is canceled or Close is called.
func (m *Machine) Run(ctx context.Context) {
	defer close(m.done)
	for {
		var tick <-chan time.Time
		if m.ticker != nil {
			tick = m.ticker.C
		}
		select {
		case <-ctx.Done():
			m.teardown()
			return
		case <-tick:
			m.startFaceSample()
		case ev := <-m.events:
			if c, ok := ev.(closeCmd); ok {
				m.teardown()
				c.reply <- nil
				return
			}
			m.handle(ev)
		}
	}
}

// Prepare binds the session created by resume processing.
func (m *Machine) Prepare(sessionID, candidateName string) error {
	reply := make(chan error, 1)
	return m.call(prepareCmd{sessionID: sessionID, name: candidateName, reply: reply}, reply)
}

// Start opens media, starts the recorder and places the call.
func (m *Machine) Start(ctx context.Context) error {
	reply := make(chan error, 1)
	return m.call(startCmd{ctx: ctx, reply: reply}, reply)
}

// Close tears the session down and stops the loop. Camera, microphone,
// recorder and call are released before Close returns; an upload already
// in flight keeps running in the background.
func (m *Machine) Close() error {
	reply := make(chan error, 1)
	return m.call(closeCmd{reply: reply}, reply)
}

// PageHidden feeds the visibility signal.
func (m *Machine) PageHidden() {
	m.post(pageHidden{})
}

// WindowBlurred feeds the focus signal.
func (m *Machine) WindowBlurred() {
	m.post(windowBlurred{})
}

// WaitBackground blocks until pending uploads and status reports have
// returned.
func (m *Machine) WaitBackground() {
	m.background.Wait()
}

func (m *Machine) call(ev event, reply chan error) error {
	if !m.post(ev) {
		return ErrMachineStopped
	}
	select {
	case err := <-reply:
		return err
	case <-m.done:
		select {
		case err := <-reply:
			return err
		default:
			return ErrMachineStopped
		}
	}
}

func (m *Machine) post(ev event) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.events <- ev:
		return true
	case <-m.done:
		return false
	}
}

func (m *Machine) handle(ev event) {
	switch e := ev.(type) {
	case prepareCmd:
		e.reply <- m.prepare(e.sessionID, e.name)
	case startCmd:
		e.reply <- m.start(e.ctx)
	case sdkEvent:
		m.onCallEvent(e.ev)
	case pageHidden:
		m.detector.PageHidden()
	case windowBlurred:
		m.detector.WindowBlurred()
	case faceResult:
		_ = m.detector.Apply(e.sample, e.faces, e.err)
	case uploadDone:
		m.onUploadDone(e)
	}
}

func (m *Machine) sessionIDSnapshot() string {
	m.idMu.RLock()
	defer m.idMu.RUnlock()
	return m.sessionID
}

func (m *Machine) setSession(id, name string) {
	m.idMu.Lock()
	m.sessionID = id
	m.idMu.Unlock()
	m.name = name
}

func (m *Machine) transition(to State) {
	from := m.State()
	if from == to {
		return
	}
	m.state.Store(int32(to))
	metrics.SessionTransitions.WithLabelValues(from.String(), to.String()).Inc()
	m.log().WithFields(logrus.Fields{"from": from, "to": to}).Info("Session transition")
	if m.cfg.OnTransition != nil {
		m.cfg.OnTransition(from, to)
	}
}

func (m *Machine) log() *logrus.Entry {
	return m.logger.WithField("session_id", m.sessionID)
}

func (m *Machine) prepare(sessionID, name string) error {
	switch m.State() {
	case Idle, Completed:
	default:
		return fmt.Errorf("%w: prepare while %s", ErrInvalidTransition, m.State())
	}
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: empty session id", ErrInvalidTransition)
	}
	m.setSession(sessionID, name)
	m.transition(Ready)
	m.reportStatus("Ready")
	return nil
}

func (m *Machine) start(ctx context.Context) error {
	if m.State() != Ready {
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, m.State())
	}
	if !m.deps.Guard.acquire(m) {
		return ErrCallInProgress
	}

	stream, err := m.deps.Media.Open(ctx)
	if err != nil {
		m.deps.Guard.release(m)
		m.transition(Idle)
		merr := &MediaAccessError{Err: err}
		m.log().WithError(merr).Warn("Could not open camera or microphone")
		return merr
	}
	m.stream = stream

	rec, err := m.deps.NewRecorder(stream)
	if err == nil {
		err = rec.Start()
	}
	if err != nil {
		m.abort("recorder failed to start")
		return fmt.Errorf("start recorder: %w", err)
	}
	m.recorder = rec

	if err := m.deps.Call.Start(ctx, CallParams{SessionID: m.sessionID, CandidateName: m.name}); err != nil {
		m.abort("call failed to start")
		return fmt.Errorf("start call: %w", err)
	}

	m.violations = proctor.NewLogger(m.sessionID, m.deps.Violations, proctor.LoggerConfig{
		Cooldowns: proctor.DefaultCooldowns(m.cfg.Cooldown),
	}, m.logger)
	m.detector.Enable(stream)
	m.ticker = time.NewTicker(m.detector.Interval())
	m.sampleCtx, m.cancelSamples = context.WithCancel(context.Background())
	m.transition(Active)
	m.reportStatus("InProgress")
	return nil
}

func (m *Machine) emitViolation(t proctor.ViolationType) {
	if m.violations == nil {
		return
	}
	m.violations.Log(t)
}

func (m *Machine) onCallEvent(ev CallEvent) {
	switch ev.Kind {
	case CallStarted:
		m.log().Debug("Call started")
	case CallMessage:
		if m.State() == Active && containsFold(ev.Text, m.cfg.EndPhrase) {
			m.log().Info("End phrase detected in transcript")
			m.enterProcessing(true)
		}
	case CallEnded:
		m.enterProcessing(false)
	case CallError:
		if ev.Text == BenignEndError {
			return
		}
		switch m.State() {
		case Ready, Active:
			m.log().WithField("error", ev.Text).Error("Call failed")
			m.abort("call error")
		}
	}
}

// enterProcessing finalizes the local capture. It only acts from Active so
// repeated end signals are no-ops.
func (m *Machine) enterProcessing(stopCall bool) {
	if m.State() != Active {
		return
	}
	m.transition(Processing)
	m.stopMonitoring()

	var blob []byte
	var recErr error
	if m.recorder != nil {
		blob, recErr = m.recorder.Stop()
		m.recorder = nil
	}
	m.releaseStream()
	if stopCall {
		m.stopCall()
	}
	m.deps.Guard.release(m)

	sessionID := m.sessionID
	if recErr != nil || len(blob) == 0 {
		if recErr == nil {
			recErr = errors.New("empty recording")
		}
		m.handle(uploadDone{sessionID: sessionID, err: recErr})
		return
	}

	m.background.Add(1)
	go func() {
		defer m.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.UploadTimeout)
		defer cancel()
		err := m.deps.Uploader.UploadRecording(ctx, sessionID, blob)
		m.post(uploadDone{sessionID: sessionID, err: err})
	}()
}

func (m *Machine) onUploadDone(e uploadDone) {
	if e.err != nil {
		uerr := &UploadError{SessionID: e.sessionID, Err: e.err}
		m.log().WithError(uerr).Warn("Recording lost")
	}
	if m.State() == Processing && e.sessionID == m.sessionID {
		m.transition(Completed)
	}
}

// abort returns to Idle releasing everything the session holds.
func (m *Machine) abort(reason string) {
	m.log().WithField("reason", reason).Warn("Aborting session")
	m.stopMonitoring()
	if m.recorder != nil {
		_, _ = m.recorder.Stop()
		m.recorder = nil
	}
	m.releaseStream()
	m.stopCall()
	m.deps.Guard.release(m)
	m.transition(Idle)
}

func (m *Machine) teardown() {
	switch m.State() {
	case Ready, Active:
		m.abort("teardown")
	}
}

// startFaceSample counts faces off the loop; the result comes back as a
// faceResult event.
func (m *Machine) startFaceSample() {
	sample, ok := m.detector.NextSample()
	if !ok {
		return
	}
	ctx := m.sampleCtx
	go func() {
		faces, err := sample.Count(ctx)
		m.post(faceResult{sample: sample, faces: faces, err: err})
	}()
}

func (m *Machine) stopMonitoring() {
	m.detector.Disable()
	if m.cancelSamples != nil {
		m.cancelSamples()
		m.cancelSamples = nil
	}
	if m.ticker != nil {
		m.ticker.Stop()
		m.ticker = nil
	}
}

func (m *Machine) releaseStream() {
	if m.stream == nil {
		return
	}
	if err := m.stream.Close(); err != nil {
		m.log().WithError(err).Warn("Media stream close failed")
	}
	m.stream = nil
}

func (m *Machine) stopCall() {
	if err := m.deps.Call.Stop(); err != nil {
		m.log().WithError(err).Warn("Call stop failed")
	}
}

func (m *Machine) reportStatus(status string) {
	if m.deps.Status == nil {
		return
	}
	sessionID := m.sessionID
	m.background.Add(1)
	go func() {
		defer m.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.deps.Status.ReportStatus(ctx, sessionID, status); err != nil {
			m.logger.WithError(err).WithFields(logrus.Fields{
				"session_id": sessionID,
				"status":     status,
			}).Warn("Status report failed")
		}
	}()
}

func containsFold(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(phrase))
}
