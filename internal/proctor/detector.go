package proctor

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultSampleInterval = 5 * time.Second
	DefaultAbsenceSamples = 3
)

// FrameSource yields the current video frame of the live media stream.
// The detector only reads from it; ownership stays with the session.
type FrameSource interface {
	CurrentFrame() (image.Image, error)
}

// FaceCounter counts faces visible in a frame.
type FaceCounter interface {
	CountFaces(ctx context.Context, frame image.Image) (int, error)
}

// Emitter receives every violation the detector raises.
type Emitter func(ViolationType)

// FaceTracker judges face presence over consecutive samples.
type FaceTracker struct {
	threshold int
	absent    int
}

func NewFaceTracker(threshold int) *FaceTracker {
	if threshold <= 0 {
		threshold = DefaultAbsenceSamples
	}
	return &FaceTracker{threshold: threshold}
}

// Observe records one sample and returns the violation it concludes, if any.
// Absence needs threshold consecutive empty samples; multiple faces are
// conclusive on a single sample.
func (f *FaceTracker) Observe(faces int) (ViolationType, bool) {
	switch {
	case faces <= 0:
		f.absent++
		if f.absent >= f.threshold {
			f.absent = 0
			return NoFaceVisible, true
		}
		return "", false
	case faces > 1:
		f.absent = 0
		return MultipleFacesDetected, true
	default:
		f.absent = 0
		return "", false
	}
}

// Absent returns the current run of empty samples.
func (f *FaceTracker) Absent() int {
	return f.absent
}

func (f *FaceTracker) Reset() {
	f.absent = 0
}

type DetectorConfig struct {
	SampleInterval time.Duration
	AbsenceSamples int
}

// Detector combines the visibility, focus and face-presence signals. It is
// not safe for concurrent use; the owning session drives it from its loop.
type Detector struct {
	logger   *logrus.Logger
	counter  FaceCounter
	emit     Emitter
	tracker  *FaceTracker
	interval time.Duration
	source   FrameSource
	enabled  bool
	samples  int
	// epoch changes on every Enable and Disable so results of samples
	// started under an earlier arming are dropped.
	epoch    uint64
	inFlight bool
}

func NewDetector(cfg DetectorConfig, counter FaceCounter, emit Emitter, logger *logrus.Logger) *Detector {
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultSampleInterval
	}
	return &Detector{
		logger:   logger,
		counter:  counter,
		emit:     emit,
		tracker:  NewFaceTracker(cfg.AbsenceSamples),
		interval: cfg.SampleInterval,
	}
}

// Enable arms every signal against the given frame source.
func (d *Detector) Enable(source FrameSource) {
	d.source = source
	d.enabled = true
	d.samples = 0
	d.epoch++
	d.inFlight = false
	d.tracker.Reset()
}

// Disable disarms every signal and drops the frame source reference.
func (d *Detector) Disable() {
	d.enabled = false
	d.source = nil
	d.epoch++
	d.inFlight = false
	d.tracker.Reset()
}

func (d *Detector) Enabled() bool {
	return d.enabled
}

func (d *Detector) Interval() time.Duration {
	return d.interval
}

// AbsentSamples exposes the face-absence counter.
func (d *Detector) AbsentSamples() int {
	return d.tracker.Absent()
}

// PageHidden handles the visibility signal.
func (d *Detector) PageHidden() {
	if d.enabled {
		d.emit(TabSwitch)
	}
}

// WindowBlurred handles the focus signal.
func (d *Detector) WindowBlurred() {
	if d.enabled {
		d.emit(WindowBlur)
	}
}

// FaceSample is one face-presence check. It is started on the owner's
// loop by NextSample, counted anywhere with Count and folded back into the
// detector with Apply.
type FaceSample struct {
	n       int
	epoch   uint64
	source  FrameSource
	counter FaceCounter
	timeout time.Duration
}

// NextSample starts a sample. It returns false while disarmed or while the
// previous sample is still being counted.
func (d *Detector) NextSample() (*FaceSample, bool) {
	if !d.enabled || d.source == nil || d.counter == nil || d.inFlight {
		return nil, false
	}
	d.samples++
	d.inFlight = true
	return &FaceSample{
		n:       d.samples,
		epoch:   d.epoch,
		source:  d.source,
		counter: d.counter,
		timeout: d.interval,
	}, true
}

// Count reads the current frame and counts its faces within one sample
// interval. A counter that overruns the deadline or panics yields a
// *DetectionError; its goroutine is abandoned.
func (s *FaceSample) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		faces int
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		frame, err := s.source.CurrentFrame()
		if err != nil {
			done <- result{err: err}
			return
		}
		faces, err := s.counter.CountFaces(ctx, frame)
		done <- result{faces: faces, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return 0, &DetectionError{Sample: s.n, Err: r.err}
		}
		return r.faces, nil
	case <-ctx.Done():
		return 0, &DetectionError{Sample: s.n, Err: ctx.Err()}
	}
}

// Apply folds a counted sample into the face tracker. Results of samples
// started before the last Enable or Disable are dropped.
func (d *Detector) Apply(s *FaceSample, faces int, err error) error {
	if s == nil || s.epoch != d.epoch {
		return nil
	}
	d.inFlight = false
	if !d.enabled {
		return nil
	}
	if err != nil {
		d.logger.WithError(err).WithField("sample", s.n).Warn("Face sample skipped")
		return err
	}
	if v, ok := d.tracker.Observe(faces); ok {
		d.logger.WithFields(logrus.Fields{
			"sample":         s.n,
			"faces":          faces,
			"violation_type": v,
		}).Info("Face presence violation")
		d.emit(v)
	}
	return nil
}

// Sample runs one face-presence check to completion on the caller's
// goroutine.
func (d *Detector) Sample(ctx context.Context) error {
	s, ok := d.NextSample()
	if !ok {
		return nil
	}
	faces, err := s.Count(ctx)
	return d.Apply(s, faces, err)
}
