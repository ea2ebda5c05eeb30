package proctor

import (
	"fmt"
	"time"
)

// ViolationType is the wire name of a proctoring breach.
type ViolationType string

const (
	TabSwitch             ViolationType = "TAB_SWITCH"
	WindowBlur            ViolationType = "WINDOW_BLUR"
	NoFaceVisible         ViolationType = "NO_FACE_VISIBLE"
	MultipleFacesDetected ViolationType = "MULTIPLE_FACES_DETECTED"
)

// AllViolationTypes lists every known type in display order.
var AllViolationTypes = []ViolationType{
	MultipleFacesDetected,
	TabSwitch,
	WindowBlur,
	NoFaceVisible,
}

func (t ViolationType) Valid() bool {
	switch t {
	case TabSwitch, WindowBlur, NoFaceVisible, MultipleFacesDetected:
		return true
	}
	return false
}

// ParseViolationType validates a raw type coming from a client.
func ParseViolationType(raw string) (ViolationType, error) {
	t := ViolationType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("unknown violation type %q", raw)
	}
	return t, nil
}

// Violation is one emitted event, before or after persistence.
type Violation struct {
	SessionID string        `json:"sessionId"`
	Type      ViolationType `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
}

// DetectionError wraps a failure inside a single face-presence sample.
type DetectionError struct {
	Sample int
	Err    error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("face detection failed on sample %d: %v", e.Sample, e.Err)
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}
