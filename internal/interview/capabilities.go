package interview

import (
	"context"
	"fmt"

	"github.com/fadilmartias/interview-proctor/internal/proctor"
)

type CallEventKind string

const (
	CallStarted CallEventKind = "call-start"
	CallEnded   CallEventKind = "call-end"
	CallMessage CallEventKind = "message"
	CallError   CallEventKind = "error"
)

// BenignEndError is reported by the voice SDK after a normal hang-up.
const BenignEndError = "Meeting has ended"

// CallEvent is one emission of the voice SDK. Text carries streamed
// transcript for CallMessage and the error message for CallError.
type CallEvent struct {
	Kind CallEventKind
	Text string
}

type CallParams struct {
	SessionID     string
	CandidateName string
}

// Variables are the assistant variable values the call report echoes back.
func (p CallParams) Variables() map[string]string {
	return map[string]string{
		"name":  p.CandidateName,
		"db_id": p.SessionID,
	}
}

// CallClient is the voice SDK.
type CallClient interface {
	Start(ctx context.Context, params CallParams) error
	Stop() error
	OnEvent(handler func(CallEvent))
}

// MediaStream is the camera and microphone handle of a live session.
type MediaStream interface {
	proctor.FrameSource
	Close() error
}

type MediaDevices interface {
	Open(ctx context.Context) (MediaStream, error)
}

// Recorder buffers the local recording of a stream.
type Recorder interface {
	Start() error
	Stop() ([]byte, error)
}

type RecorderFactory func(stream MediaStream) (Recorder, error)

type RecordingUploader interface {
	UploadRecording(ctx context.Context, sessionID string, data []byte) error
}

// StatusReporter tells the server about client-side progress. Optional.
type StatusReporter interface {
	ReportStatus(ctx context.Context, sessionID, status string) error
}

// MediaAccessError means the camera or microphone could not be opened.
type MediaAccessError struct {
	Err error
}

func (e *MediaAccessError) Error() string {
	return fmt.Sprintf("media access denied: %v", e.Err)
}

func (e *MediaAccessError) Unwrap() error {
	return e.Err
}

// UploadError means the local recording was lost. It is never fatal.
type UploadError struct {
	SessionID string
	Err       error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("recording upload for session %s failed: %v", e.SessionID, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
