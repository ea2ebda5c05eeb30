package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/fadilmartias/interview-proctor/internal/proctor"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// InterviewClient is the candidate-side client of the interview API. It
// backs the session state machine as its violation sink, recording
// uploader and status reporter.
type InterviewClient struct {
	client *resty.Client
}

func NewInterviewClient(baseURL string, timeout time.Duration) *InterviewClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &InterviewClient{client: client}
}

func (c *InterviewClient) LogViolation(ctx context.Context, v proctor.Violation) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"sessionId": v.SessionID,
			"type":      string(v.Type),
		}).
		Post("/api/proctor-log")
	return checkResponse("log violation", resp, err)
}

func (c *InterviewClient) UploadRecording(ctx context.Context, sessionID string, data []byte) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", sessionID).
		SetFileReader("recording", "recording.webm", bytes.NewReader(data)).
		Post("/api/sessions/{id}/recording")
	return checkResponse("upload recording", resp, err)
}

func (c *InterviewClient) ReportStatus(ctx context.Context, sessionID, status string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", sessionID).
		SetBody(map[string]string{"status": status}).
		Post("/api/sessions/{id}/status")
	return checkResponse("report status", resp, err)
}

func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		msg := gjson.GetBytes(resp.Body(), "message").String()
		if msg == "" {
			msg = resp.Status()
		}
		return fmt.Errorf("%s: server returned %d: %s", op, resp.StatusCode(), msg)
	}
	return nil
}
