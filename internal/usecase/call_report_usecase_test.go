package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fadilmartias/interview-proctor/internal/callreport"
	"github.com/fadilmartias/interview-proctor/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func endOfCallReport(sessionID string) []byte {
	return []byte(fmt.Sprintf(`{
  "message": {
    "type": "end-of-call-report",
    "artifact": {
      "variableValues": {"db_id": %q},
      "transcript": "AI: Tell me about Go.\nUser: Goroutines.",
      "recordingUrl": "https://cdn.example.com/call.wav",
      "structuredOutputs": {
        "9f2e": {"name": "Interview_Audit_Report", "result": {
          "final_score": 75, "technical_rating": 8, "communication_rating": 7.4, "coding_logic_rating": 105
        }}
      }
    },
    "analysis": {"summary": "Good fundamentals."}
  }
}`, sessionID))
}

func newCallReportFixture(rows ...*model.Candidate) (*CallReportUsecase, *memCandidates) {
	candidates := newMemCandidates(rows...)
	uc := NewCallReportUsecase(candidates, callreport.NewParser(""), newTestLogger())
	return uc, candidates
}

func TestCallReportUsecase_Completes(t *testing.T) {
	session := &model.Candidate{InterviewStatus: model.StatusInProgress}
	uc, candidates := newCallReportFixture(session)

	outcome, err := uc.Ingest(context.Background(), endOfCallReport(session.ID.String()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)

	got := candidates.get(session.ID)
	assert.Equal(t, model.StatusCompleted, got.InterviewStatus)
	assert.Equal(t, 8, got.FinalScore)
	assert.Equal(t, 8, got.TechnicalRating)
	assert.Equal(t, 7, got.CommunicationRating)
	assert.Equal(t, 10, got.CodingLogicRating)
	assert.Equal(t, "Good fundamentals.", got.Summary)
	assert.Equal(t, "https://cdn.example.com/call.wav", got.RecordingURL)
	assert.NotNil(t, got.CompletedAt)
}

func TestCallReportUsecase_RedeliveryIsIdempotent(t *testing.T) {
	session := &model.Candidate{InterviewStatus: model.StatusInProgress}
	uc, candidates := newCallReportFixture(session)
	first := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return first }

	body := endOfCallReport(session.ID.String())
	_, err := uc.Ingest(context.Background(), body)
	require.NoError(t, err)
	afterFirst := candidates.get(session.ID)

	uc.now = func() time.Time { return first.Add(time.Hour) }
	outcome, err := uc.Ingest(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)
	assert.Equal(t, afterFirst, candidates.get(session.ID))
}

func TestCallReportUsecase_IgnoresOtherEvents(t *testing.T) {
	uc, _ := newCallReportFixture()
	outcome, err := uc.Ingest(context.Background(), []byte(`{"message":{"type":"status-update","status":"in-progress"}}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
}

func TestCallReportUsecase_Errors(t *testing.T) {
	session := &model.Candidate{}
	uc, candidates := newCallReportFixture(session)
	ctx := context.Background()

	_, err := uc.Ingest(ctx, []byte(`{{`))
	assert.ErrorIs(t, err, callreport.ErrMalformedPayload)

	_, err = uc.Ingest(ctx, []byte(`{"message":{"type":"end-of-call-report","artifact":{}}}`))
	var corrErr *callreport.CorrelationError
	assert.ErrorAs(t, err, &corrErr)

	_, err = uc.Ingest(ctx, endOfCallReport(uuid.NewString()))
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = uc.Ingest(ctx, endOfCallReport("legacy-42"))
	assert.ErrorIs(t, err, ErrSessionNotFound)

	candidates.failErr = errStorage
	_, err = uc.Ingest(ctx, endOfCallReport(session.ID.String()))
	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.ErrorIs(t, err, errStorage)
}
