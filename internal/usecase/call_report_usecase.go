package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fadilmartias/interview-proctor/internal/callreport"
	"github.com/fadilmartias/interview-proctor/internal/metrics"
	"github.com/fadilmartias/interview-proctor/internal/repository"
	"github.com/sirupsen/logrus"
)

type IngestOutcome string

const (
	OutcomeIgnored   IngestOutcome = "ignored"
	OutcomeCompleted IngestOutcome = "completed"
)

// CallReportUsecase finalizes a session from the voice provider's
// end-of-call report. Delivery is at-least-once; every successful ingest
// overwrites the same fields with the same values.
type CallReportUsecase struct {
	candidates CandidateStore
	parser     *callreport.Parser
	logger     *logrus.Logger
	now        func() time.Time
}

func NewCallReportUsecase(candidates CandidateStore, parser *callreport.Parser, logger *logrus.Logger) *CallReportUsecase {
	return &CallReportUsecase{candidates: candidates, parser: parser, logger: logger, now: time.Now}
}

func (uc *CallReportUsecase) Ingest(ctx context.Context, body []byte) (IngestOutcome, error) {
	eventType, err := callreport.EventType(body)
	if err != nil {
		metrics.CallReports.WithLabelValues("malformed").Inc()
		return "", err
	}
	if eventType != callreport.EndOfCallType {
		metrics.CallReports.WithLabelValues(string(OutcomeIgnored)).Inc()
		uc.logger.WithField("event_type", eventType).Debug("Ignoring call event")
		return OutcomeIgnored, nil
	}

	report, err := uc.parser.Parse(body)
	if err != nil {
		var corrErr *callreport.CorrelationError
		if errors.As(err, &corrErr) {
			metrics.CallReports.WithLabelValues("uncorrelated").Inc()
			uc.logger.WithField("tried", corrErr.Tried).Warn("Call report without session id")
		}
		return "", err
	}

	log := uc.logger.WithField("session_id", report.SessionID)
	id, err := parseSessionID(report.SessionID)
	if err != nil {
		metrics.CallReports.WithLabelValues("unknown_session").Inc()
		log.Warn("Call report for unknown session")
		return "", err
	}

	err = uc.candidates.CompleteSession(ctx, id, repository.Completion{
		Transcript:          report.Transcript,
		Summary:             report.Summary,
		RecordingURL:        report.RecordingURL,
		FinalScore:          report.Ratings.Final,
		TechnicalRating:     report.Ratings.Technical,
		CommunicationRating: report.Ratings.Communication,
		CodingLogicRating:   report.Ratings.CodingLogic,
		At:                  uc.now(),
	})
	if err != nil {
		err = storeErr("complete session", err)
		if errors.Is(err, ErrSessionNotFound) {
			metrics.CallReports.WithLabelValues("unknown_session").Inc()
			log.Warn("Call report for unknown session")
		} else {
			metrics.CallReports.WithLabelValues("persistence_error").Inc()
			log.WithError(err).Error("Persist call report failed")
		}
		return "", err
	}

	metrics.CallReports.WithLabelValues(string(OutcomeCompleted)).Inc()
	log.WithFields(logrus.Fields{
		"final_score": report.Ratings.Final,
		"technical":   report.Ratings.Technical,
	}).Info("Session completed from call report")
	return OutcomeCompleted, nil
}
