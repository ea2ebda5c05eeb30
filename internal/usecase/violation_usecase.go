package usecase

import (
	"context"
	"strings"

	"github.com/fadilmartias/interview-proctor/internal/metrics"
	"github.com/fadilmartias/interview-proctor/internal/model"
	"github.com/fadilmartias/interview-proctor/internal/proctor"
	"github.com/sirupsen/logrus"
)

type ViolationUsecase struct {
	candidates CandidateStore
	logs       ProctorLogStore
	logger     *logrus.Logger
}

func NewViolationUsecase(candidates CandidateStore, logs ProctorLogStore, logger *logrus.Logger) *ViolationUsecase {
	return &ViolationUsecase{candidates: candidates, logs: logs, logger: logger}
}

// Record appends one violation event to the session's proctor log.
func (uc *ViolationUsecase) Record(ctx context.Context, sessionID, rawType string) error {
	if strings.TrimSpace(sessionID) == "" {
		return invalid("sessionId", "is required")
	}
	vt, err := proctor.ParseViolationType(rawType)
	if err != nil {
		return invalid("type", err.Error())
	}
	id, err := parseSessionID(sessionID)
	if err != nil {
		return err
	}
	if _, err := uc.candidates.FindByID(ctx, id); err != nil {
		return storeErr("find session", err)
	}

	if err := uc.logs.Append(ctx, &model.ProctorLog{CandidateID: id, ViolationType: string(vt)}); err != nil {
		uc.logger.WithError(err).WithField("session_id", sessionID).Error("Append violation failed")
		return &PersistenceError{Op: "append violation", Err: err}
	}

	metrics.ViolationsIngested.WithLabelValues(string(vt)).Inc()
	uc.logger.WithFields(logrus.Fields{
		"session_id":     sessionID,
		"violation_type": vt,
	}).Info("Violation recorded")
	return nil
}
