package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fadilmartias/interview-proctor/internal/dto"
	"github.com/fadilmartias/interview-proctor/internal/metrics"
	"github.com/fadilmartias/interview-proctor/internal/model"
	"github.com/fadilmartias/interview-proctor/internal/proctor"
	"github.com/fadilmartias/interview-proctor/internal/response"
	"github.com/fadilmartias/interview-proctor/internal/scoring"
	"github.com/fadilmartias/interview-proctor/internal/service"
	"github.com/fadilmartias/interview-proctor/internal/util"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
)

const (
	resumeExcerptLength = 1000
	defaultPageSize     = 20
	maxPageSize         = 100
	notifyTimeout       = 15 * time.Second
)

var ErrUnauthenticated = errors.New("please sign in")

type CandidateDeps struct {
	Candidates CandidateStore
	Logs       ProctorLogStore
	Roles      RoleStore
	Gemini     service.GeminiServiceInterface
	Notifier   service.NotifyServiceInterface
	UploadDir  string
	BaseURL    string
}

type CandidateUsecase struct {
	candidates CandidateStore
	logs       ProctorLogStore
	roles      RoleStore
	gemini     service.GeminiServiceInterface
	notifier   service.NotifyServiceInterface
	uploadDir  string
	baseURL    string
	extract    func(fileName string, data []byte) (string, error)
	logger     *logrus.Logger

	background sync.WaitGroup
}

func NewCandidateUsecase(deps CandidateDeps, logger *logrus.Logger) *CandidateUsecase {
	return &CandidateUsecase{
		candidates: deps.Candidates,
		logs:       deps.Logs,
		roles:      deps.Roles,
		gemini:     deps.Gemini,
		notifier:   deps.Notifier,
		uploadDir:  deps.UploadDir,
		baseURL:    strings.TrimRight(deps.BaseURL, "/"),
		extract:    util.ExtractDocumentText,
		logger:     logger,
	}
}

// ProcessResume turns an uploaded resume into a Scheduled session.
func (uc *CandidateUsecase) ProcessResume(ctx context.Context, userID, fileName string, data []byte) (*dto.ResumeResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}

	text, err := uc.extract(fileName, data)
	if err != nil {
		if errors.Is(err, util.ErrUnsupportedDocument) || errors.Is(err, util.ErrEmptyDocument) {
			return nil, invalid("resume", err.Error())
		}
		return nil, fmt.Errorf("extract resume text: %w", err)
	}

	email, phone := util.ExtractContact(text)
	analysis, err := uc.gemini.AnalyzeResume(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("analyze resume: %w", err)
	}

	candidate := &model.Candidate{
		UserID:          userID,
		Name:            strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName)),
		Email:           email,
		Phone:           phone,
		ResumeText:      util.Truncate(text, resumeExcerptLength),
		AIResult:        analysis.Experience,
		Skills:          analysis.Skills,
		FocusAreas:      analysis.FocusAreas,
		Seniority:       analysis.Seniority,
		InterviewStatus: model.StatusScheduled,
		SelectionStatus: model.SelectionPending,
	}
	uc.matchRole(ctx, candidate, text)

	if err := uc.candidates.Create(ctx, candidate); err != nil {
		return nil, &PersistenceError{Op: "create candidate", Err: err}
	}

	uc.logger.WithFields(logrus.Fields{
		"session_id": candidate.ID,
		"seniority":  candidate.Seniority,
		"role":       candidate.MatchedRole,
	}).Info("Resume processed")

	return &dto.ResumeResult{
		SessionID:  candidate.ID,
		Name:       candidate.Name,
		Skills:     analysis.Skills,
		Experience: analysis.Experience,
		FocusArea:  analysis.FocusAreas,
		Seniority:  analysis.Seniority,
		Role:       candidate.MatchedRole,
	}, nil
}

// matchRole attaches the nearest catalogued role. Failures leave the
// candidate unmatched.
func (uc *CandidateUsecase) matchRole(ctx context.Context, c *model.Candidate, text string) {
	emb, err := uc.gemini.GenerateEmbedding(ctx, text)
	if err != nil {
		uc.logger.WithError(err).Warn("Resume embedding failed, skipping role match")
		return
	}
	vec := pgvector.NewVector(emb)
	c.Embedding = &vec

	roles, err := uc.roles.SearchRoles(ctx, vec, 1)
	if err != nil {
		uc.logger.WithError(err).Warn("Role search failed")
		return
	}
	if len(roles) > 0 {
		c.MatchedRole = roles[0].Title
	}
}

func (uc *CandidateUsecase) GenerateQuestions(ctx context.Context, resumeText string) (string, error) {
	if strings.TrimSpace(resumeText) == "" {
		return "", invalid("resumeText", "no resume text provided")
	}
	return uc.gemini.GenerateQuestions(ctx, resumeText)
}

func (uc *CandidateUsecase) CreateRole(ctx context.Context, title, content string) (*model.InterviewRole, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" {
		return nil, invalid("title", "is required")
	}
	if content == "" {
		return nil, invalid("content", "is required")
	}

	emb, err := uc.gemini.GenerateEmbedding(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embed role: %w", err)
	}
	role := &model.InterviewRole{Title: title, Content: content, Embedding: pgvector.NewVector(emb)}
	if err := uc.roles.CreateRole(ctx, role); err != nil {
		return nil, &PersistenceError{Op: "create role", Err: err}
	}
	return role, nil
}

// UpdateStatus records client-side progress. Completed is owned by the
// call report and is never downgraded; the boolean reports whether the
// status changed.
func (uc *CandidateUsecase) UpdateStatus(ctx context.Context, rawID, status string) (bool, error) {
	next := model.InterviewStatus(status)
	if next != model.StatusReady && next != model.StatusInProgress {
		return false, invalid("status", "must be Ready or InProgress")
	}
	id, err := parseSessionID(rawID)
	if err != nil {
		return false, err
	}
	updated, err := uc.candidates.UpdateInterviewStatus(ctx, id, next)
	if err != nil {
		return false, storeErr("update status", err)
	}
	uc.logger.WithFields(logrus.Fields{"session_id": rawID, "status": status, "updated": updated}).Info("Session status reported")
	return updated, nil
}

// SaveRecording stores the client-side recording. Its URL is only attached
// when the provider has not supplied one.
func (uc *CandidateUsecase) SaveRecording(ctx context.Context, rawID string, data []byte) (string, bool, error) {
	if len(data) == 0 {
		return "", false, invalid("recording", "is empty")
	}
	id, err := parseSessionID(rawID)
	if err != nil {
		return "", false, err
	}
	if _, err := uc.candidates.FindByID(ctx, id); err != nil {
		return "", false, storeErr("find session", err)
	}

	dir := filepath.Join(uc.uploadDir, "recordings")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create recording dir: %w", err)
	}
	fileName := id.String() + ".webm"
	if err := os.WriteFile(filepath.Join(dir, fileName), data, 0o644); err != nil {
		return "", false, fmt.Errorf("write recording: %w", err)
	}

	url := uc.baseURL + "/uploads/recordings/" + fileName
	attached, err := uc.candidates.SetRecordingURLIfEmpty(ctx, id, url)
	if err != nil {
		return "", false, storeErr("attach recording", err)
	}
	uc.logger.WithFields(logrus.Fields{"session_id": rawID, "bytes": len(data), "attached": attached}).Info("Recording stored")
	return url, attached, nil
}

func (uc *CandidateUsecase) ListCandidates(ctx context.Context, page, pageSize int) ([]dto.CandidateSummary, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	candidates, total, err := uc.candidates.ListCompleted(ctx, response.Offset(page, pageSize), pageSize)
	if err != nil {
		return nil, nil, &PersistenceError{Op: "list candidates", Err: err}
	}
	summaries, err := uc.summarizeAll(ctx, candidates)
	if err != nil {
		return nil, nil, err
	}
	pagination := response.NewPagination(page, pageSize, len(summaries), total)
	return summaries, pagination, nil
}

func (uc *CandidateUsecase) CandidateDetail(ctx context.Context, rawID string) (*dto.CandidateDetail, error) {
	id, err := parseSessionID(rawID)
	if err != nil {
		return nil, err
	}
	c, err := uc.candidates.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find candidate", err)
	}
	logs, err := uc.logs.ListByCandidate(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "list violations", Err: err}
	}

	violations := make([]dto.ViolationEntry, 0, len(logs))
	for _, l := range logs {
		violations = append(violations, dto.ViolationEntry{
			Type:      l.ViolationType,
			Severity:  string(scoring.SeverityOf(proctor.ViolationType(l.ViolationType))),
			Timestamp: l.CreatedAt,
		})
	}
	return &dto.CandidateDetail{
		CandidateSummary: summarize(*c, logs),
		Experience:       c.AIResult,
		FocusAreas:       c.FocusAreas,
		Transcript:       c.Transcript,
		ResumeText:       c.ResumeText,
		Violations:       violations,
	}, nil
}

// Decide records the admin's selection and fires the notification hook in
// the background. A failed notification never reverts the selection.
func (uc *CandidateUsecase) Decide(ctx context.Context, rawID, status string) (*dto.CandidateSummary, error) {
	selection := model.SelectionStatus(status)
	if selection != model.SelectionSelected && selection != model.SelectionRejected {
		return nil, invalid("status", "must be Selected or Rejected")
	}
	id, err := parseSessionID(rawID)
	if err != nil {
		return nil, err
	}
	c, err := uc.candidates.UpdateSelection(ctx, id, selection)
	if err != nil {
		return nil, storeErr("update selection", err)
	}
	metrics.Decisions.WithLabelValues(status).Inc()

	decision := service.Decision{Email: c.Email, Name: c.Name, Status: status, Score: c.FinalScore}
	uc.background.Add(1)
	go func() {
		defer uc.background.Done()
		notifyCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := uc.notifier.Notify(notifyCtx, decision); err != nil {
			uc.logger.WithError(err).WithField("session_id", rawID).Warn("Decision notification failed")
		}
	}()

	logs, err := uc.logs.ListByCandidate(ctx, id)
	if err != nil {
		uc.logger.WithError(err).WithField("session_id", rawID).Warn("Load violations after decision failed")
	}
	summary := summarize(*c, logs)
	return &summary, nil
}

func (uc *CandidateUsecase) Notify(ctx context.Context, req dto.NotifyRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name", "is required")
	}
	if strings.TrimSpace(req.Status) == "" {
		return invalid("status", "is required")
	}
	return uc.notifier.Notify(ctx, service.Decision(req))
}

func (uc *CandidateUsecase) Export(ctx context.Context) ([]byte, error) {
	candidates, _, err := uc.candidates.ListCompleted(ctx, 0, 0)
	if err != nil {
		return nil, &PersistenceError{Op: "list candidates", Err: err}
	}
	summaries, err := uc.summarizeAll(ctx, candidates)
	if err != nil {
		return nil, err
	}
	return util.BuildCandidateWorkbook(summaries)
}

// Wait blocks until background notifications have finished.
func (uc *CandidateUsecase) Wait() {
	uc.background.Wait()
}

func (uc *CandidateUsecase) summarizeAll(ctx context.Context, candidates []model.Candidate) ([]dto.CandidateSummary, error) {
	ids := make([]uuid.UUID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	logs, err := uc.logs.ListByCandidates(ctx, ids)
	if err != nil {
		return nil, &PersistenceError{Op: "list violations", Err: err}
	}

	summaries := make([]dto.CandidateSummary, 0, len(candidates))
	for _, c := range candidates {
		summaries = append(summaries, summarize(c, logs[c.ID]))
	}
	return summaries, nil
}

func summarize(c model.Candidate, logs []model.ProctorLog) dto.CandidateSummary {
	types := make([]proctor.ViolationType, len(logs))
	for i, l := range logs {
		types[i] = proctor.ViolationType(l.ViolationType)
	}
	ratings := scoring.Ratings{
		Technical:     c.TechnicalRating,
		Communication: c.CommunicationRating,
		CodingLogic:   c.CodingLogicRating,
	}
	return dto.CandidateSummary{
		ID:                  c.ID,
		Name:                c.Name,
		Email:               c.Email,
		Phone:               c.Phone,
		Skills:              c.Skills,
		Seniority:           c.Seniority,
		MatchedRole:         c.MatchedRole,
		InterviewStatus:     string(c.InterviewStatus),
		SelectionStatus:     string(c.SelectionStatus),
		FinalScore:          c.FinalScore,
		TechnicalRating:     c.TechnicalRating,
		CommunicationRating: c.CommunicationRating,
		CodingLogicRating:   c.CodingLogicRating,
		Summary:             c.Summary,
		RecordingURL:        c.RecordingURL,
		ViolationCount:      len(logs),
		Assessment:          scoring.Assess(ratings, types),
		CompletedAt:         c.CompletedAt,
		CreatedAt:           c.CreatedAt,
	}
}
