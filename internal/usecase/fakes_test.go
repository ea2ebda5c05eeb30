package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fadilmartias/interview-proctor/internal/model"
	"github.com/fadilmartias/interview-proctor/internal/repository"
	"github.com/fadilmartias/interview-proctor/internal/service"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

type memCandidates struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*model.Candidate
	failErr error
}

func newMemCandidates(rows ...*model.Candidate) *memCandidates {
	m := &memCandidates{rows: make(map[uuid.UUID]*model.Candidate)}
	for _, r := range rows {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		m.rows[r.ID] = r
	}
	return m
}

func (m *memCandidates) get(id uuid.UUID) model.Candidate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rows[id]
}

func (m *memCandidates) Create(ctx context.Context, c *model.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memCandidates) FindByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCandidates) CompleteSession(ctx context.Context, id uuid.UUID, c repository.Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	row, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.InterviewStatus = model.StatusCompleted
	row.Transcript = c.Transcript
	row.Summary = c.Summary
	row.FinalScore = c.FinalScore
	row.TechnicalRating = c.TechnicalRating
	row.CommunicationRating = c.CommunicationRating
	row.CodingLogicRating = c.CodingLogicRating
	if c.RecordingURL != "" {
		row.RecordingURL = c.RecordingURL
	}
	if row.CompletedAt == nil {
		at := c.At
		row.CompletedAt = &at
	}
	return nil
}

func (m *memCandidates) UpdateInterviewStatus(ctx context.Context, id uuid.UUID, status model.InterviewStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if row.InterviewStatus == model.StatusCompleted {
		return false, nil
	}
	row.InterviewStatus = status
	return true, nil
}

func (m *memCandidates) SetRecordingURLIfEmpty(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if row.RecordingURL != "" {
		return false, nil
	}
	row.RecordingURL = url
	return true, nil
}

func (m *memCandidates) ListCompleted(ctx context.Context, offset, limit int) ([]model.Candidate, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Candidate
	for _, r := range m.rows {
		if r.InterviewStatus == model.StatusCompleted {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if limit > 0 {
		if offset > len(out) {
			offset = len(out)
		}
		end := offset + limit
		if end > len(out) {
			end = len(out)
		}
		out = out[offset:end]
	}
	return out, total, nil
}

func (m *memCandidates) UpdateSelection(ctx context.Context, id uuid.UUID, status model.SelectionStatus) (*model.Candidate, error) {
	m.mu.Lock()
	row, ok := m.rows[id]
	if !ok {
		m.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	row.SelectionStatus = status
	cp := *row
	m.mu.Unlock()
	return &cp, nil
}

type memLogs struct {
	mu      sync.Mutex
	rows    []model.ProctorLog
	failErr error
}

func (m *memLogs) Append(ctx context.Context, l *model.ProctorLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	l.ID = uint(len(m.rows) + 1)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	m.rows = append(m.rows, *l)
	return nil
}

func (m *memLogs) ListByCandidate(ctx context.Context, id uuid.UUID) ([]model.ProctorLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ProctorLog
	for _, r := range m.rows {
		if r.CandidateID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memLogs) ListByCandidates(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.ProctorLog, error) {
	out := make(map[uuid.UUID][]model.ProctorLog)
	for _, id := range ids {
		logs, _ := m.ListByCandidate(ctx, id)
		out[id] = logs
	}
	return out, nil
}

type memRoles struct {
	roles   []model.InterviewRole
	created []model.InterviewRole
}

func (m *memRoles) SearchRoles(ctx context.Context, embedding pgvector.Vector, topK int) ([]model.InterviewRole, error) {
	if len(m.roles) < topK {
		return m.roles, nil
	}
	return m.roles[:topK], nil
}

func (m *memRoles) CreateRole(ctx context.Context, role *model.InterviewRole) error {
	m.created = append(m.created, *role)
	return nil
}

type fakeGemini struct {
	analysis     service.ResumeAnalysis
	analyzeErr   error
	embedErr     error
	questions    string
	embedInputs  []string
	analyzeInput string
}

func (g *fakeGemini) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	g.embedInputs = append(g.embedInputs, text)
	if g.embedErr != nil {
		return nil, g.embedErr
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (g *fakeGemini) AnalyzeResume(ctx context.Context, resumeText string) (*service.ResumeAnalysis, error) {
	g.analyzeInput = resumeText
	if g.analyzeErr != nil {
		return nil, g.analyzeErr
	}
	a := g.analysis
	return &a, nil
}

func (g *fakeGemini) GenerateQuestions(ctx context.Context, resumeText string) (string, error) {
	return g.questions, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	decisions []service.Decision
	err       error
}

func (n *fakeNotifier) Notify(ctx context.Context, d service.Decision) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.decisions = append(n.decisions, d)
	return n.err
}

func (n *fakeNotifier) sent() []service.Decision {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]service.Decision(nil), n.decisions...)
}

var errStorage = errors.New("connection refused")
