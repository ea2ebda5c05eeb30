package dto

// ViolationRequest accepts the legacy db_id key as well as sessionId.
type ViolationRequest struct {
	SessionID string `json:"sessionId"`
	DBID      string `json:"db_id"`
	Type      string `json:"type"`
}

func (r ViolationRequest) Session() string {
	if r.SessionID != "" {
		return r.SessionID
	}
	return r.DBID
}

type StatusRequest struct {
	Status string `json:"status"`
}

type DecisionRequest struct {
	Status string `json:"status"`
}

type RoleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type AnalyzeRequest struct {
	ResumeText string `json:"resumeText"`
}

type NotifyRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Score  int    `json:"score"`
}
