package scoring

import (
	"github.com/fadilmartias/interview-proctor/internal/proctor"
)

type Decision string

const (
	StrongHire    Decision = "Strong Hire"
	HoldForReview Decision = "Hold for Review"
	Reject        Decision = "Reject"
	AutoReject    Decision = "Auto Reject"
)

const (
	weightTechnical     = 0.4
	weightCommunication = 0.2
	weightCodingLogic   = 0.2
	weightIntegrity     = 0.2

	autoRejectBelow = 40
	strongHireAt    = 7.0
	holdAt          = 5.0

	epsilon = 1e-9
)

// Ratings are the normalized rubric scores of a completed session.
type Ratings struct {
	Technical     int `json:"technical"`
	Communication int `json:"communication"`
	CodingLogic   int `json:"codingLogic"`
}

// Blend is the weighted score used for the hiring decision.
func Blend(r Ratings, integrity int) float64 {
	return float64(r.Technical)*weightTechnical +
		float64(r.Communication)*weightCommunication +
		float64(r.CodingLogic)*weightCodingLogic +
		(float64(integrity)/10)*weightIntegrity
}

// Decide returns the hiring recommendation. Integrity below 40 rejects
// regardless of the rubric.
func Decide(r Ratings, integrity int) Decision {
	if integrity < autoRejectBelow {
		return AutoReject
	}
	blend := Blend(r, integrity)
	switch {
	case blend+epsilon >= strongHireAt:
		return StrongHire
	case blend+epsilon >= holdAt:
		return HoldForReview
	default:
		return Reject
	}
}

// Assessment is every derived label for one session, computed on read.
type Assessment struct {
	IntegrityScore int              `json:"integrityScore"`
	IntegrityLabel IntegrityLabel   `json:"integrityLabel"`
	Blend          float64          `json:"blend"`
	Decision       Decision         `json:"decision"`
	Violations     []ViolationGroup `json:"violations"`
}

func Assess(r Ratings, types []proctor.ViolationType) Assessment {
	integrity := IntegrityScore(types)
	return Assessment{
		IntegrityScore: integrity,
		IntegrityLabel: LabelFor(integrity),
		Blend:          Blend(r, integrity),
		Decision:       Decide(r, integrity),
		Violations:     GroupViolations(types),
	}
}
