package scoring

import (
	"sort"

	"github.com/fadilmartias/interview-proctor/internal/proctor"
)

const MaxIntegrity = 100

type IntegrityLabel string

const (
	Trusted    IntegrityLabel = "Trusted"
	Suspicious IntegrityLabel = "Suspicious"
	HighRisk   IntegrityLabel = "High Risk"
)

type Severity string

const (
	SeverityCritical   Severity = "Critical"
	SeveritySuspicious Severity = "Suspicious"
	SeverityMinor      Severity = "Minor"
)

// Penalties are applied once per distinct violation type.
var Penalties = map[proctor.ViolationType]int{
	proctor.TabSwitch:             15,
	proctor.WindowBlur:            10,
	proctor.NoFaceVisible:         20,
	proctor.MultipleFacesDetected: 30,
}

var severities = map[proctor.ViolationType]Severity{
	proctor.MultipleFacesDetected: SeverityCritical,
	proctor.TabSwitch:             SeveritySuspicious,
	proctor.WindowBlur:            SeveritySuspicious,
	proctor.NoFaceVisible:         SeverityMinor,
}

var severityRank = map[Severity]int{
	SeverityCritical:   0,
	SeveritySuspicious: 1,
	SeverityMinor:      2,
}

// IntegrityScore derives the 0..100 trust score from a raw violation log.
// Order and repetition of events do not matter.
func IntegrityScore(types []proctor.ViolationType) int {
	seen := make(map[proctor.ViolationType]bool, len(types))
	score := MaxIntegrity
	for _, t := range types {
		if seen[t] {
			continue
		}
		seen[t] = true
		score -= Penalties[t]
	}
	if score < 0 {
		return 0
	}
	return score
}

func LabelFor(score int) IntegrityLabel {
	switch {
	case score >= 80:
		return Trusted
	case score >= 50:
		return Suspicious
	default:
		return HighRisk
	}
}

func SeverityOf(t proctor.ViolationType) Severity {
	if s, ok := severities[t]; ok {
		return s
	}
	return SeverityMinor
}

// ViolationGroup is one row of the grouped violation view.
type ViolationGroup struct {
	Type     proctor.ViolationType `json:"type"`
	Count    int                   `json:"count"`
	Severity Severity              `json:"severity"`
}

// GroupViolations counts events per type, most severe first.
func GroupViolations(types []proctor.ViolationType) []ViolationGroup {
	counts := make(map[proctor.ViolationType]int)
	for _, t := range types {
		counts[t]++
	}
	groups := make([]ViolationGroup, 0, len(counts))
	for t, n := range counts {
		groups = append(groups, ViolationGroup{Type: t, Count: n, Severity: SeverityOf(t)})
	}
	sort.Slice(groups, func(i, j int) bool {
		ri, rj := severityRank[groups[i].Severity], severityRank[groups[j].Severity]
		if ri != rj {
			return ri < rj
		}
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Type < groups[j].Type
	})
	return groups
}
