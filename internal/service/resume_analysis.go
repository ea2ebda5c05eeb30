package service

import (
	"strings"

	"github.com/tidwall/gjson"
)

const DefaultSeniority = "Mid"

var seniorities = map[string]string{
	"junior": "Junior",
	"mid":    "Mid",
	"senior": "Senior",
}

// ResumeAnalysis is the recruiter summary the interviewer is primed with.
type ResumeAnalysis struct {
	Skills     string `json:"skills"`
	Experience string `json:"experience"`
	FocusAreas string `json:"focus_areas"`
	Seniority  string `json:"seniority"`
}

const resumeAnalysisPrompt = `
You are a senior technical recruiter.

Analyze this resume and return STRICT JSON ONLY.

Resume:
%s

Return format:
{
  "skills": "comma separated technical skills",
  "experience": "short professional summary (2 lines)",
  "focus_areas": "topics interviewer should focus on",
  "seniority": "Junior | Mid | Senior"
}

Determine seniority using experience:
0-2 years -> Junior
3-6 years -> Mid
7+ years -> Senior
`

const questionPrompt = `You are an expert technical recruiter. Based on the following resume text, suggest 3-5 high-level technical interview questions that will test the candidate's real-world experience.

Resume Text: %s`

// ParseResumeAnalysis reads the model reply. Markdown fences are tolerated,
// list values are joined and an unknown seniority falls back to Mid.
func ParseResumeAnalysis(text string) ResumeAnalysis {
	raw := stripCodeFence(text)
	analysis := ResumeAnalysis{Seniority: DefaultSeniority}
	if !gjson.Valid(raw) {
		return analysis
	}

	root := gjson.Parse(raw)
	analysis.Skills = flatten(root.Get("skills"))
	analysis.Experience = flatten(root.Get("experience"))
	analysis.FocusAreas = flatten(root.Get("focus_areas"))
	if s, ok := seniorities[strings.ToLower(strings.TrimSpace(root.Get("seniority").String()))]; ok {
		analysis.Seniority = s
	}
	return analysis
}

func flatten(v gjson.Result) string {
	if v.IsArray() {
		var parts []string
		for _, item := range v.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return strings.TrimSpace(v.String())
}

func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
