// Package callreport reads the "call ended" report posted by the voice
// provider. The provider has moved fields between releases, so every value
// is resolved through an ordered list of known paths.
package callreport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fadilmartias/interview-proctor/internal/scoring"
	"github.com/tidwall/gjson"
)

const (
	EndOfCallType        = "end-of-call-report"
	DefaultReportName    = "Interview_Audit_Report"
	DefaultSummary       = "Interview completed."
	correlationVariable  = "db_id"
	structuredOutputPath = "message.artifact.structuredOutputs"
)

// CorrelationPaths are tried in order; the first non-empty string wins.
var CorrelationPaths = []string{
	"message.assistantOverrides.variableValues." + correlationVariable,
	"message.artifact.variableValues." + correlationVariable,
	"message.artifact.variables." + correlationVariable,
	"message.call.assistantOverrides.variableValues." + correlationVariable,
	"message.call.metadata." + correlationVariable,
}

var TranscriptPaths = []string{
	"message.artifact.transcript",
	"message.analysis.transcript",
}

var SummaryPaths = []string{
	"message.analysis.summary",
}

var RecordingPaths = []string{
	"message.artifact.recordingUrl",
	"message.recordingUrl",
}

var ErrMalformedPayload = errors.New("call report is not a JSON object")

// CorrelationError means the report cannot be matched to a session.
type CorrelationError struct {
	Tried []string
}

func (e *CorrelationError) Error() string {
	return fmt.Sprintf("no session id found in call report (tried %s)", strings.Join(e.Tried, ", "))
}

// Report is the normalized content of one end-of-call report.
type Report struct {
	SessionID    string
	Transcript   string
	Summary      string
	RecordingURL string
	Ratings      Ratings
}

type Ratings struct {
	Final         int
	Technical     int
	Communication int
	CodingLogic   int
}

// Parser extracts reports. ReportName selects the structured output block.
type Parser struct {
	ReportName string
}

func NewParser(reportName string) *Parser {
	if reportName == "" {
		reportName = DefaultReportName
	}
	return &Parser{ReportName: reportName}
}

// EventType returns message.type of the payload.
func EventType(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", ErrMalformedPayload
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return "", ErrMalformedPayload
	}
	return root.Get("message.type").String(), nil
}

// IsEndOfCall reports whether the payload is the terminal event.
func IsEndOfCall(body []byte) bool {
	t, err := EventType(body)
	return err == nil && t == EndOfCallType
}

// Parse builds a Report from an end-of-call payload.
func (p *Parser) Parse(body []byte) (*Report, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedPayload
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, ErrMalformedPayload
	}

	sessionID := firstString(root, CorrelationPaths)
	if sessionID == "" {
		return nil, &CorrelationError{Tried: CorrelationPaths}
	}

	summary := firstString(root, SummaryPaths)
	if summary == "" {
		summary = DefaultSummary
	}

	results := p.structuredResult(root)
	return &Report{
		SessionID:    sessionID,
		Transcript:   firstString(root, TranscriptPaths),
		Summary:      summary,
		RecordingURL: firstString(root, RecordingPaths),
		Ratings: Ratings{
			Final:         scoring.Normalize(numeric(results.Get("final_score"))),
			Technical:     scoring.Normalize(numeric(results.Get("technical_rating"))),
			Communication: scoring.Normalize(numeric(results.Get("communication_rating"))),
			CodingLogic:   scoring.Normalize(numeric(results.Get("coding_logic_rating"))),
		},
	}, nil
}

// structuredResult finds the structured output whose name matches and
// returns its result object. The map key is provider-generated.
func (p *Parser) structuredResult(root gjson.Result) gjson.Result {
	var found gjson.Result
	root.Get(structuredOutputPath).ForEach(func(_, value gjson.Result) bool {
		if value.Get("name").String() == p.ReportName {
			found = value.Get("result")
			return false
		}
		return true
	})
	return found
}

func firstString(root gjson.Result, paths []string) string {
	for _, path := range paths {
		v := root.Get(path)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// numeric converts a gjson value into something scoring.Normalize accepts.
func numeric(r gjson.Result) any {
	switch r.Type {
	case gjson.Number:
		return r.Float()
	case gjson.String:
		return r.Str
	default:
		return nil
	}
}
