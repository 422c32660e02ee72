package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/jccflow/check"
	"github.com/dhamidi/jccflow/grammar"
)

type JSONEncoder struct {
	w      io.Writer
	report *Report
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(report *Report) error {
	e.report = report
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(e.buildReportData(), "", "  ")
}

type jsonReport struct {
	Grammar     string           `json:"grammar"`
	GroupUnary  bool             `json:"groupUnary,omitempty"`
	Productions []jsonProduction `json:"productions"`
	Cycles      []string         `json:"leftRecursion,omitempty"`
	Tokens      []jsonToken      `json:"tokens,omitempty"`
}

type jsonPosition struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

type jsonProduction struct {
	Name        string       `json:"name"`
	Pos         jsonPosition `json:"pos"`
	Kind        string       `json:"kind"`
	Nullability string       `json:"nullability"`
	// MaxTokens is omitted when unbounded.
	MaxTokens *int     `json:"maxTokens,omitempty"`
	StartSet  []string `json:"startSet"`
}

type jsonToken struct {
	Name       string       `json:"name"`
	Kind       string       `json:"kind"`
	Explicit   bool         `json:"explicit"`
	Private    bool         `json:"private,omitempty"`
	IgnoreCase bool         `json:"ignoreCase,omitempty"`
	States     []string     `json:"states,omitempty"`
	Transition string       `json:"transition,omitempty"`
	Pattern    string       `json:"pattern,omitempty"`
	Pos        jsonPosition `json:"pos"`
}

func position(p grammar.Pos) jsonPosition {
	return jsonPosition{File: p.Filename, Line: p.Line, Column: p.Column}
}

func (e *JSONEncoder) buildReportData() jsonReport {
	r := e.report
	data := jsonReport{
		Grammar:     r.Grammar,
		GroupUnary:  r.GroupUnary,
		Productions: make([]jsonProduction, len(r.Productions)),
		Cycles:      r.Cycles,
	}
	for i, p := range r.Productions {
		jp := jsonProduction{
			Name:        p.Name,
			Pos:         position(p.Pos),
			Kind:        p.Kind.String(),
			Nullability: p.Nullability.String(),
			StartSet:    p.StartSet,
		}
		if p.Bounded {
			n := p.MaxTokens
			jp.MaxTokens = &n
		}
		if jp.StartSet == nil {
			jp.StartSet = []string{}
		}
		data.Productions[i] = jp
	}
	for _, t := range r.Tokens {
		data.Tokens = append(data.Tokens, jsonToken{
			Name:       t.Name,
			Kind:       t.Kind.String(),
			Explicit:   t.Explicit,
			Private:    t.Private,
			IgnoreCase: t.IgnoreCase,
			States:     t.States,
			Transition: t.Transition,
			Pattern:    t.Pattern,
			Pos:        position(t.Pos),
		})
	}
	return data
}

type DiagnosticJSONEncoder struct {
	w     io.Writer
	diags []check.Diagnostic
}

func NewDiagnosticJSONEncoder(w io.Writer) *DiagnosticJSONEncoder {
	return &DiagnosticJSONEncoder{w: w}
}

func (e *DiagnosticJSONEncoder) Encode(diags []check.Diagnostic) error {
	e.diags = diags
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

type jsonDiagnostic struct {
	Pos      jsonPosition `json:"pos"`
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
}

func (e *DiagnosticJSONEncoder) MarshalText() ([]byte, error) {
	out := make([]jsonDiagnostic, len(e.diags))
	for i, d := range e.diags {
		out[i] = jsonDiagnostic{
			Pos:      position(d.Pos),
			Severity: d.Severity.String(),
			Code:     string(d.Code),
			Message:  d.Message,
		}
	}
	return json.MarshalIndent(out, "", "  ")
}
