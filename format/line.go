package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/jccflow/check"
)

type LineEncoder struct {
	w      io.Writer
	report *Report
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(report *Report) error {
	e.report = report
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

// MarshalText writes one tab-separated record per line: productions, then
// left-recursive cycles, then tokens.
func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	r := e.report

	for _, p := range r.Productions {
		fmt.Fprintf(&sb, "production\t%s\t%s\t%s\t%s\n",
			p.Name,
			strings.ReplaceAll(p.Nullability.String(), " ", "-"),
			maxTokensStr(p),
			orDash(p.StartSet),
		)
	}

	for _, c := range r.Cycles {
		fmt.Fprintf(&sb, "cycle\t%s\n", c)
	}

	for _, t := range r.Tokens {
		fmt.Fprintf(&sb, "token\t%s\t%s\t%s\t%s\t%s\n",
			t.Name,
			t.Kind,
			orDash(t.States),
			tokenFlagsStr(t),
			orDash(nonEmpty(t.Pattern)),
		)
	}

	return []byte(sb.String()), nil
}

func maxTokensStr(p ProductionReport) string {
	if !p.Bounded {
		return "unbounded"
	}
	return strconv.Itoa(p.MaxTokens)
}

func tokenFlagsStr(t TokenReport) string {
	var flags []string
	if t.Explicit {
		flags = append(flags, "explicit")
	} else {
		flags = append(flags, "synthetic")
	}
	if t.Private {
		flags = append(flags, "private")
	}
	if t.IgnoreCase {
		flags = append(flags, "ignore-case")
	}
	if t.Transition != "" {
		flags = append(flags, "->"+t.Transition)
	}
	return strings.Join(flags, ",")
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

// TextEncoder writes diagnostics one per line in the form
// file:line:col: severity: message [code].
type TextEncoder struct {
	w     io.Writer
	diags []check.Diagnostic
}

func NewTextEncoder(w io.Writer) *TextEncoder {
	return &TextEncoder{w: w}
}

func (e *TextEncoder) Encode(diags []check.Diagnostic) error {
	e.diags = diags
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *TextEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for _, d := range e.diags {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return []byte(sb.String()), nil
}
