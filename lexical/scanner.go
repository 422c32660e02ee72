package lexical

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/dhamidi/jccflow/grammar"
)

// Lexeme is a piece of input matched by a token. Token is nil for a
// character that no token of the current state matches.
type Lexeme struct {
	Token *Token
	Text  string
	State string
	Pos   grammar.Pos
}

func (l Lexeme) String() string {
	name := "ERROR"
	if l.Token != nil {
		name = l.Token.String()
	}
	return fmt.Sprintf("%s %s %s %q", l.Pos, l.State, name, l.Text)
}

// Scanner splits input into lexemes the way the generated token manager
// would: SKIP matches are dropped, MORE matches are prepended to the next
// lexeme, and token transitions switch the current state.
type Scanner struct {
	lg       *Grammar
	input    string
	filename string
	pos      int
	line     int
	column   int
	state    *State
}

func NewScanner(lg *Grammar, input, filename string) *Scanner {
	return &Scanner{
		lg:       lg,
		input:    input,
		filename: filename,
		line:     1,
		column:   1,
		state:    lg.DefaultState(),
	}
}

// SetState switches the current lexical state.
func (s *Scanner) SetState(name string) error {
	st, ok := s.lg.State(name)
	if !ok {
		return fmt.Errorf("unknown lexical state %q", name)
	}
	s.state = st
	return nil
}

func (s *Scanner) Position() grammar.Pos {
	return grammar.Pos{
		Filename: s.filename,
		Offset:   s.pos,
		Line:     s.line,
		Column:   s.column,
	}
}

func (s *Scanner) advance(n int) {
	for _, r := range s.input[s.pos : s.pos+n] {
		if r == '\n' {
			s.line++
			s.column = 1
		} else {
			s.column++
		}
	}
	s.pos += n
}

// Next returns the next lexeme. At the end of input it returns io.EOF.
func (s *Scanner) Next() (Lexeme, error) {
	start := s.Position()
	startState := s.state.Name
	more := ""

	for {
		if s.pos >= len(s.input) {
			if more != "" {
				return Lexeme{Text: more, State: startState, Pos: start}, fmt.Errorf("%s: input ends inside a MORE match", start)
			}
			return Lexeme{State: s.state.Name, Pos: s.Position()}, io.EOF
		}

		t, n := s.state.Match(s.input[s.pos:], AllKinds)
		if t == nil {
			_, size := utf8.DecodeRuneInString(s.input[s.pos:])
			text := more + s.input[s.pos:s.pos+size]
			s.advance(size)
			return Lexeme{Text: text, State: startState, Pos: start}, nil
		}

		text := s.input[s.pos : s.pos+n]
		s.advance(n)
		if t.Transition != "" {
			if next, ok := s.lg.State(t.Transition); ok {
				s.state = next
			}
		}

		switch t.Kind {
		case grammar.KindSkip:
			// A skip also drops any MORE prefix, as in a skipped comment.
			more = ""
			start = s.Position()
			startState = s.state.Name
		case grammar.KindMore:
			more += text
		default:
			return Lexeme{Token: t, Text: more + text, State: startState, Pos: start}, nil
		}
	}
}

// Tokenize reads all lexemes of the input.
func (s *Scanner) Tokenize() ([]Lexeme, error) {
	var out []Lexeme
	for {
		lx, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, lx)
	}
}
