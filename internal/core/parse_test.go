package core

import (
	"strings"
	"testing"
)

// parseString tokenizes and parses source, failing the test on error.
func parseString(t *testing.T, src string) []Stmt {
	t.Helper()
	ir, err := Parse(Tokenize([]byte(src)))
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return ir
}

func TestTokenizePositions(t *testing.T) {
	toks := Tokenize([]byte("+\n >x]"))

	want := []struct {
		kind      TokenKind
		line, col int
	}{
		{TokInc, 1, 1},
		{TokRight, 2, 2},
		{TokClose, 2, 4},
		{TokEOF, 2, 5},
	}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(toks))
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Pos.Line != w.line || toks[i].Pos.Column != w.col {
			t.Errorf("token %d: expected %v at %d:%d, got %v at %d:%d",
				i, w.kind, w.line, w.col, toks[i].Kind, toks[i].Pos.Line, toks[i].Pos.Column)
		}
	}
}

func TestTokenizeIgnoresComments(t *testing.T) {
	src := "comments are skipped, all of them +"
	toks := Tokenize([]byte(src))
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens (two commands plus EOF), got %d", len(toks))
	}
	if toks[0].Kind != TokIn || toks[1].Kind != TokInc {
		t.Errorf("unexpected kinds %v, %v", toks[0].Kind, toks[1].Kind)
	}
}

func TestParseSimple(t *testing.T) {
	tests := []struct {
		src  string
		want []Stmt
	}{
		{"", []Stmt{}},
		{">", []Stmt{PAdd(1)}},
		{"<", []Stmt{PAdd(-1)}},
		{"+", []Stmt{DAdd(1, 0)}},
		{"-", []Stmt{DAdd(-1, 0)}},
		{".", []Stmt{Putc(0)}},
		{",", []Stmt{Getc(0)}},
		{"[]", []Stmt{Jz(2), Jnz(-1)}},
		{"[+]", []Stmt{Jz(3), DAdd(1, 0), Jnz(-2)}},
		{"[[]]", []Stmt{Jz(4), Jz(2), Jnz(-1), Jnz(-3)}},
		{"[][]", []Stmt{Jz(2), Jnz(-1), Jz(2), Jnz(-1)}},
	}

	for _, tc := range tests {
		got := parseString(t, tc.src)
		if len(got) != len(tc.want) {
			t.Errorf("Parse(%q): expected %d statements, got %d", tc.src, len(tc.want), len(got))
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("Parse(%q)[%d]: expected %v, got %v", tc.src, i, tc.want[i], got[i])
			}
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src    string
		msg    string
		offset int
	}{
		{"[", "unmatched '['", 0},
		{"]", "unmatched ']'", 0},
		{"+[+", "unmatched '['", 2},
		{"[]]", "unmatched ']'", 2},
		{"[[]", "unmatched '['", 2},
	}

	for _, tc := range tests {
		_, err := Parse(Tokenize([]byte(tc.src)))
		if err == nil {
			t.Errorf("Parse(%q): expected error", tc.src)
			continue
		}
		pe, ok := err.(*ParseError)
		if !ok {
			t.Errorf("Parse(%q): expected *ParseError, got %T", tc.src, err)
			continue
		}
		if pe.Msg != tc.msg || pe.Pos.Offset != tc.offset {
			t.Errorf("Parse(%q): expected %q at offset %d, got %q at offset %d",
				tc.src, tc.msg, tc.offset, pe.Msg, pe.Pos.Offset)
		}
	}
}

// Parse succeeds iff every prefix has at least as many opens as closes
// and the totals match.
func TestBracketBalance(t *testing.T) {
	sources := []string{
		"", "[]", "[[]]", "[][]", "][", "[[]", "[]]", "]", "[",
		"+[->+<]", "a[b]c", "[+[+[+]+]+]", "[]][",
	}

	for _, src := range sources {
		open, balanced := 0, true
		for _, c := range src {
			switch c {
			case '[':
				open++
			case ']':
				open--
			}
			if open < 0 {
				balanced = false
			}
		}
		balanced = balanced && open == 0

		_, err := Parse(Tokenize([]byte(src)))
		if balanced && err != nil {
			t.Errorf("Parse(%q): expected success, got %v", src, err)
		}
		if !balanced && err == nil {
			t.Errorf("Parse(%q): expected failure", src)
		}
	}
}

// Jump targets must pair up: a JZ at index i with target t is matched
// by the JNZ at i+t whose target is -t.
func checkLabelSymmetry(t *testing.T, src string, ir []Stmt) {
	t.Helper()
	for i, st := range ir {
		if st.Kind != OpJz {
			continue
		}
		tgt := int(st.Off)
		j := i + tgt
		if j < 0 || j >= len(ir) || ir[j].Kind != OpJnz {
			t.Errorf("%q: JZ at %d (target %d) has no JNZ partner", src, i, tgt)
			continue
		}
		if int(ir[j].Off) != -tgt {
			t.Errorf("%q: JNZ at %d: expected target %d, got %d", src, j, -tgt, ir[j].Off)
		}
	}
}

func TestParseLabelSymmetry(t *testing.T) {
	sources := []string{"[]", "[+]", "[[]]", "[][]", "+[->+<]", "[>[>]<[<]]"}
	for _, src := range sources {
		checkLabelSymmetry(t, src, parseString(t, src))
	}
}

func TestParseErrorMessage(t *testing.T) {
	_, err := Parse(Tokenize([]byte("++\n]")))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line info in %q", err.Error())
	}
}
