package core

import "fmt"

// ParseError is returned when parsing fails (unmatched brackets).
type ParseError struct {
	Msg string
	Pos Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at line %d col %d (offset %d)",
		e.Msg, e.Pos.Line, e.Pos.Column, e.Pos.Offset)
}

// Parse converts a token stream into IR, one statement per command
// token. Branch targets are patched to PC-relative offsets in IR-word
// units: a JZ at index i with target t has its matching JNZ at index
// i+t, whose own target is -t. A taken JZ lands just after the
// partner JNZ and a taken JNZ lands just after the partner JZ.
//
// An unmatched ']' is reported at its own position; an unmatched '['
// is detected at end of input and reported at the last command token.
func Parse(toks []Token) ([]Stmt, error) {
	ir := make([]Stmt, 0, len(toks))
	labels := make([]int, 0, 8)
	var last Position

	for _, tok := range toks {
		switch tok.Kind {
		case TokEOF:
			if len(labels) > 0 {
				return nil, &ParseError{"unmatched '['", last}
			}
			return ir, nil

		case TokRight:
			ir = append(ir, PAdd(1))
		case TokLeft:
			ir = append(ir, PAdd(-1))
		case TokInc:
			ir = append(ir, DAdd(1, 0))
		case TokDec:
			ir = append(ir, DAdd(-1, 0))
		case TokOut:
			ir = append(ir, Putc(0))
		case TokIn:
			ir = append(ir, Getc(0))

		case TokOpen:
			// Placeholder target, patched by the matching ']'.
			// The label records the slot just after the JZ.
			ir = append(ir, Jz(0))
			labels = append(labels, len(ir))

		case TokClose:
			if len(labels) == 0 {
				return nil, &ParseError{"unmatched ']'", tok.Pos}
			}
			label := labels[len(labels)-1]
			labels = labels[:len(labels)-1]
			diff := int16(len(ir) - label + 1)
			ir = append(ir, Jnz(-diff))
			ir[label-1] = Jz(diff)

		default:
			return nil, &ParseError{"unexpected token", tok.Pos}
		}
		last = tok.Pos
	}
	return ir, nil
}
