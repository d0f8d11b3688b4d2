package asm

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"emu16/pkg/isa"
)

// MaxProgram is the number of addressable instruction slots.
const MaxProgram = 1 << 16

var ErrProgramSize = errors.New(f("program exceeds 65536 instructions"))

// Labels maps label names, including the leading '.', to addresses.
type Labels map[string]uint16

// Assembler turns source text into a resolved program. Every source line,
// including blanks, comments and label definitions, produces exactly one
// instruction slot, so line n always assembles to address n-1.
type Assembler struct {
	Locations Locations // Named constants consulted before literals.

	labels Labels
}

func NewAssembler(locs Locations) *Assembler {
	if locs == nil {
		locs = Locations{}
	}
	return &Assembler{
		Locations: locs,
		labels:    make(Labels),
	}
}

// Assemble parses and resolves code in one call.
func Assemble(code string, locs Locations) ([]isa.Instruction, Labels, error) {
	return NewAssembler(locs).Assemble(code)
}

// AssembleFile reads path and assembles it.
func AssembleFile(path string, locs Locations) ([]isa.Instruction, Labels, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &ErrSourceIO{Path: path, Err: err}
	}
	return Assemble(string(source), locs)
}

func (a *Assembler) Assemble(code string) ([]isa.Instruction, Labels, error) {
	prog, labels, err := a.Parse(code)
	if err != nil {
		return nil, nil, err
	}

	if err := Resolve(prog, labels); err != nil {
		return nil, nil, err
	}

	return prog, labels, nil
}

// Parse is the first pass. Jump targets naming labels stay symbolic.
func (a *Assembler) Parse(code string) ([]isa.Instruction, Labels, error) {
	clear(a.labels)
	cur := NewCursor(code)

	var prog []isa.Instruction
	for {
		lineNo := cur.Line
		line := cur.lineText()

		cur.skipBlanks()
		if cur.Done() {
			break
		}
		if len(prog) >= MaxProgram {
			return nil, nil, &ErrSyntax{LineNo: lineNo, Line: line, Err: ErrProgramSize}
		}

		in, err := a.parseLine(cur, uint16(len(prog)))
		if err != nil {
			return nil, nil, &ErrSyntax{LineNo: lineNo, Line: line, Err: err}
		}
		prog = append(prog, in)
	}

	labels := make(Labels, len(a.labels))
	for k, v := range a.labels {
		labels[k] = v
	}
	return prog, labels, nil
}

// parseLine consumes one line, blanks already skipped, and returns its slot.
func (a *Assembler) parseLine(cur *Cursor, addr uint16) (isa.Instruction, error) {
	nop := isa.New(isa.OpNop)

	if cur.atLineEnd() {
		cur.skipLine()
		return nop, nil
	}

	if r, _ := cur.Peek(); r == labelMarker {
		name := cur.word()
		if !isLabel(name) {
			return nop, fmt.Errorf("%w: %s", ErrLabelInvalid, name)
		}
		if _, dup := a.labels[name]; dup {
			return nop, fmt.Errorf("%w: %s", ErrLabelDuplicate, name)
		}
		cur.skipBlanks()
		if !cur.atLineEnd() {
			return nop, fmt.Errorf("%w: unexpected '%s' after %s", ErrLabelInvalid, cur.word(), name)
		}
		cur.skipLine()
		a.labels[name] = addr
		return nop, nil
	}

	mnemonic := cur.word()
	ops := isa.Lookup(mnemonic)
	if len(ops) == 0 {
		return nop, fmt.Errorf("%w: %s", ErrMnemonicUnknown, mnemonic)
	}

	var args []isa.Operand
	for {
		cur.skipBlanks()
		if cur.atLineEnd() {
			break
		}
		arg, err := a.operand(cur.word())
		if err != nil {
			return nop, err
		}
		args = append(args, arg)
	}
	cur.skipLine()

	return matchSignature(strings.ToLower(mnemonic), ops, args)
}

// matchSignature picks the opcode whose signature fits args.
func matchSignature(mnemonic string, ops []isa.Opcode, args []isa.Operand) (isa.Instruction, error) {
	countOK := false
	for _, op := range ops {
		for _, sig := range op.Signatures() {
			if len(sig) == len(args) {
				countOK = true
			}
			if !sig.Matches(args) {
				continue
			}
			in := isa.New(op, args...)
			if (op == isa.OpLdstk || op == isa.OpStstk) && args[1].Value > isa.MaxFrameOffset {
				return isa.Instruction{}, fmt.Errorf("%w: %s %v", ErrOffsetRange, mnemonic, args[1])
			}
			return in, nil
		}
	}

	if !countOK {
		return isa.Instruction{}, fmt.Errorf("%w: %s given %d", ErrOperandCount, mnemonic, len(args))
	}

	kinds := make([]string, len(args))
	for i, arg := range args {
		kinds[i] = arg.Kind.String()
	}
	return isa.Instruction{}, fmt.Errorf("%w: %s %s", ErrOperandKind, mnemonic, strings.Join(kinds, ", "))
}

// operand classifies one token: named location, literal, label, bracketed
// memory reference, then register.
func (a *Assembler) operand(tok string) (isa.Operand, error) {
	if v, ok := a.Locations[tok]; ok {
		return isa.Imm(v), nil
	}

	v, ok, err := parseLiteral(tok)
	if err != nil {
		return isa.Operand{}, err
	}
	if ok {
		return isa.Imm(v), nil
	}

	if tok[0] == labelMarker {
		if !isLabel(tok) {
			return isa.Operand{}, fmt.Errorf("%w: %s", ErrLabelInvalid, tok)
		}
		return isa.Label(tok), nil
	}

	if tok[0] == '[' {
		return a.memOperand(tok)
	}

	if r, ok := isa.ParseReg(tok); ok {
		return isa.R(r), nil
	}
	if looksLikeRegister(tok) {
		return isa.Operand{}, fmt.Errorf("%w: %s", ErrRegister, tok)
	}

	return isa.Operand{}, fmt.Errorf("%w: %s", ErrOperandInvalid, tok)
}

func (a *Assembler) memOperand(tok string) (isa.Operand, error) {
	if len(tok) < 3 || !strings.HasSuffix(tok, "]") {
		return isa.Operand{}, fmt.Errorf("%w: %s", ErrBracket, tok)
	}
	inner := tok[1 : len(tok)-1]

	if v, ok := a.Locations[inner]; ok {
		return isa.MemImm(v), nil
	}

	v, ok, err := parseLiteral(inner)
	if err != nil {
		return isa.Operand{}, fmt.Errorf("%w: %w", ErrBracket, err)
	}
	if ok {
		return isa.MemImm(v), nil
	}

	if r, ok := isa.ParseReg(inner); ok {
		return isa.MemReg(r), nil
	}

	return isa.Operand{}, fmt.Errorf("%w: expected address or register, found %s", ErrBracket, inner)
}

// Resolve is the second pass: it rewrites every label target of a jump or
// call in place. A label that was never defined is fatal here, not during
// Parse, because forward references are legal.
func Resolve(prog []isa.Instruction, labels Labels) error {
	for i := range prog {
		in := &prog[i]
		if !in.Op.IsJump() || in.Args[0].Kind != isa.KindLabel {
			continue
		}

		name := in.Args[0].Label
		addr, ok := labels[name]
		if !ok {
			return &ErrSyntax{LineNo: i + 1, Line: in.String(), Err: ErrLabelMissing(name)}
		}
		in.Args[0] = isa.Imm(addr)
	}

	return nil
}
