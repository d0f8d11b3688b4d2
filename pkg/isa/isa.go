package isa

import (
	"fmt"
	"strconv"
	"strings"
)

// Opcode identifies one instruction of the machine. Two opcodes may share a
// mnemonic (the two forms of dbg); the operand signature tells them apart.
type Opcode uint8

const (
	OpNop Opcode = iota
	OpHalt
	OpMov
	OpJmp
	OpJz
	OpJnz
	OpJpos
	OpJposz
	OpJneg
	OpJnegz
	OpSetz
	OpSetnz
	OpSetpos
	OpSetposz
	OpSetneg
	OpSetnegz
	OpAdd
	OpSub
	OpAnd
	OpOr
	OpNot
	OpShl
	OpShr
	OpCall
	OpRet
	OpPush
	OpPop
	OpLdstk
	OpStstk
	OpDbg
	OpDbgRegs

	NumOpcodes
)

// Reg is a register id, R0 through R15.
type Reg uint8

const NumRegs = 16

// SP is the register used by call, ret, push, pop, ldstk and ststk.
const SP Reg = 0

func (r Reg) String() string {
	return "R" + strconv.Itoa(int(r))
}

// ParseReg accepts R0..R15 in either case.
func ParseReg(s string) (Reg, bool) {
	if len(s) < 2 || (s[0] != 'R' && s[0] != 'r') {
		return 0, false
	}
	digits := s[1:]
	if len(digits) > 1 && digits[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n >= NumRegs {
		return 0, false
	}
	return Reg(n), true
}

// Kind is the addressing mode of an operand. Kinds are bit flags so that a
// signature slot can accept more than one.
type Kind uint8

const (
	KindReg    Kind = 1 << iota // R3
	KindImm                     // 0x10, 16
	KindLabel                   // .loop (only before resolution)
	KindMemImm                  // [0x4B0]
	KindMemReg                  // [R2]
)

func (k Kind) String() string {
	var names []string
	for _, n := range []struct {
		k    Kind
		name string
	}{
		{KindReg, "register"},
		{KindImm, "immediate"},
		{KindLabel, "label"},
		{KindMemImm, "memory-by-address"},
		{KindMemReg, "memory-by-register"},
	} {
		if k&n.k != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Operand is one addressing-mode-tagged argument.
type Operand struct {
	Kind  Kind
	Reg   Reg    // KindReg, KindMemReg
	Value uint16 // KindImm, KindMemImm
	Label string // KindLabel, including the leading '.'
}

func R(r Reg) Operand           { return Operand{Kind: KindReg, Reg: r} }
func Imm(v uint16) Operand      { return Operand{Kind: KindImm, Value: v} }
func Label(name string) Operand { return Operand{Kind: KindLabel, Label: name} }
func MemImm(a uint16) Operand   { return Operand{Kind: KindMemImm, Value: a} }
func MemReg(r Reg) Operand      { return Operand{Kind: KindMemReg, Reg: r} }

func (o Operand) String() string {
	switch o.Kind {
	case KindReg:
		return o.Reg.String()
	case KindImm:
		return fmt.Sprintf("0x%X", o.Value)
	case KindLabel:
		return o.Label
	case KindMemImm:
		return fmt.Sprintf("[0x%X]", o.Value)
	case KindMemReg:
		return "[" + o.Reg.String() + "]"
	}
	return "?"
}

// Instruction is one decoded unit of execution.
type Instruction struct {
	Op   Opcode
	Args []Operand
}

// New builds an instruction. It does not check the signature.
func New(op Opcode, args ...Operand) Instruction {
	return Instruction{Op: op, Args: args}
}

func (in Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(in.Op.Mnemonic())
	for _, a := range in.Args {
		sb.WriteByte(' ')
		sb.WriteString(a.String())
	}
	return sb.String()
}

// Equal compares opcode and operands.
func (in Instruction) Equal(other Instruction) bool {
	if in.Op != other.Op || len(in.Args) != len(other.Args) {
		return false
	}
	for i := range in.Args {
		if in.Args[i] != other.Args[i] {
			return false
		}
	}
	return true
}

// Cond is the predicate shared by the conditional jump and set families.
type Cond uint8

const (
	CondZero Cond = iota
	CondNonZero
	CondPos
	CondPosZero
	CondNeg
	CondNegZero
)

// Holds reports whether the predicate is true for v.
func (c Cond) Holds(v int16) bool {
	switch c {
	case CondZero:
		return v == 0
	case CondNonZero:
		return v != 0
	case CondPos:
		return v > 0
	case CondPosZero:
		return v >= 0
	case CondNeg:
		return v < 0
	case CondNegZero:
		return v <= 0
	}
	return false
}

// Signature is one legal tuple of operand kinds.
type Signature []Kind

const (
	target  = KindImm | KindLabel
	regOrIm = KindReg | KindImm
)

type opInfo struct {
	mnemonic   string
	signatures []Signature
	cond       Cond
}

var opTable = [NumOpcodes]opInfo{
	OpNop:  {mnemonic: "nop", signatures: []Signature{{}}},
	OpHalt: {mnemonic: "halt", signatures: []Signature{{}}},
	OpMov: {mnemonic: "mov", signatures: []Signature{
		{KindReg, KindImm},
		{KindReg, KindMemImm},
		{KindMemImm, KindReg},
		{KindReg, KindReg},
		{KindReg, KindMemReg},
		{KindMemReg, KindReg},
	}},
	OpJmp: {mnemonic: "jmp", signatures: []Signature{{target}}},

	OpJz:    {mnemonic: "jz", signatures: []Signature{{target, KindReg}}, cond: CondZero},
	OpJnz:   {mnemonic: "jnz", signatures: []Signature{{target, KindReg}}, cond: CondNonZero},
	OpJpos:  {mnemonic: "jpos", signatures: []Signature{{target, KindReg}}, cond: CondPos},
	OpJposz: {mnemonic: "jposz", signatures: []Signature{{target, KindReg}}, cond: CondPosZero},
	OpJneg:  {mnemonic: "jneg", signatures: []Signature{{target, KindReg}}, cond: CondNeg},
	OpJnegz: {mnemonic: "jnegz", signatures: []Signature{{target, KindReg}}, cond: CondNegZero},

	OpSetz:    {mnemonic: "setz", signatures: []Signature{{KindReg, KindReg}}, cond: CondZero},
	OpSetnz:   {mnemonic: "setnz", signatures: []Signature{{KindReg, KindReg}}, cond: CondNonZero},
	OpSetpos:  {mnemonic: "setpos", signatures: []Signature{{KindReg, KindReg}}, cond: CondPos},
	OpSetposz: {mnemonic: "setposz", signatures: []Signature{{KindReg, KindReg}}, cond: CondPosZero},
	OpSetneg:  {mnemonic: "setneg", signatures: []Signature{{KindReg, KindReg}}, cond: CondNeg},
	OpSetnegz: {mnemonic: "setnegz", signatures: []Signature{{KindReg, KindReg}}, cond: CondNegZero},

	OpAdd: {mnemonic: "add", signatures: []Signature{{KindReg, regOrIm}}},
	OpSub: {mnemonic: "sub", signatures: []Signature{{KindReg, regOrIm}}},
	OpAnd: {mnemonic: "and", signatures: []Signature{{KindReg, regOrIm}}},
	OpOr:  {mnemonic: "or", signatures: []Signature{{KindReg, regOrIm}}},
	OpNot: {mnemonic: "not", signatures: []Signature{{KindReg}}},
	OpShl: {mnemonic: "shl", signatures: []Signature{{KindReg, regOrIm}}},
	OpShr: {mnemonic: "shr", signatures: []Signature{{KindReg, regOrIm}}},

	OpCall:  {mnemonic: "call", signatures: []Signature{{target}}},
	OpRet:   {mnemonic: "ret", signatures: []Signature{{}}},
	OpPush:  {mnemonic: "push", signatures: []Signature{{KindReg}}},
	OpPop:   {mnemonic: "pop", signatures: []Signature{{KindReg}}},
	OpLdstk: {mnemonic: "ldstk", signatures: []Signature{{KindReg, KindImm}}},
	OpStstk: {mnemonic: "ststk", signatures: []Signature{{KindReg, KindImm}}},

	OpDbg:     {mnemonic: "dbg", signatures: []Signature{{KindImm}}},
	OpDbgRegs: {mnemonic: "dbg", signatures: []Signature{{}}},
}

var byMnemonic = map[string][]Opcode{}

func init() {
	for op := Opcode(0); op < NumOpcodes; op++ {
		m := opTable[op].mnemonic
		byMnemonic[m] = append(byMnemonic[m], op)
	}
}

func (op Opcode) String() string {
	return op.Mnemonic()
}

// Mnemonic returns the lowercase assembler name.
func (op Opcode) Mnemonic() string {
	if op >= NumOpcodes {
		return fmt.Sprintf("op%d", uint8(op))
	}
	return opTable[op].mnemonic
}

// Signatures returns the legal operand tuples of op.
func (op Opcode) Signatures() []Signature {
	if op >= NumOpcodes {
		return nil
	}
	return opTable[op].signatures
}

// Cond returns the predicate of a conditional jump or set opcode.
func (op Opcode) Cond() Cond {
	return opTable[op].cond
}

// IsJump reports whether op takes a jump target that labels may name.
func (op Opcode) IsJump() bool {
	switch op {
	case OpJmp, OpJz, OpJnz, OpJpos, OpJposz, OpJneg, OpJnegz, OpCall:
		return true
	}
	return false
}

// Lookup returns every opcode spelled by mnemonic, case-insensitively.
func Lookup(mnemonic string) []Opcode {
	return byMnemonic[strings.ToLower(mnemonic)]
}

// Matches reports whether the operand kinds fit the signature.
func (s Signature) Matches(args []Operand) bool {
	if len(s) != len(args) {
		return false
	}
	for i, k := range s {
		if args[i].Kind&k == 0 {
			return false
		}
	}
	return true
}

// Valid reports whether the instruction satisfies one of its signatures.
func (in Instruction) Valid() bool {
	for _, sig := range in.Op.Signatures() {
		if sig.Matches(in.Args) {
			return true
		}
	}
	return false
}
