package isa

import (
	"fmt"
	"io"
)

// Primary byte values. The high nibble selects the family for the
// register-destination forms; the low nibble carries the register.
const (
	encMovRegImm    byte = 0x10
	encMovRegMemImm byte = 0x20
	encMovMemImmReg byte = 0x30
	encJz           byte = 0x40
	encJnz          byte = 0x50
	encJpos         byte = 0x60
	encJposz        byte = 0x70
	encJneg         byte = 0x80
	encJnegz        byte = 0x90
	encAddImm       byte = 0xA0
	encSubImm       byte = 0xB0
	encAndImm       byte = 0xC0
	encOrImm        byte = 0xD0

	encDbg     byte = 0xE0
	encDbgRegs byte = 0xE1
	encCall    byte = 0xE2
	encJmp     byte = 0xE3
	encLdstk   byte = 0xE4
	encStstk   byte = 0xE5

	// encExt introduces the register-register family; byte 1 picks the
	// operation and byte 2 packs two register ids.
	encExt  byte = 0xF0
	encHalt byte = 0xFF
)

// Secondary byte values inside the encExt family.
const (
	extMovRegReg    byte = 0x00
	extMovRegMemReg byte = 0x01
	extMovMemRegReg byte = 0x02
	extSetz         byte = 0x10
	extSetnz        byte = 0x11
	extSetpos       byte = 0x12
	extSetposz      byte = 0x13
	extSetneg       byte = 0x14
	extSetnegz      byte = 0x15
	extAdd          byte = 0x20
	extSub          byte = 0x21
	extAnd          byte = 0x22
	extOr           byte = 0x23
	extNot          byte = 0x24
	extShlImm       byte = 0x30
	extShlReg       byte = 0x31
	extShrImm       byte = 0x32
	extShrReg       byte = 0x33
	extRet          byte = 0x40
	extPush         byte = 0x41
	extPop          byte = 0x42
)

// MaxFrameOffset is the largest ldstk/ststk offset the encoding can carry.
const MaxFrameOffset = 0x0FFF

// InstructionSize is the fixed width of every encoded instruction.
const InstructionSize = 3

var condJump = map[Opcode]byte{
	OpJz: encJz, OpJnz: encJnz, OpJpos: encJpos,
	OpJposz: encJposz, OpJneg: encJneg, OpJnegz: encJnegz,
}

var condSet = map[Opcode]byte{
	OpSetz: extSetz, OpSetnz: extSetnz, OpSetpos: extSetpos,
	OpSetposz: extSetposz, OpSetneg: extSetneg, OpSetnegz: extSetnegz,
}

var aluImm = map[Opcode]byte{
	OpAdd: encAddImm, OpSub: encSubImm, OpAnd: encAndImm, OpOr: encOrImm,
}

var aluReg = map[Opcode]byte{
	OpAdd: extAdd, OpSub: extSub, OpAnd: extAnd, OpOr: extOr,
}

func pair(hi, lo Reg) byte {
	return byte(hi&0x0F)<<4 | byte(lo&0x0F)
}

func regImm(primary byte, r Reg, v uint16) [3]byte {
	return [3]byte{primary | byte(r&0x0F), byte(v >> 8), byte(v)}
}

func ext(secondary, packed byte) [3]byte {
	return [3]byte{encExt, secondary, packed}
}

// Encode returns the 3-byte machine form. Instructions must satisfy their
// signature; a label operand that was never resolved encodes as address 0.
func (in Instruction) Encode() [3]byte {
	a := in.Args
	switch in.Op {
	case OpNop:
		return [3]byte{}
	case OpHalt:
		return [3]byte{encHalt, encHalt, encHalt}

	case OpMov:
		dst, src := a[0], a[1]
		switch {
		case dst.Kind == KindReg && src.Kind == KindImm:
			return regImm(encMovRegImm, dst.Reg, src.Value)
		case dst.Kind == KindReg && src.Kind == KindMemImm:
			return regImm(encMovRegMemImm, dst.Reg, src.Value)
		case dst.Kind == KindMemImm && src.Kind == KindReg:
			return regImm(encMovMemImmReg, src.Reg, dst.Value)
		case dst.Kind == KindReg && src.Kind == KindReg:
			return ext(extMovRegReg, pair(dst.Reg, src.Reg))
		case dst.Kind == KindReg && src.Kind == KindMemReg:
			return ext(extMovRegMemReg, pair(dst.Reg, src.Reg))
		case dst.Kind == KindMemReg && src.Kind == KindReg:
			return ext(extMovMemRegReg, pair(dst.Reg, src.Reg))
		}

	case OpJmp:
		return regImm(encJmp, 0, a[0].Value)
	case OpCall:
		return regImm(encCall, 0, a[0].Value)
	case OpJz, OpJnz, OpJpos, OpJposz, OpJneg, OpJnegz:
		return regImm(condJump[in.Op], a[1].Reg, a[0].Value)

	case OpSetz, OpSetnz, OpSetpos, OpSetposz, OpSetneg, OpSetnegz:
		return ext(condSet[in.Op], pair(a[0].Reg, a[1].Reg))

	case OpAdd, OpSub, OpAnd, OpOr:
		if a[1].Kind == KindImm {
			return regImm(aluImm[in.Op], a[0].Reg, a[1].Value)
		}
		return ext(aluReg[in.Op], pair(a[0].Reg, a[1].Reg))

	case OpNot:
		return ext(extNot, pair(a[0].Reg, 0))

	case OpShl, OpShr:
		immOp, regOp := extShlImm, extShlReg
		if in.Op == OpShr {
			immOp, regOp = extShrImm, extShrReg
		}
		if a[1].Kind == KindImm {
			return ext(immOp, pair(a[0].Reg, Reg(a[1].Value&0x0F)))
		}
		return ext(regOp, pair(a[0].Reg, a[1].Reg))

	case OpRet:
		return ext(extRet, 0)
	case OpPush:
		return ext(extPush, pair(a[0].Reg, 0))
	case OpPop:
		return ext(extPop, pair(a[0].Reg, 0))

	case OpLdstk, OpStstk:
		primary := encLdstk
		if in.Op == OpStstk {
			primary = encStstk
		}
		off := a[1].Value & MaxFrameOffset
		return [3]byte{primary, byte(a[0].Reg&0x0F)<<4 | byte(off>>8), byte(off)}

	case OpDbg:
		return regImm(encDbg, 0, a[0].Value)
	case OpDbgRegs:
		return [3]byte{encDbgRegs, 0, 0}
	}

	panic(fmt.Sprintf("isa: cannot encode %v", in))
}

// Decode is the inverse of Encode for resolved instructions. Shift
// immediates come back as their low four bits.
func Decode(b [3]byte) (in Instruction, err error) {
	imm := uint16(b[1])<<8 | uint16(b[2])
	lo := Reg(b[0] & 0x0F)
	hi2, lo2 := Reg(b[2]>>4), Reg(b[2]&0x0F)

	switch b {
	case [3]byte{}:
		return New(OpNop), nil
	case [3]byte{encHalt, encHalt, encHalt}:
		return New(OpHalt), nil
	}

	switch b[0] & 0xF0 {
	case encMovRegImm:
		return New(OpMov, R(lo), Imm(imm)), nil
	case encMovRegMemImm:
		return New(OpMov, R(lo), MemImm(imm)), nil
	case encMovMemImmReg:
		return New(OpMov, MemImm(imm), R(lo)), nil
	case encAddImm:
		return New(OpAdd, R(lo), Imm(imm)), nil
	case encSubImm:
		return New(OpSub, R(lo), Imm(imm)), nil
	case encAndImm:
		return New(OpAnd, R(lo), Imm(imm)), nil
	case encOrImm:
		return New(OpOr, R(lo), Imm(imm)), nil
	}
	for op, primary := range condJump {
		if b[0]&0xF0 == primary {
			return New(op, Imm(imm), R(lo)), nil
		}
	}

	switch b[0] {
	case encDbg:
		return New(OpDbg, Imm(imm)), nil
	case encDbgRegs:
		if imm == 0 {
			return New(OpDbgRegs), nil
		}
	case encCall:
		return New(OpCall, Imm(imm)), nil
	case encJmp:
		return New(OpJmp, Imm(imm)), nil
	case encLdstk:
		return New(OpLdstk, R(Reg(b[1]>>4)), Imm(imm&MaxFrameOffset)), nil
	case encStstk:
		return New(OpStstk, R(Reg(b[1]>>4)), Imm(imm&MaxFrameOffset)), nil
	case encExt:
		switch b[1] {
		case extMovRegReg:
			return New(OpMov, R(hi2), R(lo2)), nil
		case extMovRegMemReg:
			return New(OpMov, R(hi2), MemReg(lo2)), nil
		case extMovMemRegReg:
			return New(OpMov, MemReg(hi2), R(lo2)), nil
		case extNot:
			return New(OpNot, R(hi2)), nil
		case extShlImm:
			return New(OpShl, R(hi2), Imm(uint16(lo2))), nil
		case extShlReg:
			return New(OpShl, R(hi2), R(lo2)), nil
		case extShrImm:
			return New(OpShr, R(hi2), Imm(uint16(lo2))), nil
		case extShrReg:
			return New(OpShr, R(hi2), R(lo2)), nil
		case extRet:
			return New(OpRet), nil
		case extPush:
			return New(OpPush, R(hi2)), nil
		case extPop:
			return New(OpPop, R(hi2)), nil
		}
		for op, secondary := range condSet {
			if b[1] == secondary {
				return New(op, R(hi2), R(lo2)), nil
			}
		}
		for op, secondary := range aluReg {
			if b[1] == secondary {
				return New(op, R(hi2), R(lo2)), nil
			}
		}
	}

	err = &ErrDecode{Bytes: b}
	return
}

// EncodeProgram concatenates the encoding of every instruction.
func EncodeProgram(prog []Instruction) []byte {
	out := make([]byte, 0, len(prog)*InstructionSize)
	for _, in := range prog {
		b := in.Encode()
		out = append(out, b[:]...)
	}
	return out
}

// DecodeProgram splits a binary image into instructions.
func DecodeProgram(image []byte) ([]Instruction, error) {
	if len(image)%InstructionSize != 0 {
		return nil, ErrImageLength
	}
	prog := make([]Instruction, 0, len(image)/InstructionSize)
	for i := 0; i < len(image); i += InstructionSize {
		in, err := Decode([3]byte(image[i : i+InstructionSize]))
		if err != nil {
			return nil, err
		}
		prog = append(prog, in)
	}
	return prog, nil
}

// HexLine renders the trace form: encoded bytes, then the disassembly.
func (in Instruction) HexLine() string {
	b := in.Encode()
	return fmt.Sprintf("%02X_%02X_%02X  // %v", b[0], b[1], b[2], in)
}

// WriteTrace writes one HexLine per instruction, in program order.
func WriteTrace(w io.Writer, prog []Instruction) error {
	for _, in := range prog {
		if _, err := fmt.Fprintln(w, in.HexLine()); err != nil {
			return err
		}
	}
	return nil
}
