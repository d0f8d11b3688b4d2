package asm

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emu16/pkg/isa"
)

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"abc", true},
		{"_abc", true},
		{"abc1", true},
		{"1abc", false},
		{"", false},
		{"ab-c", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, isIdentifier(tc.input), tc.input)
	}

	assert.True(t, isLabel(".loop"))
	assert.False(t, isLabel("."))
	assert.False(t, isLabel(".1x"))
	assert.True(t, looksLikeRegister("R16"))
	assert.False(t, looksLikeRegister("Rx"))
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		input string
		want  uint16
		ok    bool
		err   bool
	}{
		{"0", 0, true, false},
		{"1204", 1204, true, false},
		{"0x4B0", 0x4B0, true, false},
		{"0xffff", 0xFFFF, true, false},
		{"-1", 0xFFFF, true, false},
		{"-2", 0xFFFE, true, false},
		{"0x1_0", 0, false, true},
		{"12ab", 0, false, true},
		{"abc", 0, false, false},
		{"R1", 0, false, false},
	}
	for _, tc := range tests {
		got, ok, err := parseLiteral(tc.input)
		if tc.err {
			assert.ErrorIs(t, err, ErrLiteral, tc.input)
			continue
		}
		assert.NoError(t, err, tc.input)
		assert.Equal(t, tc.ok, ok, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}
}

func TestCursor(t *testing.T) {
	assert := assert.New(t)

	cur := NewCursor("  mov R1 2 ; set\nhalt")
	cur.skipBlanks()
	assert.Equal("mov", cur.word())
	assert.Equal("  mov R1 2 ; set", cur.lineText())
	cur.skipBlanks()
	assert.Equal("R1", cur.word())
	cur.skipBlanks()
	assert.Equal("2", cur.word())
	cur.skipBlanks()
	assert.True(cur.atLineEnd())
	cur.skipLine()
	assert.Equal(2, cur.Line)
	assert.Equal("halt", cur.rest())
	assert.True(cur.Done())
}

func TestAssembleLineCorrespondence(t *testing.T) {
	src := strings.Join([]string{
		"; header comment",
		"",
		".start",
		"  mov R1 5",
		"\tadd R1 R2   ; trailing comment",
		"halt",
	}, "\n") + "\n"

	prog, labels, err := Assemble(src, nil)
	require.NoError(t, err)

	want := []isa.Instruction{
		isa.New(isa.OpNop),
		isa.New(isa.OpNop),
		isa.New(isa.OpNop),
		isa.New(isa.OpMov, isa.R(1), isa.Imm(5)),
		isa.New(isa.OpAdd, isa.R(1), isa.R(2)),
		isa.New(isa.OpHalt),
	}
	require.Len(t, prog, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(prog[i]), "line %d: %v != %v", i+1, want[i], prog[i])
	}
	assert.Equal(t, Labels{".start": 2}, labels)
}

func TestAssembleTrailingBlanks(t *testing.T) {
	for _, src := range []string{"halt", "halt\n", "halt\n   ", "halt   \t"} {
		prog, _, err := Assemble(src, nil)
		require.NoError(t, err, "%q", src)
		assert.Len(t, prog, 1, "%q", src)
	}

	prog, _, err := Assemble("", nil)
	require.NoError(t, err)
	assert.Empty(t, prog)
}

func TestAssembleOperandForms(t *testing.T) {
	locs := Locations{"led": 1204}
	src := `mov R2 [0x4B0]
mov [led] R3
mov R4 [r5]
MOV [R6] R7
mov R8 R9
mov R10 -2
mov R11 led
Dbg 0x10
dbg
ldstk R3 0xFFF
shr R1 3`

	prog, _, err := Assemble(src, locs)
	require.NoError(t, err)

	want := []isa.Instruction{
		isa.New(isa.OpMov, isa.R(2), isa.MemImm(0x4B0)),
		isa.New(isa.OpMov, isa.MemImm(1204), isa.R(3)),
		isa.New(isa.OpMov, isa.R(4), isa.MemReg(5)),
		isa.New(isa.OpMov, isa.MemReg(6), isa.R(7)),
		isa.New(isa.OpMov, isa.R(8), isa.R(9)),
		isa.New(isa.OpMov, isa.R(10), isa.Imm(0xFFFE)),
		isa.New(isa.OpMov, isa.R(11), isa.Imm(1204)),
		isa.New(isa.OpDbg, isa.Imm(0x10)),
		isa.New(isa.OpDbgRegs),
		isa.New(isa.OpLdstk, isa.R(3), isa.Imm(0xFFF)),
		isa.New(isa.OpShr, isa.R(1), isa.Imm(3)),
	}
	require.Len(t, prog, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(prog[i]), "line %d: %v != %v", i+1, want[i], prog[i])
	}
}

func TestLocationsShadowRegisters(t *testing.T) {
	_, _, err := Assemble("mov R1 5", Locations{"R1": 7})
	assert.ErrorIs(t, err, ErrOperandKind)
}

func TestAssembleLabels(t *testing.T) {
	src := `jmp .end
.loop
sub R1 1
jnz .loop R1
call .sub
.end
halt
.sub
ret`

	prog, labels, err := Assemble(src, nil)
	require.NoError(t, err)
	assert.Equal(t, Labels{".loop": 1, ".end": 5, ".sub": 7}, labels)

	assert.True(t, isa.New(isa.OpJmp, isa.Imm(5)).Equal(prog[0]), "%v", prog[0])
	assert.True(t, isa.New(isa.OpJnz, isa.Imm(1), isa.R(1)).Equal(prog[3]), "%v", prog[3])
	assert.True(t, isa.New(isa.OpCall, isa.Imm(7)).Equal(prog[4]), "%v", prog[4])
	for _, in := range prog {
		for _, arg := range in.Args {
			assert.NotEqual(t, isa.KindLabel, arg.Kind)
		}
	}
}

func TestParseKeepsLabelsSymbolic(t *testing.T) {
	prog, labels, err := NewAssembler(nil).Parse("jmp .x\n.x")
	require.NoError(t, err)
	assert.Equal(t, isa.Label(".x"), prog[0].Args[0])
	assert.Equal(t, Labels{".x": 1}, labels)
}

func TestAssemblerReuse(t *testing.T) {
	a := NewAssembler(nil)
	_, _, err := a.Assemble(".a\nhalt")
	require.NoError(t, err)
	_, labels, err := a.Assemble(".a\nhalt")
	require.NoError(t, err)
	assert.Equal(t, Labels{".a": 0}, labels)
}

func TestAssembleLabelMissing(t *testing.T) {
	_, _, err := Assemble("nop\njz .nowhere R1", nil)

	var missing ErrLabelMissing
	require.True(t, errors.As(err, &missing), "%v", err)
	assert.Equal(t, ErrLabelMissing(".nowhere"), missing)

	var syn *ErrSyntax
	require.True(t, errors.As(err, &syn))
	assert.Equal(t, 2, syn.LineNo)
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		src    string
		want   error
		lineNo int
	}{
		{"frob R1", ErrMnemonicUnknown, 1},
		{"nop\nmov R1", ErrOperandCount, 2},
		{"halt R1", ErrOperandCount, 1},
		{"add R1 R2 R3", ErrOperandCount, 1},
		{"mov [1] [2]", ErrOperandKind, 1},
		{"not 5", ErrOperandKind, 1},
		{"jz R1 R1", ErrOperandKind, 1},
		{"mov R1 .x", ErrOperandKind, 1},
		{"mov R1 0xZZ", ErrLiteral, 1},
		{"mov R1 [R1", ErrBracket, 1},
		{"mov R1 []", ErrBracket, 1},
		{"mov R1 [foo]", ErrBracket, 1},
		{"mov R16 1", ErrRegister, 1},
		{"mov R1 $x", ErrOperandInvalid, 1},
		{".1bad", ErrLabelInvalid, 1},
		{".ok extra", ErrLabelInvalid, 1},
		{"jmp .", ErrLabelInvalid, 1},
		{".a\nnop\n.a", ErrLabelDuplicate, 3},
		{"ststk R1 0x1000", ErrOffsetRange, 1},
	}

	for _, tc := range tests {
		_, _, err := Assemble(tc.src, nil)
		require.Error(t, err, "%q", tc.src)
		assert.ErrorIs(t, err, tc.want, "%q", tc.src)

		var syn *ErrSyntax
		if assert.True(t, errors.As(err, &syn), "%q", tc.src) {
			assert.Equal(t, tc.lineNo, syn.LineNo, "%q", tc.src)
		}
	}
}

func TestErrorsPrintPlainLineNumbers(t *testing.T) {
	src := strings.Repeat("nop\n", 1233) + "frob"
	_, _, err := Assemble(src, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1234 ")

	err = &ErrDefinition{LineNo: 1234, Name: "x", Err: ErrDefinitionSyntax}
	assert.Contains(t, err.Error(), "line 1234 ")
}

// TestEveryFormRoundTrips checks that every opcode and operand signature
// survives both printing and reassembly, and encoding and decoding.
func TestEveryFormRoundTrips(t *testing.T) {
	var (
		R      = isa.R
		Imm    = isa.Imm
		MemImm = isa.MemImm
		MemReg = isa.MemReg
		New    = isa.New
	)
	forms := []isa.Instruction{
		New(isa.OpNop),
		New(isa.OpHalt),
		New(isa.OpMov, R(1), Imm(0xBEEF)),
		New(isa.OpMov, R(2), MemImm(0x04B0)),
		New(isa.OpMov, MemImm(0x04B4), R(3)),
		New(isa.OpMov, R(4), R(5)),
		New(isa.OpMov, R(6), MemReg(7)),
		New(isa.OpMov, MemReg(8), R(9)),
		New(isa.OpJmp, Imm(0x1234)),
		New(isa.OpJz, Imm(0x10), R(1)),
		New(isa.OpJnz, Imm(0x20), R(2)),
		New(isa.OpJpos, Imm(0x30), R(3)),
		New(isa.OpJposz, Imm(0x40), R(4)),
		New(isa.OpJneg, Imm(0x50), R(5)),
		New(isa.OpJnegz, Imm(0xFFFF), R(15)),
		New(isa.OpSetz, R(1), R(2)),
		New(isa.OpSetnz, R(3), R(4)),
		New(isa.OpSetpos, R(5), R(6)),
		New(isa.OpSetposz, R(7), R(8)),
		New(isa.OpSetneg, R(9), R(10)),
		New(isa.OpSetnegz, R(11), R(12)),
		New(isa.OpAdd, R(1), Imm(7)),
		New(isa.OpAdd, R(1), R(2)),
		New(isa.OpSub, R(3), Imm(0x8000)),
		New(isa.OpSub, R(3), R(4)),
		New(isa.OpAnd, R(5), Imm(0x00FF)),
		New(isa.OpAnd, R(5), R(6)),
		New(isa.OpOr, R(7), Imm(0xF000)),
		New(isa.OpOr, R(7), R(8)),
		New(isa.OpNot, R(9)),
		New(isa.OpShl, R(10), Imm(15)),
		New(isa.OpShl, R(10), R(11)),
		New(isa.OpShr, R(12), Imm(3)),
		New(isa.OpShr, R(12), R(13)),
		New(isa.OpCall, Imm(0x0400)),
		New(isa.OpRet),
		New(isa.OpPush, R(14)),
		New(isa.OpPop, R(15)),
		New(isa.OpLdstk, R(1), Imm(0x0FFF)),
		New(isa.OpStstk, R(2), Imm(0)),
		New(isa.OpDbg, Imm(0x0100)),
		New(isa.OpDbgRegs),
	}

	seen := map[isa.Opcode]bool{}
	for _, in := range forms {
		seen[in.Op] = true
		require.True(t, in.Valid(), "%v", in)

		prog, _, err := Assemble(in.String(), nil)
		require.NoError(t, err, "%v", in)
		require.Len(t, prog, 1)
		assert.True(t, in.Equal(prog[0]), "reassembled %v as %v", in, prog[0])

		got, err := isa.Decode(in.Encode())
		require.NoError(t, err, "%v", in)
		assert.True(t, in.Equal(got), "decoded %v as %v", in, got)
	}

	for op := isa.Opcode(0); op < isa.NumOpcodes; op++ {
		assert.True(t, seen[op], "%v has no form", op)
	}
}

func TestAssembleLabelWithComment(t *testing.T) {
	prog, labels, err := Assemble(".top ; entry\njmp .top", nil)
	require.NoError(t, err)
	assert.Len(t, prog, 2)
	assert.Equal(t, Labels{".top": 0}, labels)
}

func TestAssembleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.asm")
	require.NoError(t, os.WriteFile(path, []byte("mov R1 1\nhalt\n"), 0o644))

	prog, _, err := AssembleFile(path, nil)
	require.NoError(t, err)
	assert.Len(t, prog, 2)

	_, _, err = AssembleFile(filepath.Join(dir, "missing.asm"), nil)
	var sio *ErrSourceIO
	require.True(t, errors.As(err, &sio))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
