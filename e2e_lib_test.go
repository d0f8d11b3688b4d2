package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emu16/pkg/asm"
	"emu16/pkg/isa"
)

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "prog.bin", defaultOutputPath("prog.asm"))
	assert.Equal(t, "prog.bin", defaultOutputPath("prog"))
	assert.Equal(t, filepath.Join("a", "b.bin"), defaultOutputPath(filepath.Join("a", "b.s")))
}

func TestWriteAndRunBinary(t *testing.T) {
	prog, _, err := asm.Assemble(`mov R1 0x0F0F
mov [0x4B4] R1
mov R2 R1
not R2
halt`, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "prog.bin")
	require.NoError(t, writeBinary(path, isa.EncodeProgram(prog)))

	vm, err := runBinary(path)
	require.NoError(t, err)
	assert.True(t, vm.Halted)
	assert.Equal(t, int16(0x0F0F), vm.LED())
	assert.Equal(t, int16(^0x0F0F), vm.Regs[2])
	assert.Equal(t,
		"run complete ("+path+"): IP=0x0004 R0=-2 R1=3855 R2=-3856 R3=-2 LED=0x0F0F",
		summary(path, vm))
}

func TestRunBinaryErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := runBinary(filepath.Join(dir, "absent.bin"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	odd := filepath.Join(dir, "odd.bin")
	require.NoError(t, writeBinary(odd, []byte{0xFF, 0xFF}))
	_, err = runBinary(odd)
	assert.ErrorIs(t, err, isa.ErrImageLength)

	bad := filepath.Join(dir, "bad.bin")
	require.NoError(t, writeBinary(bad, []byte{0xF7, 0, 0}))
	_, err = runBinary(bad)
	var de *isa.ErrDecode
	assert.ErrorAs(t, err, &de)
}
