package cpu

import (
	"fmt"
	"io"
	"os"

	"emu16/pkg/isa"
)

const (
	// MemoryCells is the size of the flat address space.
	MemoryCells = 1 << 16

	// DefaultPoison fills registers and memory at power-on.
	DefaultPoison int16 = -2

	// DefaultBatchSize is the number of steps RunBatch executes.
	DefaultBatchSize = 1000

	// Unbounded makes Execute run until halt.
	Unbounded = -1
)

type CPU struct {
	IP   uint16
	Regs [isa.NumRegs]int16

	Halted bool

	// Output is where dbg dumps and the halt notice are written.
	// If nil, os.Stdout is used.
	Output io.Writer

	// BatchSize is the step count of RunBatch and Sync.
	BatchSize int

	mem     [MemoryCells]int16
	program []isa.Instruction
}

// NewCPU creates a CPU that executes program, which must already be resolved.
// Registers and memory are filled with poison, DefaultPoison unless given.
func NewCPU(program []isa.Instruction, poison ...int16) *CPU {
	fill := DefaultPoison
	if len(poison) > 0 {
		fill = poison[0]
	}

	c := &CPU{
		BatchSize: DefaultBatchSize,
		program:   program,
	}
	for i := range c.Regs {
		c.Regs[i] = fill
	}
	for i := range c.mem {
		c.mem[i] = fill
	}
	return c
}

func (c *CPU) outputSink() io.Writer {
	if c.Output != nil {
		return c.Output
	}
	return os.Stdout
}

// ReadMem returns the cell at addr. It is a debug and test hook; hosts
// exchange I/O through the MMIO accessors and Sync.
func (c *CPU) ReadMem(addr uint16) int16 {
	return c.mem[addr]
}

// WriteMem sets the cell at addr. Like ReadMem it is a debug and test hook.
func (c *CPU) WriteMem(addr uint16, val int16) {
	c.mem[addr] = val
}

// Step executes the instruction at IP. A halted CPU does nothing.
func (c *CPU) Step() error {
	if c.Halted {
		return nil
	}

	if int(c.IP) >= len(c.program) {
		return &ErrUndefinedExecution{IP: c.IP}
	}

	in := c.program[c.IP]
	if err := dispatch[in.Op](c, in); err != nil {
		return err
	}

	if !c.Halted {
		c.IP++
	}
	return nil
}

// Execute runs budget steps, or until halt when budget is Unbounded.
func (c *CPU) Execute(budget int) error {
	for n := 0; budget == Unbounded || n < budget; n++ {
		if c.Halted {
			break
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (c *CPU) Run() error {
	return c.Execute(Unbounded)
}

func (c *CPU) RunBatch() error {
	if c.BatchSize <= 0 {
		return c.Execute(DefaultBatchSize)
	}
	return c.Execute(c.BatchSize)
}

var dispatch = [isa.NumOpcodes]func(*CPU, isa.Instruction) error{
	isa.OpNop:  func(*CPU, isa.Instruction) error { return nil },
	isa.OpHalt: (*CPU).opHalt,
	isa.OpMov:  (*CPU).opMov,

	isa.OpJmp:   (*CPU).opJmp,
	isa.OpJz:    (*CPU).opJumpIf,
	isa.OpJnz:   (*CPU).opJumpIf,
	isa.OpJpos:  (*CPU).opJumpIf,
	isa.OpJposz: (*CPU).opJumpIf,
	isa.OpJneg:  (*CPU).opJumpIf,
	isa.OpJnegz: (*CPU).opJumpIf,

	isa.OpSetz:    (*CPU).opSetIf,
	isa.OpSetnz:   (*CPU).opSetIf,
	isa.OpSetpos:  (*CPU).opSetIf,
	isa.OpSetposz: (*CPU).opSetIf,
	isa.OpSetneg:  (*CPU).opSetIf,
	isa.OpSetnegz: (*CPU).opSetIf,

	isa.OpAdd: (*CPU).opALU,
	isa.OpSub: (*CPU).opALU,
	isa.OpAnd: (*CPU).opALU,
	isa.OpOr:  (*CPU).opALU,
	isa.OpShl: (*CPU).opALU,
	isa.OpShr: (*CPU).opALU,
	isa.OpNot: (*CPU).opNot,

	isa.OpCall:  (*CPU).opCall,
	isa.OpRet:   (*CPU).opRet,
	isa.OpPush:  (*CPU).opPush,
	isa.OpPop:   (*CPU).opPop,
	isa.OpLdstk: (*CPU).opLdstk,
	isa.OpStstk: (*CPU).opStstk,

	isa.OpDbg:     (*CPU).opDbg,
	isa.OpDbgRegs: (*CPU).opDbgRegs,
}

// addr turns a register value into a memory address.
func addr(v int16) uint16 {
	return uint16(v)
}

func (c *CPU) load(o isa.Operand) int16 {
	switch o.Kind {
	case isa.KindReg:
		return c.Regs[o.Reg]
	case isa.KindMemImm:
		return c.mem[o.Value]
	case isa.KindMemReg:
		return c.mem[addr(c.Regs[o.Reg])]
	}
	return int16(o.Value)
}

func (c *CPU) store(o isa.Operand, v int16) {
	switch o.Kind {
	case isa.KindReg:
		c.Regs[o.Reg] = v
	case isa.KindMemImm:
		c.mem[o.Value] = v
	case isa.KindMemReg:
		c.mem[addr(c.Regs[o.Reg])] = v
	}
}

// jumpTo leaves IP one short of target; Step's increment lands on it.
func (c *CPU) jumpTo(target isa.Operand) error {
	if target.Kind == isa.KindLabel {
		return fmt.Errorf("%w: %v at IP %d", ErrLabelUnresolved, target, c.IP)
	}
	c.IP = target.Value - 1
	return nil
}

func (c *CPU) sp() *int16 {
	return &c.Regs[isa.SP]
}

func (c *CPU) opHalt(isa.Instruction) error {
	c.Halted = true
	fmt.Fprintln(c.outputSink(), "program halting.")
	return nil
}

func (c *CPU) opMov(in isa.Instruction) error {
	c.store(in.Args[0], c.load(in.Args[1]))
	return nil
}

func (c *CPU) opJmp(in isa.Instruction) error {
	return c.jumpTo(in.Args[0])
}

func (c *CPU) opJumpIf(in isa.Instruction) error {
	if in.Op.Cond().Holds(c.Regs[in.Args[1].Reg]) {
		return c.jumpTo(in.Args[0])
	}
	return nil
}

func (c *CPU) opSetIf(in isa.Instruction) error {
	var v int16
	if in.Op.Cond().Holds(c.Regs[in.Args[1].Reg]) {
		v = 1
	}
	c.Regs[in.Args[0].Reg] = v
	return nil
}

func (c *CPU) opALU(in isa.Instruction) error {
	dst := &c.Regs[in.Args[0].Reg]
	src := c.load(in.Args[1])

	switch in.Op {
	case isa.OpAdd:
		*dst += src
	case isa.OpSub:
		*dst -= src
	case isa.OpAnd:
		*dst &= src
	case isa.OpOr:
		*dst |= src
	case isa.OpShl:
		*dst <<= uint16(src) & 0x0F
	case isa.OpShr:
		*dst >>= uint16(src) & 0x0F
	}
	return nil
}

func (c *CPU) opNot(in isa.Instruction) error {
	r := &c.Regs[in.Args[0].Reg]
	*r = ^*r
	return nil
}

func (c *CPU) opCall(in isa.Instruction) error {
	sp := c.sp()
	c.mem[addr(*sp)] = int16(c.IP)
	*sp++
	return c.jumpTo(in.Args[0])
}

// opRet restores the IP of the call itself; Step's increment then moves past it.
func (c *CPU) opRet(isa.Instruction) error {
	sp := c.sp()
	*sp--
	c.IP = uint16(c.mem[addr(*sp)])
	return nil
}

func (c *CPU) opPush(in isa.Instruction) error {
	sp := c.sp()
	c.mem[addr(*sp)] = c.Regs[in.Args[0].Reg]
	*sp++
	return nil
}

func (c *CPU) opPop(in isa.Instruction) error {
	sp := c.sp()
	*sp--
	c.Regs[in.Args[0].Reg] = c.mem[addr(*sp)]
	return nil
}

func (c *CPU) frameAddr(off isa.Operand) uint16 {
	return addr(*c.sp()) - off.Value
}

func (c *CPU) opLdstk(in isa.Instruction) error {
	c.Regs[in.Args[0].Reg] = c.mem[c.frameAddr(in.Args[1])]
	return nil
}

func (c *CPU) opStstk(in isa.Instruction) error {
	c.mem[c.frameAddr(in.Args[1])] = c.Regs[in.Args[0].Reg]
	return nil
}

// opDbg dumps the inclusive memory range named by this dbg and the next,
// and consumes both slots. The pair never wraps past the last address.
func (c *CPU) opDbg(in isa.Instruction) error {
	next := int(c.IP) + 1
	if next >= len(c.program) || c.program[next].Op != isa.OpDbg {
		return &ErrMalformedDiagnosticPair{IP: c.IP}
	}
	c.IP = uint16(next)

	from, to := in.Args[0].Value, c.program[c.IP].Args[0].Value

	w := c.outputSink()
	fmt.Fprintln(w, "==========")
	fmt.Fprintf(w, "IP: %d\n", c.IP)
	fmt.Fprintf(w, "memory from 0x%X to 0x%X:\n", from, to)
	for a := int(from); a <= int(to); a++ {
		fmt.Fprintln(w, c.mem[a])
	}
	fmt.Fprintln(w, "==========")
	return nil
}

func (c *CPU) opDbgRegs(isa.Instruction) error {
	w := c.outputSink()
	fmt.Fprintln(w, "==========")
	fmt.Fprintf(w, "IP: %d\n", c.IP)
	fmt.Fprintf(w, "regs: %v\n", c.Regs)
	fmt.Fprintln(w, "==========")
	return nil
}
