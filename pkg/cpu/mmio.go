package cpu

// Memory-mapped cells. Everything outside these is plain RAM.
const (
	FramebufferAddr  = 0
	FramebufferCols  = 40
	FramebufferRows  = 30
	FramebufferCells = FramebufferCols * FramebufferRows

	SwitchesAddr uint16 = 1200
	ButtonsAddr  uint16 = 1201
	LEDAddr      uint16 = 1204
)

// Panel is a host device exchanging I/O with the CPU between batches.
type Panel interface {
	// Inputs returns the switch and button bit sets to present to the program.
	Inputs() (switches, buttons int16)
	// Publish receives the LED cell and a copy of the framebuffer.
	Publish(led int16, fb [FramebufferCells]int16)
}

// Framebuffer returns a copy of the framebuffer cells in row-major order.
func (c *CPU) Framebuffer() (fb [FramebufferCells]int16) {
	copy(fb[:], c.mem[FramebufferAddr:FramebufferAddr+FramebufferCells])
	return
}

func (c *CPU) LED() int16 {
	return c.mem[LEDAddr]
}

func (c *CPU) SetSwitches(v int16) {
	c.mem[SwitchesAddr] = v
}

func (c *CPU) SetButtons(v int16) {
	c.mem[ButtonsAddr] = v
}

// Sync performs one host exchange: inputs in, one batch, outputs out.
// Outputs are published even when the batch fails.
func (c *CPU) Sync(p Panel) error {
	switches, buttons := p.Inputs()
	c.SetSwitches(switches)
	c.SetButtons(buttons)

	err := c.RunBatch()

	p.Publish(c.LED(), c.Framebuffer())
	return err
}
