package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"emu16/pkg/asm"
	"emu16/pkg/cpu"
	"emu16/pkg/grid"
	"emu16/pkg/isa"
)

const (
	cellSize = 16
	monitorW = cpu.FramebufferCols * cellSize
	monitorH = cpu.FramebufferRows * cellSize

	bits  = 16
	slotW = monitorW / bits

	ledY    = monitorH + 8
	ledH    = 12
	switchY = monitorH + 28
	switchH = 20
	labelY  = monitorH + 64

	screenW = monitorW
	screenH = monitorH + 72
)

// buttonKeys maps keys to button bits 0..7.
var buttonKeys = [...]ebiten.Key{
	ebiten.KeyArrowUp,
	ebiten.KeyArrowDown,
	ebiten.KeyArrowLeft,
	ebiten.KeyArrowRight,
	ebiten.KeyZ,
	ebiten.KeyX,
	ebiten.KeyEnter,
	ebiten.KeySpace,
}

var (
	ledOn     = color.RGBA{0xFF, 0x30, 0x30, 0xFF}
	ledOff    = color.RGBA{0x40, 0x10, 0x10, 0xFF}
	switchOn  = color.RGBA{0xE0, 0xE0, 0xE0, 0xFF}
	switchOff = color.RGBA{0x50, 0x50, 0x50, 0xFF}
	labelText = color.RGBA{0xC0, 0xC0, 0xC0, 0xFF}
	errorText = color.RGBA{0xFF, 0x40, 0x40, 0xFF}
)

// Game is the ebiten host. It is also the cpu.Panel the emulator syncs with,
// so drawing only ever sees published state.
type Game struct {
	vm      *cpu.CPU
	monitor *ebiten.Image // reused 40×30 canvas, one pixel per cell

	switches int16
	buttons  int16

	led int16
	fb  [cpu.FramebufferCells]int16

	err error
}

func (g *Game) Inputs() (switches, buttons int16) {
	return g.switches, g.buttons
}

func (g *Game) Publish(led int16, fb [cpu.FramebufferCells]int16) {
	g.led = led
	g.fb = fb
}

// bitForSlot puts the most significant bit leftmost.
func bitForSlot(slot int) int {
	return bits - 1 - slot
}

// pollButtons builds the button bit set from the keys currently held.
func pollButtons(pressed func(ebiten.Key) bool) int16 {
	var v int16
	for bit, key := range buttonKeys {
		if pressed(key) {
			v |= 1 << bit
		}
	}
	return v
}

// toggleSwitchAt flips the switch under the pixel, if any.
func (g *Game) toggleSwitchAt(x, y int) bool {
	slot, ok := grid.CellAt(x, y, 0, switchY, slotW, switchH, bits, 1)
	if !ok {
		return false
	}
	g.switches ^= 1 << bitForSlot(slot)
	return true
}

// step runs one host exchange. After a failure the last frame stays up.
func (g *Game) step() {
	if g.err != nil {
		return
	}
	if err := g.vm.Sync(g); err != nil {
		g.err = err
		log.Printf("Execution stopped: %v", err)
	}
}

func (g *Game) Update() error {
	g.buttons = pollButtons(ebiten.IsKeyPressed)
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.toggleSwitchAt(ebiten.CursorPosition())
	}

	g.step()
	return nil
}

// framePixels renders published framebuffer cells as RGBA8888.
func framePixels(fb *[cpu.FramebufferCells]int16) []byte {
	pixels := make([]byte, len(fb)*4)
	for i, cell := range fb {
		pixels[i*4+0], pixels[i*4+1], pixels[i*4+2], pixels[i*4+3] = cpu.CellRGBA(cell)
	}
	return pixels
}

func fillRect(screen *ebiten.Image, x, y, w, h int, c color.Color) {
	screen.SubImage(image.Rect(x, y, x+w, y+h)).(*ebiten.Image).Fill(c)
}

func (g *Game) drawMonitor(screen *ebiten.Image) {
	if g.monitor == nil {
		g.monitor = ebiten.NewImage(cpu.FramebufferCols, cpu.FramebufferRows)
	}
	g.monitor.WritePixels(framePixels(&g.fb))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(cellSize, cellSize)
	screen.DrawImage(g.monitor, op)
}

func (g *Game) drawPanel(screen *ebiten.Image) {
	face := basicfont.Face7x13
	for slot := 0; slot < bits; slot++ {
		x, _ := grid.GetGridCoords(slot, bits)
		px := x * slotW
		mask := int16(1) << bitForSlot(slot)

		led := ledOff
		if g.led&mask != 0 {
			led = ledOn
		}
		fillRect(screen, px+slotW/4, ledY, slotW/2, ledH, led)

		sw := switchOff
		if g.switches&mask != 0 {
			sw = switchOn
		}
		fillRect(screen, px+4, switchY, slotW-8, switchH, sw)

		label := strconv.Itoa(bitForSlot(slot))
		w := text.BoundString(face, label).Dx()
		text.Draw(screen, label, face, px+(slotW-w)/2, labelY, labelText)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.drawMonitor(screen)
	g.drawPanel(screen)

	if g.err != nil {
		text.Draw(screen, g.err.Error(), basicfont.Face7x13, 4, 14, errorText)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenW, screenH
}

func main() {
	defsPath := flag.String("defs", "", "definitions file (default: vars.locations beside the source, then in the working directory)")
	batch := flag.Int("batch", cpu.DefaultBatchSize, "instructions executed per frame")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: desktop [flags] <file.asm>")
		flag.Usage()
		os.Exit(2)
	}

	prog, _, err := asm.LoadProgram(flag.Arg(0), *defsPath)
	if err != nil {
		log.Fatalf("Assembly failed: %v", err)
	}
	if err := isa.WriteTrace(os.Stdout, prog); err != nil {
		log.Fatalf("Failed to write trace: %v", err)
	}

	vm := cpu.NewCPU(prog)
	vm.BatchSize = *batch

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("emu16")

	game := &Game{vm: vm}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
