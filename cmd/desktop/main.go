package main

import (
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"gobf/pkg/asm"
	"gobf/pkg/config"
	"gobf/pkg/cpu"
	"gobf/pkg/grid"
	"gobf/pkg/utils"
)

const (
	screenWidth  = 640
	screenHeight = 480

	cellWidth  = 36
	cellHeight = 28
	tapeLeft   = 8
	tapeTop    = 48
	tapeRows   = 8

	outputTail = 512
)

var (
	colorBackground = color.RGBA{0x1d, 0x2b, 0x53, 0xff}
	colorCell       = color.RGBA{0x29, 0x36, 0x6f, 0xff}
	colorPointer    = color.RGBA{0xff, 0x00, 0x4d, 0xff}
	colorText       = color.RGBA{0xff, 0xf1, 0xe8, 0xff}
	colorDim        = color.RGBA{0x83, 0x76, 0x9c, 0xff}
)

var logger = commonlog.GetLogger("gobf.desktop")

type Game struct {
	vm   *cpu.CPU
	keys *cpu.KeyBuffer
	out  *tail

	face          text.Face
	cols          int
	stepsPerFrame int
	snapshotPath  string

	paused bool
	status string

	// hover is the tape cell under the mouse, or -1.
	hover int
}

func newGame(program []cpu.Instruction, cfg *config.Config, snapshotPath string) *Game {
	g := &Game{
		vm:            cpu.NewCPU(program),
		keys:          &cpu.KeyBuffer{},
		out:           &tail{max: outputTail},
		face:          text.NewGoXFace(basicfont.Face7x13),
		cols:          cfg.Desktop.Columns,
		stepsPerFrame: cfg.Desktop.StepsPerFrame,
		snapshotPath:  snapshotPath,
		hover:         -1,
	}
	g.vm.Input = g.keys
	g.vm.Output = g.out
	return g
}

// tick advances the program by one frame's budget.
func (g *Game) tick() {
	if g.paused || g.vm.Halted {
		return
	}
	if _, err := g.vm.RunSteps(g.stepsPerFrame); err != nil {
		logger.Errorf("program stopped: %v", err)
	}
}

func (g *Game) Update() error {
	for _, r := range ebiten.AppendInputChars(nil) {
		if r < 256 {
			g.keys.PushKey(byte(r))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.keys.PushKey(10) // ASCII newline
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.keys.PushKey(8) // ASCII backspace
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) && inpututil.IsKeyJustPressed(ebiten.KeyD) {
		g.keys.Close()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF6) && g.paused {
		if err := g.vm.Step(); err != nil {
			logger.Errorf("program stopped: %v", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		g.saveSnapshot()
	}

	g.hover = -1
	if cell, ok := g.cellAt(ebiten.CursorPosition()); ok {
		g.hover = cell
	}

	g.tick()
	return nil
}

func (g *Game) saveSnapshot() {
	if err := g.vm.HibernateToFile(g.snapshotPath); err != nil {
		g.status = fmt.Sprintf("snapshot failed: %v", err)
		return
	}
	g.status = "snapshot saved to " + g.snapshotPath
}

// state describes the run for the header line.
func (g *Game) state() string {
	switch {
	case g.vm.Err != nil:
		return "error: " + g.vm.Err.Error()
	case g.vm.Halted:
		return "halted"
	case g.vm.Waiting:
		return "waiting for input"
	case g.paused:
		return "paused (F6 steps)"
	default:
		return "running"
	}
}

// firstVisibleCell returns the first tape cell of the page holding the data pointer.
func firstVisibleCell(dp, cols, rows int) int {
	page := cols * rows
	return dp / page * page
}

// cellAt returns the tape cell drawn at screen position (x, y).
func (g *Game) cellAt(x, y int) (int, bool) {
	if x < tapeLeft || y < tapeTop {
		return 0, false
	}
	col := (x - tapeLeft) / cellWidth
	row := (y - tapeTop) / cellHeight
	if col >= g.cols || row >= tapeRows {
		return 0, false
	}
	return firstVisibleCell(g.vm.DP, g.cols, tapeRows) + grid.GetIndex(col, row, g.cols), true
}

func (g *Game) drawText(screen *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, g.face, op)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)

	header := fmt.Sprintf("ip %d/%d  dp %d  steps %d  %s", g.vm.IP, len(g.vm.Program), g.vm.DP, g.vm.Steps, g.state())
	g.drawText(screen, header, 8, 8, colorText)
	if g.status != "" {
		g.drawText(screen, g.status, 8, 24, colorDim)
	}

	first := firstVisibleCell(g.vm.DP, g.cols, tapeRows)
	for i := 0; i < g.cols*tapeRows; i++ {
		x, y := grid.GetGridCoords(i, g.cols)
		px := float32(tapeLeft + x*cellWidth)
		py := float32(tapeTop + y*cellHeight)

		clr := colorCell
		if first+i == g.vm.DP {
			clr = colorPointer
		}
		vector.DrawFilledRect(screen, px, py, cellWidth-4, cellHeight-4, clr, false)

		valueClr := color.Color(colorText)
		if first+i >= g.vm.Tape.Len() {
			valueClr = colorDim
		}
		g.drawText(screen, fmt.Sprintf("%02X", g.vm.Tape.At(first+i)), float64(px)+8, float64(py)+6, valueClr)
	}

	outTop := float64(tapeTop + tapeRows*cellHeight + 16)
	info := fmt.Sprintf("output (cells %d-%d shown, input queue %d)", first, first+g.cols*tapeRows-1, g.keys.Len())
	if g.hover >= 0 {
		v := g.vm.Tape.At(g.hover)
		info += fmt.Sprintf("  cell %d = %d (0x%02X)", g.hover, v, v)
	}
	g.drawText(screen, info, 8, outTop, colorDim)
	for i, line := range g.out.Lines(8) {
		g.drawText(screen, line, 8, outTop+float64(18*(i+1)), colorText)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// tail keeps the last max bytes written to it.
type tail struct {
	buf []byte
	max int
}

func (t *tail) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

// Lines returns up to n of the most recent output lines with unprintable
// bytes shown as dots.
func (t *tail) Lines(n int) []string {
	var sb strings.Builder
	for _, b := range t.buf {
		switch {
		case b == '\n':
			sb.WriteByte('\n')
		case b >= 0x20 && b < 0x7f:
			sb.WriteByte(b)
		default:
			sb.WriteByte('.')
		}
	}
	lines := strings.Split(sb.String(), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: desktop <program.bf>")
		os.Exit(2)
	}
	filename := os.Args[1]

	source, fullPath, err := utils.ReadSource(filename)
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}

	cfg, err := config.FindAndLoad(filepath.Dir(fullPath))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	commonlog.Configure(cfg.Log.Verbosity, cfg.LogFile())

	program, _, err := asm.Assemble(source)
	if err != nil {
		log.Fatalf("Assembly failed: %v", err)
	}

	snapshotPath := cfg.Resolve(cfg.Run.Snapshot)
	if snapshotPath == "" {
		snapshotPath = strings.TrimSuffix(fullPath, filepath.Ext(fullPath)) + ".snap"
	}

	scale := cfg.Desktop.Scale
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth*scale, screenHeight*scale)
	ebiten.SetWindowTitle("gobf tape - " + filepath.Base(fullPath))

	game := newGame(program, cfg, snapshotPath)
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
