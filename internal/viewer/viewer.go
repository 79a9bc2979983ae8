// Package viewer runs a scene's frame loop in a terminal and plots every
// transform's world position seen from above.
package viewer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"github.com/ncarnahan/cantus"
)

// UpdateFunc is called once per frame before the scene's end-of-frame
// processing. frame starts at 1.
type UpdateFunc func(scene *cantus.Scene, frame uint64)

// Options configures a Viewer. Zero fields take the defaults noted.
type Options struct {
	// Interval between frames. Default 16ms.
	Interval time.Duration
	// CellsPerUnit is how many rows one world unit spans; columns use twice
	// as many to offset the cell aspect ratio. Default 1.
	CellsPerUnit float32
	Update       UpdateFunc
	// Logger receives loop start and stop records. The zero value discards.
	Logger zerolog.Logger
}

// Clock is the scene resource a Viewer keeps current. Update hooks read it
// to scale motion by real frame time.
type Clock struct {
	Frame   uint64
	Delta   time.Duration
	Elapsed time.Duration
	last    time.Time
}

// Viewer owns the frame loop of one scene. The caller owns the screen and
// must Init it before Run and Fini it afterwards.
type Viewer struct {
	screen tcell.Screen
	scene  *cantus.Scene
	opts   Options
	clock  *Clock
}

var (
	rootStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	childStyle  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// New returns a viewer drawing scene onto screen. The scene's Clock resource
// is reused if present and added otherwise.
func New(screen tcell.Screen, scene *cantus.Scene, opts Options) *Viewer {
	if opts.Interval <= 0 {
		opts.Interval = 16 * time.Millisecond
	}
	if opts.CellsPerUnit <= 0 {
		opts.CellsPerUnit = 1
	}
	clock, ok := cantus.GetResource[Clock](scene.Resources)
	if !ok {
		clock = &Clock{}
		_ = cantus.AddResource(scene.Resources, clock)
	}
	return &Viewer{screen: screen, scene: scene, opts: opts, clock: clock}
}

// Frame returns the number of frames stepped so far.
func (v *Viewer) Frame() uint64 { return v.clock.Frame }

// Run steps and draws a frame every interval until ctx is done or the user
// presses Esc, q or Ctrl-C.
func (v *Viewer) Run(ctx context.Context) error {
	ticker := time.NewTicker(v.opts.Interval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go v.screen.ChannelEvents(events, quit)

	v.opts.Logger.Info().Dur("interval", v.opts.Interval).Msg("frame loop started")
	v.Draw()
	for {
		select {
		case <-ctx.Done():
			v.opts.Logger.Info().Uint64("frames", v.clock.Frame).Msg("frame loop cancelled")
			return nil
		case ev, ok := <-events:
			if !ok || !v.handle(ev) {
				v.opts.Logger.Info().Uint64("frames", v.clock.Frame).Msg("frame loop stopped")
				return nil
			}
		case <-ticker.C:
			v.Step()
			v.Draw()
		}
	}
}

// handle reacts to one terminal event and reports whether the loop goes on.
func (v *Viewer) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return false
		}
	case *tcell.EventResize:
		v.screen.Sync()
		v.Draw()
	}
	return true
}

// Step advances the scene by one frame: the update hook runs, then the
// scene drops the components of entities destroyed during the frame.
func (v *Viewer) Step() {
	now := time.Now()
	c := v.clock
	c.Frame++
	if !c.last.IsZero() {
		c.Delta = now.Sub(c.last)
		c.Elapsed += c.Delta
	}
	c.last = now
	if v.opts.Update != nil {
		v.opts.Update(v.scene, c.Frame)
	}
	v.scene.EndFrame()
}

// Draw renders the current world transforms. The screen centre is the world
// origin, +X points right and +Z points up. The glyph grows with world
// scale; roots and children are coloured apart.
func (v *Viewer) Draw() {
	v.screen.Clear()
	w, h := v.screen.Size()
	ts := v.scene.Transforms
	for k := range ts.Count() {
		i := cantus.EntityInstance(k)
		x, y, ok := v.Project(ts.GetWorldPosition(i))
		if !ok {
			continue
		}
		style := rootStyle
		if ts.GetParent(i).IsValid() {
			style = childStyle
		}
		v.screen.SetContent(x, y, Glyph(ts.GetWorldScale(i)), nil, style)
	}

	status := fmt.Sprintf("frame %d  entities %d  transforms %d", v.clock.Frame, v.scene.Entities.Len(), ts.Count())
	for k, r := range []rune(status) {
		if k >= w || h == 0 {
			break
		}
		v.screen.SetContent(k, 0, r, nil, statusStyle)
	}
	v.screen.Show()
}

// Project maps a world position to a screen cell. ok is false when the
// cell is off screen or on the status row.
func (v *Viewer) Project(p mgl32.Vec3) (x, y int, ok bool) {
	w, h := v.screen.Size()
	unit := float64(v.opts.CellsPerUnit)
	x = w/2 + int(math.Round(float64(p.X())*unit*2))
	y = h/2 - int(math.Round(float64(p.Z())*unit))
	return x, y, x >= 0 && x < w && y >= 1 && y < h
}

// Glyph picks the marker for a world scale.
func Glyph(scale float32) rune {
	switch {
	case scale < 0.75:
		return '.'
	case scale < 1.5:
		return 'o'
	case scale < 3:
		return 'O'
	default:
		return '@'
	}
}
