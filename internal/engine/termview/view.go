// Package termview is a Graphics backend that draws the scene top-down into
// a terminal. Scene state lives in an embedded headless.Graphics; Render
// projects the X/Z plane of every visible node onto the tcell screen.
package termview

import (
	"fmt"

	"cogentcore.org/core/math32"
	"github.com/gdamore/tcell/v2"

	"github.com/orbitforge/client/internal/engine"
	"github.com/orbitforge/client/internal/engine/headless"
)

var glyphs = map[engine.ShapeKind]rune{
	engine.ShapeBox:      '■',
	engine.ShapeSphere:   '●',
	engine.ShapeCapsule:  '◆',
	engine.ShapeCylinder: '◉',
	engine.ShapePlane:    '·',
	engine.ShapeMesh:     '▲',
}

// View renders a headless scene to a tcell.Screen.
type View struct {
	*headless.Graphics

	screen tcell.Screen
	// cellScale is the world distance covered by one terminal column.
	cellScale float32
	center    math32.Vector3
	status    string
}

var _ engine.Graphics = (*View)(nil)

// New wraps an initialised screen. cellScale must be positive.
func New(screen tcell.Screen, cellScale float32) (*View, error) {
	if cellScale <= 0 {
		return nil, fmt.Errorf("termview: cell scale %g must be positive", cellScale)
	}
	return &View{
		Graphics:  headless.NewGraphics(),
		screen:    screen,
		cellScale: cellScale,
	}, nil
}

// Screen returns the underlying terminal screen.
func (v *View) Screen() tcell.Screen { return v.screen }

// CenterOn moves the viewport so pos is drawn in the middle of the screen.
func (v *View) CenterOn(pos math32.Vector3) { v.center = pos }

// SetStatus sets the text drawn on the bottom row.
func (v *View) SetStatus(s string) { v.status = s }

// Cell maps a world position to a screen cell. ok is false when the
// position falls outside the screen.
func (v *View) Cell(pos math32.Vector3) (x, y int, ok bool) {
	w, h := v.screen.Size()
	// Terminal cells are about twice as tall as wide.
	x = w/2 + int(math32.Round((pos.X-v.center.X)/v.cellScale))
	y = h/2 + int(math32.Round((pos.Z-v.center.Z)/(v.cellScale*2)))
	return x, y, x >= 0 && y >= 0 && x < w && y < h-1
}

func (v *View) Render() error {
	if err := v.Graphics.Render(); err != nil {
		return err
	}
	v.screen.Clear()
	v.Each(func(h engine.GraphicsHandle, n headless.NodeInfo) {
		if !v.visible(h, n) {
			return
		}
		x, y, ok := v.Cell(v.WorldPose(h).Pos)
		if !ok {
			return
		}
		v.screen.SetContent(x, y, glyphFor(n), nil, styleFor(n))
	})
	_, h := v.screen.Size()
	for i, r := range []rune(v.status) {
		v.screen.SetContent(i, h-1, r, nil, tcell.StyleDefault.Reverse(true))
	}
	v.screen.Show()
	return nil
}

// visible reports whether a node and all its ancestors are shown.
func (v *View) visible(h engine.GraphicsHandle, n headless.NodeInfo) bool {
	for {
		if !n.Visible {
			return false
		}
		if n.Parent == 0 {
			return true
		}
		h = n.Parent
		var ok bool
		if n, ok = v.Node(h); !ok {
			return true
		}
	}
}

func glyphFor(n headless.NodeInfo) rune {
	switch n.Category {
	case "camera":
		return '⌂'
	case "light":
		return '*'
	case "effect":
		return '~'
	}
	if g, ok := glyphs[n.Shape.Kind]; ok {
		return g
	}
	return '?'
}

func styleFor(n headless.NodeInfo) tcell.Style {
	style := tcell.StyleDefault
	if n.Material.Color != "" {
		if c := tcell.GetColor(n.Material.Color); c != tcell.ColorDefault {
			style = style.Foreground(c)
		}
	}
	if n.Kind == engine.NodeStatic {
		style = style.Dim(true)
	}
	return style
}
