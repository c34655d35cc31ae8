// Package xrandr discovers connected monitors over X11 RandR. The daemon
// uses it to synthesize a screen layout when the user has not written one.
package xrandr

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgbutil"

	"github.com/lumenwm/lumen/display"
)

// Monitor is one active output as reported by RandR.
type Monitor struct {
	Name   string
	X, Y   int
	Width  int
	Height int
}

// Conn wraps the X11 connection used for probing.
type Conn struct {
	xu *xgbutil.XUtil
}

// Connect opens the X11 connection and initializes the RandR extension.
func Connect() (*Conn, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("xrandr: connect: %w", err)
	}
	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("xrandr: randr init: %w", err)
	}
	return &Conn{xu: xu}, nil
}

func (c *Conn) Close() {
	c.xu.Conn().Close()
}

// Monitors returns every active CRTC with its position and pixel size.
func (c *Conn) Monitors() ([]Monitor, error) {
	root := c.xu.RootWin()
	resources, err := randr.GetScreenResources(c.xu.Conn(), root).Reply()
	if err != nil {
		return nil, fmt.Errorf("xrandr: screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.xu.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("crtc%d", i)
		if out, err := randr.GetOutputInfo(c.xu.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		monitors = append(monitors, Monitor{
			Name:   name,
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}
	if len(monitors) == 0 {
		return nil, fmt.Errorf("xrandr: no active monitors")
	}
	return monitors, nil
}

// LayoutFromMonitors converts probed monitors into a screen layout. The
// deviceFor callback decides which display device backs each monitor.
func LayoutFromMonitors(monitors []Monitor, deviceFor func(m Monitor, index int) string) display.ScreenLayout {
	layout := display.ScreenLayout{Screens: make([]display.ScreenDescriptor, 0, len(monitors))}
	for i, m := range monitors {
		layout.Screens = append(layout.Screens, display.ScreenDescriptor{
			Device:      deviceFor(m, i),
			X:           m.X,
			Y:           m.Y,
			Width:       m.Width,
			Height:      m.Height,
			ScaleFactor: 1,
		})
	}
	return layout
}
