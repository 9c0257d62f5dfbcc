// Package video is a headless rendering backend. It keeps an in-memory
// framebuffer in place of a window, paces frames at the configured rate and
// clears the buffer on every render.
//
// Options ([video] section):
//
//	width       framebuffer width in pixels (640)
//	height      framebuffer height in pixels (480)
//	fps         target frame rate (60)
//	title       window title (engine name)
//	report      log a frame report every N frames, 0 disables (0)
//	close_after simulate the window closing after N frames, 0 disables (0)
package video

import (
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/hap-engine/internal/engine"
	"github.com/nerrad567/hap-engine/internal/infrastructure/logging"
	"github.com/nerrad567/hap-engine/internal/ini"
	"github.com/nerrad567/hap-engine/internal/modules/options"
)

// ID is the identifier the video module registers under.
const ID = "video"

// Limits on the framebuffer size.
const (
	maxDimension = 8192
	maxFPS       = 1000
)

// ErrWindowClosed is returned by Update once the window has been closed.
var ErrWindowClosed = errors.New("video: window closed")

// Module implements engine.Module.
type Module struct{}

// New returns the video module factory product.
func New() engine.Module {
	return &Module{}
}

// Window is the module state: a framebuffer standing in for a real window.
type Window struct {
	Title  string
	Width  int
	Height int

	frameTime  time.Duration
	report     int
	closeAfter int
	log        *logging.Logger

	pixels []uint32
	frames uint64
	closed bool
}

// Frames returns the number of frames rendered.
func (w *Window) Frames() uint64 { return w.frames }

// Pixel returns the colour at x, y.
func (w *Window) Pixel(x, y int) uint32 { return w.pixels[y*w.Width+x] }

// Create allocates the framebuffer.
func (m *Module) Create(ctx *engine.Context, section *ini.Section) (engine.State, error) {
	r := options.NewReader(section)
	width := r.Int("width", 640)
	height := r.Int("height", 480)
	fps := r.Int("fps", 60)
	title := r.String("title", ctx.Name())
	report := r.Int("report", 0)
	closeAfter := r.Int("close_after", 0)
	r.Positive("width", width)
	r.Positive("height", height)
	r.Positive("fps", fps)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("video: %dx%d exceeds %d pixels per side", width, height, maxDimension)
	}
	if fps > maxFPS {
		fps = maxFPS
	}

	w := &Window{
		Title:      title,
		Width:      width,
		Height:     height,
		frameTime:  time.Second / time.Duration(fps),
		report:     report,
		closeAfter: closeAfter,
		log:        ctx.ModuleLogger(ID),
		pixels:     make([]uint32, width*height),
	}
	w.log.Debug("window created", "title", title, "width", width, "height", height, "fps", fps)
	return w, nil
}

// Load announces the backend.
func (m *Module) Load(_ *engine.Context, state engine.State, identifier string) error {
	w := state.(*Window)
	w.log.Info("video backend ready", "identifier", identifier, "frame_time", w.frameTime.String())
	return nil
}

// Update pumps window events and schedules the next frame.
func (m *Module) Update(_ *engine.Context, state engine.State) (time.Time, error) {
	w := state.(*Window)
	if w.closed {
		return time.Time{}, ErrWindowClosed
	}
	if w.closeAfter > 0 && w.frames >= uint64(w.closeAfter) {
		w.closed = true
		return time.Time{}, ErrWindowClosed
	}

	return time.Now().Add(w.frameTime), nil
}

// Render clears the framebuffer to a colour derived from the frame number.
func (m *Module) Render(_ *engine.Context, state engine.State) {
	w := state.(*Window)
	w.frames++

	colour := clearColour(w.frames)
	for i := range w.pixels {
		w.pixels[i] = colour
	}

	if w.report > 0 && w.frames%uint64(w.report) == 0 {
		w.log.Debug("frame report", "frames", w.frames)
	}
}

// Unload stops frame pacing.
func (m *Module) Unload(_ *engine.Context, state engine.State) {
	w := state.(*Window)
	w.log.Info("video backend stopped", "frames", w.frames)
}

// Destroy releases the framebuffer.
func (m *Module) Destroy(_ *engine.Context, state engine.State) {
	w := state.(*Window)
	w.pixels = nil
	w.closed = true
}

// clearColour cycles the blue channel so successive frames differ.
func clearColour(frame uint64) uint32 {
	const opaque = 0xff000000
	return opaque | uint32(frame%256)
}
