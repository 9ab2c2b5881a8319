package annot

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"
)

// instantWaiter satisfies FrameWaiter without sleeping and records each
// settle request.
type instantWaiter struct {
	mu    sync.Mutex
	waits []int
}

func (w *instantWaiter) Wait(ctx context.Context, frames int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	w.waits = append(w.waits, frames)
	w.mu.Unlock()
	return nil
}

func (w *instantWaiter) calls() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]int, len(w.waits))
	copy(out, w.waits)
	return out
}

// solidSurface renders a fixed-size page filled with one color, pretending
// the scale was already applied.
type solidSurface struct {
	w, h int
	fill color.RGBA
	err  error
}

func (s solidSurface) Render(ctx context.Context, pageNumber int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	draw.Draw(img, img.Bounds(), image.NewUniform(s.fill), image.Point{}, draw.Src)
	return img, nil
}

// memSink collects persisted payloads by name.
type memSink struct {
	mu       sync.Mutex
	payloads map[string][]byte
}

func newMemSink() *memSink {
	return &memSink{payloads: map[string][]byte{}}
}

func (s *memSink) Persist(name string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[name] = payload
	return nil
}

func (s *memSink) get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payloads[name]
	return p, ok
}

// tickingClock hands out strictly increasing timestamps one second apart.
func tickingClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		out := t
		t = t.Add(time.Second)
		return out
	}
}

// seqIDs generates a-0, a-1, ...
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("a-%d", n)
	}
}
