// Copyright © 2019 mg
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package lcd

import (
	"sync/atomic"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/master-g/mgriscv/pkg/log"
)

// Start brings up the host window and runs the display loop on its own
// goroutine. The device works headless when Start is never called.
func (l *LCD) Start() {
	go l.displayLoop()
}

// Close asks the display loop to quit and waits for it
func (l *LCD) Close() {
	close(l.quit)
	<-l.done
}

func (l *LCD) displayLoop() {
	defer close(l.done)

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		log.Lf("lcd: SDL init failed: %v", err)
		return
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow(l.Name(),
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(l.width), int32(l.height), sdl.WINDOW_SHOWN)
	if err != nil {
		log.Lf("lcd: create window failed: %v", err)
		return
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1,
		sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		log.Lf("lcd: create renderer failed: %v", err)
		return
	}
	defer renderer.Destroy()

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888,
		sdl.TEXTUREACCESS_STREAMING, int32(l.width), int32(l.height))
	if err != nil {
		log.Lf("lcd: create texture failed: %v", err)
		return
	}
	defer texture.Destroy()

	pixels := make([]byte, len(l.framebuf))
	present := func() {
		l.Pixels(pixels)
		texture.Update(nil, unsafe.Pointer(&pixels[0]), l.width*4)
		renderer.Copy(texture, nil, nil)
		renderer.Present()
	}
	present()

	for {
		select {
		case <-l.quit:
			return
		case <-l.flush:
			present()
		default:
		}

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				return
			case *sdl.MouseMotionEvent:
				l.SetMouse(e.X, e.Y, atomic.LoadUint32(&l.mouseSt) != 0)
			case *sdl.MouseButtonEvent:
				l.SetMouse(e.X, e.Y, e.State == sdl.PRESSED)
			}
		}
		sdl.Delay(16)
	}
}
