package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.2/glfw"

	"github.com/kbrandt/anotherworld/internal/engine"
	"github.com/kbrandt/anotherworld/internal/render"
	"github.com/kbrandt/anotherworld/internal/res"
)

func init() {
	// openGL requires this to render properly
	runtime.LockOSThread()
}

func main() {
	dataDir := flag.String("data-dir", "./another_world", "directory holding memlist.bin and bankNN files")
	headless := flag.Bool("headless", false, "run without opening a window (frames are discarded)")
	startPart := flag.Uint("start-part", uint(res.PartIntro), "game part id to boot into")
	flag.Parse()

	logger := log.New(os.Stderr, "anotherworld: ", log.LstdFlags)

	if err := run(*dataDir, *headless, res.Part(*startPart), logger); err != nil {
		if errors.Is(err, errCleanShutdown) {
			os.Exit(0)
		}
		logger.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

var errCleanShutdown = errors.New("anotherworld: clean shutdown")

func run(dataDir string, headless bool, startPart res.Part, logger *log.Logger) error {
	var sink render.Sink
	var window *glfw.Window

	if headless {
		sink = render.NewHeadlessSink()
	} else {
		if err := glfw.Init(); err != nil {
			return err
		}
		defer glfw.Terminate()

		glfw.WindowHint(glfw.Resizable, glfw.False)
		glfw.WindowHint(glfw.ContextVersionMajor, 3)
		glfw.WindowHint(glfw.ContextVersionMinor, 2)

		w, err := glfw.CreateWindow(render.ScaledW, render.ScaledH, "Another World", nil, nil)
		if err != nil {
			return err
		}
		w.MakeContextCurrent()
		window = w

		glSink, err := render.NewGLSink(window)
		if err != nil {
			return err
		}
		sink = glSink
	}

	e, err := engine.New(dataDir, sink, startPart, logger)
	if err != nil {
		return err
	}

	err = e.Run(func() bool {
		return window != nil && window.ShouldClose()
	})
	if err != nil {
		if render.ErrWindowClosed(err) {
			return errCleanShutdown
		}
		return err
	}
	return nil
}
