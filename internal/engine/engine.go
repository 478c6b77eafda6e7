// Package engine drives the per-frame loop that glues the resource
// registry, VM, video model and display sink together (spec.md §4.6).
package engine

import (
	"fmt"
	"log"

	"github.com/kbrandt/anotherworld/internal/render"
	"github.com/kbrandt/anotherworld/internal/res"
	"github.com/kbrandt/anotherworld/internal/video"
	"github.com/kbrandt/anotherworld/internal/vm"
)

// Engine owns one running game: its resource registry, its VM, and the
// video/display pipeline the VM drives.
type Engine struct {
	registry *res.Registry
	video    *video.Video
	vm       *vm.VM
	log      *log.Logger
}

// New opens dataDir's resource registry and wires a VM to render into
// sink, starting at startPart.
func New(dataDir string, sink render.Sink, startPart res.Part, logger *log.Logger) (*Engine, error) {
	registry, err := res.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	renderer := render.New()
	vid := video.New(renderer)
	pacer := render.NewPacer()
	machine := vm.New(registry, vid, pacer, sink, logger)
	machine.RequestPart(startPart)

	e := &Engine{
		registry: registry,
		video:    vid,
		vm:       machine,
		log:      logger,
	}
	if err := e.vm.ApplyPartChange(); err != nil {
		return nil, fmt.Errorf("engine: initial part load: %w", err)
	}
	return e, nil
}

// Tick runs exactly one frame: apply any staged part change, commit staged
// channel PCs, then dispatch every ready channel (spec.md §4.6's three
// numbered steps).
func (e *Engine) Tick() error {
	if err := e.vm.ApplyPartChange(); err != nil {
		return err
	}
	e.vm.CommitStagedPCs()
	return e.vm.RunFrameTick()
}

// Run drives Tick in a loop until stop returns true or a fatal error
// occurs, generalizing the teacher's `for c.IsRunning() { ... c.cycle() }`
// resume loop (cpu/cpu.go) to this engine's frame-based scheduler.
func (e *Engine) Run(stop func() bool) error {
	for !stop() {
		if err := e.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot exposes the VM's debug snapshot for tooling/tests.
func (e *Engine) Snapshot() vm.Snapshot { return e.vm.Snapshot() }
