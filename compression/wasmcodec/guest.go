package wasmcodec

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/mogaika/gltf_browser/diag"
)

type config struct {
	memoryLimitPages uint32
	name             string
}

type Option func(*config)

// WithMemoryLimitPages caps guest memory, in 64KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *config) { c.memoryLimitPages = pages }
}

func WithModuleName(name string) Option {
	return func(c *config) { c.name = name }
}

// guest is one compiled decoder module and its live instance. Callers
// serialize access: the instance has a single linear memory.
type guest struct {
	runtime    wazero.Runtime
	compiled   wazero.CompiledModule
	name       string
	required   []string
	generation int

	module api.Module
	malloc api.Function
	free   api.Function
}

func newGuest(ctx context.Context, wasm []byte, cfg config, required ...string) (*guest, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.memoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.memoryLimitPages)
	}
	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	g := &guest{runtime: runtime, name: cfg.name, required: required}
	err := g.compile(ctx, wasm)
	if err == nil {
		err = g.instantiate(ctx)
	}
	if err != nil {
		runtime.Close(ctx)
		return nil, err
	}
	diag.Logger().Info("wasm module loaded", zap.String("module", cfg.name), zap.Int("size", len(wasm)))
	return g, nil
}

func (g *guest) compile(ctx context.Context, wasm []byte) error {
	// emscripten and wasi-sdk builds import a handful of wasi functions
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, g.runtime); err != nil {
		return errors.Wrap(err, "wasi")
	}
	compiled, err := g.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return errors.Wrap(err, "compile module")
	}
	g.compiled = compiled
	return nil
}

func (g *guest) instantiate(ctx context.Context) error {
	name := g.name
	if g.generation > 0 {
		name = fmt.Sprintf("%s.%d", g.name, g.generation)
	}
	g.generation++

	module, err := g.runtime.InstantiateModule(ctx, g.compiled,
		wazero.NewModuleConfig().WithName(name).WithStartFunctions("_initialize"))
	if err != nil {
		return errors.Wrap(err, "instantiate module")
	}

	missing := ""
	if module.Memory() == nil {
		missing = "memory"
	}
	for _, fn := range append([]string{"malloc", "free"}, g.required...) {
		if missing == "" && module.ExportedFunction(fn) == nil {
			missing = fn
		}
	}
	if missing != "" {
		module.Close(ctx)
		return errors.Wrapf(ErrABI, "module exports no %s", missing)
	}

	g.module = module
	g.malloc = module.ExportedFunction("malloc")
	g.free = module.ExportedFunction("free")
	return nil
}

// ready replaces an instance that was closed, usually by a canceled
// context while it was running.
func (g *guest) ready(ctx context.Context) error {
	if !g.module.IsClosed() {
		return nil
	}
	diag.Logger().Warn("wasm module closed, instantiating again", zap.String("module", g.name))
	return g.instantiate(ctx)
}

func (g *guest) fn(name string) api.Function {
	return g.module.ExportedFunction(name)
}

func (g *guest) alloc(ctx context.Context, size int) (uint32, error) {
	if size == 0 {
		size = 1
	}
	res, err := g.malloc.Call(ctx, uint64(size))
	if err != nil {
		return 0, err
	}
	ptr := uint32(res[0])
	if ptr == 0 {
		return 0, errors.Wrapf(ErrABI, "malloc(%d) returned null", size)
	}
	return ptr, nil
}

func (g *guest) put(ctx context.Context, data []byte) (uint32, error) {
	ptr, err := g.alloc(ctx, len(data))
	if err != nil {
		return 0, err
	}
	if !g.module.Memory().Write(ptr, data) {
		g.release(ctx, ptr)
		return 0, errors.Wrapf(ErrABI, "write %d bytes at 0x%x out of range", len(data), ptr)
	}
	return ptr, nil
}

func (g *guest) release(ctx context.Context, ptr uint32) {
	if _, err := g.free.Call(ctx, uint64(ptr)); err != nil {
		diag.Logger().Warn("wasm free failed", zap.Uint32("ptr", ptr), zap.Error(err))
	}
}

func (g *guest) close(ctx context.Context) error {
	return g.runtime.Close(ctx)
}
