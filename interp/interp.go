package interp

import (
	"github.com/sva-lab/wmc/deptrack"
	"github.com/sva-lab/wmc/ir"
	"github.com/sva-lab/wmc/label"
)

// Interp owns everything shared across every thread of one exploration:
// the compiled module, the storage arena, and the linear addresses
// assigned to its static globals. It does not itself schedule threads —
// that is package explore's job (spec.md §4.G/§4.H's split: "the driver
// owns the graph, the interpreter and the calculators").
type Interp struct {
	Mod     *ir.Module
	Arena   *Arena
	Globals map[string]uint64
}

// New lays out mod's global variables in the arena's static region and
// returns an Interp ready to spawn threads.
func New(mod *ir.Module) *Interp {
	arena := NewArena()
	globals := make(map[string]uint64, len(mod.Globals))
	for i := range mod.Globals {
		g := &mod.Globals[i]
		addr := arena.Alloc(label.StorageStatic, 0, g.Type.SizeOf())
		g.Addr = addr.Linear()
		globals[g.Name] = g.Addr
		arena.MarkWritten(g.Addr)
	}
	return &Interp{Mod: mod, Arena: arena, Globals: globals}
}

// EntryFunction returns the module's designated entry function.
func (in *Interp) EntryFunction() (*ir.Function, bool) {
	fn, ok := in.Mod.Functions[in.Mod.Main]
	return fn, ok
}

// LookupFunction resolves a pthread_create target or other by-name call.
func (in *Interp) LookupFunction(name string) (*ir.Function, bool) {
	fn, ok := in.Mod.Functions[name]
	return fn, ok
}

// SpawnThread builds a Thread bound to this Interp's module and arena.
// The caller (package explore) assigns id and supplies a dependency
// tracker — freshly created for the initial thread, or Tracker.Fork'd
// from the parent for everything spawned by a ThreadCreate.
func (in *Interp) SpawnThread(id int, dep *deptrack.Tracker, fn *ir.Function, args []uint64) *Thread {
	return NewThread(id, in.Mod, in.Arena, in.Globals, dep, fn, args)
}

// GlobalAddr returns the linear address assigned to a static global, or
// (0, false) if name is not a global of this module.
func (in *Interp) GlobalAddr(name string) (uint64, bool) {
	addr, ok := in.Globals[name]
	return addr, ok
}
