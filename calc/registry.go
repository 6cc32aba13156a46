package calc

import "github.com/sva-lab/wmc/graph"

// Registry composes an ordered list of calculators plus the name of the
// terminal relation whose irreflexivity is the model's acceptance criterion
// (spec.md §4.E: "Each model ... registers a specific ordered list of
// calculators ... Irreflexivity of the terminal relation of a model ... is
// the acyclicity acceptance criterion").
type Registry struct {
	Calculators []Calculator
	Terminal    string
}

// Init runs Init on every calculator in registration order.
func (r *Registry) Init(g *graph.Graph) {
	for _, c := range r.Calculators {
		c.Init(g)
	}
}

// Fixpoint runs the repeat-until-no-change loop spec.md §4.E describes:
// `repeat { any_changed = OR over calculators.step(); consistent &&=
// irreflexive } until !any_changed`.
func (r *Registry) Fixpoint(g *graph.Graph) (consistent bool) {
	consistent = true
	for {
		anyChanged := false
		for _, c := range r.Calculators {
			changed, irreflexive := c.Step(g)
			anyChanged = anyChanged || changed
			consistent = consistent && irreflexive
		}
		if !anyChanged {
			return consistent
		}
	}
}

// Find returns the calculator registered under name, or nil.
func (r *Registry) Find(name string) Calculator {
	for _, c := range r.Calculators {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// ForModel builds the ordered registry for the named memory model. Model
// names match spec.md §6's configuration surface: "sc", "tso", "ra",
// "rc11", "imm", "lkmm".
func ForModel(model string) *Registry {
	hb := NewHB()
	co := NewCO()

	switch model {
	case "sc", "tso", "ra":
		// These three models are accepted directly on hb ∪ co acyclicity;
		// the difference between them is entirely in which orderings the
		// interpreter/graph assign labels (package graph's
		// vclockSyncThreshold and friends), not in which relations the
		// consistency fixpoint runs (spec.md §4.E only prescribes extra
		// calculators for rc11/imm/lkmm).
		return &Registry{Calculators: []Calculator{hb, co}, Terminal: "hb"}
	case "rc11":
		psc := NewPSC(hb, co)
		return &Registry{Calculators: []Calculator{hb, co, psc}, Terminal: "psc"}
	case "imm":
		psc := NewPSC(hb, co)
		ar := NewAR("ar", psc)
		return &Registry{Calculators: []Calculator{hb, co, psc, ar}, Terminal: "ar"}
	case "lkmm":
		prop := NewPROP(hb, co)
		arLkmm := NewAR("ar-lkmm", prop)
		rcu := NewRCU(prop)
		xb := NewXB(prop, arLkmm, rcu)
		// Order mirrors spec.md §4.E's example: "prop, ar-lkmm, pb,
		// rcu-link, rcu, rcu-fence, xb" — pb is not modeled separately
		// (folded into prop/ar, see AR/XB/RCU docs) and rcu-link/rcu-fence
		// are private sub-relations of rcu/xb respectively rather than
		// independently registered calculators.
		return &Registry{Calculators: []Calculator{hb, co, prop, arLkmm, rcu, xb}, Terminal: "xb"}
	default:
		return &Registry{Calculators: []Calculator{hb, co}, Terminal: "hb"}
	}
}
