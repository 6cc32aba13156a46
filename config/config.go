// Package config implements the checker's closed configuration surface
// (spec.md §6 "Configuration"), threaded as an explicit immutable Config
// record (spec.md §9: "Global CLI/option singletons ... threaded as an
// explicit immutable Config record passed to the driver"), following the
// functional-options pattern of eventloop/options.go.
package config

import "fmt"

// Model is the memory model under which a module is checked.
type Model string

const (
	ModelSC   Model = "sc"
	ModelTSO  Model = "tso"
	ModelRA   Model = "ra"
	ModelRC11 Model = "rc11"
	ModelIMM  Model = "imm"
	ModelLKMM Model = "lkmm"
)

// SchedulePolicy selects which ready thread the driver schedules next.
type SchedulePolicy string

const (
	ScheduleLTR       SchedulePolicy = "ltr"
	ScheduleArbitrary SchedulePolicy = "arbitrary"
	ScheduleWF        SchedulePolicy = "wf" // "write first"
	ScheduleWFR       SchedulePolicy = "wfr" // "write first randomized"
)

// BoundType selects which bound decider package consistency applies.
type BoundType string

const (
	BoundNone    BoundType = "none"
	BoundContext BoundType = "context"
	BoundRound   BoundType = "round"
)

// JournalData selects the persistency journaling mode.
type JournalData string

const (
	JournalWriteback JournalData = "writeback"
	JournalOrdered   JournalData = "ordered"
)

// Config is the checker's full, immutable configuration record. Construct
// one with New and a list of Options; never mutate a Config in place.
type Config struct {
	Model Model

	SchedulePolicy SchedulePolicy
	Seed           int64 // only meaningful for arbitrary/wfr

	Bound            *uint
	BoundType        BoundType
	BoundsHistogram  bool

	SymmetryReduction bool // no effect under imm
	IPR               bool // no effect under imm
	DisableBAM        bool
	Lapor             bool // currently disabled regardless of this flag

	Confirmation bool
	Helper       bool
	FinalWrite   bool

	CollectLinearizabilitySpec bool
	CheckLinearizabilitySpec   bool

	Persevere    bool
	JournalData  JournalData
	BlockSize    uint64
	MaxFileSize  uint64

	StopOnFirstError bool
}

// Option mutates a Config under construction. The applyConfig method is
// unexported so every Option must come from this package's constructors
// (mirrors eventloop's LoopOption pattern).
type Option interface {
	applyConfig(*Config) error
}

type optionFunc func(*Config) error

func (f optionFunc) applyConfig(c *Config) error { return f(c) }

// WithModel sets the memory model to check under. Required — New returns
// an error if it is never set.
func WithModel(m Model) Option {
	return optionFunc(func(c *Config) error {
		switch m {
		case ModelSC, ModelTSO, ModelRA, ModelRC11, ModelIMM, ModelLKMM:
			c.Model = m
			return nil
		default:
			return fmt.Errorf("config: unknown model %q", m)
		}
	})
}

// WithSchedulePolicy sets the scheduling policy.
func WithSchedulePolicy(p SchedulePolicy) Option {
	return optionFunc(func(c *Config) error {
		switch p {
		case ScheduleLTR, ScheduleArbitrary, ScheduleWF, ScheduleWFR:
			c.SchedulePolicy = p
			return nil
		default:
			return fmt.Errorf("config: unknown schedule policy %q", p)
		}
	})
}

// WithSeed sets the PRNG seed used by the arbitrary/wfr schedule policies.
func WithSeed(seed int64) Option {
	return optionFunc(func(c *Config) error { c.Seed = seed; return nil })
}

// WithBound sets a numeric bound and its bound_type.
func WithBound(bound uint, kind BoundType) Option {
	return optionFunc(func(c *Config) error {
		switch kind {
		case BoundNone, BoundContext, BoundRound:
			b := bound
			c.Bound = &b
			c.BoundType = kind
			return nil
		default:
			return fmt.Errorf("config: unknown bound type %q", kind)
		}
	})
}

// WithBoundsHistogram enables collection of a bound-exceeded histogram.
func WithBoundsHistogram(enabled bool) Option {
	return optionFunc(func(c *Config) error { c.BoundsHistogram = enabled; return nil })
}

// WithSymmetryReduction toggles symmetry reduction (spec.md §4.G; has no
// effect when Model is imm).
func WithSymmetryReduction(enabled bool) Option {
	return optionFunc(func(c *Config) error { c.SymmetryReduction = enabled; return nil })
}

// WithIPR toggles in-place revisiting (has no effect when Model is imm).
func WithIPR(enabled bool) Option {
	return optionFunc(func(c *Config) error { c.IPR = enabled; return nil })
}

// WithDisableBAM disables barrier-aware moot pruning.
func WithDisableBAM(disabled bool) Option {
	return optionFunc(func(c *Config) error { c.DisableBAM = disabled; return nil })
}

// WithLapor requests LAPOR lock scheduling. Currently always disabled
// regardless of this flag (spec.md §6: "currently disabled"); kept so
// config files/CLI flags that set it do not fail to parse.
func WithLapor(enabled bool) Option {
	return optionFunc(func(c *Config) error { c.Lapor = enabled; return nil })
}

// WithAnnotationFlags sets the confirmation/helper/final-write annotation
// flags referenced by spec.md §6.
func WithAnnotationFlags(confirmation, helper, finalWrite bool) Option {
	return optionFunc(func(c *Config) error {
		c.Confirmation, c.Helper, c.FinalWrite = confirmation, helper, finalWrite
		return nil
	})
}

// WithLinearizabilitySpec sets the mutually-exclusive collect/check flags
// for linearizability-spec mode. Returns an error if both are true.
func WithLinearizabilitySpec(collect, check bool) Option {
	return optionFunc(func(c *Config) error {
		if collect && check {
			return fmt.Errorf("config: collect and check linearizability-spec are mutually exclusive")
		}
		c.CollectLinearizabilitySpec, c.CheckLinearizabilitySpec = collect, check
		return nil
	})
}

// WithPersistence configures the persistency (`persevere`) options.
func WithPersistence(enabled bool, journal JournalData, blockSize, maxFileSize uint64) Option {
	return optionFunc(func(c *Config) error {
		c.Persevere = enabled
		c.JournalData = journal
		c.BlockSize = blockSize
		c.MaxFileSize = maxFileSize
		return nil
	})
}

// WithStopOnFirstError requests the driver stop enumeration after the
// first violating execution (spec.md §4.G "Failure semantics").
func WithStopOnFirstError(enabled bool) Option {
	return optionFunc(func(c *Config) error { c.StopOnFirstError = enabled; return nil })
}

// New builds an immutable Config from opts, applied in order. Sensible
// defaults are set before any option runs; WithModel is mandatory.
func New(opts ...Option) (Config, error) {
	c := Config{
		SchedulePolicy: ScheduleLTR,
		BoundType:      BoundNone,
		JournalData:    JournalOrdered,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyConfig(&c); err != nil {
			return Config{}, err
		}
	}
	if c.Model == "" {
		return Config{}, fmt.Errorf("config: model is required")
	}
	return c, nil
}
