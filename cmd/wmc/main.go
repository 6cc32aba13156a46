// Command wmc is the checker's CLI entry point (spec.md §6). It is
// deliberately thin: there is no C/LLVM front end in this module, so
// -test selects a named litmus program (litmus.go) instead of reading a
// path from disk, and every other flag maps onto a config.Option. Several
// -test names separated by commas run concurrently, one goroutine per
// program, via golang.org/x/sync/errgroup — the fan-out SPEC_FULL reserves
// for independent complete-program checks (each goroutine owns its own
// config.Config/ir.Module/explore.Driver, so nothing is shared).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sva-lab/wmc/config"
	"github.com/sva-lab/wmc/explore"
	"github.com/sva-lab/wmc/internal/bug"
	"github.com/sva-lab/wmc/internal/telemetry"
	"github.com/sva-lab/wmc/ir"
	"github.com/sva-lab/wmc/ir/passes"
	"github.com/sva-lab/wmc/verdict"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main's testable body: it never calls os.Exit itself, returning
// the process exit code instead (spec.md §6: 0/1/42).
func run(args []string, stdout, stderr *os.File) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			if br, ok := r.(bug.Report); ok {
				fmt.Fprintln(stderr, br.Error())
			} else {
				fmt.Fprintf(stderr, "wmc: internal error: %v\n", r)
			}
			exitCode = 1
		}
	}()

	fs := flag.NewFlagSet("wmc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	testFlag := fs.String("test", "sb", fmt.Sprintf("comma-separated litmus test(s) to check (available: %s)", strings.Join(litmusNames(), ", ")))
	modelFlag := fs.String("model", string(config.ModelRC11), "memory model: sc|tso|ra|rc11|imm|lkmm")
	scheduleFlag := fs.String("schedule", string(config.ScheduleLTR), "schedule policy: ltr|arbitrary|wf|wfr")
	seedFlag := fs.Int64("seed", 0, "PRNG seed for arbitrary/wfr schedule policies")
	boundFlag := fs.Uint("bound", 0, "exploration bound (0 disables bounding)")
	boundTypeFlag := fs.String("bound-type", string(config.BoundNone), "bound type: none|context|round")
	boundsHistogramFlag := fs.Bool("bounds-histogram", false, "collect a histogram of bound-exceeded events")
	symmetryFlag := fs.Bool("symmetry-reduction", true, "enable thread-symmetry rf rotation filtering (no effect under imm)")
	iprFlag := fs.Bool("ipr", false, "enable in-place revisiting (no effect under imm)")
	disableBamFlag := fs.Bool("disable-bam", false, "disable barrier-aware moot pruning")
	laporFlag := fs.Bool("lapor", false, "request LAPOR lock scheduling (accepted, but has no effect on exploration)")
	confirmationFlag := fs.Bool("confirmation", false, "mark confirming CAS writes")
	helperFlag := fs.Bool("helper", false, "mark helping CAS writes")
	finalWriteFlag := fs.Bool("final-write", false, "compute the final-write attribute")
	stopOnFirstErrorFlag := fs.Bool("stop-on-first-error", false, "stop enumeration after the first violating execution")
	jsonLogFlag := fs.Bool("json-log", false, "rate-limit the JSON log written to stderr (logs are JSON with or without this flag)")
	verboseFlag := fs.Bool("v", false, "rate-limit the JSON log written to stderr (same effect as -json-log; the log level is unchanged)")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *jsonLogFlag || *verboseFlag {
		telemetry.Configure(stderr, map[time.Duration]int{time.Second: 20})
	}

	opts := buildOptions(*modelFlag, *scheduleFlag, *seedFlag, *boundFlag, *boundTypeFlag,
		*boundsHistogramFlag, *symmetryFlag, *iprFlag, *disableBamFlag, *laporFlag,
		*confirmationFlag, *helperFlag, *finalWriteFlag, *stopOnFirstErrorFlag)
	cfg, err := config.New(opts...)
	if err != nil {
		fmt.Fprintf(stderr, "wmc: %v\n", err)
		return 1
	}

	names := strings.Split(*testFlag, ",")
	reports := make([]verdict.Report, len(names))

	g := new(errgroup.Group)
	for i, name := range names {
		i, name := i, strings.TrimSpace(name)
		build, ok := litmusTests[name]
		if !ok {
			fmt.Fprintf(stderr, "wmc: unknown -test %q (available: %s)\n", name, strings.Join(litmusNames(), ", "))
			return 1
		}
		g.Go(func() error {
			mod := build()
			if err := passes.Verify(mod); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			info := ir.NewModuleInfo()
			if err := passes.AnnotateAssumes(mod, info); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			reports[i] = explore.NewDriver(cfg, mod, info).Run()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(stderr, "wmc: %v\n", err)
		return 1
	}

	worst := 0
	for i, name := range names {
		name = strings.TrimSpace(name)
		r := reports[i]
		fmt.Fprintf(stdout, "%s: explored=%d pruned_by_bound=%d partial=%t\n", name, r.Counters.Explored, r.Counters.PrunedByBound, r.Partial)
		for _, e := range r.Executions {
			if e.Kind == verdict.OK {
				continue
			}
			fmt.Fprintf(stdout, "%s: %s: %s\n", name, e.Kind, e.Message)
		}
		if code := r.ExitCode(); code > worst {
			worst = code
		}
	}
	return worst
}

func buildOptions(model, schedule string, seed int64, bound uint, boundType string,
	boundsHistogram, symmetry, ipr, disableBam, lapor, confirmation, helper, finalWrite, stopOnFirstError bool) []config.Option {
	opts := []config.Option{
		config.WithModel(config.Model(model)),
		config.WithSchedulePolicy(config.SchedulePolicy(schedule)),
		config.WithSeed(seed),
		config.WithBoundsHistogram(boundsHistogram),
		config.WithSymmetryReduction(symmetry),
		config.WithIPR(ipr),
		config.WithDisableBAM(disableBam),
		config.WithLapor(lapor),
		config.WithAnnotationFlags(confirmation, helper, finalWrite),
		config.WithStopOnFirstError(stopOnFirstError),
	}
	if bound > 0 {
		opts = append(opts, config.WithBound(bound, config.BoundType(boundType)))
	}
	return opts
}
