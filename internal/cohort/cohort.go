// Package cohort orchestrates per-patient model builds over a bounded
// worker pool. Each patient's reaction text is compiled and handed to a
// caller-supplied Runner; one patient's failure never aborts the others.
package cohort

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/biosimlabs/textode/internal/compiler"
	"github.com/biosimlabs/textode/pkg/model"
)

// Patient is one cohort member: an identifier and the reaction text of its
// individualized model.
type Patient struct {
	ID    string
	Input string
}

// Result is the outcome of one patient's build-and-run.
type Result struct {
	Patient  string
	Err      error
	Duration time.Duration
}

// Runner executes the downstream work (simulation, estimation) for one
// compiled patient model. Implementations must be safe for concurrent use.
type Runner interface {
	Run(ctx context.Context, patientID string, m *model.Model) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, patientID string, m *model.Model) error

func (f RunnerFunc) Run(ctx context.Context, patientID string, m *model.Model) error {
	return f(ctx, patientID, m)
}

// DefaultWorkers is the pool size used when none is configured: one worker
// per CPU, leaving one free, never fewer than one.
func DefaultWorkers() int {
	if n := runtime.NumCPU() - 1; n > 1 {
		return n
	}
	return 1
}

// Pool runs cohorts. Construct with New.
type Pool struct {
	runner  Runner
	workers int
	logger  *slog.Logger
	// newCompiler builds a fresh compiler per patient so no build state is
	// shared across workers.
	newCompiler func() *compiler.Compiler
}

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers overrides the pool size. Values below one fall back to the
// default.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n >= 1 {
			p.workers = n
		}
	}
}

// WithLogger sets the pool's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// WithCompilerFactory overrides how per-patient compilers are built, e.g.
// to register extra trigger phrases.
func WithCompilerFactory(f func() *compiler.Compiler) Option {
	return func(p *Pool) { p.newCompiler = f }
}

// New returns a Pool dispatching to runner.
func New(runner Runner, opts ...Option) *Pool {
	p := &Pool{
		runner:      runner,
		workers:     DefaultWorkers(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		newCompiler: func() *compiler.Compiler { return compiler.New() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run compiles and runs every patient, at most workers at a time. Results
// come back in input order. The returned error reports input-level
// problems (duplicate identifiers, canceled context), never a single
// patient's failure: those are carried in their Result.
func (p *Pool) Run(ctx context.Context, patients []Patient) ([]Result, error) {
	seen := make(map[string]int, len(patients))
	for i, pt := range patients {
		if pt.ID == "" {
			return nil, fmt.Errorf("patient %d: empty identifier", i+1)
		}
		if j, ok := seen[pt.ID]; ok {
			return nil, fmt.Errorf("duplicate patient identifier %q (positions %d and %d)", pt.ID, j+1, i+1)
		}
		seen[pt.ID] = i
	}

	p.logger.Info("starting cohort run", "patients", len(patients), "workers", p.workers)

	results := make([]Result, len(patients))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, pt := range patients {
		i, pt := i, pt
		g.Go(func() error {
			start := time.Now()
			err := p.runOne(ctx, pt)
			results[i] = Result{Patient: pt.ID, Err: err, Duration: time.Since(start)}
			if err != nil {
				p.logger.Warn("patient failed", "patient", pt.ID, "error", err)
			}
			// Patient failures are recorded, not propagated; only a dead
			// context stops the pool.
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("cohort run aborted: %w", err)
	}
	return results, nil
}

func (p *Pool) runOne(ctx context.Context, pt Patient) error {
	m, err := p.newCompiler().Compile(pt.Input)
	if err != nil {
		return fmt.Errorf("compiling model: %w", err)
	}
	if err := p.runner.Run(ctx, pt.ID, m); err != nil {
		return fmt.Errorf("running model: %w", err)
	}
	return nil
}
