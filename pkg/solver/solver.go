// Package solver drives contact constraints to convergence with repeated
// Gauss-Seidel sweeps, sequentially or in conflict-free parallel batches.
package solver

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-softrigid/pkg/config"
	"github.com/opd-ai/go-softrigid/pkg/contact"
	"github.com/opd-ai/go-softrigid/pkg/logging"
)

// Result summarises one solve
type Result struct {
	Iterations int
	// Residual sums, over the last sweep, the squared approach speed each
	// constraint found before correcting it and the value its Solve returned
	Residual  float64
	Converged bool

	// Sticking and Sliding count rigid contacts by their final friction mode
	Sticking int
	Sliding  int
}

// Solver runs sweeps over a set of constraints
type Solver struct {
	cfg     config.SolverConfig
	logger  *logging.Logger
	metrics *Metrics
}

// New creates a solver. logger and metrics may be nil. A worker count
// below one uses GOMAXPROCS.
func New(cfg config.SolverConfig, logger *logging.Logger, metrics *Metrics) *Solver {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Solver{cfg: cfg, logger: logger, metrics: metrics}
}

// Solve sweeps the constraints in order until the residual drops to the
// configured tolerance or the iteration limit is reached.
func (s *Solver) Solve(ctx context.Context, constraints []contact.Constraint) (Result, error) {
	return s.run(ctx, constraints, func(context.Context) (float64, error) {
		var residual float64
		for _, c := range constraints {
			residual += solveOne(c)
		}
		return residual, nil
	})
}

// SolveParallel is Solve with each sweep split into batches from Partition.
// Batches run one after another; constraints within a batch run concurrently,
// bounded by the configured worker count. Residuals are summed in batch
// order so results do not depend on scheduling.
func (s *Solver) SolveParallel(ctx context.Context, constraints []contact.Constraint) (Result, error) {
	batches := Partition(constraints)
	residuals := make([][]float64, len(batches))
	for i, b := range batches {
		residuals[i] = make([]float64, len(b))
	}

	return s.run(ctx, constraints, func(ctx context.Context) (float64, error) {
		var residual float64
		for bi, batch := range batches {
			g, _ := errgroup.WithContext(ctx)
			g.SetLimit(s.cfg.Workers)
			out := residuals[bi]
			for i, c := range batch {
				g.Go(func() error {
					out[i] = solveOne(c)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return 0, err
			}
			for _, r := range out {
				residual += r
			}
		}
		return residual, nil
	})
}

func (s *Solver) run(ctx context.Context, constraints []contact.Constraint, sweep func(context.Context) (float64, error)) (Result, error) {
	var res Result
	if len(constraints) == 0 {
		res.Converged = true
		return res, nil
	}

	for res.Iterations < s.cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("solve interrupted after %d sweeps: %w", res.Iterations, err)
		}
		residual, err := sweep(ctx)
		if err != nil {
			return res, fmt.Errorf("sweep %d: %w", res.Iterations, err)
		}
		res.Iterations++
		res.Residual = residual
		if residual <= s.cfg.ResidualTolerance {
			res.Converged = true
			break
		}
	}

	for _, c := range constraints {
		if _, pin := c.(*contact.StaticConstraint); pin {
			continue
		}
		if c.Static() {
			res.Sticking++
		} else {
			res.Sliding++
		}
	}

	s.metrics.observe(res)
	if res.Converged {
		s.logger.Debug(ctx, "contacts solved",
			"constraints", len(constraints),
			"iterations", res.Iterations,
			"residual", res.Residual)
	} else {
		s.logger.Warn(ctx, "contact solve hit iteration limit",
			"constraints", len(constraints),
			"iterations", res.Iterations,
			"residual", res.Residual)
	}
	return res, nil
}

// solveOne corrects c and returns its share of the sweep residual
func solveOne(c contact.Constraint) float64 {
	vn := c.VelocityB().Sub(c.VelocityA()).Dot(c.Normal())
	var pre float64
	if vn < 0 {
		pre = vn * vn
	}
	return pre + c.Solve()
}

// Partition groups constraints into batches whose members share no node and
// no movable rigid object. Each constraint goes to the batch after the last
// one holding any of its participants, so constraints sharing a participant
// keep their construction order and a parallel sweep matches a sequential
// one. Static objects never conflict since impulses on them are discarded.
func Partition(constraints []contact.Constraint) [][]contact.Constraint {
	var batches [][]contact.Constraint
	last := make(map[any]int)

	for _, c := range constraints {
		keys := participantKeys(c)
		target := 0
		for _, k := range keys {
			if i, ok := last[k]; ok && i+1 > target {
				target = i + 1
			}
		}
		if target == len(batches) {
			batches = append(batches, nil)
		}
		batches[target] = append(batches[target], c)
		for _, k := range keys {
			last[k] = target
		}
	}
	return batches
}

func participantKeys(c contact.Constraint) []any {
	p := c.Participants()
	keys := make([]any, 0, len(p.Nodes)+1)
	if p.Object != nil {
		keys = append(keys, p.Object)
	}
	for _, n := range p.Nodes {
		keys = append(keys, n)
	}
	return keys
}
