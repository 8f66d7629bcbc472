package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/EngoEngine/ecs"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/opd-ai/go-softrigid/pkg/engine"
	"github.com/opd-ai/go-softrigid/pkg/event"
	"github.com/opd-ai/go-softrigid/pkg/health"
	"github.com/opd-ai/go-softrigid/pkg/render"
	"github.com/opd-ai/go-softrigid/pkg/softbody"
	"github.com/opd-ai/go-softrigid/pkg/solver"
)

var (
	simSteps       int
	clothRows      int
	clothCols      int
	clothSpacing   float64
	clothHeight    float64
	nodeMass       float64
	groundFriction float64
	sphereRadius   float64
	listenAddr     string
	logEvery       int
	renderView     bool
)

// simulateCmd drops a cloth onto a ground plane and a resting sphere
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drop a cloth onto a plane and a sphere",
	Long: `Drop a rectangular cloth grid onto a static ground plane with a static
sphere resting on it, stepping the contact solver for --steps steps.

With --listen, /health, /ready and /metrics are served while the
simulation runs.`,
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.IntVar(&simSteps, "steps", 240, "Number of steps to run")
	f.IntVar(&clothRows, "rows", 12, "Cloth rows")
	f.IntVar(&clothCols, "cols", 12, "Cloth columns")
	f.Float64Var(&clothSpacing, "spacing", 0.05, "Distance between cloth nodes")
	f.Float64Var(&clothHeight, "height", 0.8, "Initial cloth height above the ground")
	f.Float64Var(&nodeMass, "node-mass", 0.01, "Mass of each cloth node")
	f.Float64Var(&groundFriction, "friction", 0.6, "Friction coefficient of the colliders")
	f.Float64Var(&sphereRadius, "radius", 0.2, "Sphere radius")
	f.StringVar(&listenAddr, "listen", "", "Address for health and metrics endpoints (disabled when empty)")
	f.IntVar(&logEvery, "log-every", 60, "Log a progress line every n steps")
	f.BoolVar(&renderView, "render", false, "Print an ASCII side view of the final state")
}

// summary is what simulate reports when it finishes
type summary struct {
	Steps       uint64
	Contacts    int
	MeanHeight  float64
	MinHeight   float64
	Unconverged int
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if simSteps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", simSteps)
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	world := engine.NewWorld(cfg, logger, solver.NewMetrics(reg))

	width := float64(clothCols-1) * clothSpacing
	depth := float64(clothRows-1) * clothSpacing
	cloth, err := softbody.NewClothGrid("cloth", mgl64.Vec3{-width / 2, clothHeight, -depth / 2},
		clothRows, clothCols, clothSpacing, nodeMass)
	if err != nil {
		return err
	}

	sys := engine.NewContactSystem(ctx, world)
	ecsWorld := &ecs.World{}
	ecsWorld.AddSystem(sys)

	groundEntity := ecs.NewBasic()
	sphereEntity := ecs.NewBasic()
	clothEntity := ecs.NewBasic()
	sys.AddRigidBody(&groundEntity, engine.NewPlaneCollider("ground", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{}, groundFriction))
	sys.AddRigidBody(&sphereEntity, engine.NewSphereCollider("sphere", mgl64.Vec3{0, sphereRadius, 0}, sphereRadius, 0, groundFriction))
	sys.AddSoftBody(&clothEntity, cloth)

	var sum summary
	solverCheck := health.NewSolverHealthCheck(10)
	world.EventBus.Subscribe(event.StepCompleted, func(e event.Event) {
		step := e.(*event.StepEvent)
		solverCheck.Record(step.Converged, step.Residual)
		sum.Steps = step.Step
		sum.Contacts = step.Contacts
		if !step.Converged {
			sum.Unconverged++
		}
		if logEvery > 0 && step.Step%uint64(logEvery) == 0 {
			logger.Info(ctx, "Simulation progress",
				"step", step.Step,
				"contacts", step.Contacts,
				"sticking", step.StaticCount,
				"iterations", step.Iterations,
				"residual", step.Residual,
			)
		}
	})

	var stepping atomic.Bool
	stepping.Store(true)
	if listenAddr != "" {
		shutdown := serveHealth(ctx, reg, solverCheck, func() bool { return ctx.Err() == nil && stepping.Load() })
		defer shutdown()
	}

	logger.Info(ctx, "Starting simulation",
		"steps", simSteps,
		"nodes", len(cloth.Nodes),
		"time_step", cfg.World.TimeStep,
		"parallel", cfg.Solver.Parallel,
	)

	frame := float32(cfg.World.TimeStep)
	for i := 0; i < simSteps && ctx.Err() == nil; i++ {
		ecsWorld.Update(frame)
		if err := sys.Err(); err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Warn(ctx, "Simulation interrupted", "step", sum.Steps)
				break
			}
			stepping.Store(false)
			return err
		}
	}
	stepping.Store(false)

	sum.MeanHeight, sum.MinHeight = heights(cloth)
	logger.Info(ctx, "Simulation finished",
		"steps", sum.Steps,
		"contacts", sum.Contacts,
		"mean_height", sum.MeanHeight,
		"unconverged_steps", sum.Unconverged,
	)
	fmt.Fprintf(cmd.OutOrStdout(), "steps=%d contacts=%d mean_height=%.4f min_height=%.4f unconverged=%d\n",
		sum.Steps, sum.Contacts, sum.MeanHeight, sum.MinHeight, sum.Unconverged)

	if renderView {
		return drawScene(cmd, world, math.Max(width, depth))
	}
	return nil
}

// drawScene prints a side view sized to fit the cloth, the sphere and the
// drop height
func drawScene(cmd *cobra.Command, world *engine.World, extent float64) error {
	const cols, rows = 60, 24
	span := math.Max(math.Max(extent, clothHeight), 2*sphereRadius) * 1.5

	view := render.NewTerminalRenderer(cols, rows, span/rows)
	view.SetCenter(0, clothHeight/2)
	for _, c := range world.Colliders {
		symbol := '#'
		if _, ok := c.(*engine.PlaneCollider); ok {
			symbol = '='
		}
		view.RenderShape(c.Shape(), symbol)
	}
	for _, b := range world.SoftBodies {
		view.RenderSoftBody(b)
	}
	return view.Present(cmd.OutOrStdout())
}

func heights(b *softbody.Body) (mean, lowest float64) {
	lowest = b.Nodes[0].Position.Y()
	for _, n := range b.Nodes {
		y := n.Position.Y()
		mean += y
		lowest = math.Min(lowest, y)
	}
	return mean / float64(len(b.Nodes)), lowest
}

// serveHealth starts the health and metrics server and returns its shutdown func
func serveHealth(ctx context.Context, reg *prometheus.Registry, solverCheck *health.SolverHealthCheck, running func() bool) func() {
	hc := health.NewHealthChecker()
	hc.AddCheck(solverCheck)
	hc.AddCheck(health.NewSimulationHealthCheck(running))
	hc.AddCheck(health.NewMemoryHealthCheck(500, func() int64 {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return int64(m.Alloc / 1024 / 1024)
	}))

	server := &http.Server{
		Addr:         listenAddr,
		Handler:      hc.NewServeMux(reg),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info(ctx, "Starting health check server", "address", listenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Health check server failed", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Health check server shutdown failed", err)
		}
	}
}
