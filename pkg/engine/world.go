// pkg/engine/world.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-softrigid/pkg/config"
	"github.com/opd-ai/go-softrigid/pkg/contact"
	"github.com/opd-ai/go-softrigid/pkg/event"
	"github.com/opd-ai/go-softrigid/pkg/logging"
	"github.com/opd-ai/go-softrigid/pkg/physics"
	"github.com/opd-ai/go-softrigid/pkg/rigid"
	"github.com/opd-ai/go-softrigid/pkg/softbody"
	"github.com/opd-ai/go-softrigid/pkg/solver"
)

// ErrInvalidTimeStep is returned by Step for a non-positive dt
var ErrInvalidTimeStep = errors.New("time step must be positive")

// StepResult summarises one world step
type StepResult struct {
	solver.Result
	Tick     uint64
	Contacts int
}

// World holds deformable bodies and rigid colliders and advances them
type World struct {
	Config      config.WorldConfig
	SoftBodies  []*softbody.Body
	Colliders   []Collider
	EntityLock  sync.Mutex
	CurrentTick uint64
	ElapsedTime float64 // seconds
	EventBus    *event.Bus

	solver   *solver.Solver
	parallel bool
	logger   *logging.Logger

	// friction mode of each node in contact at the end of the last step
	lastStatic map[*softbody.Node]bool
}

// NewWorld creates an empty world. logger and metrics may be nil.
func NewWorld(cfg *config.Config, logger *logging.Logger, metrics *solver.Metrics) *World {
	if logger == nil {
		logger = logging.Discard()
	}
	return &World{
		Config:     cfg.World,
		EventBus:   event.NewEventBus(),
		solver:     solver.New(cfg.Solver, logger, metrics),
		parallel:   cfg.Solver.Parallel,
		logger:     logger,
		lastStatic: make(map[*softbody.Node]bool),
	}
}

// AddSoftBody adds a deformable body
func (w *World) AddSoftBody(b *softbody.Body) {
	w.EntityLock.Lock()
	defer w.EntityLock.Unlock()
	w.SoftBodies = append(w.SoftBodies, b)
}

// RemoveSoftBody removes b and reports whether it was present
func (w *World) RemoveSoftBody(b *softbody.Body) bool {
	w.EntityLock.Lock()
	defer w.EntityLock.Unlock()
	for i, sb := range w.SoftBodies {
		if sb == b {
			w.SoftBodies = append(w.SoftBodies[:i], w.SoftBodies[i+1:]...)
			for _, n := range b.Nodes {
				delete(w.lastStatic, n)
			}
			return true
		}
	}
	return false
}

// AddCollider adds a rigid collider
func (w *World) AddCollider(c Collider) {
	w.EntityLock.Lock()
	defer w.EntityLock.Unlock()
	w.Colliders = append(w.Colliders, c)
}

// RemoveCollider removes c and reports whether it was present
func (w *World) RemoveCollider(c Collider) bool {
	w.EntityLock.Lock()
	defer w.EntityLock.Unlock()
	for i, existing := range w.Colliders {
		if existing == c {
			w.Colliders = append(w.Colliders[:i], w.Colliders[i+1:]...)
			return true
		}
	}
	return false
}

// Step advances the world by dt: gravity, contact detection, a fresh set of
// constraints, the contact solve, integration, then penetration removal.
// Events are published once the world is unlocked. A step that fails leaves
// every velocity and the tick as they were.
func (w *World) Step(ctx context.Context, dt float64) (StepResult, error) {
	if !(dt > 0) {
		return StepResult{}, fmt.Errorf("%w: %v", ErrInvalidTimeStep, dt)
	}
	if err := ctx.Err(); err != nil {
		return StepResult{}, fmt.Errorf("step cancelled: %w", err)
	}
	if logging.GetStepID(ctx) == "" {
		ctx = logging.WithStepID(ctx, "")
	}

	events, res, err := w.step(ctx, dt)
	if err != nil {
		w.logger.Error(ctx, "step failed", err, "tick", res.Tick)
		return res, err
	}

	for _, e := range events {
		w.EventBus.Publish(e)
	}
	return res, nil
}

func (w *World) step(ctx context.Context, dt float64) ([]event.Event, StepResult, error) {
	w.EntityLock.Lock()
	defer w.EntityLock.Unlock()

	res := StepResult{Tick: w.CurrentTick + 1}
	gravity := mgl64.Vec3(w.Config.Gravity)
	restore := w.saveVelocities()

	for _, b := range w.SoftBodies {
		b.AddGravity(dt, gravity)
	}

	constraints, err := w.buildConstraints()
	if err != nil {
		restore()
		return nil, res, logging.WrapError(err, "build constraints at tick %d", res.Tick)
	}
	for _, c := range constraints {
		if _, pin := c.(*contact.StaticConstraint); !pin {
			res.Contacts++
		}
	}

	events := []event.Event{event.NewStepEvent(event.ContactsBuilt, w, res.Tick, res.Contacts)}

	solve := w.solver.Solve
	if w.parallel {
		solve = w.solver.SolveParallel
	}
	res.Result, err = solve(ctx, constraints)
	if err != nil {
		restore()
		return nil, res, logging.WrapError(err, "solve contacts at tick %d", res.Tick)
	}

	events = append(events, w.frictionChanges(constraints, res.Tick)...)

	for _, b := range w.SoftBodies {
		b.ApplyDeltaV()
		b.Advect(dt)
	}
	for _, c := range w.Colliders {
		c.Body().Integrate(dt, gravity)
	}
	w.resolvePenetration()

	w.CurrentTick = res.Tick
	w.ElapsedTime += dt

	done := event.NewStepEvent(event.StepCompleted, w, res.Tick, res.Contacts)
	done.Iterations = res.Iterations
	done.Residual = res.Residual
	done.Converged = res.Converged
	done.StaticCount = res.Sticking
	events = append(events, done)

	w.logger.Debug(ctx, "world stepped",
		"tick", res.Tick,
		"contacts", res.Contacts,
		"iterations", res.Iterations,
		"residual", res.Residual)

	return events, res, nil
}

// saveVelocities records every velocity the step changes before positions
// move. The returned func puts them back so a failed step can be retried.
func (w *World) saveVelocities() func() {
	type nodeState struct {
		node    *softbody.Node
		vel, dv mgl64.Vec3
	}
	type bodyState struct {
		body     *rigid.Body
		lin, ang mgl64.Vec3
	}

	var (
		nodes  []nodeState
		bodies []bodyState
	)
	for _, b := range w.SoftBodies {
		for _, n := range b.Nodes {
			nodes = append(nodes, nodeState{n, n.Velocity, n.Dv})
		}
	}
	for _, c := range w.Colliders {
		rb := c.Body()
		bodies = append(bodies, bodyState{rb, rb.LinVel, rb.AngVel})
	}

	return func() {
		for _, s := range nodes {
			s.node.Velocity, s.node.Dv = s.vel, s.dv
		}
		for _, s := range bodies {
			s.body.LinVel, s.body.AngVel = s.lin, s.ang
		}
	}
}

// buildConstraints pins every pinned node and creates one node contact per
// collider the node lies within the contact margin of, then face contacts
// for colliders that reach a face between its nodes
func (w *World) buildConstraints() ([]contact.Constraint, error) {
	var constraints []contact.Constraint
	for _, b := range w.SoftBodies {
		touched := make(map[nodeCollider]bool)
		for _, n := range b.Nodes {
			if n.Pinned() {
				constraints = append(constraints, contact.NewStaticConstraint(n))
				continue
			}
			for _, col := range w.Colliders {
				probe, hit := col.Shape().Probe(n.Position, w.Config.ContactMargin)
				if !hit {
					continue
				}
				friction := col.Friction() * w.Config.NodeFriction
				record, err := contact.NewNodeRigidContact(col.Body(), n, probe.Normal, probe.Point, friction)
				if err != nil {
					return nil, fmt.Errorf("body %q vs %q: %w", b.Name, col.Body().Name, err)
				}
				c, err := contact.NewNodeRigidContactConstraint(record)
				if err != nil {
					return nil, fmt.Errorf("body %q vs %q: %w", b.Name, col.Body().Name, err)
				}
				constraints = append(constraints, c)
				touched[nodeCollider{n, col}] = true
			}
		}

		faces, err := w.faceConstraints(b, touched)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, faces...)
	}
	return constraints, nil
}

type nodeCollider struct {
	node     *softbody.Node
	collider Collider
}

var centroid = [3]float64{1.0 / 3, 1.0 / 3, 1.0 / 3}

// faceConstraints probes face centroids. A face gets a contact only when
// none of its corners touches the same collider, which happens when the
// collider is small next to the mesh spacing.
func (w *World) faceConstraints(b *softbody.Body, touched map[nodeCollider]bool) ([]contact.Constraint, error) {
	var constraints []contact.Constraint
	for _, f := range b.Faces {
		corners := b.FaceNodes(f)
		center := physics.Lerp3(corners[0].Position, corners[1].Position, corners[2].Position, centroid)
		for _, col := range w.Colliders {
			if touched[nodeCollider{corners[0], col}] || touched[nodeCollider{corners[1], col}] || touched[nodeCollider{corners[2], col}] {
				continue
			}
			probe, hit := col.Shape().Probe(center, w.Config.ContactMargin)
			if !hit {
				continue
			}
			friction := col.Friction() * w.Config.NodeFriction
			record, err := contact.NewFaceRigidContact(col.Body(), corners, centroid, probe.Normal, probe.Point, friction)
			if err != nil {
				return nil, fmt.Errorf("body %q face %v vs %q: %w", b.Name, f, col.Body().Name, err)
			}
			c, err := contact.NewFaceRigidContactConstraint(record)
			if err != nil {
				return nil, fmt.Errorf("body %q face %v vs %q: %w", b.Name, f, col.Body().Name, err)
			}
			constraints = append(constraints, c)
		}
	}
	return constraints, nil
}

// resolvePenetration moves nodes that ended the step inside a collider back
// onto its surface. Velocity is left to the next step's contacts.
func (w *World) resolvePenetration() {
	for _, b := range w.SoftBodies {
		for _, n := range b.Nodes {
			if n.Pinned() {
				continue
			}
			for _, col := range w.Colliders {
				if probe, hit := col.Shape().Probe(n.Position, 0); hit && probe.Distance < 0 {
					n.Position = probe.Point
				}
			}
		}
	}
}

// frictionChanges reports nodes whose stick/slip state differs from the
// previous step. A node touching several colliders reports the last one.
func (w *World) frictionChanges(constraints []contact.Constraint, tick uint64) []event.Event {
	current := make(map[*softbody.Node]bool)
	for _, c := range constraints {
		if nc, ok := c.(*contact.NodeRigidContactConstraint); ok {
			current[nc.Node()] = nc.Static()
		}
	}

	var events []event.Event
	for _, c := range constraints {
		nc, ok := c.(*contact.NodeRigidContactConstraint)
		if !ok {
			continue
		}
		node := nc.Node()
		static := current[node]
		if prev, seen := w.lastStatic[node]; seen && prev != static {
			events = append(events, event.NewFrictionEvent(node, tick, static))
		}
		w.lastStatic[node] = static
	}

	for node := range w.lastStatic {
		if _, ok := current[node]; !ok {
			delete(w.lastStatic, node)
		}
	}
	return events
}
