// pkg/engine/system.go
package engine

import (
	"context"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-softrigid/pkg/event"
	"github.com/opd-ai/go-softrigid/pkg/softbody"
)

// MaxFrameTime caps the frame time fed to one Update
const MaxFrameTime = 0.1

// ContactSystem runs a World inside an ecs.World. Frame times passed to
// Update are accumulated and consumed in fixed steps of Config.TimeStep.
type ContactSystem struct {
	World *World

	ctx       context.Context
	soft      map[uint64]*softbody.Body
	colliders map[uint64]Collider
	pending   float64
	err       error
}

var _ ecs.System = (*ContactSystem)(nil)

// NewContactSystem wraps world. ctx is passed to every step.
func NewContactSystem(ctx context.Context, world *World) *ContactSystem {
	return &ContactSystem{
		World:     world,
		ctx:       ctx,
		soft:      make(map[uint64]*softbody.Body),
		colliders: make(map[uint64]Collider),
	}
}

// AddSoftBody attaches a deformable body to an entity
func (s *ContactSystem) AddSoftBody(basic *ecs.BasicEntity, body *softbody.Body) {
	s.soft[basic.ID()] = body
	s.World.AddSoftBody(body)
	s.World.EventBus.Publish(event.NewBodyEvent(event.BodyAdded, s, basic.ID(), body.Name))
}

// AddRigidBody attaches a collider to an entity
func (s *ContactSystem) AddRigidBody(basic *ecs.BasicEntity, c Collider) {
	s.colliders[basic.ID()] = c
	s.World.AddCollider(c)
	s.World.EventBus.Publish(event.NewBodyEvent(event.BodyAdded, s, basic.ID(), c.Body().Name))
}

// Remove satisfies the ecs.System interface
func (s *ContactSystem) Remove(basic ecs.BasicEntity) {
	id := basic.ID()
	if body, ok := s.soft[id]; ok {
		delete(s.soft, id)
		s.World.RemoveSoftBody(body)
		s.World.EventBus.Publish(event.NewBodyEvent(event.BodyRemoved, s, id, body.Name))
	}
	if c, ok := s.colliders[id]; ok {
		delete(s.colliders, id)
		s.World.RemoveCollider(c)
		s.World.EventBus.Publish(event.NewBodyEvent(event.BodyRemoved, s, id, c.Body().Name))
	}
}

// Update satisfies the ecs.System interface. It stops stepping after the
// first failed step; Err reports the failure.
func (s *ContactSystem) Update(dt float32) {
	if s.err != nil {
		return
	}

	frame := float64(dt)
	if frame > MaxFrameTime {
		frame = MaxFrameTime
	}
	if frame > 0 {
		s.pending += frame
	}

	step := s.World.Config.TimeStep
	if !(step > 0) {
		s.err = ErrInvalidTimeStep
		return
	}
	for s.pending >= step {
		if _, err := s.World.Step(s.ctx, step); err != nil {
			s.err = err
			return
		}
		s.pending -= step
	}
}

// Err returns the error that stopped the system, if any
func (s *ContactSystem) Err() error {
	return s.err
}
