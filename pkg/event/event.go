// pkg/event/event.go
package event

import (
	"sync"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	ContactsBuilt       Type = "contacts_built"
	StepCompleted       Type = "step_completed"
	FrictionModeChanged Type = "friction_mode_changed"
	BodyAdded           Type = "body_added"
	BodyRemoved         Type = "body_removed"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies a registered handler
type Subscription struct {
	ID     uint64
	Type   Type
	Cancel func()
}

type registration struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]registration
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registration),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type. Calling Cancel
// on the returned subscription removes it.
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], registration{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Type:   eventType,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[eventType]
	for i, r := range regs {
		if r.id == id {
			b.handlers[eventType] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(b.handlers[eventType]) == 0 {
		delete(b.handlers, eventType)
	}
}

// Publish sends an event to all subscribed handlers, in subscription order
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	regs := append([]registration(nil), b.handlers[event.GetType()]...)
	b.mu.RUnlock()

	for _, r := range regs {
		r.handler(event)
	}
}

// Specific event implementations

// StepEvent summarises one world step
type StepEvent struct {
	BaseEvent
	Step        uint64
	Contacts    int
	Iterations  int
	Residual    float64
	Converged   bool
	StaticCount int
}

// NewStepEvent creates a new step event
func NewStepEvent(eventType Type, source interface{}, step uint64, contacts int) *StepEvent {
	return &StepEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Step:     step,
		Contacts: contacts,
	}
}

// FrictionEvent reports a contact switching between stick and slip
// compared with the previous step
type FrictionEvent struct {
	BaseEvent
	Step   uint64
	Static bool
}

// NewFrictionEvent creates a new friction mode event
func NewFrictionEvent(source interface{}, step uint64, static bool) *FrictionEvent {
	return &FrictionEvent{
		BaseEvent: BaseEvent{
			EventType: FrictionModeChanged,
			Source:    source,
		},
		Step:   step,
		Static: static,
	}
}

// BodyEvent reports a body entering or leaving the world
type BodyEvent struct {
	BaseEvent
	EntityID uint64
	Name     string
}

// NewBodyEvent creates a new body event
func NewBodyEvent(eventType Type, source interface{}, entityID uint64, name string) *BodyEvent {
	return &BodyEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		EntityID: entityID,
		Name:     name,
	}
}
