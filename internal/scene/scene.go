// Package scene simulates the office: a handful of agents wander around,
// idle now and then, and take turns sitting at the desks.
//
// A Scene is not safe for concurrent use. Agents are stepped one at a time
// in a fixed order, which is what keeps desk occupancy consistent.
package scene

import (
	"fmt"
	"time"
)

// Scene owns the agents, the layout and the desk occupancy table
type Scene struct {
	layout   *Layout
	manifest *Manifest
	tuning   Tuning
	rng      Random

	agents    []*Agent
	occupancy *Occupancy
	seats     []Seat
	triggers  []Rect
	clock     FrameClock
}

// Option configures a Scene
type Option func(*Scene)

// WithRandom sets the random source. Tests use it to script choices.
func WithRandom(r Random) Option {
	return func(s *Scene) {
		s.rng = r
	}
}

// WithTuning replaces the default behavioural constants
func WithTuning(t Tuning) Option {
	return func(s *Scene) {
		s.tuning = t
	}
}

// WithAgents places the given agents instead of spawning fresh ones
func WithAgents(agents ...*Agent) Option {
	return func(s *Scene) {
		s.agents = agents
	}
}

// New creates a scene and spawns its agents
func New(layout *Layout, manifest *Manifest, opts ...Option) (*Scene, error) {
	if layout == nil {
		return nil, fmt.Errorf("layout is required")
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	if manifest == nil {
		manifest = &Manifest{}
	}

	s := &Scene{
		layout:    layout,
		manifest:  manifest,
		tuning:    DefaultTuning(),
		occupancy: NewOccupancy(),
		seats:     layout.Seats(),
		triggers:  layout.Triggers(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.tuning.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	if s.rng == nil {
		s.rng = NewRNG(uint64(time.Now().UnixNano()))
	}
	s.clock.every = s.tuning.FrameEvery

	if s.agents == nil {
		s.spawnAgents()
	} else if err := s.adopt(); err != nil {
		return nil, err
	}
	return s, nil
}

// spawnAgents places the configured number of agents near the scene center,
// alternating between facing right and facing left
func (s *Scene) spawnAgents() {
	ref := Vec{s.layout.Width / 2, s.layout.Height / 2}
	for i := 0; i < s.tuning.Agents; i++ {
		a := &Agent{
			ID:     fmt.Sprintf("agent-%d", i+1),
			Sprite: i + 1,
			State:  Wandering{},
		}
		if i%2 == 0 {
			a.face(Right)
		} else {
			a.face(Left)
		}
		a.Pos = s.FindSpawn(ref)
		s.agents = append(s.agents, a)
	}
}

// adopt registers seats held by agents that were passed in already sitting
func (s *Scene) adopt() error {
	for i, a := range s.agents {
		if a.ID == "" {
			a.ID = fmt.Sprintf("agent-%d", i+1)
		}
		if a.State == nil {
			a.State = Wandering{}
		}
		seat, ok := a.Seat()
		if !ok {
			continue
		}
		if _, found := s.layout.Desk(seat); !found {
			return fmt.Errorf("agent %s sits at unknown seat %s", a.ID, seat)
		}
		if !s.occupancy.Claim(seat, a.ID) {
			return fmt.Errorf("seat %s is claimed twice", seat)
		}
	}
	return nil
}

// Tick steps every agent once and returns the frame to draw
func (s *Scene) Tick() Frame {
	var transitions []Transition
	for _, a := range s.agents {
		before := a.State.Name()
		s.step(a)
		if after := a.State.Name(); after != before {
			t := Transition{Agent: a.ID, From: before, To: after}
			if seat, ok := a.Seat(); ok {
				t.Seat = &seat
			}
			transitions = append(transitions, t)
		}
	}

	f := s.render()
	f.Transitions = transitions
	s.clock.Advance()
	return f
}

// Snapshot renders the current state without advancing it
func (s *Scene) Snapshot() Frame {
	return s.render()
}

// Agents returns the agents in stepping order
func (s *Scene) Agents() []*Agent {
	return s.agents
}

// Occupancy returns the desk occupancy table
func (s *Scene) Occupancy() *Occupancy {
	return s.occupancy
}

// Layout returns the scene geometry
func (s *Scene) Layout() *Layout {
	return s.layout
}

// Manifest returns the scene's asset manifest
func (s *Scene) Manifest() *Manifest {
	return s.manifest
}

// Tuning returns the behavioural constants in use
func (s *Scene) Tuning() Tuning {
	return s.tuning
}

// Clock returns the current tick and animation frame
func (s *Scene) Clock() FrameClock {
	return s.clock
}
