package scene

// Transition records an agent changing state during a tick
type Transition struct {
	Agent string   `json:"agent"`
	From  string   `json:"from"`
	To    string   `json:"to"`
	Seat  *SeatRef `json:"seat,omitempty"`
}

// step advances one agent by one tick. Rules are checked in order and the
// first one that applies ends the agent's turn:
//
//  1. sitting agents count down and stand up when done
//  2. cooling-down agents count down, frozen in place
//  3. an agent inside a free desk's trigger sits down
//  4. idle agents count down and pick a new heading when done
//  5. a wandering agent may decide to idle
//  6. otherwise the agent walks, bouncing off obstacles and scene edges
func (s *Scene) step(a *Agent) {
	switch st := a.State.(type) {
	case Sitting:
		st.Remaining--
		if st.Remaining > 0 {
			a.State = st
			return
		}
		s.standUp(a, st.Seat)
		return

	case CoolingDown:
		st.Remaining--
		if st.Remaining > 0 {
			a.State = st
		} else {
			a.State = Wandering{}
		}
		return
	}

	if seat, ok := s.seekDesk(a); ok {
		a.State = Sitting{
			Seat:      seat,
			Remaining: between(s.rng, s.tuning.SitMin, s.tuning.SitMax),
		}
		a.stop()
		return
	}

	if st, ok := a.State.(Idle); ok {
		st.Remaining--
		if st.Remaining > 0 {
			a.State = st
			return
		}
		a.State = Wandering{}
		a.face(RandomFacing(s.rng))
		return
	}

	if s.rng.Float64() < s.tuning.IdleChance {
		a.State = Idle{Remaining: between(s.rng, s.tuning.IdleMin, s.tuning.IdleMax)}
		a.stop()
		return
	}

	s.walk(a)
}

// standUp releases the agent's desk and drops it somewhere clear with a new heading
func (s *Scene) standUp(a *Agent, seat SeatRef) {
	s.occupancy.Release(seat, a.ID)
	if s.tuning.Cooldown > 0 {
		a.State = CoolingDown{Remaining: s.tuning.Cooldown}
	} else {
		a.State = Wandering{}
	}
	a.Pos = s.FindSpawn(a.Pos)
	a.face(RandomFacing(s.rng))
}

// seekDesk claims the first free seat whose trigger the agent is in
func (s *Scene) seekDesk(a *Agent) (SeatRef, bool) {
	center := s.layout.AgentRect(a.Pos).Center()
	for _, seat := range s.seats {
		if !s.triggered(center, seat) {
			continue
		}
		if s.occupancy.Claim(seat.Ref, a.ID) {
			return seat.Ref, true
		}
	}
	return SeatRef{}, false
}

func (s *Scene) triggered(center Vec, seat Seat) bool {
	if s.tuning.Trigger == TriggerProximity {
		return center.Dist(seat.Desk.Center()) < s.tuning.ProximityRadius
	}
	return seat.Trigger.ContainsPoint(center)
}

// walk moves the agent one step. Each axis is resolved on its own so an
// agent slides along a wall it is bouncing off in the other axis.
func (s *Scene) walk(a *Agent) {
	l := s.layout

	if a.DX != 0 {
		next := Vec{a.Pos.X + float64(a.DX), a.Pos.Y}
		if s.blocked(next) {
			a.DX = -a.DX
			if a.DX > 0 {
				a.Facing = Right
			} else {
				a.Facing = Left
			}
		} else {
			a.Pos = next
		}
	}

	if a.DY != 0 {
		next := Vec{a.Pos.X, a.Pos.Y + float64(a.DY)}
		if s.blocked(next) {
			a.DY = -a.DY
			if a.DY > 0 {
				a.Facing = Down
			} else {
				a.Facing = Up
			}
		} else {
			a.Pos = next
		}
	}

	if a.Pos.X < 0 {
		a.Pos.X = 0
		a.DX = abs(a.DX)
		a.Facing = Right
	}
	if maxX := l.Width - l.AgentW; a.Pos.X > maxX {
		a.Pos.X = maxX
		a.DX = -abs(a.DX)
		a.Facing = Left
	}
	if a.Pos.Y < 0 {
		a.Pos.Y = 0
		a.DY = abs(a.DY)
		a.Facing = Down
	}
	if maxY := l.Height - l.AgentH; a.Pos.Y > maxY {
		a.Pos.Y = maxY
		a.DY = -abs(a.DY)
		a.Facing = Up
	}
}

func (s *Scene) blocked(p Vec) bool {
	return Collides(s.layout.AgentRect(p), s.layout.Obstacles, s.tuning.CollisionBuffer)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
