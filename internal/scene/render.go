package scene

// FrameClock counts ticks and the slower animation frame index
type FrameClock struct {
	Tick  uint64
	Frame int
	every int
}

// Advance moves the clock forward one tick
func (c *FrameClock) Advance() {
	c.Tick++
	if c.every > 0 && c.Tick%uint64(c.every) == 0 {
		c.Frame++
	}
}

// DrawOp is a single image blit
type DrawOp struct {
	Sprite string  `json:"sprite"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	W      float64 `json:"w"`
	H      float64 `json:"h"`
}

// AgentView is the public state of one agent in a frame
type AgentView struct {
	ID     string   `json:"id"`
	Pos    Vec      `json:"pos"`
	DX     int      `json:"dx"`
	DY     int      `json:"dy"`
	Facing Facing   `json:"facing"`
	State  string   `json:"state"`
	Seat   *SeatRef `json:"seat,omitempty"`
}

// Frame is everything a presentation layer needs to draw one tick
type Frame struct {
	Tick        uint64            `json:"tick"`
	AnimFrame   int               `json:"anim_frame"`
	Ops         []DrawOp          `json:"ops"`
	Agents      []AgentView       `json:"agents"`
	Occupancy   map[string][]bool `json:"occupancy"`
	Transitions []Transition      `json:"transitions,omitempty"`
}

// render assembles draw instructions for the current state. Background
// first, then every free desk, then the agents in order.
func (s *Scene) render() Frame {
	l := s.layout
	anim := s.clock.Frame

	ops := make([]DrawOp, 0, 1+len(s.seats)+len(s.agents))
	ops = append(ops, DrawOp{Sprite: s.manifest.Background, W: l.Width, H: l.Height})

	for _, seat := range s.seats {
		if s.occupancy.Occupied(seat.Ref) {
			continue
		}
		d := seat.Desk
		ops = append(ops, DrawOp{Sprite: s.manifest.Desks[seat.Ref.Group], X: d.X, Y: d.Y, W: d.W, H: d.H})
	}

	views := make([]AgentView, 0, len(s.agents))
	for _, a := range s.agents {
		ops = append(ops, s.agentOp(a, anim))

		v := AgentView{ID: a.ID, Pos: a.Pos, DX: a.DX, DY: a.DY, Facing: a.Facing, State: a.State.Name()}
		if seat, ok := a.Seat(); ok {
			v.Seat = &seat
		}
		views = append(views, v)
	}

	return Frame{
		Tick:      s.clock.Tick,
		AnimFrame: anim,
		Ops:       ops,
		Agents:    views,
		Occupancy: s.occupancy.Table(l),
	}
}

// agentOp picks the agent's animation strip and where to draw it. Seated
// agents are drawn enlarged and centered on their desk.
func (s *Scene) agentOp(a *Agent, anim int) DrawOp {
	sprites := s.manifest.Character(a.Sprite)

	if seat, ok := a.Seat(); ok {
		if desk, found := s.layout.Desk(seat); found {
			size := s.tuning.SitDrawSize
			c := desk.Center()
			return DrawOp{
				Sprite: sprites.Sit[seat.Group].At(anim),
				X:      c.X - size/2,
				Y:      c.Y - size/2,
				W:      size,
				H:      size,
			}
		}
	}

	strip := sprites.Idle[a.Facing]
	if _, wandering := a.State.(Wandering); wandering && a.Moving() {
		strip = sprites.Run[a.Facing]
	}
	return DrawOp{Sprite: strip.At(anim), X: a.Pos.X, Y: a.Pos.Y, W: s.layout.AgentW, H: s.layout.AgentH}
}
