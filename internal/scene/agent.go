package scene

// State is an agent's behavioural state. Exactly one of Wandering, Idle,
// Sitting or CoolingDown.
type State interface {
	// Name returns a short label for logs and clients
	Name() string
	isState()
}

// Wandering agents walk in a straight line and bounce off obstacles
type Wandering struct{}

// Idle agents stand still until Remaining reaches zero
type Idle struct {
	Remaining int
}

// Sitting agents hold Seat until Remaining reaches zero
type Sitting struct {
	Seat      SeatRef
	Remaining int
}

// CoolingDown agents are frozen after leaving a desk
type CoolingDown struct {
	Remaining int
}

func (Wandering) Name() string   { return "wandering" }
func (Idle) Name() string        { return "idle" }
func (Sitting) Name() string     { return "sitting" }
func (CoolingDown) Name() string { return "cooling_down" }

func (Wandering) isState()   {}
func (Idle) isState()        {}
func (Sitting) isState()     {}
func (CoolingDown) isState() {}

// Agent is one animated character in the office
type Agent struct {
	ID     string
	Sprite int // 1-based character sprite set
	Pos    Vec
	DX, DY int
	Facing Facing
	State  State
}

// Seat returns the seat the agent is holding, if any
func (a *Agent) Seat() (SeatRef, bool) {
	if s, ok := a.State.(Sitting); ok {
		return s.Seat, true
	}
	return SeatRef{}, false
}

// Moving reports whether the agent has a non-zero velocity
func (a *Agent) Moving() bool {
	return a.DX != 0 || a.DY != 0
}

// face points the agent in f and sets its velocity to match
func (a *Agent) face(f Facing) {
	a.Facing = f
	a.DX, a.DY = f.Delta()
}

// stop zeroes the agent's velocity without changing where it looks
func (a *Agent) stop() {
	a.DX, a.DY = 0, 0
}
