package scene

// Occupancy tracks which desk slots are taken. It is the only state shared
// between agents; it is changed only through Claim and Release.
type Occupancy struct {
	held map[SeatRef]string
}

// NewOccupancy creates an empty occupancy table
func NewOccupancy() *Occupancy {
	return &Occupancy{held: make(map[SeatRef]string)}
}

// Claim marks the seat as held by agent. It fails if the seat is already held.
func (o *Occupancy) Claim(seat SeatRef, agent string) bool {
	if _, taken := o.held[seat]; taken {
		return false
	}
	o.held[seat] = agent
	return true
}

// Release frees the seat if agent holds it
func (o *Occupancy) Release(seat SeatRef, agent string) {
	if o.held[seat] == agent {
		delete(o.held, seat)
	}
}

// Occupied reports whether the seat is held
func (o *Occupancy) Occupied(seat SeatRef) bool {
	_, taken := o.held[seat]
	return taken
}

// Holder returns the agent sitting at the seat
func (o *Occupancy) Holder(seat SeatRef) (string, bool) {
	a, ok := o.held[seat]
	return a, ok
}

// Len returns the number of held seats
func (o *Occupancy) Len() int {
	return len(o.held)
}

// Table returns occupancy flags per group, indexed like the layout's desks
func (o *Occupancy) Table(l *Layout) map[string][]bool {
	out := make(map[string][]bool, len(l.Groups))
	for _, g := range l.Groups {
		flags := make([]bool, len(g.Desks))
		for i := range g.Desks {
			flags[i] = o.Occupied(SeatRef{Group: g.Name, Index: i})
		}
		out[g.Name] = flags
	}
	return out
}
