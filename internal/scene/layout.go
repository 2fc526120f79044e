package scene

import (
	"fmt"
)

// Default scene and agent dimensions
const (
	DefaultWidth  = 1024
	DefaultHeight = 768
	AgentWidth    = 64
	AgentHeight   = 100
)

// TriggerOffset derives a desk's sit-trigger region from its footprint
type TriggerOffset struct {
	DX float64 `json:"dx" yaml:"dx"`
	DY float64 `json:"dy" yaml:"dy"`
	DW float64 `json:"dw" yaml:"dw"`
	DH float64 `json:"dh" yaml:"dh"`
}

// DeskGroup is a named, ordered list of desk footprints sharing one sprite set
type DeskGroup struct {
	Name    string        `json:"name" yaml:"name"`
	Trigger TriggerOffset `json:"trigger" yaml:"trigger"`
	Desks   []Rect        `json:"desks" yaml:"desks"`
}

// TriggerRect returns the sit-trigger region for desk i
func (g DeskGroup) TriggerRect(i int) Rect {
	d := g.Desks[i]
	return d.Offset(g.Trigger.DX, g.Trigger.DY, g.Trigger.DW, g.Trigger.DH)
}

// Layout holds the immutable geometry of the office
type Layout struct {
	Width     float64     `json:"width" yaml:"width"`
	Height    float64     `json:"height" yaml:"height"`
	AgentW    float64     `json:"agent_width" yaml:"agent_width"`
	AgentH    float64     `json:"agent_height" yaml:"agent_height"`
	Obstacles []Rect      `json:"obstacles" yaml:"obstacles"`
	Groups    []DeskGroup `json:"groups" yaml:"groups"`
	SafeAreas []Rect      `json:"safe_areas" yaml:"safe_areas"`
}

// SeatRef identifies one desk slot
type SeatRef struct {
	Group string `json:"group"`
	Index int    `json:"index"`
}

func (s SeatRef) String() string {
	return fmt.Sprintf("%s[%d]", s.Group, s.Index)
}

// Seat is a desk slot with its resolved geometry
type Seat struct {
	Ref     SeatRef
	Desk    Rect
	Trigger Rect
}

// Seats returns every desk slot in iteration order: groups in declaration
// order, desks by index within a group
func (l *Layout) Seats() []Seat {
	var seats []Seat
	for _, g := range l.Groups {
		for i, d := range g.Desks {
			seats = append(seats, Seat{
				Ref:     SeatRef{Group: g.Name, Index: i},
				Desk:    d,
				Trigger: g.TriggerRect(i),
			})
		}
	}
	return seats
}

// Triggers returns every sit-trigger region
func (l *Layout) Triggers() []Rect {
	seats := l.Seats()
	out := make([]Rect, len(seats))
	for i, s := range seats {
		out[i] = s.Trigger
	}
	return out
}

// Desk returns the footprint of a seat, if it exists
func (l *Layout) Desk(ref SeatRef) (Rect, bool) {
	for _, g := range l.Groups {
		if g.Name != ref.Group {
			continue
		}
		if ref.Index < 0 || ref.Index >= len(g.Desks) {
			return Rect{}, false
		}
		return g.Desks[ref.Index], true
	}
	return Rect{}, false
}

// Bounds returns the rectangle covering the whole scene
func (l *Layout) Bounds() Rect {
	return Rect{W: l.Width, H: l.Height}
}

// AgentRect returns an agent-sized rectangle at p
func (l *Layout) AgentRect(p Vec) Rect {
	return RectAt(p, l.AgentW, l.AgentH)
}

// Validate checks the layout for impossible geometry
func (l *Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("scene size must be positive, got %vx%v", l.Width, l.Height)
	}
	if l.AgentW <= 0 || l.AgentH <= 0 {
		return fmt.Errorf("agent size must be positive, got %vx%v", l.AgentW, l.AgentH)
	}
	if l.AgentW > l.Width || l.AgentH > l.Height {
		return fmt.Errorf("agent %vx%v does not fit in scene %vx%v", l.AgentW, l.AgentH, l.Width, l.Height)
	}
	seen := make(map[string]bool)
	for _, g := range l.Groups {
		if g.Name == "" {
			return fmt.Errorf("desk group name is required")
		}
		if seen[g.Name] {
			return fmt.Errorf("duplicate desk group %q", g.Name)
		}
		seen[g.Name] = true
		if len(g.Desks) == 0 {
			return fmt.Errorf("desk group %q has no desks", g.Name)
		}
		for i := range g.Desks {
			if t := g.TriggerRect(i); t.W <= 0 || t.H <= 0 {
				return fmt.Errorf("desk %s[%d] has an empty trigger region", g.Name, i)
			}
		}
	}
	for i, o := range l.Obstacles {
		if o.W <= 0 || o.H <= 0 {
			return fmt.Errorf("obstacle %d has non-positive size", i)
		}
	}
	return nil
}

// DefaultLayout returns the stock office: walls and furniture along the
// edges, one row of downward-facing desks and one row of upward-facing desks
func DefaultLayout() *Layout {
	w, h := float64(DefaultWidth), float64(DefaultHeight)
	r := func(x, y, rw, rh float64) Rect {
		return Rect{X: w * x, Y: h * y, W: w * rw, H: h * rh}
	}

	return &Layout{
		Width:  w,
		Height: h,
		AgentW: AgentWidth,
		AgentH: AgentHeight,
		Obstacles: []Rect{
			r(0.065, 0.004, 0.91, 0.12),   // back wall
			r(0.037, 0.37, 0.025, 0.26),   // plant stand
			r(0.002, 0.37, 0.035, 0.3),    // left cabinet
			r(0.002, 0.003, 0.06, 0.24),   // door frame
			r(0.04, 0.61, 0.605, 0.12),    // front counter
			r(0.715, 0.61, 0.28, 0.12),    // front counter, right
			r(0.975, 0.005, 0.022, 0.99),  // right wall
			r(0, 0.61, 0.255, 0.39),       // lounge
			r(0.235, 0.98, 0.78, 0.02),    // front wall
		},
		Groups: []DeskGroup{
			{
				Name:    "down",
				Trigger: TriggerOffset{DX: 20, DY: -40, DW: -40, DH: 30},
				Desks: []Rect{
					r(0.15, 0.15, 0.2, 0.2),
					r(0.45, 0.15, 0.2, 0.2),
					r(0.75, 0.15, 0.2, 0.2),
				},
			},
			{
				Name:    "up",
				Trigger: TriggerOffset{DX: 35, DY: -20, DW: -70, DH: -20},
				Desks: []Rect{
					r(0.135, 0.35, 0.23, 0.2),
					r(0.45, 0.35, 0.22, 0.2),
					r(0.75, 0.35, 0.22, 0.2),
				},
			},
		},
		SafeAreas: []Rect{
			r(0, 0, 1, 0.2),   // top strip
			r(0, 0.8, 1, 0.2), // bottom strip
			r(0, 0, 0.2, 1),   // left strip
			r(0.8, 0, 0.2, 1), // right strip
		},
	}
}
