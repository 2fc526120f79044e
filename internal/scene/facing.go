package scene

import "fmt"

// Facing is the direction an agent is looking
type Facing int

const (
	Down Facing = iota
	Up
	Left
	Right
)

var facingNames = [...]string{"down", "up", "left", "right"}

// Facings lists every direction in a fixed order
var Facings = []Facing{Up, Down, Left, Right}

func (f Facing) String() string {
	if f < 0 || int(f) >= len(facingNames) {
		return fmt.Sprintf("facing(%d)", int(f))
	}
	return facingNames[f]
}

// Delta returns the unit step for moving in this direction
func (f Facing) Delta() (int, int) {
	switch f {
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	}
	return 0, 0
}

// ParseFacing converts a direction name to a Facing
func ParseFacing(s string) (Facing, error) {
	for i, name := range facingNames {
		if name == s {
			return Facing(i), nil
		}
	}
	return Down, fmt.Errorf("invalid facing: %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (f Facing) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *Facing) UnmarshalText(b []byte) error {
	v, err := ParseFacing(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// RandomFacing picks one of the four directions uniformly
func RandomFacing(rng Random) Facing {
	return Facings[rng.Intn(len(Facings))]
}
