package scene

import "fmt"

// TriggerMode selects how an agent notices a desk
type TriggerMode string

const (
	// TriggerRect seats an agent when its center enters the desk's trigger region
	TriggerRect TriggerMode = "rect"
	// TriggerProximity seats an agent when its center is close to the desk's center
	TriggerProximity TriggerMode = "proximity"
)

// Tuning holds the behavioural constants of the simulation. Ranges are
// half-open: a value is drawn from [Min, Max).
type Tuning struct {
	Agents int `json:"agents" yaml:"agents"`

	SitMin   int `json:"sit_min" yaml:"sit_min"`
	SitMax   int `json:"sit_max" yaml:"sit_max"`
	Cooldown int `json:"cooldown" yaml:"cooldown"` // 0 disables cooling down

	IdleMin    int     `json:"idle_min" yaml:"idle_min"`
	IdleMax    int     `json:"idle_max" yaml:"idle_max"`
	IdleChance float64 `json:"idle_chance" yaml:"idle_chance"`

	Trigger         TriggerMode `json:"trigger" yaml:"trigger"`
	ProximityRadius float64     `json:"proximity_radius" yaml:"proximity_radius"`
	CollisionBuffer float64     `json:"collision_buffer" yaml:"collision_buffer"`

	SpawnMinRadius float64 `json:"spawn_min_radius" yaml:"spawn_min_radius"`
	SpawnMaxRadius float64 `json:"spawn_max_radius" yaml:"spawn_max_radius"`
	SpawnStep      float64 `json:"spawn_step" yaml:"spawn_step"`
	SpawnAttempts  int     `json:"spawn_attempts" yaml:"spawn_attempts"`

	FrameEvery  int     `json:"frame_every" yaml:"frame_every"`
	SitDrawSize float64 `json:"sit_draw_size" yaml:"sit_draw_size"`
}

// DefaultTuning returns the stock behaviour
func DefaultTuning() Tuning {
	return Tuning{
		Agents:          4,
		SitMin:          50,
		SitMax:          150,
		Cooldown:        200,
		IdleMin:         50,
		IdleMax:         150,
		IdleChance:      0.005,
		Trigger:         TriggerRect,
		ProximityRadius: 50,
		SpawnMinRadius:  150,
		SpawnMaxRadius:  300,
		SpawnStep:       50,
		SpawnAttempts:   10,
		FrameEvery:      30,
		SitDrawSize:     200,
	}
}

// Validate checks the tuning for values the simulation cannot run with
func (t Tuning) Validate() error {
	switch {
	case t.Agents < 0:
		return fmt.Errorf("agents must not be negative")
	case t.SitMin <= 0 || t.SitMax < t.SitMin:
		return fmt.Errorf("sit range [%d, %d) is invalid", t.SitMin, t.SitMax)
	case t.IdleMin <= 0 || t.IdleMax < t.IdleMin:
		return fmt.Errorf("idle range [%d, %d) is invalid", t.IdleMin, t.IdleMax)
	case t.IdleChance < 0 || t.IdleChance > 1:
		return fmt.Errorf("idle_chance must be within [0, 1]")
	case t.Cooldown < 0:
		return fmt.Errorf("cooldown must not be negative")
	case t.Trigger != TriggerRect && t.Trigger != TriggerProximity:
		return fmt.Errorf("unknown trigger mode %q", t.Trigger)
	case t.Trigger == TriggerProximity && t.ProximityRadius <= 0:
		return fmt.Errorf("proximity_radius must be positive")
	case t.SpawnStep <= 0 || t.SpawnMaxRadius < t.SpawnMinRadius:
		return fmt.Errorf("spawn radii are invalid")
	case t.SpawnAttempts < 0:
		return fmt.Errorf("spawn_attempts must not be negative")
	case t.FrameEvery <= 0:
		return fmt.Errorf("frame_every must be positive")
	}
	return nil
}
