package scene

// spawnDirections is the order in which offsets from the reference are tried
var spawnDirections = []Vec{
	{1, 0},  // right
	{-1, 0}, // left
	{0, 1},  // down
	{0, -1}, // up
}

// maxSpawnRings caps the radii tried before falling back to the safe areas
const maxSpawnRings = 64

// FindSpawn returns a position near ref where an agent fits without touching
// an obstacle or a sit-trigger region. The search is bounded: axis offsets at
// growing radii, then random samples inside the safe areas, then the scene
// center, which may overlap.
func (s *Scene) FindSpawn(ref Vec) Vec {
	t := s.tuning
	rings := 0
	if t.SpawnStep > 0 && t.SpawnMaxRadius >= t.SpawnMinRadius {
		rings = maxSpawnRings
		if n := (t.SpawnMaxRadius - t.SpawnMinRadius) / t.SpawnStep; n < maxSpawnRings {
			rings = int(n) + 1
		}
	}
	for i := 0; i < rings; i++ {
		d := t.SpawnMinRadius + float64(i)*t.SpawnStep
		for _, dir := range spawnDirections {
			p := ref.Add(dir.X*d, dir.Y*d)
			if s.validSpawn(p) {
				return p
			}
		}
	}

	for _, area := range s.layout.SafeAreas {
		for i := 0; i < t.SpawnAttempts; i++ {
			p := Vec{
				X: area.X + s.rng.Float64()*(area.W-s.layout.AgentW),
				Y: area.Y + s.rng.Float64()*(area.H-s.layout.AgentH),
			}
			if s.validSpawn(p) {
				return p
			}
		}
	}

	return Vec{s.layout.Width / 2, s.layout.Height / 2}
}

// validSpawn checks that an agent at p stays in bounds and clear of
// obstacles and trigger regions
func (s *Scene) validSpawn(p Vec) bool {
	l := s.layout
	if p.X < 0 || p.X > l.Width-l.AgentW || p.Y < 0 || p.Y > l.Height-l.AgentH {
		return false
	}
	r := l.AgentRect(p)
	if Collides(r, l.Obstacles, 0) {
		return false
	}
	return !Collides(r, s.triggers, 0)
}
