package scene

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Cycle is an animation strip that repeats forever
type Cycle []string

// At returns the frame shown at animation index i
func (c Cycle) At(i int) string {
	if len(c) == 0 {
		return ""
	}
	i %= len(c)
	if i < 0 {
		i += len(c)
	}
	return c[i]
}

// CharacterSprites holds every animation strip of one character
type CharacterSprites struct {
	Idle map[Facing]Cycle `json:"idle"`
	Run  map[Facing]Cycle `json:"run"`
	Sit  map[string]Cycle `json:"sit"` // keyed by desk group
}

// Manifest lists the image files the scene draws, relative to the asset root
type Manifest struct {
	Background string             `json:"background"`
	Desks      map[string]string  `json:"desks"` // keyed by desk group
	Characters []CharacterSprites `json:"characters"`
}

// Character returns the sprite set for a 1-based sprite number, wrapping
// around when there are more agents than sprite sets
func (m *Manifest) Character(n int) CharacterSprites {
	if len(m.Characters) == 0 {
		return CharacterSprites{}
	}
	i := (n - 1) % len(m.Characters)
	if i < 0 {
		i += len(m.Characters)
	}
	return m.Characters[i]
}

// Paths returns every distinct file the manifest references, sorted
func (m *Manifest) Paths() []string {
	set := make(map[string]struct{})
	add := func(p string) {
		if p != "" {
			set[p] = struct{}{}
		}
	}
	add(m.Background)
	for _, p := range m.Desks {
		add(p)
	}
	for _, c := range m.Characters {
		for _, strips := range []map[Facing]Cycle{c.Idle, c.Run} {
			for _, cyc := range strips {
				for _, p := range cyc {
					add(p)
				}
			}
		}
		for _, cyc := range c.Sit {
			for _, p := range cyc {
				add(p)
			}
		}
	}

	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Verify checks that every referenced file exists in fsys. The scene must
// not start until all of its images are available.
func (m *Manifest) Verify(fsys fs.FS) error {
	var missing []string
	for _, p := range m.Paths() {
		if _, err := fs.Stat(fsys, p); err != nil {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%d missing assets, first: %s", len(missing), missing[0])
	}
	return nil
}

// DefaultManifest builds the stock asset paths for n characters and the given desk groups
func DefaultManifest(n int, groups []string) *Manifest {
	const root = "OfficeSprites"
	const frames = 6

	m := &Manifest{
		Background: path.Join(root, "Background", "Office_Desig2.png"),
		Desks:      make(map[string]string, len(groups)),
	}
	for _, g := range groups {
		m.Desks[g] = path.Join(root, "Furniture", "Desk"+title(g)+".png")
	}

	for c := 1; c <= n; c++ {
		base := path.Join(root, fmt.Sprintf("Character%d", c))
		sprites := CharacterSprites{
			Idle: make(map[Facing]Cycle, len(Facings)),
			Run:  make(map[Facing]Cycle, len(Facings)),
			Sit:  make(map[string]Cycle, len(groups)),
		}
		for _, f := range Facings {
			idle := make(Cycle, frames)
			run := make(Cycle, frames)
			for i := range frames {
				idle[i] = path.Join(base, "idle_anim_frames", f.String()+"Idle", fmt.Sprintf("%sIdle%d.png", f, i+1))
				run[i] = path.Join(base, "run_frames", f.String()+"Run", fmt.Sprintf("%sRun%d.png", f, i+1))
			}
			sprites.Idle[f] = idle
			sprites.Run[f] = run
		}
		for _, g := range groups {
			dir := "SittingChair" + title(g)
			sprites.Sit[g] = Cycle{
				path.Join(base, dir, fmt.Sprintf("Character%d%sFrame1.png", c, dir)),
				path.Join(base, dir, fmt.Sprintf("Character%d%sFrame2.png", c, dir)),
			}
		}
		m.Characters = append(m.Characters, sprites)
	}
	return m
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
