package components

import (
	"github.com/go-gl/mathgl/mgl32"
)

// InfoSource is a position/size anchor that groups can spawn relative to.
type InfoSource struct {
	Position mgl32.Vec3
	Size     mgl32.Vec2
}

// ParticleEffectData is the live simulation state of one effect component.
//
// Groups are kept in insertion order, which is also the draw order used to
// coalesce batches. InfoSources[0] is always the effect's own anchor; higher
// slots are allocated by super-emitter particles.
type ParticleEffectData struct {
	Groups      []*ParticleGroup
	InfoSources []InfoSource
}

// NewParticleEffectData returns data with only the effect's own anchor.
func NewParticleEffectData() ParticleEffectData {
	return ParticleEffectData{
		InfoSources: []InfoSource{{Size: mgl32.Vec2{1, 1}}},
	}
}

// AddInfoSource appends an anchor and returns its index.
func (d *ParticleEffectData) AddInfoSource(src InfoSource) int {
	d.InfoSources = append(d.InfoSources, src)
	return len(d.InfoSources) - 1
}

// ResetInfoSources drops every anchor except the effect's own.
func (d *ParticleEffectData) ResetInfoSources() {
	if len(d.InfoSources) > 1 {
		d.InfoSources = d.InfoSources[:1]
	}
}

// ClearGroups frees all particles and erases every group, releasing their
// definitions.
func (d *ParticleEffectData) ClearGroups() {
	for _, g := range d.Groups {
		g.Clear()
		g.ReleaseDefinitions()
	}
	d.Groups = d.Groups[:0]
}

// ActiveParticleCount sums live particles over all groups.
func (d *ParticleEffectData) ActiveParticleCount() int {
	n := 0
	for _, g := range d.Groups {
		n += g.ActiveParticleCount()
	}
	return n
}
