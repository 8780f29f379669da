package components

import (
	"log"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/go-gl/mathgl/mgl32"
)

// ParticleGroup is one running instance of an emitter layer. It owns its
// particles through an index arena: spawn pushes onto the chain head, and
// expired particles go to a free list, both in O(1).
//
// The group retains its emitter and layer definitions from creation until
// ReleaseDefinitions, which must be called exactly once when the group is
// erased.
type ParticleGroup struct {
	Emitter  *particle.Emitter
	Layer    *particle.Layer
	Material *render.Material // 可为 nil（无贴图或超级发射器层）

	// 循环计时
	Time               float32
	LoopStartTime      float32
	LoopLayerStartTime float32
	LoopDuration       float32

	VisibleLod     bool
	FinishingGroup bool

	// ParticlesToGenerate carries the fractional part of the spawn count
	// between frames.
	ParticlesToGenerate float32

	PositionSource int        // 锚点 info source 下标
	SpawnPosition  mgl32.Vec3 // 发射器实例在特效内的偏移

	pool     []Particle
	head     int32
	free     int32
	count    int
	released bool
}

// NewParticleGroup creates an empty group and retains its definitions.
func NewParticleGroup(emitter *particle.Emitter, layer *particle.Layer) *ParticleGroup {
	emitter.Retain()
	layer.Retain()
	return &ParticleGroup{
		Emitter: emitter,
		Layer:   layer,
		head:    NilParticle,
		free:    NilParticle,
	}
}

// ReleaseDefinitions drops the group's hold on its emitter and layer.
func (g *ParticleGroup) ReleaseDefinitions() {
	if g.released {
		log.Panicf("[ParticleGroup] definitions of layer %q released twice", g.Layer.Name)
	}
	g.released = true
	g.Emitter.Release()
	g.Layer.Release()
}

// ActiveParticleCount returns the number of live particles.
func (g *ParticleGroup) ActiveParticleCount() int {
	return g.count
}

// IsEmpty reports whether the chain has no particles.
func (g *ParticleGroup) IsEmpty() bool {
	return g.head == NilParticle
}

// SpawnParticle allocates a zeroed particle at the head of the chain.
// The pointer is valid until the next SpawnParticle call on this group.
func (g *ParticleGroup) SpawnParticle() *Particle {
	var idx int32
	if g.free != NilParticle {
		idx = g.free
		g.free = g.pool[idx].next
	} else {
		g.pool = append(g.pool, Particle{})
		idx = int32(len(g.pool) - 1)
	}

	g.pool[idx] = Particle{PositionTarget: -1, next: g.head}
	g.head = idx
	g.count++
	return &g.pool[idx]
}

// Each calls fn for every live particle in chain order.
func (g *ParticleGroup) Each(fn func(p *Particle)) {
	for i := g.head; i != NilParticle; i = g.pool[i].next {
		fn(&g.pool[i])
	}
}

// RemoveIf calls pred for every live particle in chain order and frees the
// ones it returns true for. pred may modify the particle. Returns the
// number of freed particles.
func (g *ParticleGroup) RemoveIf(pred func(p *Particle) bool) int {
	removed := 0
	prev := NilParticle
	i := g.head
	for i != NilParticle {
		next := g.pool[i].next
		if pred(&g.pool[i]) {
			g.unlink(prev, i)
			removed++
		} else {
			prev = i
		}
		i = next
	}
	return removed
}

// CutEverySecond frees the 2nd, 4th, 6th... particle of the chain, leaving
// ceil(N/2). Returns the number of freed particles.
func (g *ParticleGroup) CutEverySecond() int {
	keep := false
	return g.RemoveIf(func(*Particle) bool {
		keep = !keep
		return !keep
	})
}

// Clear frees every particle.
func (g *ParticleGroup) Clear() {
	g.pool = g.pool[:0]
	g.head = NilParticle
	g.free = NilParticle
	g.count = 0
}

// unlink removes idx from the chain given its predecessor and pushes it on
// the free list.
func (g *ParticleGroup) unlink(prev, idx int32) {
	next := g.pool[idx].next
	if prev == NilParticle {
		g.head = next
	} else {
		g.pool[prev].next = next
	}
	g.pool[idx].next = g.free
	g.free = idx
	g.count--
}
