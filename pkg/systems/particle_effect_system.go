package systems

import (
	"log"
	"math/rand/v2"
	"slices"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/components"
	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/ecs"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

// RenderHost is the render-side registry a ParticleEffectSystem reports to.
// RenderSystem implements it; tests use a recording fake.
type RenderHost interface {
	AddRenderObject(ro render.RenderObject)
	RemoveRenderObject(ro render.RenderObject)
	MarkForUpdate(ro render.RenderObject)
}

// EffectListener is notified when an effect reaches the STOPPED state,
// either by draining after a soft stop or by a hard stop.
type EffectListener interface {
	OnEffectStopped(entity ecs.EntityID, effect *components.ParticleEffectComponent)
}

// EffectListenerFunc adapts a function to EffectListener.
type EffectListenerFunc func(entity ecs.EntityID, effect *components.ParticleEffectComponent)

// OnEffectStopped implements EffectListener.
func (f EffectListenerFunc) OnEffectStopped(entity ecs.EntityID, effect *components.ParticleEffectComponent) {
	f(entity, effect)
}

// Option configures a ParticleEffectSystem.
type Option func(*ParticleEffectSystem)

// WithRand makes the system draw every random number from r.
func WithRand(r *rand.Rand) Option {
	return func(s *ParticleEffectSystem) {
		s.rng = r
	}
}

// ParticleEffectSystem owns the lifecycle of every ParticleEffectComponent:
// it keeps the ordered list of active effects, advances them once per
// frame, spawns and expires particles, applies LOD changes and reports
// finished effects to listeners.
//
// Per frame, for each active component in registration order:
//  1. Apply a pending LOD change
//  2. Run the effect if it is starting
//  3. Integrate groups and particles (skipped while paused)
//  4. Restart or stop on end of cycle, then finalize drained effects
//
// Components are plain data; every state transition goes through the
// system. When EntityManager is set, destroying an entity detaches its
// effect automatically.
type ParticleEffectSystem struct {
	EntityManager *ecs.EntityManager

	host      RenderHost
	settings  *config.ParticleSettings
	materials *render.MaterialCache
	rng       *rand.Rand

	active     []*components.ParticleEffectComponent
	activeSet  map[*components.ParticleEffectComponent]struct{}
	processing []*components.ParticleEffectComponent

	globalExternals map[string]float32
	listeners       []listenerEntry
	nextListener    ListenerID

	// 每帧复用的力向量缓存
	forceValues []mgl32.Vec3
}

// NewParticleEffectSystem creates a system reporting to host. em and
// settings may be nil; nil settings means config.DefaultParticleSettings.
func NewParticleEffectSystem(em *ecs.EntityManager, host RenderHost, settings *config.ParticleSettings, opts ...Option) *ParticleEffectSystem {
	if settings == nil {
		settings = config.DefaultParticleSettings()
	}
	if host == nil {
		host = nopRenderHost{}
	}
	s := &ParticleEffectSystem{
		EntityManager:   em,
		host:            host,
		settings:        settings,
		materials:       render.NewMaterialCache(),
		activeSet:       make(map[*components.ParticleEffectComponent]struct{}),
		globalExternals: make(map[string]float32),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if em != nil {
		em.OnDestroy(s.onEntityDestroyed)
	}
	return s
}

// Settings returns the tuning the system runs with.
func (s *ParticleEffectSystem) Settings() *config.ParticleSettings {
	return s.settings
}

// onEntityDestroyed detaches the effect of an entity that is being removed.
func (s *ParticleEffectSystem) onEntityDestroyed(id ecs.EntityID) {
	c, ok := ecs.GetComponent[*components.ParticleEffectComponent](s.EntityManager, id)
	if !ok {
		return
	}
	s.RemoveComponent(c)
}

// RunEffect instantiates every top-level emitter of the component's effect
// and moves it to PLAYING.
func (s *ParticleEffectSystem) RunEffect(c *components.ParticleEffectComponent) {
	c.Data.InfoSources[0].Position = c.AnchorPosition()
	if c.Effect != nil {
		for _, inst := range c.Effect.Emitters {
			s.RunEmitter(c, inst.Emitter, inst.SpawnPosition, 0)
		}
	}
	c.Time = 0
	c.State = components.StatePlaying
}

// RunEmitter appends one group per enabled layer of emitter, anchored at
// info source positionSource.
func (s *ParticleEffectSystem) RunEmitter(c *components.ParticleEffectComponent, emitter *particle.Emitter, spawnPosition mgl32.Vec3, positionSource int) {
	if emitter == nil {
		return
	}
	for _, layer := range emitter.Layers {
		if layer.IsDisabled {
			continue
		}
		lodActive := layer.IsLodActive(c.ActiveLodLevel)
		// 短特效不受 LOD 控制：不活跃的层直接不创建
		if emitter.ShortEffect && !lodActive {
			continue
		}

		g := components.NewParticleGroup(emitter, layer)
		g.LoopStartTime = 0
		g.LoopLayerStartTime = layer.StartTime
		g.LoopDuration = layer.EndTime
		g.VisibleLod = lodActive
		g.PositionSource = positionSource
		g.SpawnPosition = spawnPosition

		if layer.Sprite != nil && layer.Kind != particle.KindSuperEmitter {
			g.Material = s.GetMaterial(layer.Sprite.Image, layer.EnableFog, layer.EnableFrameBlend, layer.Blending)
		}
		c.Data.Groups = append(c.Data.Groups, g)
	}
}

// AddToActive registers a stopped component with the system and its render
// object with the host. On first registration a component whose speed was
// never set through SetPlaybackSpeed takes settings.DefaultPlaybackSpeed.
func (s *ParticleEffectSystem) AddToActive(c *components.ParticleEffectComponent) {
	if _, ok := s.activeSet[c]; ok {
		log.Panicf("[ParticleEffectSystem] effect of entity %d is already active", c.Entity)
	}
	s.active = append(s.active, c)
	s.activeSet[c] = struct{}{}

	if !c.PlaybackSpeedSet {
		c.PlaybackSpeed = s.settings.DefaultPlaybackSpeed
		c.PlaybackSpeedSet = true
	}

	for name, v := range s.globalExternals {
		c.ExternalValues[name] = v
	}

	if c.RenderObject == nil {
		c.RenderObject = NewParticleRenderObject(&c.Data, c)
	}
	c.RenderObject.SetWorldTransform(c.WorldTransform)
	c.RenderObject.SetBoundingBox(render.PointAABBox(c.AnchorPosition()))
	s.host.AddRenderObject(c.RenderObject)
}

// RemoveFromActive unregisters an active component and marks it STOPPED.
func (s *ParticleEffectSystem) RemoveFromActive(c *components.ParticleEffectComponent) {
	idx := slices.Index(s.active, c)
	if idx < 0 {
		log.Panicf("[ParticleEffectSystem] RemoveFromActive: effect of entity %d is not active", c.Entity)
	}
	s.active = slices.Delete(s.active, idx, idx+1)
	delete(s.activeSet, c)

	c.State = components.StateStopped
	s.host.RemoveRenderObject(c.RenderObject)
}

// IsActive reports whether c is registered with the system.
func (s *ParticleEffectSystem) IsActive(c *components.ParticleEffectComponent) bool {
	_, ok := s.activeSet[c]
	return ok
}

// ActiveComponents returns the active components in processing order.
// The slice must not be modified.
func (s *ParticleEffectSystem) ActiveComponents() []*components.ParticleEffectComponent {
	return s.active
}

// Process advances every active effect by timeElapsed seconds.
func (s *ParticleEffectSystem) Process(timeElapsed float32) {
	shortEffectTime := timeElapsed * s.settings.ShortEffectSpeedMultiplier(fpsOf(timeElapsed, s.settings))

	// 迭代快照：监听器回调中可能移除或添加组件
	s.processing = append(s.processing[:0], s.active...)
	for _, c := range s.processing {
		if !s.IsActive(c) {
			continue
		}
		s.processComponent(c, timeElapsed, shortEffectTime)
	}
	clear(s.processing)
}

func (s *ParticleEffectSystem) processComponent(c *components.ParticleEffectComponent, dt, shortDt float32) {
	if c.ActiveLodLevel != c.DesiredLodLevel {
		s.UpdateActiveLod(c)
	}
	if c.State == components.StateStarting {
		s.RunEffect(c)
	}
	if c.IsPaused {
		return
	}

	speed := c.PlaybackSpeed
	s.UpdateEffect(c, dt*speed, shortDt*speed)

	var effectEnded bool
	if c.StopWhenEmpty {
		effectEnded = len(c.Data.Groups) == 0
	} else {
		effectEnded = c.Time > c.EffectDuration
	}

	if effectEnded {
		c.CurrRepeatsCount++
		if (c.RepeatsCount == 0 || c.CurrRepeatsCount < c.RepeatsCount) && c.State != components.StateStopping {
			if c.ClearOnRestart {
				// 组已全部清空，超级发射器占用的锚点槽位不再被引用
				c.Data.ClearGroups()
				c.Data.ResetInfoSources()
			}
			s.RunEffect(c)
		} else {
			s.beginStopping(c)
		}
	}

	if c.State == components.StateStopping {
		for _, g := range c.Data.Groups {
			if !g.FinishingGroup {
				log.Panicf("[ParticleEffectSystem] stopping effect of entity %d has an unfinished group %q", c.Entity, g.Layer.Name)
			}
		}
		if len(c.Data.Groups) == 0 {
			c.Data.ResetInfoSources()
			s.RemoveFromActive(c)
			s.notifyStopped(c)
			return
		}
	}

	s.host.MarkForUpdate(c.RenderObject)
}

// beginStopping moves c to STOPPING; it drains without spawning.
func (s *ParticleEffectSystem) beginStopping(c *components.ParticleEffectComponent) {
	c.State = components.StateStopping
	for _, g := range c.Data.Groups {
		g.FinishingGroup = true
	}
}

func (s *ParticleEffectSystem) notifyStopped(c *components.ParticleEffectComponent) {
	for _, e := range slices.Clone(s.listeners) {
		e.listener.OnEffectStopped(c.Entity, c)
	}
}

// GetMaterial returns the shared material for the given texture and render
// flags. Nil texture yields nil.
func (s *ParticleEffectSystem) GetMaterial(texture *ebiten.Image, enableFog, enableFrameBlend bool, blending particle.BlendMode) *render.Material {
	return s.materials.Get(texture, enableFog, enableFrameBlend, blending)
}

// MaterialCount returns the number of distinct materials created so far.
func (s *ParticleEffectSystem) MaterialCount() int {
	return s.materials.Len()
}

// SetGlobalExternalValue stores an external value applied to every active
// component and to components activated later.
func (s *ParticleEffectSystem) SetGlobalExternalValue(name string, value float32) {
	s.globalExternals[name] = value
	for _, c := range s.active {
		c.ExternalValues[name] = value
	}
}

// GlobalExternalValue returns a value set with SetGlobalExternalValue.
func (s *ParticleEffectSystem) GlobalExternalValue(name string) (float32, bool) {
	v, ok := s.globalExternals[name]
	return v, ok
}

// ListenerID identifies a subscription made with AddListener.
type ListenerID int

type listenerEntry struct {
	id       ListenerID
	listener EffectListener
}

// AddListener subscribes l to effect completion. Listeners are called in
// subscription order.
func (s *ParticleEffectSystem) AddListener(l EffectListener) ListenerID {
	s.nextListener++
	s.listeners = append(s.listeners, listenerEntry{id: s.nextListener, listener: l})
	return s.nextListener
}

// RemoveListener cancels a subscription. Unknown ids are ignored.
func (s *ParticleEffectSystem) RemoveListener(id ListenerID) {
	s.listeners = slices.DeleteFunc(s.listeners, func(e listenerEntry) bool {
		return e.id == id
	})
}

func fpsOf(dt float32, settings *config.ParticleSettings) float32 {
	if dt <= 0 {
		return settings.ShortEffectMaxFPS
	}
	return 1 / dt
}

type nopRenderHost struct{}

func (nopRenderHost) AddRenderObject(render.RenderObject)    {}
func (nopRenderHost) RemoveRenderObject(render.RenderObject) {}
func (nopRenderHost) MarkForUpdate(render.RenderObject)      {}
