package scenes

import (
	"fmt"
	"image/color"
	"log"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/components"
	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/ecs"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/decker502/particlefx/pkg/systems"
	"github.com/decker502/particlefx/pkg/telemetry"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// EffectSceneConfig 特效预览场景的配置
type EffectSceneConfig struct {
	Width, Height int
	Settings      *config.ParticleSettings // nil 使用默认配置
	Options       []systems.Option         // 传给 ParticleEffectSystem，测试用于固定随机种子

	LodLevel      int
	PlaybackSpeed float32
	ShowBounds    bool
	ShowStats     bool
}

// EffectScene 预览单个粒子特效
//
// 场景持有一套独立的 ECS：
//   - 主特效实体位于原点，按特效文件的重复策略播放
//   - SpawnBurst 创建的一次性实体播放一轮后自动销毁
//
// 每帧顺序：Process → RenderSystem.Update → RemoveMarkedEntities
type EffectScene struct {
	entityManager *ecs.EntityManager
	effectSystem  *systems.ParticleEffectSystem
	renderSystem  *systems.RenderSystem
	perf          *telemetry.PerfCollector

	effect     *particle.EffectConfig
	mainEntity ecs.EntityID
	oneShots   map[ecs.EntityID]struct{}
	listener   systems.ListenerID

	lodLevel      int
	playbackSpeed float32
	showBounds    bool
	showStats     bool
	simTime       float64
	frame         int
	closed        bool
}

// NewEffectScene creates a scene previewing effect and starts it.
func NewEffectScene(effect *particle.EffectConfig, cfg EffectSceneConfig) *EffectScene {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 800, 600
	}
	if cfg.PlaybackSpeed <= 0 {
		cfg.PlaybackSpeed = 1
	}

	em := ecs.NewEntityManager()
	cam := render.NewCamera(mgl32.Vec3{0, 2, 12}, mgl32.Vec3{0, 0, 0}, cfg.Width, cfg.Height)
	renderSystem := systems.NewRenderSystem(cam)

	s := &EffectScene{
		entityManager: em,
		renderSystem:  renderSystem,
		effectSystem:  systems.NewParticleEffectSystem(em, renderSystem, cfg.Settings, cfg.Options...),
		perf:          telemetry.NewPerfCollector(60),
		effect:        effect,
		oneShots:      make(map[ecs.EntityID]struct{}),
		playbackSpeed: cfg.PlaybackSpeed,
		showBounds:    cfg.ShowBounds,
		showStats:     cfg.ShowStats,
	}
	s.lodLevel = min(max(cfg.LodLevel, 0), s.effectSystem.Settings().MaxLodLevel)
	s.listener = s.effectSystem.AddListener(systems.EffectListenerFunc(s.onEffectStopped))

	s.mainEntity = s.spawn(mgl32.Vec3{}, false)
	log.Printf("[EffectScene] Previewing effect %q (%d emitters)", effect.Name, len(effect.Emitters))
	return s
}

// spawn creates an entity carrying the effect at position and starts it.
func (s *EffectScene) spawn(position mgl32.Vec3, oneShot bool) ecs.EntityID {
	id := s.entityManager.CreateEntity()
	transform := components.NewTransformComponent(position)
	ecs.AddComponent(s.entityManager, id, transform)

	c := components.NewParticleEffectComponent(id, s.effect, &transform.World)
	ecs.AddComponent(s.entityManager, id, c)

	s.effectSystem.SetPlaybackSpeed(c, s.playbackSpeed)
	s.effectSystem.SetDesiredLodLevel(c, s.lodLevel)
	if oneShot {
		s.effectSystem.StopAfterNRepeats(c, 1)
		s.oneShots[id] = struct{}{}
	}
	s.effectSystem.Start(c)
	return id
}

// SpawnBurst plays one cycle of the effect at position. The entity is
// destroyed once the effect stops.
func (s *EffectScene) SpawnBurst(position mgl32.Vec3) ecs.EntityID {
	return s.spawn(position, true)
}

// onEffectStopped destroys one-shot entities after their last particle died.
func (s *EffectScene) onEffectStopped(entity ecs.EntityID, _ *components.ParticleEffectComponent) {
	if _, ok := s.oneShots[entity]; !ok {
		return
	}
	delete(s.oneShots, entity)
	s.entityManager.DestroyEntity(entity)
}

// Update advances the effect simulation by deltaTime seconds.
func (s *EffectScene) Update(deltaTime float64) {
	if s.closed {
		return
	}
	s.perf.StartTick()
	s.perf.StartPhase(telemetry.PhaseProcess)
	s.effectSystem.Process(float32(deltaTime))

	s.perf.StartPhase(telemetry.PhasePrepare)
	s.renderSystem.Update()
	s.entityManager.RemoveMarkedEntities()

	s.perf.EndTick(s.Load())
	s.simTime += deltaTime
	s.frame++
}

// Draw renders the particles, and optionally their bounds and statistics.
func (s *EffectScene) Draw(screen *ebiten.Image) {
	s.renderSystem.Draw(screen)

	if s.showBounds {
		for _, ro := range s.renderSystem.RenderObjects() {
			s.drawBounds(screen, ro.BoundingBox())
		}
	}
	if s.showStats {
		s.drawStats(screen)
	}
}

// drawBounds 将包围盒投影到屏幕并绘制其二维外接矩形
func (s *EffectScene) drawBounds(screen *ebiten.Image, box render.AABBox) {
	if box.IsEmpty() {
		return
	}
	cam := s.renderSystem.Camera
	view, proj := cam.View(), cam.Projection()

	minX, minY := float32(1e9), float32(1e9)
	maxX, maxY := float32(-1e9), float32(-1e9)
	for i := 0; i < 8; i++ {
		corner := box.Min
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				corner[axis] = box.Max[axis]
			}
		}
		x, y, ok := cam.Project(corner, view, proj)
		if !ok {
			return
		}
		minX, minY = min(minX, x), min(minY, y)
		maxX, maxY = max(maxX, x), max(maxY, y)
	}
	vector.StrokeRect(screen, minX, minY, maxX-minX, maxY-minY, 1, color.RGBA{0, 255, 0, 200}, false)
}

func (s *EffectScene) drawStats(screen *ebiten.Image) {
	load := s.Load()
	stats := s.perf.Stats()
	text := fmt.Sprintf("%s\nFPS: %.1f  LOD: %d  speed: x%.2f\neffects: %d  groups: %d  particles: %d  batches: %d\nprocess: %dus (p95 %dus)",
		s.effect.Name, ebiten.ActualFPS(), s.lodLevel, s.playbackSpeed,
		load.Effects, load.Groups, load.Particles, load.Batches,
		stats.PhaseAvg[telemetry.PhaseProcess].Microseconds(), stats.P95TickDuration.Microseconds())
	ebitenutil.DebugPrintAt(screen, text, 10, 10)
}

// Load reports the current simulation load.
func (s *EffectScene) Load() telemetry.Load {
	var load telemetry.Load
	for _, c := range s.effectSystem.ActiveComponents() {
		load.Effects++
		load.Groups += len(c.Data.Groups)
		load.Particles += c.GetActiveParticlesCount()
	}
	for _, ro := range s.renderSystem.RenderObjects() {
		load.Batches += len(ro.RenderBatches())
	}
	return load
}

// MainEffect returns the component of the looping preview entity.
func (s *EffectScene) MainEffect() *components.ParticleEffectComponent {
	c, _ := ecs.GetComponent[*components.ParticleEffectComponent](s.entityManager, s.mainEntity)
	return c
}

// TogglePause pauses or resumes every effect in the scene.
func (s *EffectScene) TogglePause() {
	if s.closed {
		return
	}
	paused := !s.MainEffect().IsPaused
	for _, c := range s.effectSystem.ActiveComponents() {
		s.effectSystem.Pause(c, paused)
	}
}

// RestartMain restarts the preview effect, optionally dropping live particles.
func (s *EffectScene) RestartMain(deleteAll bool) {
	if s.closed {
		return
	}
	s.effectSystem.Restart(s.MainEffect(), deleteAll)
}

// StopMain stops the preview effect; soft stops let particles drain.
func (s *EffectScene) StopMain(deleteAll bool) {
	if s.closed {
		return
	}
	s.effectSystem.Stop(s.MainEffect(), deleteAll)
}

// SetLodLevel applies a LOD level to every effect in the scene.
func (s *EffectScene) SetLodLevel(lod int) {
	s.lodLevel = min(max(lod, 0), s.effectSystem.Settings().MaxLodLevel)
	for _, c := range s.effectSystem.ActiveComponents() {
		s.effectSystem.SetDesiredLodLevel(c, s.lodLevel)
	}
}

// LodLevel returns the scene's LOD level.
func (s *EffectScene) LodLevel() int {
	return s.lodLevel
}

// SetPlaybackSpeed scales the playback of every effect in the scene.
func (s *EffectScene) SetPlaybackSpeed(speed float32) {
	s.playbackSpeed = max(speed, 0)
	for _, c := range s.effectSystem.ActiveComponents() {
		s.effectSystem.SetPlaybackSpeed(c, s.playbackSpeed)
	}
}

// PlaybackSpeed returns the scene's playback speed.
func (s *EffectScene) PlaybackSpeed() float32 {
	return s.playbackSpeed
}

// SetExternalValue sets a global external curve modifier (e.g. "scale").
func (s *EffectScene) SetExternalValue(name string, value float32) {
	s.effectSystem.SetGlobalExternalValue(name, value)
}

// MoveMain moves the preview entity; running particles follow per their
// layer's InheritPosition flag.
func (s *EffectScene) MoveMain(position mgl32.Vec3) {
	if t, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, s.mainEntity); ok {
		t.SetTranslation(position)
	}
}

// SetShowBounds toggles bounding box drawing.
func (s *EffectScene) SetShowBounds(show bool) { s.showBounds = show }

// SetShowStats toggles the statistics overlay.
func (s *EffectScene) SetShowStats(show bool) { s.showStats = show }

// OneShotCount returns the number of bursts still playing.
func (s *EffectScene) OneShotCount() int {
	return len(s.oneShots)
}

// Camera returns the scene camera.
func (s *EffectScene) Camera() *render.Camera {
	return s.renderSystem.Camera
}

// Perf returns the scene's frame cost collector.
func (s *EffectScene) Perf() *telemetry.PerfCollector {
	return s.perf
}

// Frame returns the number of updates run so far and the simulated time.
func (s *EffectScene) Frame() (int, float64) {
	return s.frame, s.simTime
}

// Close destroys every entity and releases their render objects.
func (s *EffectScene) Close() {
	if s.closed {
		return
	}
	s.effectSystem.RemoveListener(s.listener)
	for _, id := range ecs.GetEntitiesWith1[*components.ParticleEffectComponent](s.entityManager) {
		s.entityManager.DestroyEntity(id)
	}
	s.entityManager.RemoveMarkedEntities()
	clear(s.oneShots)
	s.closed = true
	log.Printf("[EffectScene] Closed preview of %q", s.effect.Name)
}
