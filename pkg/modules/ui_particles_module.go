package modules

import (
	"log"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/components"
	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/ecs"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/decker502/particlefx/pkg/systems"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

// ScaleExternal 由 UI 几何变换驱动的外部曲线变量名
const ScaleExternal = "scale"

// UIParticlesModule 在二维界面中播放粒子特效
// 封装所有与界面粒子相关的功能，包括：
//   - 独立的 ParticleEffectSystem 与 RenderSystem（正交相机，1 世界单位 = 1 像素）
//   - 屏幕坐标、旋转、缩放到特效锚点矩阵的转换
//   - 缩放同步到 "scale" 外部变量，供特效曲线引用
//
// 坐标约定：
//   - 屏幕坐标原点在左上角，y 轴向下
//   - 世界坐标 (x, -y, 0) 对应屏幕坐标 (x, y)
//   - 角度为屏幕空间顺时针弧度
type UIParticlesModule struct {
	effectSystem *systems.ParticleEffectSystem
	renderSystem *systems.RenderSystem
	component    *components.ParticleEffectComponent

	// 锚点矩阵，特效组件持有其指针
	anchor mgl32.Mat4

	// 几何变换
	x, y  float32
	angle float32
	scale float32

	visible  bool
	listener systems.ListenerID
	onStop   func()
}

// UIParticlesConfig 界面粒子模块的配置
type UIParticlesConfig struct {
	Width, Height int                      // 屏幕尺寸
	Settings      *config.ParticleSettings // nil 使用默认配置
	Options       []systems.Option
	AutoStart     bool   // 创建后立即播放
	OnStop        func() // 特效完全停止时回调（可选）
}

// NewUIParticlesModule 创建一个新的界面粒子模块
//
// 参数:
//   - effect: 特效定义
//   - cfg: 模块配置
//
// 注意：
//   - 模块不依赖 EntityManager，组件的实体 ID 固定为 0
//   - 初始位置为屏幕原点，缩放 1，角度 0
func NewUIParticlesModule(effect *particle.EffectConfig, cfg UIParticlesConfig) *UIParticlesModule {
	cam := render.NewCamera(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, cfg.Width, cfg.Height)
	cam.Ortho = true
	cam.OrthoHeight = float32(cfg.Height)
	w, h := float32(cfg.Width)/2, float32(cfg.Height)/2
	cam.Position = mgl32.Vec3{w, -h, 100}
	cam.Target = mgl32.Vec3{w, -h, 0}

	renderSystem := systems.NewRenderSystem(cam)
	m := &UIParticlesModule{
		renderSystem: renderSystem,
		effectSystem: systems.NewParticleEffectSystem(nil, renderSystem, cfg.Settings, cfg.Options...),
		scale:        1,
		visible:      true,
		onStop:       cfg.OnStop,
	}
	m.anchor = mgl32.Ident4()
	m.component = components.NewParticleEffectComponent(0, effect, &m.anchor)
	m.listener = m.effectSystem.AddListener(systems.EffectListenerFunc(m.onEffectStopped))
	m.updateTransform()

	if cfg.AutoStart {
		m.Start()
	}
	return m
}

// updateTransform 重新计算锚点矩阵并同步缩放外部变量
func (m *UIParticlesModule) updateTransform() {
	m.anchor = mgl32.Translate3D(m.x, -m.y, 0).
		Mul4(mgl32.HomogRotate3DZ(-m.angle)).
		Mul4(mgl32.Scale3D(m.scale, m.scale, m.scale))
	m.effectSystem.SetExternalValue(m.component, ScaleExternal, m.scale)
}

func (m *UIParticlesModule) onEffectStopped(_ ecs.EntityID, c *components.ParticleEffectComponent) {
	if c != m.component || m.onStop == nil {
		return
	}
	m.onStop()
}

// SetPosition 设置特效在屏幕上的位置（像素）
func (m *UIParticlesModule) SetPosition(x, y float32) {
	m.x, m.y = x, y
	m.updateTransform()
}

// SetAngle 设置旋转角度（弧度，顺时针）
func (m *UIParticlesModule) SetAngle(angle float32) {
	m.angle = angle
	m.updateTransform()
}

// SetScale 设置缩放，同时更新 "scale" 外部变量
func (m *UIParticlesModule) SetScale(scale float32) {
	m.scale = scale
	m.updateTransform()
}

// SetVisible 设置是否绘制（隐藏时仍然模拟）
func (m *UIParticlesModule) SetVisible(visible bool) {
	m.visible = visible
}

// Start 从头播放特效
func (m *UIParticlesModule) Start() {
	m.effectSystem.Start(m.component)
}

// Stop 停止特效；deleteAll 为 false 时等待现有粒子消亡
func (m *UIParticlesModule) Stop(deleteAll bool) {
	m.effectSystem.Stop(m.component, deleteAll)
}

// Restart 重新播放特效
func (m *UIParticlesModule) Restart(deleteAll bool) {
	m.effectSystem.Restart(m.component, deleteAll)
}

// Pause 暂停或恢复特效
func (m *UIParticlesModule) Pause(paused bool) {
	m.effectSystem.Pause(m.component, paused)
}

// IsStopped 返回特效是否已完全停止
func (m *UIParticlesModule) IsStopped() bool {
	return m.component.IsStopped()
}

// Component 返回模块持有的特效组件
func (m *UIParticlesModule) Component() *components.ParticleEffectComponent {
	return m.component
}

// Camera 返回模块的正交相机
func (m *UIParticlesModule) Camera() *render.Camera {
	return m.renderSystem.Camera
}

// Update 推进模拟并重建渲染批次
func (m *UIParticlesModule) Update(deltaTime float64) {
	m.effectSystem.Process(float32(deltaTime))
	m.renderSystem.Update()
}

// Draw 绘制粒子
func (m *UIParticlesModule) Draw(screen *ebiten.Image) {
	if !m.visible {
		return
	}
	m.renderSystem.Draw(screen)
}

// Cleanup 释放模块持有的特效
func (m *UIParticlesModule) Cleanup() {
	m.effectSystem.RemoveListener(m.listener)
	m.effectSystem.RemoveComponent(m.component)
	log.Printf("[UIParticlesModule] Released effect %q", m.component.Effect.Name)
}
