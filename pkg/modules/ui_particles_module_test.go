package modules

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/components"
	"github.com/decker502/particlefx/pkg/systems"
	"github.com/go-gl/mathgl/mgl32"
)

const uiEffectYAML = `
name: sparkle
duration: 1
emitters:
  - layers:
      - life: 0.5
        number: 40
        size: {keys: [1, 1], external: scale}
`

func newTestModule(t *testing.T, onStop func()) *UIParticlesModule {
	t.Helper()
	effect, err := particle.ParseEffect([]byte(uiEffectYAML), nil)
	if err != nil {
		t.Fatalf("ParseEffect: %v", err)
	}
	return NewUIParticlesModule(effect, UIParticlesConfig{
		Width:   800,
		Height:  600,
		Options: []systems.Option{systems.WithRand(rand.New(rand.NewPCG(5, 6)))},
		OnStop:  onStop,
	})
}

// TestUIParticlesScreenMapping 测试屏幕坐标与锚点、相机投影一致
func TestUIParticlesScreenMapping(t *testing.T) {
	m := newTestModule(t, nil)
	m.SetPosition(120, 80)

	c := m.Component()
	if got := c.AnchorPosition(); got != (mgl32.Vec3{120, -80, 0}) {
		t.Errorf("anchor = %v, want [120 -80 0]", got)
	}

	cam := m.Camera()
	x, y, ok := cam.Project(c.AnchorPosition(), cam.View(), cam.Projection())
	if !ok || math.Abs(float64(x-120)) > 0.01 || math.Abs(float64(y-80)) > 0.01 {
		t.Errorf("Project(anchor) = (%v, %v, %v), want (120, 80)", x, y, ok)
	}
}

// TestUIParticlesScaleExternal 测试缩放同步到外部变量
func TestUIParticlesScaleExternal(t *testing.T) {
	m := newTestModule(t, nil)
	if v, ok := m.Component().ExternalValue(ScaleExternal); !ok || v != 1 {
		t.Errorf("initial scale external = %v, %v", v, ok)
	}

	m.SetScale(3)
	if v, _ := m.Component().ExternalValue(ScaleExternal); v != 3 {
		t.Errorf("scale external = %v, want 3", v)
	}

	m.Start()
	m.Update(0.1)
	m.Component().Data.Groups[0].Each(func(p *components.Particle) {
		if p.BaseSize != (mgl32.Vec2{3, 3}) {
			t.Errorf("particle size = %v, want [3 3]", p.BaseSize)
		}
	})
	if m.Component().GetActiveParticlesCount() == 0 {
		t.Error("expected particles after Update")
	}
}

// TestUIParticlesRotation 测试旋转角度作用于锚点矩阵
func TestUIParticlesRotation(t *testing.T) {
	m := newTestModule(t, nil)
	m.SetAngle(float32(math.Pi / 2))

	// 屏幕顺时针 90 度：本地 +X 指向屏幕下方，即世界 -Y
	ex := m.Component().WorldTransform.Col(0).Vec3()
	if !ex.ApproxEqualThreshold(mgl32.Vec3{0, -1, 0}, 1e-5) {
		t.Errorf("rotated X axis = %v, want [0 -1 0]", ex)
	}
}

// TestUIParticlesLifecycle 测试启动、停止与回调
func TestUIParticlesLifecycle(t *testing.T) {
	stopped := 0
	m := newTestModule(t, func() { stopped++ })

	if !m.IsStopped() {
		t.Fatal("module should start stopped without AutoStart")
	}
	m.Start()
	m.Update(0.1)
	if m.IsStopped() {
		t.Fatal("module should be playing after Start")
	}

	m.Stop(false)
	for i := 0; i < 20 && !m.IsStopped(); i++ {
		m.Update(0.1)
	}
	if !m.IsStopped() || stopped != 1 {
		t.Errorf("soft stop: stopped=%v callbacks=%d", m.IsStopped(), stopped)
	}

	m.Restart(true)
	m.Update(0.1)
	m.Stop(true)
	if stopped != 2 {
		t.Errorf("hard stop callbacks = %d, want 2", stopped)
	}

	m.Start()
	m.Cleanup()
	if !m.IsStopped() {
		t.Error("Cleanup should detach the effect")
	}
	if stopped != 2 {
		t.Error("Cleanup must not notify listeners")
	}
}
