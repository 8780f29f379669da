package systems

import (
	"log"
	"slices"

	"github.com/decker502/particlefx/pkg/render"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

// RenderSystem 管理粒子渲染对象的注册、更新与绘制
//
// 职责范围：
//   - 作为 ParticleEffectSystem 的 RenderHost，登记/注销渲染对象
//   - 收集被标记为需要更新的对象，在 Update 中重建其顶点批次
//   - 将批次投影到屏幕并通过 DrawTriangles 批量绘制
//
// 渲染顺序即注册顺序；同一对象内的批次按粒子组顺序绘制。
type RenderSystem struct {
	Camera *render.Camera

	objects    []render.RenderObject
	registered map[render.RenderObject]struct{}
	dirty      map[render.RenderObject]struct{}

	vertices []ebiten.Vertex // 顶点数组（复用，避免每帧分配）
	indices  []uint16        // 索引数组（复用，避免每帧分配）
}

// NewRenderSystem 创建一个新的渲染系统
func NewRenderSystem(cam *render.Camera) *RenderSystem {
	return &RenderSystem{
		Camera:     cam,
		registered: make(map[render.RenderObject]struct{}),
		dirty:      make(map[render.RenderObject]struct{}),
		vertices:   make([]ebiten.Vertex, 0, 4000), // 预分配容量：1000 个粒子（每粒子 4 顶点）
		indices:    make([]uint16, 0, 6000),        // 预分配容量：1000 个粒子（每粒子 6 索引）
	}
}

// AddRenderObject 登记渲染对象，重复登记视为编程错误
func (s *RenderSystem) AddRenderObject(ro render.RenderObject) {
	if _, ok := s.registered[ro]; ok {
		log.Panicf("[RenderSystem] render object %p registered twice", ro)
	}
	s.registered[ro] = struct{}{}
	s.objects = append(s.objects, ro)
	s.dirty[ro] = struct{}{}
}

// RemoveRenderObject 注销渲染对象，注销未登记的对象视为编程错误
func (s *RenderSystem) RemoveRenderObject(ro render.RenderObject) {
	if _, ok := s.registered[ro]; !ok {
		log.Panicf("[RenderSystem] render object %p is not registered", ro)
	}
	delete(s.registered, ro)
	delete(s.dirty, ro)
	idx := slices.Index(s.objects, ro)
	s.objects = slices.Delete(s.objects, idx, idx+1)
}

// MarkForUpdate 标记对象在下一次 Update 时重建批次
func (s *RenderSystem) MarkForUpdate(ro render.RenderObject) {
	if _, ok := s.registered[ro]; !ok {
		return
	}
	s.dirty[ro] = struct{}{}
}

// RenderObjects 返回已登记的渲染对象（按注册顺序）
func (s *RenderSystem) RenderObjects() []render.RenderObject {
	return s.objects
}

// PendingUpdates 返回等待重建的对象数量
func (s *RenderSystem) PendingUpdates() int {
	return len(s.dirty)
}

// Update 为所有被标记的对象重建顶点批次
func (s *RenderSystem) Update() {
	if len(s.dirty) == 0 {
		return
	}
	for _, ro := range s.objects {
		if _, ok := s.dirty[ro]; ok {
			ro.PrepareRenderData(s.Camera)
		}
	}
	clear(s.dirty)
}

// Draw 绘制所有已登记对象的批次
//
// 渲染流程：
//  1. 每个批次的顶点经相机投影到屏幕坐标
//  2. 任一顶点位于相机后方的四边形整体跳过
//  3. 使用材质的混合状态调用 DrawTriangles
//  4. 帧混合材质额外绘制一次下一帧：加法类混合两遍相加，按 BlendTime
//     拆分透明度；其余混合第一遍保持原透明度，第二遍按 BlendTime 覆盖其上
func (s *RenderSystem) Draw(screen *ebiten.Image) {
	if s.Camera == nil {
		return
	}
	view := s.Camera.View()
	proj := s.Camera.Projection()

	for _, ro := range s.objects {
		for _, batch := range ro.RenderBatches() {
			if batch.Material == nil || batch.Material.Texture() == nil || len(batch.Vertices) == 0 {
				continue
			}
			op := &ebiten.DrawTrianglesOptions{
				Blend:  batch.Material.Blend,
				Filter: ebiten.FilterLinear,
			}
			key := batch.Material.Key
			pass := framePass{blend: key.FrameBlend, additive: key.Blending.IsAdditive()}

			if s.buildVertices(batch, view, proj, pass) {
				screen.DrawTriangles(s.vertices, s.indices, batch.Material.Texture(), op)
			}
			pass.next = true
			if key.FrameBlend && s.buildVertices(batch, view, proj, pass) {
				screen.DrawTriangles(s.vertices, s.indices, batch.Material.Texture(), op)
			}
		}
	}
}

// framePass 描述一遍绘制在帧混合中的角色
type framePass struct {
	blend    bool // 材质启用帧混合
	next     bool // 绘制下一帧
	additive bool // 两遍颜色相加
}

// alpha 返回本遍顶点的透明度
func (p framePass) alpha(a, blendTime float32) float32 {
	switch {
	case !p.blend:
		return a
	case p.next:
		return a * blendTime
	case p.additive:
		return a * (1 - blendTime)
	}
	// 覆盖式混合：第二遍按 blendTime 盖在完整的第一遍上，不透明处恰为线性插值
	return a
}

// buildVertices 将批次投影为 ebiten 顶点，返回是否有可绘制的四边形
func (s *RenderSystem) buildVertices(batch *render.RenderBatch, view, proj mgl32.Mat4, pass framePass) bool {
	s.vertices = s.vertices[:0]
	s.indices = s.indices[:0]

	for q := 0; q+4 <= len(batch.Vertices); q += 4 {
		quad := batch.Vertices[q : q+4]

		var out [4]ebiten.Vertex
		visible := true
		for i, v := range quad {
			x, y, ok := s.Camera.Project(v.Position, view, proj)
			if !ok {
				visible = false
				break
			}
			src := v.TexCoord
			if pass.blend && pass.next {
				src = v.NextTexCoord
			}
			out[i] = ebiten.Vertex{
				DstX:   x,
				DstY:   y,
				SrcX:   src[0],
				SrcY:   src[1],
				ColorR: v.Color.R,
				ColorG: v.Color.G,
				ColorB: v.Color.B,
				ColorA: pass.alpha(v.Color.A, v.BlendTime),
			}
		}
		if !visible {
			continue
		}

		base := uint16(len(s.vertices))
		s.vertices = append(s.vertices, out[:]...)
		s.indices = append(s.indices,
			base+0, base+1, base+2, // 第一个三角形
			base+1, base+3, base+2, // 第二个三角形
		)
	}
	return len(s.indices) > 0
}
