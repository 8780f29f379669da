package game

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

// SceneFactory 场景工厂函数类型
// 用于创建指定特效ID的预览场景，避免循环依赖
type SceneFactory func(effectID string) Scene

// SceneManager manages the viewer's high-level state by controlling which scene is active.
// It ensures only one scene's Update and Draw methods are called at any given time.
type SceneManager struct {
	currentScene Scene
	currentID    string
	sceneFactory SceneFactory // 场景工厂函数，用于创建新场景
}

// NewSceneManager creates and returns a new SceneManager instance.
// The manager starts with no active scene; use SwitchTo to set the initial scene.
func NewSceneManager() *SceneManager {
	return &SceneManager{}
}

// SetSceneFactory 设置场景工厂函数
func (sm *SceneManager) SetSceneFactory(factory SceneFactory) {
	sm.sceneFactory = factory
}

// SwitchTo changes the active scene to the provided scene.
// The previous scene is closed if it implements Closable.
func (sm *SceneManager) SwitchTo(scene Scene) {
	if closable, ok := sm.currentScene.(Closable); ok && sm.currentScene != scene {
		closable.Close()
	}
	sm.currentScene = scene
}

// GetCurrentScene 返回当前活动的场景
//
// 返回：
//   - Scene: 当前场景，如果没有活动场景则返回 nil
func (sm *SceneManager) GetCurrentScene() Scene {
	return sm.currentScene
}

// CurrentEffectID 返回最近一次通过 LoadEffect 加载的特效ID
func (sm *SceneManager) CurrentEffectID() string {
	return sm.currentID
}

// LoadEffect 加载指定特效ID的预览场景
// effectID: 特效资源ID，如 "EFFECT_FIREWORK"
//
// 返回是否切换成功；失败时保留当前场景
func (sm *SceneManager) LoadEffect(effectID string) bool {
	log.Printf("[SceneManager] 加载特效: %s", effectID)

	if sm.sceneFactory == nil {
		log.Printf("[SceneManager] 错误: SceneFactory 未设置")
		return false
	}

	newScene := sm.sceneFactory(effectID)
	if newScene == nil {
		log.Printf("[SceneManager] 错误: 无法创建特效场景: %s", effectID)
		return false
	}
	sm.SwitchTo(newScene)
	sm.currentID = effectID
	log.Printf("[SceneManager] 成功切换到特效: %s", effectID)
	return true
}

// Close closes the active scene, if any.
func (sm *SceneManager) Close() {
	if closable, ok := sm.currentScene.(Closable); ok {
		closable.Close()
	}
	sm.currentScene = nil
}

// Update updates the currently active scene.
// If no scene is active, this method does nothing.
// deltaTime is the time elapsed since the last update in seconds.
func (sm *SceneManager) Update(deltaTime float64) {
	if sm.currentScene != nil {
		sm.currentScene.Update(deltaTime)
	}
}

// Draw renders the currently active scene to the provided screen.
// If no scene is active, this method does nothing.
func (sm *SceneManager) Draw(screen *ebiten.Image) {
	if sm.currentScene != nil {
		sm.currentScene.Draw(screen)
	}
}
