package game

import (
	"fmt"
	"log"

	"github.com/decker502/particlefx/pkg/config"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// ViewerSettings 特效查看器的全局设置
type ViewerSettings struct {
	// 粒子画质设置
	Particles config.ParticleSettings `yaml:"particles"`

	// 查看器状态
	LastEffect    string  `yaml:"lastEffect"`    // 上次打开的特效资源 ID
	LodLevel      int     `yaml:"lodLevel"`      // 期望的 LOD 等级
	PlaybackSpeed float32 `yaml:"playbackSpeed"` // 播放速度
	ShowBounds    bool    `yaml:"showBounds"`    // 是否绘制包围盒

	// 显示设置
	Fullscreen bool `yaml:"fullscreen"` // 启动时是否全屏
}

// DefaultSettings 返回默认设置
func DefaultSettings() *ViewerSettings {
	return &ViewerSettings{
		Particles:     *config.DefaultParticleSettings(),
		PlaybackSpeed: 1,
	}
}

// SettingsManager 设置管理器
// 负责查看器设置的加载、保存和内存管理
type SettingsManager struct {
	gdataManager *gdata.Manager  // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings     *ViewerSettings // 当前设置
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "viewer"
)

// NewSettingsManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
//
// 返回：
//   - *SettingsManager: 设置管理器实例
//   - error: 保留以兼容调用方，加载失败不会返回错误
func NewSettingsManager(gdataManager *gdata.Manager) (*SettingsManager, error) {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
	}

	// 尝试加载已保存的设置
	if err := sm.Load(); err != nil {
		// 加载失败不是致命错误，使用默认设置
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}

	return sm, nil
}

// Load 从 gdata 加载设置
//
// 如果 gdataManager 为 nil 或文件不存在，使用默认设置。
// 缺失的字段保留默认值，不合法的粒子设置视为加载失败。
func (sm *SettingsManager) Load() error {
	// 降级模式：无法持久化，使用默认设置
	if sm.gdataManager == nil {
		sm.settings = DefaultSettings()
		return nil
	}

	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := loaded.Particles.Validate(); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("invalid particle settings: %w", err)
	}

	sm.settings = loaded
	log.Printf("[SettingsManager] Settings loaded successfully")
	return nil
}

// Save 保存设置到 gdata
//
// 如果 gdataManager 为 nil，返回 nil（降级模式，不报错）
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsManager] Settings saved successfully")
	return nil
}

// GetSettings 获取当前设置
func (sm *SettingsManager) GetSettings() *ViewerSettings {
	return sm.settings
}

// ParticleSettings 返回粒子画质设置，可直接传给 ParticleEffectSystem
func (sm *SettingsManager) ParticleSettings() *config.ParticleSettings {
	return &sm.settings.Particles
}

// SetLodLevel 设置期望的 LOD 等级
//
// 等级会被限制在 0 ~ MaxLodLevel 范围内
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetLodLevel(level int) {
	sm.settings.LodLevel = clampLod(level, sm.settings.Particles.MaxLodLevel)
}

// SetPlaybackSpeed 设置播放速度，负值按 0 处理
func (sm *SettingsManager) SetPlaybackSpeed(speed float32) {
	sm.settings.PlaybackSpeed = max(speed, 0)
}

// SetLastEffect 记录上次打开的特效
func (sm *SettingsManager) SetLastEffect(id string) {
	sm.settings.LastEffect = id
}

// SetShowBounds 设置是否绘制包围盒
func (sm *SettingsManager) SetShowBounds(show bool) {
	sm.settings.ShowBounds = show
}

// SetFullscreen 设置全屏模式
func (sm *SettingsManager) SetFullscreen(fullscreen bool) {
	sm.settings.Fullscreen = fullscreen
}

// clampLod 将 LOD 等级限制在 0 ~ maxLevel 范围内
func clampLod(level, maxLevel int) int {
	if level < 0 {
		return 0
	}
	if level > maxLevel {
		return maxLevel
	}
	return level
}
