package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParticleSettings 粒子系统的画质/性能配置
//
// 配置文件位置: data/particle_settings.yaml
// 玩家修改后的设置由 game.SettingsManager 持久化。
type ParticleSettings struct {
	// DegradeOnLodChange 切换到 LOD 0 时按层的降级策略裁剪现有粒子
	DegradeOnLodChange bool `yaml:"degradeOnLodChange"`

	// 短特效加速：帧率低于 ShortEffectMinFPS 时，短特效以
	// ShortEffectMaxSpeedMultiplier 倍速播放；高于 ShortEffectMaxFPS 时正常速度
	ShortEffectMinFPS             float32 `yaml:"shortEffectMinFPS"`
	ShortEffectMaxFPS             float32 `yaml:"shortEffectMaxFPS"`
	ShortEffectMaxSpeedMultiplier float32 `yaml:"shortEffectMaxSpeedMultiplier"`

	// MaxLodLevel 可选的最低画质等级（0 为最高画质）
	MaxLodLevel int `yaml:"maxLodLevel"`

	// DefaultPlaybackSpeed 新特效组件的默认播放速度
	DefaultPlaybackSpeed float32 `yaml:"defaultPlaybackSpeed"`
}

// DefaultParticleSettings 返回默认配置
func DefaultParticleSettings() *ParticleSettings {
	return &ParticleSettings{
		DegradeOnLodChange:            true,
		ShortEffectMinFPS:             35,
		ShortEffectMaxFPS:             55,
		ShortEffectMaxSpeedMultiplier: 1.5,
		MaxLodLevel:                   3,
		DefaultPlaybackSpeed:          1,
	}
}

// ParseParticleSettings 解析 YAML 配置，缺失字段使用默认值
func ParseParticleSettings(data []byte) (*ParticleSettings, error) {
	settings := DefaultParticleSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse particle settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid particle settings: %w", err)
	}
	return settings, nil
}

// LoadParticleSettings 从文件加载配置
func LoadParticleSettings(path string) (*ParticleSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read particle settings: %w", err)
	}
	return ParseParticleSettings(data)
}

// Validate 验证配置的合法性
func (s *ParticleSettings) Validate() error {
	if s.ShortEffectMinFPS <= 0 {
		return fmt.Errorf("shortEffectMinFPS must be positive, got %v", s.ShortEffectMinFPS)
	}
	if s.ShortEffectMaxFPS <= s.ShortEffectMinFPS {
		return fmt.Errorf("shortEffectMaxFPS (%v) must be greater than shortEffectMinFPS (%v)",
			s.ShortEffectMaxFPS, s.ShortEffectMinFPS)
	}
	if s.ShortEffectMaxSpeedMultiplier < 1 {
		return fmt.Errorf("shortEffectMaxSpeedMultiplier must be >= 1, got %v", s.ShortEffectMaxSpeedMultiplier)
	}
	if s.MaxLodLevel < 0 || s.MaxLodLevel > 3 {
		return fmt.Errorf("maxLodLevel must be in [0, 3], got %d", s.MaxLodLevel)
	}
	if s.DefaultPlaybackSpeed <= 0 {
		return fmt.Errorf("defaultPlaybackSpeed must be positive, got %v", s.DefaultPlaybackSpeed)
	}
	return nil
}

// ShortEffectSpeedMultiplier 根据当前帧率计算短特效的时间倍率
//
// k = clamp((fps-min)/(max-min), 0, 1)，倍率 = 1 + (maxMult-1)*(1-k)
func (s *ParticleSettings) ShortEffectSpeedMultiplier(fps float32) float32 {
	k := (fps - s.ShortEffectMinFPS) / (s.ShortEffectMaxFPS - s.ShortEffectMinFPS)
	if k < 0 {
		k = 0
	} else if k > 1 {
		k = 1
	}
	return 1 + (s.ShortEffectMaxSpeedMultiplier-1)*(1-k)
}
