package game

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log"
	"path/filepath"
	"sort"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
	"gopkg.in/yaml.v3"
)

// ResourceManager is responsible for centralized management of effect resources.
// It provides loading and caching mechanisms for sprite sheets and particle
// effect definitions, ensuring that resources are loaded only once and reused.
//
// The ResourceManager implements the following key features:
// - Image loading and caching (PNG/JPEG format support)
// - Effect loading and caching (YAML effect definitions)
// - Resource ID lookup through a YAML resource configuration
//
// All files are read through the embedded package, so embedded.Init must be
// called first. ResourceManager implements particle.TextureLoader, which lets
// the effect parser resolve sprite paths through the same image cache.
//
// Thread Safety Note:
// This implementation is NOT thread-safe. The internal caches use standard Go maps.
// For the single-threaded game loop, no synchronization is needed.
//
// Usage:
//
//	rm := NewResourceManager()
//	effect, err := rm.LoadEffect("data/effects/firework.yaml")
//	if err != nil {
//	    log.Printf("Failed to load effect: %v", err)
//	}
type ResourceManager struct {
	imageCache  map[string]*ebiten.Image          // Cache for loaded images: path -> Image
	effectCache map[string]*particle.EffectConfig // Cache for parsed effects: path -> EffectConfig

	// YAML resource configuration
	config      *ResourceConfig   // Parsed YAML configuration
	resourceMap map[string]string // Resource ID -> file path mapping for quick lookup
}

// NewResourceManager creates and initializes a new ResourceManager instance
// with empty caches.
func NewResourceManager() *ResourceManager {
	return &ResourceManager{
		imageCache:  make(map[string]*ebiten.Image),
		effectCache: make(map[string]*particle.EffectConfig),
		resourceMap: make(map[string]string),
	}
}

// LoadImage loads an image file from the specified path and caches it for future use.
// If the image has already been loaded, it returns the cached version.
//
// Parameters:
//   - path: The path to the image resource (e.g., "assets/particles/spark.png").
//
// Returns:
//   - A pointer to the loaded ebiten.Image.
//   - An error if the file cannot be opened or decoded.
func (rm *ResourceManager) LoadImage(path string) (*ebiten.Image, error) {
	// Check if the image is already cached
	if cachedImage, exists := rm.imageCache[path]; exists {
		return cachedImage, nil
	}

	file, err := embedded.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	ebitenImg := ebiten.NewImageFromImage(img)
	rm.imageCache[path] = ebitenImg
	return ebitenImg, nil
}

// GetImage retrieves a previously loaded image from the cache.
// If the image has not been loaded yet, it returns nil.
func (rm *ResourceManager) GetImage(path string) *ebiten.Image {
	return rm.imageCache[path]
}

// LoadEffect loads a particle effect definition and caches it. Sprites the
// effect references are loaded through LoadImage.
//
// Example usage:
//
//	effect, err := rm.LoadEffect("data/effects/firework.yaml")
//	if err != nil {
//	    log.Printf("Failed to load effect: %v", err)
//	}
//	fmt.Printf("Loaded %d emitters\n", len(effect.Emitters))
func (rm *ResourceManager) LoadEffect(path string) (*particle.EffectConfig, error) {
	if effect, exists := rm.effectCache[path]; exists {
		return effect, nil
	}

	effect, err := particle.LoadEffect(path, rm)
	if err != nil {
		return nil, err
	}
	if effect.Name == "" {
		effect.Name = trimExt(filepath.Base(path))
	}

	rm.effectCache[path] = effect
	log.Printf("[ResourceManager] Loaded effect %q from %s (%d emitters)", effect.Name, path, len(effect.Emitters))
	return effect, nil
}

// GetEffect retrieves a cached effect by path. Returns nil if the effect
// has not been loaded yet.
func (rm *ResourceManager) GetEffect(path string) *particle.EffectConfig {
	return rm.effectCache[path]
}

// LoadResourceConfig loads and parses the YAML resource configuration file.
//
// Example:
//
//	rm := NewResourceManager()
//	if err := rm.LoadResourceConfig("data/resources.yaml"); err != nil {
//	    log.Fatal("Failed to load resource config:", err)
//	}
func (rm *ResourceManager) LoadResourceConfig(configPath string) error {
	data, err := embedded.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read resource config %s: %w", configPath, err)
	}

	var config ResourceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse resource config %s: %w", configPath, err)
	}

	rm.config = &config
	rm.buildResourceMap()
	return nil
}

// buildResourceMap constructs a mapping from resource IDs to full file paths.
//
//	IMAGE_SPARK -> assets/particles/spark.png
//	EFFECT_FIREWORK -> data/effects/firework.yaml
func (rm *ResourceManager) buildResourceMap() {
	if rm.config == nil {
		return
	}

	rm.resourceMap = make(map[string]string)

	for _, group := range rm.config.Groups {
		for _, img := range group.Images {
			fullPath := buildFullPath(rm.config.BasePath, img.Path)
			if filepath.Ext(fullPath) == "" {
				fullPath += ".png" // Default to PNG for images
			}
			rm.resourceMap[img.ID] = fullPath
		}
		for _, effect := range group.Effects {
			rm.resourceMap[effect.ID] = effect.Path
		}
	}
}

// resolveID returns the path registered for a resource ID.
func (rm *ResourceManager) resolveID(resourceID string) (string, error) {
	if rm.config == nil {
		return "", fmt.Errorf("resource config not loaded - call LoadResourceConfig first")
	}
	filePath, exists := rm.resourceMap[resourceID]
	if !exists {
		return "", fmt.Errorf("resource ID not found: %s", resourceID)
	}
	return filePath, nil
}

// LoadImageByID loads an image resource using its resource ID.
func (rm *ResourceManager) LoadImageByID(resourceID string) (*ebiten.Image, error) {
	filePath, err := rm.resolveID(resourceID)
	if err != nil {
		return nil, err
	}
	return rm.LoadImage(filePath)
}

// LoadEffectByID loads an effect using its resource ID.
func (rm *ResourceManager) LoadEffectByID(resourceID string) (*particle.EffectConfig, error) {
	filePath, err := rm.resolveID(resourceID)
	if err != nil {
		return nil, err
	}
	return rm.LoadEffect(filePath)
}

// EffectIDs returns the IDs of every effect in the resource configuration,
// sorted.
func (rm *ResourceManager) EffectIDs() []string {
	if rm.config == nil {
		return nil
	}
	var ids []string
	for _, group := range rm.config.Groups {
		for _, effect := range group.Effects {
			ids = append(ids, effect.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// LoadResourceGroup loads all resources in a specified group.
//
// Example:
//
//	if err := rm.LoadResourceGroup("demo"); err != nil {
//	    log.Fatal("Failed to load demo resources:", err)
//	}
func (rm *ResourceManager) LoadResourceGroup(groupName string) error {
	if rm.config == nil {
		return fmt.Errorf("resource config not loaded - call LoadResourceConfig first")
	}

	group, exists := rm.config.Groups[groupName]
	if !exists {
		return fmt.Errorf("resource group not found: %s", groupName)
	}

	for _, img := range group.Images {
		if _, err := rm.LoadImageByID(img.ID); err != nil {
			return fmt.Errorf("failed to load image %s in group %s: %w", img.ID, groupName, err)
		}
	}
	for _, effect := range group.Effects {
		if _, err := rm.LoadEffectByID(effect.ID); err != nil {
			return fmt.Errorf("failed to load effect %s in group %s: %w", effect.ID, groupName, err)
		}
	}
	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
