package game

// ResourceConfig represents the top-level resource configuration loaded from YAML.
// It defines the structure of data/resources.yaml.
//
// Structure:
//
//	version: "1.0"
//	base_path: assets
//	groups:
//	  group_name:
//	    images: [...]
//	    effects: [...]
type ResourceConfig struct {
	Version  string                   `yaml:"version"`   // Configuration file version
	BasePath string                   `yaml:"base_path"` // Base path for image resources (e.g., "assets")
	Groups   map[string]ResourceGroup `yaml:"groups"`    // Resource groups keyed by group name
}

// ResourceGroup represents a collection of related resources that can be loaded together.
//
// Example from resources.yaml:
//
//	demo:
//	  images:
//	    - id: IMAGE_SPARK
//	      path: particles/spark
//	  effects:
//	    - id: EFFECT_FIREWORK
//	      path: data/effects/firework.yaml
type ResourceGroup struct {
	Images  []ImageResource  `yaml:"images"`  // List of sprite sheets in this group
	Effects []EffectResource `yaml:"effects"` // List of effect definitions in this group
}

// ImageResource represents a single image resource definition.
//
// Fields:
//   - ID: Unique identifier for the image (e.g., "IMAGE_SPARK")
//   - Path: Relative path from base_path to the image file (extension optional)
type ImageResource struct {
	ID   string `yaml:"id"`   // Resource ID (unique identifier)
	Path string `yaml:"path"` // Relative file path from base_path
}

// EffectResource represents a single particle effect definition.
//
// Effect paths are used as-is (they live under data/, not base_path).
type EffectResource struct {
	ID   string `yaml:"id"`   // Resource ID (unique identifier)
	Path string `yaml:"path"` // Effect file path, e.g. data/effects/firework.yaml
}

// buildFullPath constructs the full file path for a resource.
// It combines the base path with the resource's relative path.
//
// Parameters:
//   - basePath: The base path from ResourceConfig (e.g., "assets")
//   - relativePath: The resource's relative path (e.g., "particles/spark.png")
//
// Returns:
//   - The full file path (e.g., "assets/particles/spark.png")
func buildFullPath(basePath, relativePath string) string {
	if basePath == "" {
		return relativePath
	}
	// Simple path joining - handles the case where relative path might start with /
	if len(relativePath) > 0 && relativePath[0] == '/' {
		return basePath + relativePath
	}
	return basePath + "/" + relativePath
}
