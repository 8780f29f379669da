package game

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/decker502/particlefx/pkg/embedded"
)

const testEffectYAML = `
name: sparks
duration: 2
emitters:
  - name: burst
    type: point
    layers:
      - name: glow
        sprite: {path: assets/particles/spark.png, frames: 2, columns: 2}
        life: 1
        number: 10
`

const testResourcesYAML = `
version: "1.0"
base_path: assets
groups:
  demo:
    images:
      - id: IMAGE_SPARK
        path: particles/spark
    effects:
      - id: EFFECT_SPARKS
        path: data/effects/sparks.yaml
  broken:
    effects:
      - id: EFFECT_BROKEN
        path: data/effects/broken.yaml
`

// encodeTestPNG creates a simple blue PNG of the given size.
func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	blue := color.RGBA{R: 0, G: 0, B: 255, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, blue)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

// setupTestFS installs an in-memory asset and data filesystem.
func setupTestFS(t *testing.T) {
	t.Helper()
	embedded.Init(
		fstest.MapFS{
			"assets/particles/spark.png": {Data: encodeTestPNG(t, 16, 8)},
			"assets/particles/bad.png":   {Data: []byte("not a png")},
		},
		fstest.MapFS{
			"data/resources.yaml":       {Data: []byte(testResourcesYAML)},
			"data/effects/sparks.yaml":  {Data: []byte(testEffectYAML)},
			"data/effects/broken.yaml":  {Data: []byte("emitters: [{layers: [{life: \"1,x\"}]}]")},
			"data/effects/unnamed.yaml": {Data: []byte("emitters: [{layers: [{life: 1}]}]")},
		},
	)
}

// TestLoadImage_Success tests successful image loading and caching.
func TestLoadImage_Success(t *testing.T) {
	setupTestFS(t)
	rm := NewResourceManager()

	img, err := rm.LoadImage("assets/particles/spark.png")
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 16 || bounds.Dy() != 8 {
		t.Errorf("Expected 16x8 image, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	again, err := rm.LoadImage("assets/particles/spark.png")
	if err != nil {
		t.Fatalf("second LoadImage failed: %v", err)
	}
	if again != img {
		t.Error("cached image should be returned on second load")
	}
	if rm.GetImage("assets/particles/spark.png") != img {
		t.Error("GetImage did not return the cached image")
	}
	if rm.GetImage("assets/particles/other.png") != nil {
		t.Error("GetImage should return nil for unloaded images")
	}
}

// TestLoadImage_Errors tests missing and undecodable files.
func TestLoadImage_Errors(t *testing.T) {
	setupTestFS(t)
	rm := NewResourceManager()

	if _, err := rm.LoadImage("assets/particles/missing.png"); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := rm.LoadImage("assets/particles/bad.png"); err == nil {
		t.Error("Expected error for invalid image data")
	}
	if rm.GetImage("assets/particles/bad.png") != nil {
		t.Error("failed loads must not be cached")
	}
}

// TestLoadEffect tests effect parsing through the resource manager.
func TestLoadEffect(t *testing.T) {
	setupTestFS(t)
	rm := NewResourceManager()

	effect, err := rm.LoadEffect("data/effects/sparks.yaml")
	if err != nil {
		t.Fatalf("LoadEffect failed: %v", err)
	}
	if effect.Name != "sparks" || len(effect.Emitters) != 1 {
		t.Errorf("unexpected effect: %+v", effect)
	}

	// 精灵图经由同一图片缓存加载
	sprite := effect.Emitters[0].Emitter.Layers[0].Sprite
	if sprite == nil || sprite.Image == nil {
		t.Fatal("sprite image not resolved")
	}
	if sprite.Image != rm.GetImage("assets/particles/spark.png") {
		t.Error("sprite image should come from the image cache")
	}

	cached, _ := rm.LoadEffect("data/effects/sparks.yaml")
	if cached != effect || rm.GetEffect("data/effects/sparks.yaml") != effect {
		t.Error("effect should be cached")
	}

	unnamed, err := rm.LoadEffect("data/effects/unnamed.yaml")
	if err != nil {
		t.Fatalf("LoadEffect(unnamed) failed: %v", err)
	}
	if unnamed.Name != "unnamed" {
		t.Errorf("unnamed effect name = %q, want file stem", unnamed.Name)
	}

	if _, err := rm.LoadEffect("data/effects/broken.yaml"); err == nil {
		t.Error("Expected parse error for broken effect")
	}
	if _, err := rm.LoadEffect("data/effects/missing.yaml"); err == nil {
		t.Error("Expected error for missing effect")
	}
}
