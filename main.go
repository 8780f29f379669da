// Package main provides the particle effect viewer.
//
// Usage:
//
//	go run . [flags]
//
// Flags:
//
//	--effect <id>     Start with a specific effect resource ID (e.g., --effect=EFFECT_FIREWORK)
//	--filter <text>   Initial filter by ID keyword
//	--verbose         Keep system logs after startup
//
// Controls:
//
//	Left/Right Arrow  - Switch to previous/next effect
//	Space             - Spawn a one-shot burst next to the preview
//	Mouse Click       - Play the UI sparkle at the cursor
//	P                 - Toggle pause
//	R / Shift+R       - Restart (keep / drop live particles)
//	S / Shift+S       - Stop (drain / drop live particles)
//	L                 - Cycle LOD level
//	- / =             - Decrease/increase playback speed
//	[ / ]             - Decrease/increase the "scale" external
//	B                 - Toggle bounding boxes
//	Tab               - Toggle statistics
//	F or /            - Enter search mode
//	Q/Escape          - Quit
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"math/rand/v2"
	"strings"

	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/embedded"
	"github.com/decker502/particlefx/pkg/game"
	"github.com/decker502/particlefx/pkg/modules"
	"github.com/decker502/particlefx/pkg/scenes"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"
)

const (
	screenWidth  = 1024
	screenHeight = 768

	cursorEffectID = "EFFECT_UI_SPARKLE"
)

var (
	filterFlag  = flag.String("filter", "", "Initial filter by ID keyword")
	effectFlag  = flag.String("effect", "", "Start with specific effect ID")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging (default off)")
)

var errQuit = errors.New("quit requested")

// ParticleViewerGame implements ebiten.Game interface for the particle viewer
type ParticleViewerGame struct {
	resourceManager *game.ResourceManager
	settingsManager *game.SettingsManager
	sceneManager    *game.SceneManager

	cursorFX *modules.UIParticlesModule // 鼠标点击处的界面粒子

	// Effect lists
	allEffectIDs      []string
	filteredEffectIDs []string
	currentIndex      int

	// Search mode
	searchMode  bool
	searchQuery string

	scaleExternal float32
	showStats     bool
	statusMessage string
}

// NewParticleViewerGame creates a new particle viewer instance
func NewParticleViewerGame(rm *game.ResourceManager, sm *game.SettingsManager) (*ParticleViewerGame, error) {
	allIDs := rm.EffectIDs()
	if len(allIDs) == 0 {
		return nil, fmt.Errorf("no particle effects found")
	}

	g := &ParticleViewerGame{
		resourceManager: rm,
		settingsManager: sm,
		sceneManager:    game.NewSceneManager(),
		allEffectIDs:    allIDs,
		scaleExternal:   1,
		showStats:       true,
	}
	g.sceneManager.SetSceneFactory(g.createEffectScene)

	if effect, err := rm.LoadEffectByID(cursorEffectID); err == nil {
		g.cursorFX = modules.NewUIParticlesModule(effect, modules.UIParticlesConfig{
			Width:    screenWidth,
			Height:   screenHeight,
			Settings: sm.ParticleSettings(),
		})
	} else {
		log.Printf("Warning: cursor effect unavailable: %v", err)
	}

	// Apply initial filter if specified
	g.searchQuery = *filterFlag
	g.filteredEffectIDs = filterEffects(allIDs, g.searchQuery)
	if len(g.filteredEffectIDs) == 0 {
		log.Printf("Warning: No effects match initial filter %q, showing all", g.searchQuery)
		g.filteredEffectIDs = allIDs
		g.searchQuery = ""
	}

	// Find starting effect: flag first, then the last one viewed
	start := *effectFlag
	if start == "" {
		start = sm.GetSettings().LastEffect
	}
	for i, id := range g.filteredEffectIDs {
		if id == start {
			g.currentIndex = i
			break
		}
	}

	g.loadCurrentEffect()
	log.Printf("Particle Viewer initialized: %d total effects, %d after filter", len(allIDs), len(g.filteredEffectIDs))
	return g, nil
}

// createEffectScene is the scene factory: it builds a preview for effectID.
func (g *ParticleViewerGame) createEffectScene(effectID string) game.Scene {
	effect, err := g.resourceManager.LoadEffectByID(effectID)
	if err != nil {
		log.Printf("Failed to load effect %s: %v", effectID, err)
		g.statusMessage = fmt.Sprintf("Error: %v", err)
		return nil
	}
	settings := g.settingsManager.GetSettings()
	scene := scenes.NewEffectScene(effect, scenes.EffectSceneConfig{
		Width:         screenWidth,
		Height:        screenHeight,
		Settings:      g.settingsManager.ParticleSettings(),
		LodLevel:      settings.LodLevel,
		PlaybackSpeed: settings.PlaybackSpeed,
		ShowBounds:    settings.ShowBounds,
		ShowStats:     g.showStats,
	})
	scene.SetExternalValue(modules.ScaleExternal, g.scaleExternal)
	return scene
}

// filterEffects returns effects matching the query (case-insensitive substring match)
func filterEffects(allIDs []string, query string) []string {
	if query == "" {
		return allIDs
	}
	queryLower := strings.ToLower(query)
	filtered := make([]string, 0)
	for _, id := range allIDs {
		if strings.Contains(strings.ToLower(id), queryLower) {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

func (g *ParticleViewerGame) currentScene() *scenes.EffectScene {
	scene, _ := g.sceneManager.GetCurrentScene().(*scenes.EffectScene)
	return scene
}

// Update updates the viewer state
func (g *ParticleViewerGame) Update() error {
	dt := 1.0 / float64(ebiten.TPS())

	if g.searchMode {
		g.updateSearchMode()
	} else if err := g.updateNormalMode(); err != nil {
		return err
	}

	g.sceneManager.Update(dt)
	if g.cursorFX != nil {
		g.cursorFX.Update(dt)
	}
	return nil
}

// updateSearchMode handles input when in search mode
func (g *ParticleViewerGame) updateSearchMode() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.searchMode = false
		g.statusMessage = fmt.Sprintf("Search: %q (%d results)", g.searchQuery, len(g.filteredEffectIDs))
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(g.searchQuery) > 0 {
		g.searchQuery = g.searchQuery[:len(g.searchQuery)-1]
		g.applySearch()
		return
	}

	runes := ebiten.AppendInputChars(nil)
	if len(runes) > 0 {
		for _, r := range runes {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
				g.searchQuery += string(r)
			}
		}
		g.applySearch()
	}
}

// applySearch filters the effect list and loads the first match
func (g *ParticleViewerGame) applySearch() {
	filtered := filterEffects(g.allEffectIDs, g.searchQuery)
	if len(filtered) == 0 {
		g.statusMessage = fmt.Sprintf("No effects match %q", g.searchQuery)
		return
	}
	g.filteredEffectIDs = filtered
	g.currentIndex = 0
	g.loadCurrentEffect()
}

// updateNormalMode handles input when in normal mode
func (g *ParticleViewerGame) updateNormalMode() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF) || inpututil.IsKeyJustPressed(ebiten.KeySlash) {
		g.searchMode = true
		g.statusMessage = "Search mode: Type to filter effects..."
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		g.switchEffect(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		g.switchEffect(1)
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && g.cursorFX != nil {
		x, y := ebiten.CursorPosition()
		g.cursorFX.SetPosition(float32(x), float32(y))
		g.cursorFX.Restart(false)
	}

	scene := g.currentScene()
	if scene == nil {
		return nil
	}
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	settings := g.settingsManager

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		offset := mgl32.Vec3{rand.Float32()*8 - 4, rand.Float32()*4 - 2, 0}
		scene.SpawnBurst(offset)
		g.statusMessage = fmt.Sprintf("Burst at (%.1f, %.1f)", offset[0], offset[1])
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		scene.TogglePause()
		g.statusMessage = "Toggled pause"
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		scene.RestartMain(shift)
		g.statusMessage = fmt.Sprintf("Restarted (drop particles: %v)", shift)
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		scene.StopMain(shift)
		g.statusMessage = fmt.Sprintf("Stopped (drop particles: %v)", shift)
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		lod := (scene.LodLevel() + 1) % (settings.ParticleSettings().MaxLodLevel + 1)
		scene.SetLodLevel(lod)
		settings.SetLodLevel(lod)
		g.statusMessage = fmt.Sprintf("LOD level: %d", lod)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus):
		g.changeSpeed(scene, 0.5)
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual):
		g.changeSpeed(scene, 2)
	case inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft):
		g.changeScale(scene, -0.25)
	case inpututil.IsKeyJustPressed(ebiten.KeyBracketRight):
		g.changeScale(scene, 0.25)
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		show := !settings.GetSettings().ShowBounds
		settings.SetShowBounds(show)
		scene.SetShowBounds(show)
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		g.showStats = !g.showStats
		scene.SetShowStats(g.showStats)
	}
	return nil
}

func (g *ParticleViewerGame) changeSpeed(scene *scenes.EffectScene, factor float32) {
	speed := min(max(scene.PlaybackSpeed()*factor, 0.125), 8)
	scene.SetPlaybackSpeed(speed)
	g.settingsManager.SetPlaybackSpeed(speed)
	g.statusMessage = fmt.Sprintf("Playback speed: x%.3g", speed)
}

func (g *ParticleViewerGame) changeScale(scene *scenes.EffectScene, delta float32) {
	g.scaleExternal = max(g.scaleExternal+delta, 0.25)
	scene.SetExternalValue(modules.ScaleExternal, g.scaleExternal)
	if g.cursorFX != nil {
		g.cursorFX.SetScale(g.scaleExternal)
	}
	g.statusMessage = fmt.Sprintf("scale external: %.2f", g.scaleExternal)
}

// switchEffect moves delta entries through the filtered list and loads it
func (g *ParticleViewerGame) switchEffect(delta int) {
	n := len(g.filteredEffectIDs)
	if n == 0 {
		return
	}
	g.currentIndex = ((g.currentIndex+delta)%n + n) % n
	g.loadCurrentEffect()
}

// loadCurrentEffect switches the scene to the selected effect
func (g *ParticleViewerGame) loadCurrentEffect() {
	id := g.filteredEffectIDs[g.currentIndex]
	if g.sceneManager.LoadEffect(id) {
		g.settingsManager.SetLastEffect(id)
		g.statusMessage = fmt.Sprintf("Selected: %s", id)
	}
}

// Draw renders the viewer screen
func (g *ParticleViewerGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{25, 25, 38, 255})

	g.sceneManager.Draw(screen)
	if g.cursorFX != nil {
		g.cursorFX.Draw(screen)
	}
	g.drawUI(screen)
}

// drawUI draws the overlay UI with effect info and controls
func (g *ParticleViewerGame) drawUI(screen *ebiten.Image) {
	title := fmt.Sprintf("Particle Viewer - Effect %d/%d: %s", g.currentIndex+1, len(g.filteredEffectIDs), g.sceneManager.CurrentEffectID())
	ebitenutil.DebugPrintAt(screen, title, 10, screenHeight-110)

	if g.searchMode {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("SEARCH: %s_", g.searchQuery), 10, screenHeight-90)
	} else if g.statusMessage != "" {
		ebitenutil.DebugPrintAt(screen, g.statusMessage, 10, screenHeight-90)
	}

	controls := []string{
		"<-/-> = Prev/Next  Space = Burst  Click = UI sparkle  P = Pause  R/S = Restart/Stop (Shift: drop)",
		"L = LOD  -/= = Speed  [/] = Scale  B = Bounds  Tab = Stats  F = Search  Q = Quit",
	}
	y := screenHeight - len(controls)*20 - 10
	for i, line := range controls {
		ebitenutil.DebugPrintAt(screen, line, 10, y+i*20)
	}
}

// Layout returns the viewer's logical screen size
func (g *ParticleViewerGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// Close releases the scene and persists the settings
func (g *ParticleViewerGame) Close() {
	g.sceneManager.Close()
	if g.cursorFX != nil {
		g.cursorFX.Cleanup()
	}
	if err := g.settingsManager.Save(); err != nil {
		log.Printf("Warning: failed to save settings: %v", err)
	}
}

// openSettings loads persisted settings, falling back to data/particle_settings.yaml
// defaults for a first run.
func openSettings() *game.SettingsManager {
	gdataManager, err := gdata.Open(gdata.Config{AppName: "particlefx"})
	if err != nil {
		log.Printf("Warning: gdata unavailable, settings will not persist: %v", err)
		gdataManager = nil
	}
	sm, _ := game.NewSettingsManager(gdataManager)

	if gdataManager == nil || sm.GetSettings().LastEffect == "" {
		if data, err := embedded.ReadFile("data/particle_settings.yaml"); err == nil {
			if defaults, err := config.ParseParticleSettings(data); err == nil {
				*sm.ParticleSettings() = *defaults
			} else {
				log.Printf("Warning: %v", err)
			}
		}
	}
	return sm
}

func main() {
	flag.Parse()

	log.Println("=== Particle Effect Viewer ===")
	embedded.Init(assetsFS, dataFS)

	rm := game.NewResourceManager()
	if err := rm.LoadResourceConfig("data/resources.yaml"); err != nil {
		log.Fatal("Failed to load resource config:", err)
	}
	if err := rm.LoadResourceGroup("sprites"); err != nil {
		log.Printf("Warning: Failed to preload sprites: %v", err)
	}

	viewer, err := NewParticleViewerGame(rm, openSettings())
	if err != nil {
		log.Fatal("Failed to initialize viewer:", err)
	}
	defer viewer.Close()

	// 默认静音运行：抑制大量系统级调试日志；如需详细调试，传入 --verbose
	if !*verboseFlag {
		log.SetOutput(io.Discard)
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Particle Effect Viewer")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(viewer.settingsManager.GetSettings().Fullscreen)

	if err := ebiten.RunGame(viewer); err != nil && !errors.Is(err, errQuit) {
		log.Print(err)
	}
	log.Println("Particle viewer closed")
}
