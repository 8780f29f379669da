// Command particlebench runs particle effects headless at a fixed time step
// and records per-frame cost and load.
//
// Usage:
//
//	go run ./cmd/particlebench [flags]
//
// Examples:
//
//	go run ./cmd/particlebench --effect=EFFECT_FIREWORK --frames=1200
//	go run ./cmd/particlebench --effect=all --lod=2 --output-dir=bench/lod2
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/embedded"
	"github.com/decker502/particlefx/pkg/game"
	"github.com/decker502/particlefx/pkg/scenes"
	"github.com/decker502/particlefx/pkg/systems"
	"github.com/decker502/particlefx/pkg/telemetry"
	"github.com/go-gl/mathgl/mgl32"
)

// options 一次基准运行的参数
type options struct {
	effectID    string
	frames      int
	fps         float64
	lod         int
	speed       float64
	burstEvery  int
	seed        uint64
	statsWindow int
	outputDir   string
	settings    *config.ParticleSettings
}

func main() {
	root := flag.String("root", ".", "Directory containing assets/ and data/")
	effectID := flag.String("effect", "all", "Effect resource ID, or \"all\"")
	settingsPath := flag.String("settings", "", "Path to particle_settings.yaml (empty = data/particle_settings.yaml)")
	frames := flag.Int("frames", 600, "Number of frames to simulate per effect")
	fps := flag.Float64("fps", 60, "Simulated frame rate")
	lod := flag.Int("lod", 0, "LOD level")
	speed := flag.Float64("speed", 1, "Playback speed")
	burstEvery := flag.Int("burst-every", 0, "Spawn a one-shot burst every N frames (0 = never)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time-based)")
	statsWindow := flag.Int("stats-window", 60, "Frames per aggregated perf row")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and settings snapshot")
	verbose := flag.Bool("verbose", false, "Keep particle system logs")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	if !*verbose {
		// 粒子系统内部使用标准 log，默认静音
		log.SetOutput(io.Discard)
	}

	fsys := os.DirFS(*root)
	embedded.Init(fsys, fsys)

	settings, err := loadSettings(*root, *settingsPath)
	if err != nil {
		slog.Error("failed to load particle settings", "error", err)
		os.Exit(1)
	}

	rm := game.NewResourceManager()
	if err := rm.LoadResourceConfig("data/resources.yaml"); err != nil {
		slog.Error("failed to load resource config", "error", err)
		os.Exit(1)
	}

	ids := []string{*effectID}
	if *effectID == "all" {
		ids = rm.EffectIDs()
	}

	if *statsWindow < 1 {
		*statsWindow = 60
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = uint64(time.Now().UnixNano())
	}

	for _, id := range ids {
		dir := *outputDir
		if dir != "" && len(ids) > 1 {
			dir = fmt.Sprintf("%s/%s", dir, id)
		}
		opts := options{
			effectID:    id,
			frames:      *frames,
			fps:         *fps,
			lod:         *lod,
			speed:       *speed,
			burstEvery:  *burstEvery,
			seed:        rngSeed,
			statsWindow: *statsWindow,
			outputDir:   dir,
			settings:    settings,
		}
		if err := run(rm, opts); err != nil {
			slog.Error("benchmark failed", "effect", id, "error", err)
			os.Exit(1)
		}
	}
}

func loadSettings(root, path string) (*config.ParticleSettings, error) {
	if path != "" {
		return config.LoadParticleSettings(path)
	}
	data, err := embedded.ReadFile("data/particle_settings.yaml")
	if err != nil {
		slog.Warn("no particle settings found, using defaults", "root", root)
		return config.DefaultParticleSettings(), nil
	}
	return config.ParseParticleSettings(data)
}

// run simulates one effect and writes its frame and perf logs.
func run(rm *game.ResourceManager, opts options) error {
	effect, err := rm.LoadEffectByID(opts.effectID)
	if err != nil {
		return err
	}

	out, err := telemetry.NewOutputManager(opts.outputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteSettings(opts.settings); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	scene := scenes.NewEffectScene(effect, scenes.EffectSceneConfig{
		Settings:      opts.settings,
		Options:       []systems.Option{systems.WithRand(rng)},
		LodLevel:      opts.lod,
		PlaybackSpeed: float32(opts.speed),
	})
	defer scene.Close()

	// 整个运行期间的统计窗口
	total := telemetry.NewPerfCollector(opts.frames)
	window := telemetry.NewPerfCollector(opts.statsWindow)

	slog.Info("starting benchmark",
		"effect", opts.effectID,
		"frames", opts.frames,
		"fps", opts.fps,
		"lod", opts.lod,
		"seed", opts.seed,
	)

	dt := 1 / opts.fps
	for i := 0; i < opts.frames; i++ {
		if opts.burstEvery > 0 && i > 0 && i%opts.burstEvery == 0 {
			scene.SpawnBurst(mgl32.Vec3{rng.Float32()*8 - 4, rng.Float32()*4 - 2, 0})
		}
		scene.Update(dt)

		frame, simTime := scene.Frame()
		sample := scene.Perf().Last()
		total.Record(sample)
		window.Record(sample)

		if err := out.WriteFrame(telemetry.NewFrameRecord(frame, simTime, sample)); err != nil {
			return err
		}
		if frame%opts.statsWindow == 0 {
			if err := out.WritePerf(window.Stats(), frame); err != nil {
				return err
			}
		}
	}

	stats := total.Stats()
	slog.Info("benchmark finished",
		"effect", opts.effectID,
		"avg_tick_us", stats.AvgTickDuration.Microseconds(),
		"p95_tick_us", stats.P95TickDuration.Microseconds(),
		"max_tick_us", stats.MaxTickDuration.Microseconds(),
		"avg_particles", stats.AvgParticles,
		"max_particles", stats.MaxParticles,
		"avg_groups", stats.AvgGroups,
		"one_shots_alive", scene.OneShotCount(),
		"output_dir", out.Dir(),
	)
	return nil
}
