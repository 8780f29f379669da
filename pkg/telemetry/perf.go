// Package telemetry records per-frame cost of the particle pipeline and
// exports it as CSV.
package telemetry

import (
	"log"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names for one frame of the particle pipeline.
const (
	PhaseProcess = "process" // ParticleEffectSystem.Process
	PhasePrepare = "prepare" // RenderSystem.Update (batch rebuild)
	PhaseDraw    = "draw"    // RenderSystem.Draw
)

// Load is the simulation load observed at the end of a frame.
type Load struct {
	Effects   int // active effect components
	Groups    int // live particle groups
	Particles int // live particles
	Batches   int // render batches built
}

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
	Load         Load
}

// PerfCollector tracks frame cost over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	tickStart     time.Time
	phaseStart    time.Time
	lastPhase     string

	now func() time.Time
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of frames to aggregate over (e.g., 60 for 1 second at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
		now:           time.Now,
	}
}

// StartTick begins timing a new frame.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase, ending the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTick finishes timing the current frame and records it with load.
func (p *PerfCollector) EndTick(load Load) PerfSample {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.currentPhases,
		Load:         load,
	}
	p.Record(sample)
	return sample
}

// Record appends a finished sample to the window.
func (p *PerfCollector) Record(sample PerfSample) {
	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// Last returns the most recently recorded sample.
func (p *PerfCollector) Last() PerfSample {
	if p.sampleCount == 0 {
		return PerfSample{}
	}
	return p.samples[(p.writeIndex+p.windowSize-1)%p.windowSize]
}

// SampleCount returns the number of samples currently in the window.
func (p *PerfCollector) SampleCount() int {
	return p.sampleCount
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	Samples int

	// Frame cost
	AvgTickDuration time.Duration
	StdTickDuration time.Duration
	P95TickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Phase breakdown (average durations and share of frame time)
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// Load
	AvgParticles float64
	MaxParticles int
	AvgGroups    float64
	AvgEffects   float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	n := p.sampleCount
	ticks := make([]float64, n)
	particles := make([]float64, n)
	groups := make([]float64, n)
	effects := make([]float64, n)
	phaseSum := make(map[string]time.Duration)
	maxParticles := 0

	for i := 0; i < n; i++ {
		s := p.samples[i]
		ticks[i] = float64(s.TickDuration)
		particles[i] = float64(s.Load.Particles)
		groups[i] = float64(s.Load.Groups)
		effects[i] = float64(s.Load.Effects)
		maxParticles = max(maxParticles, s.Load.Particles)
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	mean, std := stat.MeanStdDev(ticks, nil)
	if n < 2 {
		std = 0
	}
	sort.Float64s(ticks)
	p95 := stat.Quantile(0.95, stat.Empirical, ticks, nil)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(n)
		if mean > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / mean * 100
		}
	}

	return PerfStats{
		Samples:         n,
		AvgTickDuration: time.Duration(mean),
		StdTickDuration: time.Duration(std),
		P95TickDuration: time.Duration(p95),
		MinTickDuration: time.Duration(ticks[0]),
		MaxTickDuration: time.Duration(ticks[n-1]),
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		AvgParticles:    stat.Mean(particles, nil),
		MaxParticles:    maxParticles,
		AvgGroups:       stat.Mean(groups, nil),
		AvgEffects:      stat.Mean(effects, nil),
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	log.Printf("[Perf] frames=%d avg=%dus std=%dus p95=%dus max=%dus particles(avg=%.0f max=%d) process=%.1f%% prepare=%.1f%% draw=%.1f%%",
		s.Samples,
		s.AvgTickDuration.Microseconds(),
		s.StdTickDuration.Microseconds(),
		s.P95TickDuration.Microseconds(),
		s.MaxTickDuration.Microseconds(),
		s.AvgParticles, s.MaxParticles,
		s.PhasePct[PhaseProcess], s.PhasePct[PhasePrepare], s.PhasePct[PhaseDraw],
	)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd    int     `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	StdTickUS    int64   `csv:"std_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	ProcessPct   float64 `csv:"process_pct"`
	PreparePct   float64 `csv:"prepare_pct"`
	DrawPct      float64 `csv:"draw_pct"`
	AvgParticles float64 `csv:"avg_particles"`
	MaxParticles int     `csv:"max_particles"`
	AvgGroups    float64 `csv:"avg_groups"`
	AvgEffects   float64 `csv:"avg_effects"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		StdTickUS:    s.StdTickDuration.Microseconds(),
		P95TickUS:    s.P95TickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		ProcessPct:   s.PhasePct[PhaseProcess],
		PreparePct:   s.PhasePct[PhasePrepare],
		DrawPct:      s.PhasePct[PhaseDraw],
		AvgParticles: s.AvgParticles,
		MaxParticles: s.MaxParticles,
		AvgGroups:    s.AvgGroups,
		AvgEffects:   s.AvgEffects,
	}
}

// FrameRecord is one row of frames.csv.
type FrameRecord struct {
	Frame     int     `csv:"frame"`
	SimTime   float64 `csv:"sim_time"`
	TickUS    int64   `csv:"tick_us"`
	ProcessUS int64   `csv:"process_us"`
	PrepareUS int64   `csv:"prepare_us"`
	Effects   int     `csv:"effects"`
	Groups    int     `csv:"groups"`
	Particles int     `csv:"particles"`
	Batches   int     `csv:"batches"`
}

// NewFrameRecord flattens a sample for CSV export.
func NewFrameRecord(frame int, simTime float64, s PerfSample) FrameRecord {
	return FrameRecord{
		Frame:     frame,
		SimTime:   simTime,
		TickUS:    s.TickDuration.Microseconds(),
		ProcessUS: s.Phases[PhaseProcess].Microseconds(),
		PrepareUS: s.Phases[PhasePrepare].Microseconds(),
		Effects:   s.Load.Effects,
		Groups:    s.Load.Groups,
		Particles: s.Load.Particles,
		Batches:   s.Load.Batches,
	}
}
