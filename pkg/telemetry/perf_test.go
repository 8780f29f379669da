package telemetry

import (
	"testing"
	"time"
)

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCollector(window int) (*PerfCollector, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	pc := NewPerfCollector(window)
	pc.now = clock.now
	return pc, clock
}

func TestPerfCollector_PhaseTiming(t *testing.T) {
	pc, clock := newTestCollector(10)

	for i := 0; i < 4; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseProcess)
		clock.advance(300 * time.Microsecond)
		pc.StartPhase(PhasePrepare)
		clock.advance(100 * time.Microsecond)
		pc.EndTick(Load{Effects: 1, Groups: 2, Particles: 100 * (i + 1)})
	}

	stats := pc.Stats()
	if stats.Samples != 4 {
		t.Errorf("Samples = %d, want 4", stats.Samples)
	}
	if stats.AvgTickDuration != 400*time.Microsecond {
		t.Errorf("AvgTickDuration = %v, want 400us", stats.AvgTickDuration)
	}
	if stats.StdTickDuration != 0 {
		t.Errorf("StdTickDuration = %v, want 0 for constant frames", stats.StdTickDuration)
	}
	if stats.PhaseAvg[PhaseProcess] != 300*time.Microsecond {
		t.Errorf("process avg = %v, want 300us", stats.PhaseAvg[PhaseProcess])
	}
	if got := stats.PhasePct[PhaseProcess]; got < 74.9 || got > 75.1 {
		t.Errorf("process pct = %v, want 75", got)
	}
	if stats.AvgParticles != 250 || stats.MaxParticles != 400 {
		t.Errorf("particles avg/max = %v/%d, want 250/400", stats.AvgParticles, stats.MaxParticles)
	}
}

func TestPerfCollector_Distribution(t *testing.T) {
	pc, _ := newTestCollector(100)

	// 1..20 ms
	for i := 1; i <= 20; i++ {
		pc.Record(PerfSample{TickDuration: time.Duration(i) * time.Millisecond})
	}

	stats := pc.Stats()
	if stats.MinTickDuration != time.Millisecond || stats.MaxTickDuration != 20*time.Millisecond {
		t.Errorf("min/max = %v/%v", stats.MinTickDuration, stats.MaxTickDuration)
	}
	if stats.P95TickDuration < 19*time.Millisecond || stats.P95TickDuration > 20*time.Millisecond {
		t.Errorf("p95 = %v, want 19-20ms", stats.P95TickDuration)
	}
	if stats.StdTickDuration <= 0 {
		t.Error("expected positive stddev")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc, _ := newTestCollector(5)

	for i := 0; i < 10; i++ {
		pc.Record(PerfSample{TickDuration: time.Duration(i) * time.Millisecond})
	}
	if pc.SampleCount() != 5 {
		t.Fatalf("SampleCount = %d, want 5", pc.SampleCount())
	}

	if last := pc.Last(); last.TickDuration != 9*time.Millisecond {
		t.Errorf("Last = %v, want 9ms", last.TickDuration)
	}

	// 只保留最后 5 帧：5..9 ms
	stats := pc.Stats()
	if stats.MinTickDuration != 5*time.Millisecond || stats.AvgTickDuration != 7*time.Millisecond {
		t.Errorf("min/avg = %v/%v, want 5ms/7ms", stats.MinTickDuration, stats.AvgTickDuration)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(0)

	stats := pc.Stats()
	if pc.Last().TickDuration != 0 {
		t.Error("expected zero last sample for empty collector")
	}
	if stats.AvgTickDuration != 0 || stats.Samples != 0 {
		t.Error("expected zero stats for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestNewFrameRecord(t *testing.T) {
	s := PerfSample{
		TickDuration: 2 * time.Millisecond,
		Phases:       map[string]time.Duration{PhaseProcess: 1500 * time.Microsecond},
		Load:         Load{Effects: 3, Groups: 5, Particles: 42, Batches: 2},
	}
	rec := NewFrameRecord(7, 0.5, s)
	want := FrameRecord{Frame: 7, SimTime: 0.5, TickUS: 2000, ProcessUS: 1500, Effects: 3, Groups: 5, Particles: 42, Batches: 2}
	if rec != want {
		t.Errorf("NewFrameRecord = %+v, want %+v", rec, want)
	}
}
