package main

import (
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/particlefield/config"
	"github.com/pthm-cable/particlefield/game"
	"github.com/pthm-cable/particlefield/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params        *ParamVector
	ticks         uint64
	targets       []string // Paths the spring chases, one run each
	baseConfig    *config.Config
	targetExcited float64
	statsWindow   float64

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestWindows []telemetry.WindowStats
	lastExcited float64 // mean excited fraction from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks uint64, targets []string, targetExcited float64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:        params,
		ticks:         ticks,
		targets:       targets,
		baseConfig:    baseCfg,
		targetExcited: targetExcited,
		statsWindow:   0.5,
		bestFitness:   math.Inf(1),
	}
}

// BestWindows returns the stats windows from the best evaluation.
func (fe *FitnessEvaluator) BestWindows() []telemetry.WindowStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestWindows
}

// LastExcited returns the mean excited fraction from the most recent evaluation.
func (fe *FitnessEvaluator) LastExcited() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastExcited
}

// warmupWindows are skipped while the field leaves its rest state.
const warmupWindows = 2

// Fitness component weights.
const (
	weightExcited   = 1.0
	weightStability = 0.25
	weightEnergy    = 0.1
)

// targetResult holds the result from one target path.
type targetResult struct {
	fitness float64
	excited float64
	windows []telemetry.WindowStats
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]targetResult, len(fe.targets))
	var wg sync.WaitGroup

	for i, target := range fe.targets {
		wg.Add(1)
		go func(idx int, target string) {
			defer wg.Done()
			windows := fe.runSimulation(x, target)
			fitness, excited := fe.computeFitness(windows)
			results[idx] = targetResult{fitness: fitness, excited: excited, windows: windows}
		}(i, target)
	}
	wg.Wait()

	var totalFitness, totalExcited float64
	best := results[0]
	for _, r := range results {
		totalFitness += r.fitness
		totalExcited += r.excited
		if r.fitness < best.fitness {
			best = r
		}
	}

	n := float64(len(results))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestWindows = best.windows
	}
	fe.lastExcited = totalExcited / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation runs one headless field for fe.ticks ticks on a simulated
// clock so every evaluation of x sees the same attractor path.
func (fe *FitnessEvaluator) runSimulation(x []float64, target string) []telemetry.WindowStats {
	cfg := *fe.baseConfig
	fe.params.ApplyToConfig(&cfg, x)
	cfg.Animation.Spring.Target = target
	cfg.Parallel.Workers = 1

	fps := max(cfg.Screen.TargetFPS, 1)
	dt := time.Second / time.Duration(fps)
	now := time.Unix(0, 0)

	g, err := game.NewGameWithOptions(&cfg, game.Options{
		StatsWindowSec: fe.statsWindow,
		Clock:          func() time.Time { return now },
	})
	if err != nil {
		return nil
	}
	defer g.Unload()

	var windows []telemetry.WindowStats
	g.SetStatsCallback(func(stats telemetry.WindowStats) {
		windows = append(windows, stats)
	})

	if err := g.Attach(&game.HeadlessSurface{}); err != nil {
		return nil
	}
	for g.Tick() < fe.ticks {
		now = now.Add(dt)
		if !g.Step() {
			break
		}
	}
	return windows
}

// computeFitness scores a run (lower = better) and returns its mean excited
// fraction. The excited fraction should sit at the target; the energy
// should be steady from window to window and low overall.
func (fe *FitnessEvaluator) computeFitness(windows []telemetry.WindowStats) (fitness, excited float64) {
	if len(windows) <= warmupWindows {
		return math.Inf(1), 0
	}
	valid := windows[warmupWindows:]

	fracs := make([]float64, len(valid))
	energies := make([]float64, len(valid))
	for i, w := range valid {
		fracs[i] = w.ExcitedFrac
		energies[i] = w.MeanEnergy
	}

	excited = stat.Mean(fracs, nil)
	excitedErr := (excited - fe.targetExcited) / math.Max(fe.targetExcited, 0.01)
	energyCV := cv(energies)
	meanEnergy := stat.Mean(energies, nil)

	fitness = weightExcited*excitedErr*excitedErr +
		weightStability*energyCV*energyCV +
		weightEnergy*math.Log1p(meanEnergy)
	return fitness, excited
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}
