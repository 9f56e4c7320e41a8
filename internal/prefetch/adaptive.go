package prefetch

// Strategy names a prefetching strategy the adaptive prefetcher can
// select between.
type Strategy string

const (
	StrategyStream Strategy = "Stream"
	StrategyStride Strategy = "Stride"
)

// ema smoothing factor for strategy accuracy, per spec.md §4.6.
const emaAlpha = 0.1

// accuracy thresholds that drive prefetch-distance adjustment.
const (
	highAccuracyThreshold = 0.8
	lowAccuracyThreshold  = 0.5
)

// Adaptive tracks a running accuracy estimate per strategy and a shared
// prefetch distance, periodically re-selecting the better-performing
// strategy and widening or narrowing the distance based on how well it
// is doing.
type Adaptive struct {
	accuracy map[Strategy]float64
	current  Strategy
	distance int
	minDist  int
	maxDist  int
}

// NewAdaptive returns an adaptive prefetcher starting with the given
// distance and the Stream strategy. The distance is clamped between
// minDist and maxDist on every adjustment.
func NewAdaptive(initialDistance, minDist, maxDist int) *Adaptive {
	return &Adaptive{
		accuracy: map[Strategy]float64{StrategyStream: 0.5, StrategyStride: 0.5},
		current:  StrategyStream,
		distance: initialDistance,
		minDist:  minDist,
		maxDist:  maxDist,
	}
}

// RecordOutcome folds whether a prefetch issued under strategy turned
// out to be used before eviction into that strategy's EMA accuracy.
func (a *Adaptive) RecordOutcome(strategy Strategy, useful bool) {
	observed := 0.0
	if useful {
		observed = 1.0
	}
	a.accuracy[strategy] = emaAlpha*observed + (1-emaAlpha)*a.accuracy[strategy]
}

// Adapt rescales the prefetch distance from the accuracy of the strategy
// in use since the last call, then re-selects the current strategy as
// whichever has the higher accuracy (Stream on a tie). Call this
// periodically (the hierarchy does so every 1000 accesses), not on every
// access.
func (a *Adaptive) Adapt() {
	acc := a.accuracy[a.current]
	switch {
	case acc > highAccuracyThreshold:
		a.distance *= 2
	case acc < lowAccuracyThreshold:
		a.distance /= 2
	}
	if a.distance < a.minDist {
		a.distance = a.minDist
	}
	if a.distance > a.maxDist {
		a.distance = a.maxDist
	}

	if a.accuracy[StrategyStride] > a.accuracy[StrategyStream] {
		a.current = StrategyStride
	} else {
		a.current = StrategyStream
	}
}

// Current returns the currently selected strategy and distance.
func (a *Adaptive) Current() (Strategy, int) {
	return a.current, a.distance
}

// Accuracy returns the current EMA accuracy for strategy.
func (a *Adaptive) Accuracy(strategy Strategy) float64 {
	return a.accuracy[strategy]
}
