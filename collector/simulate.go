package collector

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// Health labels produced by the simulator.
const (
	LabelWarning  = "WARNING"
	LabelCritical = "CRITICAL"
)

const (
	defaultEngineModel = "Adour Mk-821"
	defaultAircraftID  = "HAL-HJT-01"
)

type weighted[T any] struct {
	v T
	w float64
}

var phaseWeights = []weighted[model.Phase]{
	{model.PhaseIdle, 0.25},
	{model.PhaseTakeoff, 0.15},
	{model.PhaseCruise, 0.45},
	{model.PhaseDescent, 0.15},
}

var healthWeights = []weighted[string]{
	{model.LabelNormal, 0.80},
	{LabelWarning, 0.15},
	{LabelCritical, 0.05},
}

// throttle range per phase
var throttleBands = map[model.Phase][2]float64{
	model.PhaseIdle:    {0.25, 0.35},
	model.PhaseTakeoff: {0.90, 1.00},
	model.PhaseCruise:  {0.65, 0.75},
	model.PhaseDescent: {0.40, 0.50},
}

// severity range per health label
var severityBands = map[string][2]float64{
	model.LabelNormal: {0.0, 0.3},
	LabelWarning:      {0.3, 0.7},
	LabelCritical:     {0.7, 1.0},
}

// Simulator generates plausible engine samples with a matching prediction.
// It stands in for the backend when no live source is configured.
type Simulator struct {
	mu         sync.Mutex
	rng        *rand.Rand
	aircraftID string
	now        func() time.Time
}

// NewSimulator creates a simulator seeded with seed. A zero aircraftID uses
// the default airframe.
func NewSimulator(aircraftID string, seed uint64) *Simulator {
	if aircraftID == "" {
		aircraftID = defaultAircraftID
	}
	return &Simulator{
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		aircraftID: aircraftID,
		now:        time.Now,
	}
}

func (s *Simulator) Name() string { return "simulate" }

func (s *Simulator) Collect(ctx context.Context) (*model.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := s.Generate()
	return &r, nil
}

// Generate produces one reading.
func (s *Simulator) Generate() model.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	phase := pick(s.rng, phaseWeights)
	label := pick(s.rng, healthWeights)
	tb := throttleBands[phase]
	throttle := s.uniform(tb[0], tb[1])
	sb := severityBands[label]
	sev := s.uniform(sb[0], sb[1])

	baseRPM := s.uniform(3000, 3300)
	baseEGT := s.uniform(500, 530)
	baseOilT := s.uniform(58, 65)
	baseOilP := s.uniform(52, 58)
	baseVib := s.uniform(1.0, 1.5)
	baseFuel := s.uniform(470, 520)

	rpm := baseRPM * throttle * (1 - 0.15*sev)
	egt := baseEGT + (rpm/9000)*320 + sev*120
	fuel := baseFuel + throttle*850 + sev*100
	oilT := baseOilT + throttle*40 + sev*45
	oilP := baseOilP - sev*25
	vib := baseVib + throttle*0.5 + sev*3.5

	sample := model.Sample{
		Timestamp:   s.now(),
		AircraftID:  s.aircraftID,
		EngineModel: defaultEngineModel,
		Phase:       phase,
		Throttle:    round(throttle, 2),
		RPM:         round(s.noise(rpm, 0.01), 1),
		FuelFlow:    round(s.noise(fuel, 0.02), 1),
		EGT:         round(s.noise(egt, 0.02), 1),
		OilTemp:     round(s.noise(oilT, 0.02), 1),
		OilPressure: round(s.noise(oilP, 0.02), 1),
		Vibration:   round(s.noise(vib, 0.12), 2),
	}
	return model.Reading{
		Sample: sample,
		Prediction: model.Prediction{
			Label:         label,
			Probabilities: s.probabilities(label),
		},
	}
}

// probabilities spreads confidence around label, summing to 1.
func (s *Simulator) probabilities(label string) map[string]float64 {
	top := s.uniform(0.6, 0.95)
	rest := 1 - top
	split := s.rng.Float64()
	probs := make(map[string]float64, len(healthWeights))
	first := true
	for _, hw := range healthWeights {
		switch {
		case hw.v == label:
			probs[hw.v] = round(top, 4)
		case first:
			probs[hw.v] = round(rest*split, 4)
			first = false
		default:
			probs[hw.v] = round(rest*(1-split), 4)
		}
	}
	return probs
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func (s *Simulator) noise(x, pct float64) float64 {
	return x + s.rng.NormFloat64()*math.Abs(x)*pct
}

func pick[T any](rng *rand.Rand, choices []weighted[T]) T {
	var total float64
	for _, c := range choices {
		total += c.w
	}
	x := rng.Float64() * total
	for _, c := range choices {
		if x < c.w {
			return c.v
		}
		x -= c.w
	}
	return choices[len(choices)-1].v
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
