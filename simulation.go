package nimsforestscope

import (
	"math"
	"math/rand/v2"
	"time"
)

// SpikeSamples is the waveform length of the spike stream.
const SpikeSamples = 75

var spikeChannels = []string{"A", "B", "C", "D"}

// Simulation is a host that plays a ball bouncing in a box. It feeds an
// adapter the entity stream (attributes, bounce counters, positions) and
// a spike stream whose waveforms fire on every bounce and periodically.
type Simulation struct {
	Width, Height float64
	BallSize      float64
	Speed         float64 // pixels per second
	SpikeEvery    int     // steps between spontaneous spikes, 0 disables

	names      StreamNames
	keys       SceneKeys
	bounceKeys map[string]string
	rng        *rand.Rand
	x, y       float64
	vx, vy     float64
	now        time.Duration
	steps      int
	bounces    map[string]int
}

// SimulationOption configures a Simulation.
type SimulationOption func(*Simulation)

// WithSimulationKeys sets the attribute keys announced for the box and
// ball sizes. They should match the adapter's SceneKeys.
func WithSimulationKeys(keys SceneKeys) SimulationOption {
	return func(s *Simulation) {
		s.keys = keys
	}
}

// WithBounceCounters takes the attribute key of each wall counter from
// counters bound to the bounce labels. Walls without a binding keep the
// bounces_<wall> key.
func WithBounceCounters(counters []CounterBinding) SimulationOption {
	return func(s *Simulation) {
		for _, c := range counters {
			if wall, ok := wallOfLabel[c.Label]; ok {
				s.bounceKeys[wall] = c.Key
			}
		}
	}
}

var walls = []string{"left", "right", "top", "bottom", "corner"}

var wallOfLabel = map[string]string{
	LabelBouncesLeft:   "left",
	LabelBouncesRight:  "right",
	LabelBouncesTop:    "top",
	LabelBouncesBottom: "bottom",
	LabelBouncesCorner: "corner",
}

// NewSimulation creates a 400x300 simulation seeded for reproducible runs.
// The ball starts centred and at rest until Start.
func NewSimulation(seed uint64, names StreamNames, opts ...SimulationOption) *Simulation {
	s := &Simulation{
		Width:      400,
		Height:     300,
		BallSize:   10,
		Speed:      180,
		SpikeEvery: 30,
		names:      names,
		keys:       DefaultSceneKeys(),
		bounceKeys: make(map[string]string, len(walls)),
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		bounces:    make(map[string]int, len(walls)),
	}
	for _, wall := range walls {
		s.bounceKeys[wall] = "bounces_" + wall
	}
	for _, opt := range opts {
		opt(s)
	}
	s.x, s.y = s.Width/2, s.Height/2
	return s
}

// Bounces returns the counter value for a wall: "left", "right", "top",
// "bottom" or "corner".
func (s *Simulation) Bounces(wall string) int {
	return s.bounces[wall]
}

// Position returns the current ball centre.
func (s *Simulation) Position() Position {
	return Position{X: s.x, Y: s.y}
}

// Start resets a and announces the scene attributes.
func (s *Simulation) Start(a *Adapter) {
	s.now = 0
	s.steps = 0
	clear(s.bounces)
	s.x, s.y = s.Width/2, s.Height/2
	angle := math.Pi/6 + s.rng.Float64()*math.Pi/6
	s.vx, s.vy = s.Speed*math.Cos(angle), s.Speed*math.Sin(angle)

	a.Reset()
	attrs := Attributes{
		s.keys.SurfaceWidth:  s.Width,
		s.keys.SurfaceHeight: s.Height,
		s.keys.EntityWidth:   s.BallSize,
		s.keys.EntityHeight:  s.BallSize,
	}
	for _, wall := range walls {
		attrs[s.bounceKeys[wall]] = 0
	}
	a.AttributesReset(s.names.Entity, attrs)
	a.Process(s.names.Entity, 0, s.Position())
}

// Step advances the ball by dt and feeds the resulting samples to a.
func (s *Simulation) Step(a *Adapter, dt time.Duration) {
	s.now += dt
	s.steps++
	ts := float64(s.now) / float64(time.Millisecond)

	secs := dt.Seconds()
	s.x += s.vx * secs
	s.y += s.vy * secs

	half := s.BallSize / 2
	var hitX, hitY string
	switch {
	case s.x-half < 0:
		s.x, s.vx, hitX = half+(half-s.x), math.Abs(s.vx), "left"
	case s.x+half > s.Width:
		s.x, s.vx, hitX = s.Width-half-(s.x+half-s.Width), -math.Abs(s.vx), "right"
	}
	switch {
	case s.y-half < 0:
		s.y, s.vy, hitY = half+(half-s.y), math.Abs(s.vy), "top"
	case s.y+half > s.Height:
		s.y, s.vy, hitY = s.Height-half-(s.y+half-s.Height), -math.Abs(s.vy), "bottom"
	}

	wall := hitX + hitY
	if hitX != "" && hitY != "" {
		wall = "corner"
	}
	if wall != "" {
		s.bounces[wall]++
		a.AttributesUpdated(s.names.Entity, Attributes{s.bounceKeys[wall]: s.bounces[wall]})
	}

	a.Process(s.names.Entity, ts, s.Position())

	if wall != "" || (s.SpikeEvery > 0 && s.steps%s.SpikeEvery == 0) {
		a.Process(s.names.Spikes, ts, s.spike())
	}
}

// spike synthesises an extracellular spike: a sharp trough followed by a
// slower rebound, with a little noise.
func (s *Simulation) spike() SpikeSample {
	amp := 300 + s.rng.Float64()*400
	centre := 20 + s.rng.Float64()*10
	samples := make([]float64, SpikeSamples)
	for i := range samples {
		t := float64(i)
		trough := -amp * math.Exp(-math.Pow((t-centre)/3, 2))
		rebound := amp / 3 * math.Exp(-math.Pow((t-centre-12)/7, 2))
		samples[i] = trough + rebound + s.rng.NormFloat64()*15
	}
	return SpikeSample{
		Channel: ChannelLabel(spikeChannels[s.rng.IntN(len(spikeChannels))]),
		Samples: samples,
	}
}
