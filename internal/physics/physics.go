// Package physics runs the force simulation that settles node positions.
//
// The integrator follows the velocity-Verlet scheme of d3-force: every tick
// cools alpha toward its target, lets each force add to node velocities, then
// damps velocities and moves nodes. Pinned nodes are held at their pin.
package physics

import (
	"math"
	"math/rand/v2"

	"github.com/msalah0e/clustermap/internal/graph"
)

// Params configures the simulation and its forces.
type Params struct {
	Alpha         float64
	AlphaMin      float64
	AlphaDecay    float64
	AlphaTarget   float64
	VelocityDecay float64

	LinkDistance   float64
	LinkStrength   float64 // 0 uses 1/min(degree(source), degree(target))
	LinkIterations int

	ChargeStrength    float64
	ChargeDistanceMin float64
	ChargeDistanceMax float64

	CenterX, CenterY float64
	CenterStrength   float64

	ClusterRadius     float64
	ItemRadius        float64
	CollideStrength   float64
	CollideIterations int

	Seed uint64
}

// DefaultParams favours quick, calm settling.
func DefaultParams() Params {
	return Params{
		Alpha:             0.3,
		AlphaMin:          0.001,
		AlphaDecay:        0.05,
		VelocityDecay:     0.4,
		LinkDistance:      30,
		LinkIterations:    1,
		ChargeStrength:    0,
		ChargeDistanceMin: 1,
		ChargeDistanceMax: math.Inf(1),
		CenterStrength:    0.02,
		ClusterRadius:     20,
		ItemRadius:        8,
		CollideStrength:   1,
		CollideIterations: 1,
		Seed:              1,
	}
}

// Force adds velocity to nodes each tick.
type Force interface {
	Initialize(a *graph.Arena, rnd *rand.Rand)
	Apply(alpha float64)
}

type namedForce struct {
	name  string
	force Force
}

// Simulation integrates one arena at a time.
type Simulation struct {
	p      Params
	arena  *graph.Arena
	forces []namedForce
	rnd    *rand.Rand

	alpha  float64
	active bool
	ticks  uint64
}

// New returns a simulation with the standard force set: link, charge,
// x, y and collide.
func New(p Params) *Simulation {
	s := &Simulation{
		p:   p,
		rnd: rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15)),
	}
	s.AddForce("link", &LinkForce{Distance: p.LinkDistance, Strength: p.LinkStrength, Iterations: p.LinkIterations})
	s.AddForce("charge", &ManyBodyForce{Strength: p.ChargeStrength, DistanceMin: p.ChargeDistanceMin, DistanceMax: p.ChargeDistanceMax})
	s.AddForce("x", &PositionForce{Axis: AxisX, Target: p.CenterX, Strength: p.CenterStrength})
	s.AddForce("y", &PositionForce{Axis: AxisY, Target: p.CenterY, Strength: p.CenterStrength})
	s.AddForce("collide", &CollideForce{ClusterRadius: p.ClusterRadius, ItemRadius: p.ItemRadius, Strength: p.CollideStrength, Iterations: p.CollideIterations})
	return s
}

// AddForce registers or replaces a named force.
func (s *Simulation) AddForce(name string, f Force) {
	for i := range s.forces {
		if s.forces[i].name == name {
			s.forces[i].force = f
			f.Initialize(s.arena, s.rnd)
			return
		}
	}
	s.forces = append(s.forces, namedForce{name: name, force: f})
	f.Initialize(s.arena, s.rnd)
}

// Force returns a registered force by name.
func (s *Simulation) Force(name string) (Force, bool) {
	for _, f := range s.forces {
		if f.name == name {
			return f.force, true
		}
	}
	return nil, false
}

// SetArena hands the simulation a new arena, places unplaced nodes and
// restarts it at the initial alpha.
func (s *Simulation) SetArena(a *graph.Arena) {
	s.arena = a
	if a != nil {
		placeUnplaced(a.Nodes, s.p.CenterX, s.p.CenterY)
	}
	for _, f := range s.forces {
		f.force.Initialize(a, s.rnd)
	}
	s.alpha = s.p.Alpha
	s.active = a.Len() > 0
}

// Arena returns the arena currently being integrated.
func (s *Simulation) Arena() *graph.Arena { return s.arena }

// Alpha returns the current energy.
func (s *Simulation) Alpha() float64 { return s.alpha }

// Active reports whether the simulation still wants ticks.
func (s *Simulation) Active() bool { return s.active }

// Ticks returns how many ticks have run.
func (s *Simulation) Ticks() uint64 { return s.ticks }

// Stop halts the simulation until the next Reheat or SetArena.
func (s *Simulation) Stop() { s.active = false }

// Reheat raises alpha to at least a and resumes ticking.
func (s *Simulation) Reheat(a float64) {
	if a > s.alpha {
		s.alpha = a
	}
	if s.arena.Len() > 0 {
		s.active = true
	}
}

// Tick advances the simulation by one step. It returns false once alpha has
// cooled below AlphaMin and the simulation stops.
func (s *Simulation) Tick() bool {
	if s.arena == nil {
		s.active = false
		return false
	}

	s.alpha += (s.p.AlphaTarget - s.alpha) * s.p.AlphaDecay
	for _, f := range s.forces {
		f.force.Apply(s.alpha)
	}

	damp := 1 - s.p.VelocityDecay
	for _, n := range s.arena.Nodes {
		if n.Pinned {
			n.X, n.Y = n.FX, n.FY
			n.VX, n.VY = 0, 0
			continue
		}
		n.VX *= damp
		n.VY *= damp
		n.X += n.VX
		n.Y += n.VY
	}
	s.ticks++

	if s.alpha < s.p.AlphaMin {
		s.active = false
	}
	return s.active
}

// Settle ticks until the simulation stops or max ticks have run.
func (s *Simulation) Settle(max int) int {
	n := 0
	for s.active && n < max {
		s.Tick()
		n++
	}
	return n
}

// placeUnplaced seeds nodes without a position on a phyllotaxis around the center.
func placeUnplaced(nodes []*graph.Node, cx, cy float64) {
	const initialRadius = 10
	angle := math.Pi * (3 - math.Sqrt(5))
	for i, n := range nodes {
		if n.Placed {
			continue
		}
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * angle
		n.X, n.Y = cx+r*math.Cos(a), cy+r*math.Sin(a)
		n.Placed = true
	}
}

func jiggle(rnd *rand.Rand) float64 {
	return (rnd.Float64() - 0.5) * 1e-6
}
