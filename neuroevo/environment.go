package neuroevo

import (
	"math"
	"math/rand"
)

// Environment is the rectangular arena shared by a population. Only its
// bounds matter to the simulation.
type Environment struct {
	Width  float64
	Height float64
}

// RandomPosition returns a uniform point at least margin away from every wall.
func (e *Environment) RandomPosition(margin float64, rng *rand.Rand) (x, y float64) {
	x = uniform(rng, margin, e.Width-margin)
	y = uniform(rng, margin, e.Height-margin)
	return x, y
}

// Food is a circular pellet. The driver owns the food list and moves a
// pellet elsewhere when it is eaten.
type Food struct {
	X      float64
	Y      float64
	Radius float64
}

// NewFood places a pellet of the given radius on a random integer grid point.
func NewFood(env *Environment, radius float64, margin int, rng *rand.Rand) *Food {
	f := &Food{Radius: radius}
	f.Respawn(env, margin, rng)
	return f
}

// Respawn moves the pellet to a random integer grid point in
// [margin, size-margin] on both axes, bounds included.
func (f *Food) Respawn(env *Environment, margin int, rng *rand.Rand) {
	f.X = float64(randInt(rng, margin, int(env.Width)-margin))
	f.Y = float64(randInt(rng, margin, int(env.Height)-margin))
}

// uniform draws from [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// randInt draws from [lo, hi], inclusive.
func randInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// normalizeAngle maps an angle into (-π, π].
func normalizeAngle(angle float64) float64 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle <= -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// normalizeHeading maps an angle into [0, 2π).
func normalizeHeading(angle float64) float64 {
	angle = math.Mod(angle, 2*math.Pi)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	if angle >= 2*math.Pi {
		angle = 0
	}
	return angle
}
