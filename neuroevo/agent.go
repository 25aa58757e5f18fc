package neuroevo

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/donghaxkim/NeuralNetEvoWeb/neuroevo/nn"
)

// BrainLayers is the fixed topology of every agent brain:
// inputs (food distance, food angle, energy), one hidden layer,
// outputs (turn left, turn right, move forward).
var BrainLayers = []int{3, 8, 3}

const (
	// energyDecayPerFrame is drained every 1/60 s regardless of tick rate.
	energyDecayPerFrame = 0.1
	framesPerSecond     = 60
	energyScale         = 100.0

	historyLength  = 20
	stuckExtent    = 10.0
	stuckThreshold = 5

	stuckPullModifier = 3.0
	stuckJitterChance = 0.1

	steerPull       = 0.5
	forwardPullGain = 0.7
	movePull        = 0.25

	forwardOverrideChance = 0.05
)

// Action is the decision an agent takes on a tick.
type Action int

const (
	TurnLeft Action = iota
	TurnRight
	MoveForward
)

func (a Action) String() string {
	switch a {
	case TurnLeft:
		return "turn_left"
	case TurnRight:
		return "turn_right"
	case MoveForward:
		return "move_forward"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

type point struct{ x, y float64 }

// Agent is a single forager. It senses the nearest food in its vision cone,
// asks its brain what to do and moves inside the environment bounds.
//
// Energy and FoodEaten are written by the driver when the agent eats.
// Brain, LastInputs, LastOutputs, Target and IsStuck are exposed for
// visualisation.
type Agent struct {
	X         float64
	Y         float64
	Direction float64 // radians in [0, 2π)
	Speed     float64
	TurnRate  float64
	Radius    float64

	Energy    float64
	Alive     bool
	FoodEaten int

	VisionRadius float64
	VisionAngle  float64 // full cone width in radians

	Brain       *nn.Network
	LastInputs  []float64
	LastOutputs []float64
	LastAction  Action
	Target      *Food
	IsStuck     bool

	env          *Environment
	rng          *rand.Rand
	history      []point
	stuckCounter int
}

// NewAgent creates a living agent at (x, y) facing a random direction.
// The agent takes ownership of brain; callers inheriting a brain from
// another agent must pass a copy. A nil brain gets a fresh random network.
func NewAgent(x, y float64, env *Environment, brain *nn.Network, params AgentConfig, rng *rand.Rand) (*Agent, error) {
	if brain == nil {
		var err error
		brain, err = nn.New(BrainLayers, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to create brain: %w", err)
		}
	}
	return &Agent{
		X:            x,
		Y:            y,
		Direction:    uniform(rng, 0, 2*math.Pi),
		Speed:        params.Speed,
		TurnRate:     params.TurnRate,
		Radius:       params.Radius,
		Energy:       params.InitialEnergy,
		Alive:        true,
		VisionRadius: params.VisionRadius,
		VisionAngle:  params.VisionAngle(),
		Brain:        brain,
		LastInputs:   make([]float64, BrainLayers[0]),
		LastOutputs:  make([]float64, BrainLayers[len(BrainLayers)-1]),
		env:          env,
		rng:          rng,
		history:      make([]point, 0, historyLength),
	}, nil
}

// Update advances the agent by dt seconds. Dead agents are left untouched.
func (a *Agent) Update(foods []*Food, dt float64) error {
	if !a.Alive {
		return nil
	}

	a.Energy -= energyDecayPerFrame * dt * framesPerSecond
	if a.Energy <= 0 {
		a.Alive = false
		return nil
	}

	target, distance, angle := a.nearestVisibleFood(foods)
	a.Target = target

	normDistance := 1.0
	inputs := []float64{1.0, 0.0, a.Energy / energyScale}
	if target != nil {
		normDistance = distance / a.VisionRadius
		inputs[0] = normDistance
		inputs[1] = angle / (a.VisionAngle / 2)
	}
	a.LastInputs = inputs

	outputs, err := a.Brain.Forward(inputs)
	if err != nil {
		return fmt.Errorf("agent brain forward pass: %w", err)
	}
	a.LastOutputs = append([]float64(nil), outputs...)

	a.trackStuck()

	pullModifier := 1.0
	if a.IsStuck {
		pullModifier = stuckPullModifier
		if a.rng.Float64() < stuckJitterChance {
			a.Direction += uniform(a.rng, -math.Pi/2, math.Pi/2)
		}
	}

	// Food-seeking bias keeps untrained brains viable.
	if target != nil {
		pull := steerPull * (1 - normDistance) * pullModifier
		if angle < 0 {
			outputs[TurnLeft] += pull
		} else {
			outputs[TurnRight] += pull
		}
		outputs[MoveForward] += pull * forwardPullGain
	}

	action := Action(floats.MaxIdx(outputs))
	if a.rng.Float64() < forwardOverrideChance {
		action = MoveForward
	}
	a.LastAction = action

	switch action {
	case TurnLeft:
		a.Direction -= a.TurnRate * dt
	case TurnRight:
		a.Direction += a.TurnRate * dt
	case MoveForward:
		a.move(dt, target, normDistance, pullModifier)
	}

	a.Direction = normalizeHeading(a.Direction)
	return nil
}

// nearestVisibleFood returns the closest food inside the vision cone together
// with its distance and signed angle relative to the heading. On equal
// distances the earlier food in the list wins.
func (a *Agent) nearestVisibleFood(foods []*Food) (*Food, float64, float64) {
	var (
		closest      *Food
		closestDist  = math.Inf(1)
		closestAngle float64
	)
	halfAngle := a.VisionAngle / 2

	for _, f := range foods {
		dx := f.X - a.X
		dy := f.Y - a.Y
		distance := math.Hypot(dx, dy)
		if distance > a.VisionRadius {
			continue
		}

		angleDiff := normalizeAngle(math.Atan2(dy, dx) - a.Direction)
		if math.Abs(angleDiff) <= halfAngle && distance < closestDist {
			closest = f
			closestDist = distance
			closestAngle = angleDiff
		}
	}
	return closest, closestDist, closestAngle
}

// trackStuck records the current position and, once the window holds
// historyLength samples, counts consecutive ticks spent inside a small box.
func (a *Agent) trackStuck() {
	if len(a.history) == historyLength {
		copy(a.history, a.history[1:])
		a.history = a.history[:historyLength-1]
	}
	a.history = append(a.history, point{a.X, a.Y})
	if len(a.history) < historyLength {
		return
	}

	minX, maxX := a.history[0].x, a.history[0].x
	minY, maxY := a.history[0].y, a.history[0].y
	for _, p := range a.history[1:] {
		minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
		minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
	}

	if maxX-minX < stuckExtent && maxY-minY < stuckExtent {
		a.stuckCounter++
	} else {
		a.stuckCounter = 0
	}
	a.IsStuck = a.stuckCounter > stuckThreshold
}

// move steps forward along the heading, bouncing off the walls, then adds a
// direct pull towards the visible target. The pull is applied after the wall
// check and is not clamped, so it may leave the agent slightly outside.
func (a *Agent) move(dt float64, target *Food, normDistance, pullModifier float64) {
	step := a.Speed * dt
	newX := a.X + math.Cos(a.Direction)*step
	newY := a.Y + math.Sin(a.Direction)*step

	if newX < a.Radius {
		newX = a.Radius + 1
		a.Direction = math.Pi - a.Direction
	} else if newX > a.env.Width-a.Radius {
		newX = a.env.Width - a.Radius - 1
		a.Direction = math.Pi - a.Direction
	}

	if newY < a.Radius {
		newY = a.Radius + 1
		a.Direction = -a.Direction
	} else if newY > a.env.Height-a.Radius {
		newY = a.env.Height - a.Radius - 1
		a.Direction = -a.Direction
	}

	if target != nil {
		pull := movePull * (1 - normDistance) * pullModifier
		newX += pull * (target.X - a.X)
		newY += pull * (target.Y - a.Y)
	}

	a.X = newX
	a.Y = newY
}

// CheckFoodCollision reports whether a living agent overlaps the food.
func (a *Agent) CheckFoodCollision(f *Food) bool {
	if !a.Alive {
		return false
	}
	return math.Hypot(f.X-a.X, f.Y-a.Y) < a.Radius+f.Radius
}

// Fitness is ten points per food eaten.
func (a *Agent) Fitness() float64 {
	return 10 * float64(a.FoodEaten)
}
