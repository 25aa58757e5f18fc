package neuroevo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = 1.0 / 60.0

func newTestAgent(t *testing.T, x, y float64, seed int64) *Agent {
	t.Helper()
	cfg := DefaultConfig()
	env := &Environment{Width: cfg.Simulation.Width, Height: cfg.Simulation.Height}
	a, err := NewAgent(x, y, env, nil, cfg.Agent, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return a
}

// forceAction wires the brain so that its outputs always favour action.
func forceAction(a *Agent, action Action) {
	for i := range a.Brain.Weights {
		a.Brain.Weights[i].Zero()
		a.Brain.Biases[i].Zero()
	}
	last := a.Brain.Biases[len(a.Brain.Biases)-1]
	for j := 0; j < 3; j++ {
		last.Set(0, j, -10)
	}
	last.Set(0, int(action), 10)
}

func TestNewAgentDefaults(t *testing.T) {
	a := newTestAgent(t, 100, 200, 1)

	assert.True(t, a.Alive)
	assert.Equal(t, 100.0, a.Energy)
	assert.Equal(t, 100.0, a.X)
	assert.Equal(t, 200.0, a.Y)
	assert.GreaterOrEqual(t, a.Direction, 0.0)
	assert.Less(t, a.Direction, 2*math.Pi)
	assert.InDelta(t, math.Pi, a.VisionAngle, 1e-12)
	assert.Equal(t, BrainLayers, a.Brain.LayerSizes)
}

func TestUpdateDeadAgentIsNoop(t *testing.T) {
	a := newTestAgent(t, 100, 100, 1)
	a.Alive = false
	a.Energy = 42
	before := *a

	require.NoError(t, a.Update(nil, frame))
	assert.Equal(t, before.X, a.X)
	assert.Equal(t, before.Y, a.Y)
	assert.Equal(t, before.Direction, a.Direction)
	assert.Equal(t, 42.0, a.Energy)
}

func TestEnergyDrainsAtFixedRate(t *testing.T) {
	a := newTestAgent(t, 400, 400, 1)
	forceAction(a, TurnLeft)

	require.NoError(t, a.Update(nil, frame))
	assert.InDelta(t, 99.9, a.Energy, 1e-9)

	// half the tick rate drains twice as much per tick
	require.NoError(t, a.Update(nil, 2*frame))
	assert.InDelta(t, 99.7, a.Energy, 1e-9)
}

func TestAgentDiesWhenEnergyRunsOut(t *testing.T) {
	a := newTestAgent(t, 400, 400, 1)
	a.Energy = 0.05
	x, y, dir := a.X, a.Y, a.Direction

	require.NoError(t, a.Update(nil, frame))
	assert.False(t, a.Alive)
	assert.Equal(t, x, a.X)
	assert.Equal(t, y, a.Y)
	assert.Equal(t, dir, a.Direction)

	assert.False(t, a.CheckFoodCollision(&Food{X: a.X, Y: a.Y, Radius: 5}))
}

// zeroBrain makes every raw output exactly sigmoid(0) = 0.5.
func zeroBrain(a *Agent) {
	for i := range a.Brain.Weights {
		a.Brain.Weights[i].Zero()
		a.Brain.Biases[i].Zero()
	}
}

func TestFoodBiasTurnsTowardsFood(t *testing.T) {
	tests := []struct {
		name  string
		food  Food
		want  Action
		never Action
	}{
		{"food on the left", Food{X: 430, Y: 380, Radius: 5}, TurnLeft, TurnRight},
		{"food on the right", Food{X: 430, Y: 420, Radius: 5}, TurnRight, TurnLeft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns := 0
			for seed := int64(1); seed <= 40; seed++ {
				a := newTestAgent(t, 400, 400, seed)
				zeroBrain(a)
				a.Direction = 0
				food := tt.food

				require.NoError(t, a.Update([]*Food{&food}, frame))
				require.NotEqual(t, tt.never, a.LastAction, "seed %d", seed)
				if a.LastAction == tt.want {
					turns++
				}
				// the bias works on a copy of the brain output
				assert.Equal(t, []float64{0.5, 0.5, 0.5}, a.LastOutputs)
			}
			// only the random forward override may win over the biased turn
			assert.GreaterOrEqual(t, turns, 32)
		})
	}
}

func TestFoodBiasFavoursForward(t *testing.T) {
	food := &Food{X: 430, Y: 380, Radius: 5}
	pull := 0.5 * (1 - math.Hypot(30, 20)/120)
	// raw forward sits between the left output with and without the bias
	forward := 0.5 + 0.5*pull

	for seed := int64(1); seed <= 20; seed++ {
		a := newTestAgent(t, 400, 400, seed)
		zeroBrain(a)
		last := a.Brain.Biases[len(a.Brain.Biases)-1]
		last.Set(0, int(TurnRight), -10)
		last.Set(0, int(MoveForward), math.Log(forward/(1-forward)))
		a.Direction = 0

		require.NoError(t, a.Update([]*Food{food}, frame))
		require.Same(t, food, a.Target)
		assert.Equal(t, MoveForward, a.LastAction, "seed %d", seed)
	}
}

func TestStuckAgentPullsHarder(t *testing.T) {
	pullStep := func(a *Agent) float64 {
		t.Helper()
		food := &Food{X: 460, Y: 400, Radius: 5}
		a.X, a.Y = 400, 400
		a.Direction = 0
		require.NoError(t, a.Update([]*Food{food}, frame))
		require.Equal(t, MoveForward, a.LastAction)
		assert.InDelta(t, 400, a.Y, 1e-9)
		return a.X - 400
	}

	free := newTestAgent(t, 400, 400, 4)
	forceAction(free, MoveForward)
	free.Speed = 0
	freeStep := pullStep(free)
	require.False(t, free.IsStuck)
	// 0.25 * (1 - 60/120) * 60
	assert.InDelta(t, 7.5, freeStep, 1e-9)

	stuck := newTestAgent(t, 400, 400, 4)
	forceAction(stuck, MoveForward)
	stuck.Speed = 0
	for i := 0; i < 25; i++ {
		stuck.X, stuck.Y = 400, 400
		require.NoError(t, stuck.Update(nil, frame))
	}
	require.True(t, stuck.IsStuck)

	assert.InDelta(t, 3*freeStep, pullStep(stuck), 1e-9)
	assert.True(t, stuck.IsStuck)
}

func TestRandomForwardOverride(t *testing.T) {
	a := newTestAgent(t, 400, 400, 12)
	forceAction(a, TurnLeft)

	const updates = 4000
	forward := 0
	for i := 0; i < updates; i++ {
		a.X, a.Y = 400, 400
		a.Energy = 100
		require.NoError(t, a.Update(nil, frame))
		switch a.LastAction {
		case MoveForward:
			forward++
		case TurnRight:
			t.Fatalf("update %d turned right", i)
		}
	}
	assert.InDelta(t, 0.05, float64(forward)/updates, 0.015)
}

func TestInputsWithoutVisibleFood(t *testing.T) {
	a := newTestAgent(t, 400, 400, 1)
	a.Direction = 0
	behind := &Food{X: 350, Y: 400, Radius: 5}
	far := &Food{X: 600, Y: 400, Radius: 5}

	require.NoError(t, a.Update([]*Food{behind, far}, frame))
	assert.Nil(t, a.Target)
	assert.Equal(t, 1.0, a.LastInputs[0])
	assert.Equal(t, 0.0, a.LastInputs[1])
	assert.InDelta(t, 0.999, a.LastInputs[2], 1e-9)
	assert.Len(t, a.LastOutputs, 3)
}

func TestNearestVisibleFood(t *testing.T) {
	a := newTestAgent(t, 100, 100, 1)
	a.Direction = 0
	farther := &Food{X: 150, Y: 100, Radius: 5}
	nearer := &Food{X: 130, Y: 100, Radius: 5}

	require.NoError(t, a.Update([]*Food{farther, nearer}, frame))
	assert.Same(t, nearer, a.Target)
	assert.InDelta(t, 30.0/120.0, a.LastInputs[0], 1e-12)
	assert.InDelta(t, 0, a.LastInputs[1], 1e-12)
}

func TestNearestVisibleFoodTieGoesToFirst(t *testing.T) {
	a := newTestAgent(t, 100, 100, 1)
	a.Direction = 0
	ahead := &Food{X: 130, Y: 100, Radius: 5}
	side := &Food{X: 100, Y: 130, Radius: 5}

	target, dist, _ := a.nearestVisibleFood([]*Food{ahead, side})
	assert.Same(t, ahead, target)
	assert.Equal(t, 30.0, dist)

	target, _, angle := a.nearestVisibleFood([]*Food{side, ahead})
	assert.Same(t, side, target)
	assert.InDelta(t, math.Pi/2, angle, 1e-12)
}

func TestFoodAngleIsSigned(t *testing.T) {
	a := newTestAgent(t, 100, 100, 1)
	a.Direction = 0

	_, _, angle := a.nearestVisibleFood([]*Food{{X: 130, Y: 80, Radius: 5}})
	assert.Less(t, angle, 0.0)

	_, _, angle = a.nearestVisibleFood([]*Food{{X: 130, Y: 120, Radius: 5}})
	assert.Greater(t, angle, 0.0)
}

func TestVisionConeAcrossHeadingWrap(t *testing.T) {
	a := newTestAgent(t, 100, 100, 1)
	a.Direction = 2*math.Pi - 0.1
	f := &Food{X: 150, Y: 105, Radius: 5}

	target, _, angle := a.nearestVisibleFood([]*Food{f})
	require.Same(t, f, target)
	assert.InDelta(t, math.Atan2(5, 50)+0.1, angle, 1e-9)
}

func TestStuckDetection(t *testing.T) {
	a := newTestAgent(t, 400, 400, 3)

	for i := 1; i <= 25; i++ {
		a.X, a.Y = 400, 400
		require.NoError(t, a.Update(nil, frame))
		if i < 25 {
			require.False(t, a.IsStuck, "stuck too early at update %d", i)
		}
	}
	assert.True(t, a.IsStuck)
	assert.Len(t, a.history, historyLength)
}

func TestStuckClearsWhenAgentMoves(t *testing.T) {
	a := newTestAgent(t, 400, 400, 3)
	for i := 0; i < 30; i++ {
		a.X, a.Y = 400, 400
		require.NoError(t, a.Update(nil, frame))
	}
	require.True(t, a.IsStuck)

	a.X, a.Y = 600, 400
	require.NoError(t, a.Update(nil, frame))
	assert.False(t, a.IsStuck)
	assert.Zero(t, a.stuckCounter)
}

func TestMoveForwardAlongHeading(t *testing.T) {
	a := newTestAgent(t, 400, 400, 1)
	forceAction(a, MoveForward)
	a.Direction = 0

	require.NoError(t, a.Update(nil, frame))
	assert.Equal(t, MoveForward, a.LastAction)
	assert.InDelta(t, 400+100*frame, a.X, 1e-9)
	assert.InDelta(t, 400, a.Y, 1e-9)
}

func TestTurnActions(t *testing.T) {
	a := newTestAgent(t, 400, 400, 1)
	a.Direction = 1

	// the 5% forward override is random; retry until the turn happens
	forceAction(a, TurnRight)
	for a.LastAction != TurnRight {
		a.Direction = 1
		require.NoError(t, a.Update(nil, frame))
	}
	assert.InDelta(t, 1+3.0*frame, a.Direction, 1e-9)

	forceAction(a, TurnLeft)
	a.Direction = 0
	for a.LastAction != TurnLeft {
		a.Direction = 0
		require.NoError(t, a.Update(nil, frame))
	}
	assert.InDelta(t, 2*math.Pi-3.0*frame, a.Direction, 1e-9)
}

func TestBoundaryReflectionHorizontal(t *testing.T) {
	a := newTestAgent(t, 0, 300, 1)
	forceAction(a, MoveForward)
	a.X = a.Radius - 1
	a.Direction = math.Pi

	require.NoError(t, a.Update(nil, frame))
	assert.Equal(t, a.Radius+1, a.X)
	assert.InDelta(t, 300, a.Y, 1e-9)
	// π - π
	assert.InDelta(t, 0, a.Direction, 1e-12)
}

func TestBoundaryReflectionAppliesWhileHeadingInward(t *testing.T) {
	a := newTestAgent(t, 0, 300, 1)
	forceAction(a, MoveForward)
	// one step at direction 0 is 100/60 units, not enough to clear the edge
	a.X = a.Radius - 3
	a.Direction = 0

	require.NoError(t, a.Update(nil, frame))
	assert.Equal(t, a.Radius+1, a.X)
	assert.InDelta(t, math.Pi, a.Direction, 1e-12)
}

func TestBoundaryReflectionRightWall(t *testing.T) {
	a := newTestAgent(t, 0, 300, 1)
	forceAction(a, MoveForward)
	a.X = a.env.Width - a.Radius
	a.Direction = 0

	require.NoError(t, a.Update(nil, frame))
	assert.Equal(t, a.env.Width-a.Radius-1, a.X)
	assert.InDelta(t, math.Pi, a.Direction, 1e-12)
}

func TestBoundaryReflectionVertical(t *testing.T) {
	a := newTestAgent(t, 300, 0, 1)
	forceAction(a, MoveForward)
	a.Y = a.Radius - 1
	a.Direction = 3 * math.Pi / 2

	require.NoError(t, a.Update(nil, frame))
	assert.Equal(t, a.Radius+1, a.Y)
	assert.InDelta(t, math.Pi/2, a.Direction, 1e-9)
}

func TestFoodPullIsNotClamped(t *testing.T) {
	a := newTestAgent(t, 0, 300, 1)
	forceAction(a, MoveForward)
	a.X = a.Radius + 0.5
	a.Direction = math.Pi
	// food beyond the wall, straight ahead
	f := &Food{X: -60, Y: 300, Radius: 5}

	require.NoError(t, a.Update([]*Food{f}, frame))
	require.Same(t, f, a.Target)
	// the bounce puts the agent at radius+1; the pull then takes it past the wall
	assert.Less(t, a.X, a.Radius)
}

func TestCheckFoodCollision(t *testing.T) {
	a := newTestAgent(t, 100, 100, 1)

	assert.True(t, a.CheckFoodCollision(&Food{X: 114, Y: 100, Radius: 5}))
	assert.False(t, a.CheckFoodCollision(&Food{X: 115, Y: 100, Radius: 5}))
}

func TestFitnessIsMonotonic(t *testing.T) {
	a := newTestAgent(t, 400, 400, 9)
	foods := []*Food{{X: 420, Y: 400, Radius: 5}, {X: 380, Y: 410, Radius: 5}}

	last := a.Fitness()
	for i := 0; i < 200; i++ {
		require.NoError(t, a.Update(foods, frame))
		f := a.Fitness()
		require.GreaterOrEqual(t, f, last)
		last = f
	}

	a.FoodEaten = 3
	assert.Equal(t, 30.0, a.Fitness())
}

func TestNormalizeAngles(t *testing.T) {
	assert.InDelta(t, -math.Pi/2, normalizeAngle(3*math.Pi/2), 1e-12)
	assert.InDelta(t, math.Pi, normalizeAngle(-math.Pi), 1e-12)
	assert.InDelta(t, math.Pi, normalizeAngle(math.Pi), 1e-12)

	assert.InDelta(t, 3*math.Pi/2, normalizeHeading(-math.Pi/2), 1e-12)
	assert.InDelta(t, 0.5, normalizeHeading(4*math.Pi+0.5), 1e-12)
	assert.Equal(t, 0.0, normalizeHeading(0))
}
