// Package neuroevo simulates foraging agents in a 2D arena and evolves their
// neural network brains with a fitness-proportional genetic algorithm.
//
// Every agent carries a fixed [3, 8, 3] sigmoid network. It senses the nearest
// food inside its vision cone, picks one of three actions (turn left, turn
// right, move forward) and loses energy over time. Fitness is ten points per
// food eaten. When every agent is dead or the generation times out, the fittest
// brain is carried over unchanged and the rest of the population is bred by
// roulette-wheel selection, uniform crossover and Gaussian mutation.
//
// The implementation lives in the neuroevo subpackage; examples/arena is a
// headless command-line driver.
//
// Basic usage:
//
//	// Load configuration (DefaultConfig works too)
//	config, err := neuroevo.LoadConfig("path/to/arena-config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Create the simulation
//	sim, err := neuroevo.NewSimulation(config, rand.New(rand.NewSource(1)), slog.Default())
//	if err != nil {
//		log.Fatalf("Error creating simulation: %v", err)
//	}
//
//	// Run 100 generations, one tick at a time
//	for sim.Generation <= 100 {
//		if err := sim.Step(config.Simulation.TimeStep); err != nil {
//			log.Fatalf("Error stepping simulation: %v", err)
//		}
//	}
//	fmt.Println("Best fitness:", sim.Status().BestFitness)
package neuroevo
