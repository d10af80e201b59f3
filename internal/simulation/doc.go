// Package simulation provides a multi-epoch test harness for validating
// emergent dynamics of the governance engine.
//
// The simulation exercises the real Engine, policy, and settlement code
// with no mocks. Scenarios are Go builders that construct an initial
// token distribution and run a configurable number of epochs, capturing
// every state snapshot for property-based assertions.
//
// Usage:
//
//	func TestConservation(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:      "conservation",
//	        NumUsers:  20,
//	        NumEpochs: 50,
//	        Seed:      1,
//	    })
//	    simulation.AssertConservation(t, result)
//	}
package simulation
