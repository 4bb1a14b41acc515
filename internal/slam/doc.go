// Package slam is the root of the grid exploration simulation.
//
// The core is split into layers, leaf first:
//
//	params     immutable numeric configuration shared by every layer
//	world      ground-truth Grid (Floor/Wall), rooms, procedural generator
//	raycast    ray plan and visibility caster
//	occupancy  tri-state belief map updated from scans
//	agent      pose, kinematics, noise, Truth/Belief roles
//	localize   scan-agreement scoring and pose correction
//	session    per-tick orchestration of the above
//
// Dependency rule: a layer may import the layers listed above it, never
// below. eval, render, plot, storage and monitor sit outside the core and
// only read its state.
package slam
