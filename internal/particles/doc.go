// Package particles simulates an ambient field of point particles drawn
// toward the pointer.
//
// A [Field] is advanced one frame at a time with [Field.Step]. Each step
// applies, per particle and in this order:
//
//  1. attraction toward an active pointer within the interaction radius
//  2. integration of velocity into position
//  3. reflection off the bounds, with damping, and clamping into them
//  4. friction
//
// Swapping steps 3 and 4 changes how much energy a bounce keeps, so the
// order is part of the contract.
//
// The field never owns its frame loop. Hosts either call Step directly or
// [Field.Attach] it to a [FrameSource] which also renders onto a [Surface].
package particles
