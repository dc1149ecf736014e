// Package orchestrator wires the loader → adapter → synthesizer → code
// generator pipeline behind a single entry point.
package orchestrator
