// rand/rand.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package rand provides a small deterministic PRNG, one instance per
// long-lived worker task, so that a fixed master seed reproduces an
// identical simulation run across goroutines.
package rand

import (
	"github.com/MichaelTJones/pcg"
)

// fixed increment per the PCG paper's recommended default stream.
const pcgIncrement = 0xda3e39cb94b95bdb

// Rand wraps a pcg.PCG32 generator. The zero value is usable but
// unseeded (equivalent to Seed(0)); call Seed for deterministic runs.
type Rand struct {
	pcg *pcg.PCG32
}

// New returns a Rand seeded from a random (the actual value doesn't
// matter for correctness, only reproducibility) hardware source.
func New() Rand {
	var r Rand
	r.pcg = pcg.NewPCG32()
	return r
}

// Seed deterministically seeds the generator from s, so that two Rand
// instances constructed with the same seed produce identical sequences.
func (r *Rand) Seed(s int64) {
	if r.pcg == nil {
		r.pcg = pcg.NewPCG32()
	}
	r.pcg.Seed(uint64(s), pcgIncrement)
}

// Uint32 returns a uniformly-distributed pseudo-random uint32.
func (r *Rand) Uint32() uint32 {
	if r.pcg == nil {
		r.pcg = pcg.NewPCG32()
	}
	return r.pcg.Random()
}

// Intn returns a pseudo-random int in [0, n).
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Uint32() % uint32(n))
}

// Int31n returns a pseudo-random int32 in [0, n).
func (r *Rand) Int31n(n int32) int32 {
	if n <= 0 {
		return 0
	}
	return int32(r.Uint32() % uint32(n))
}

// Float64 returns a pseudo-random float64 in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.Uint32()) / (1 << 32)
}

// Float32 returns a pseudo-random float32 in [0, 1).
func (r *Rand) Float32() float32 {
	return float32(r.Float64())
}

// NormFloat64 approximates a standard-normal sample via a small sum of
// uniforms (an Irwin-Hall approximation); used for the small, bounded
// speed jitter the aircraft update loop applies, where exact normality
// doesn't matter but boundedness does.
func (r *Rand) NormFloat64() float64 {
	var sum float64
	const n = 12
	for i := 0; i < n; i++ {
		sum += r.Float64()
	}
	return sum - float64(n)/2
}

// PermutationElement returns the i'th element (0 <= i < n) of a
// pseudo-random permutation of [0,n) determined by p, using Andrew
// Kensler's hash-based permutation algorithm. Useful for iterating over a
// roster or fleet in a shuffled-but-deterministic order without
// allocating a full permutation slice.
func PermutationElement(i, n int, p uint32) int {
	w := uint32(n) - 1
	w |= w >> 1
	w |= w >> 2
	w |= w >> 4
	w |= w >> 8
	w |= w >> 16

	ui := uint32(i)
	for {
		ui ^= p
		ui *= 0xe170893d
		ui ^= p >> 16
		ui ^= (ui & w) >> 4
		ui ^= p >> 8
		ui *= 0x0929eb3f
		ui ^= p >> 23
		ui ^= (ui & w) >> 1
		ui *= 1 | p>>27
		ui *= 0x6935fa69
		ui ^= (ui & w) >> 11
		ui *= 0x74dcb303
		ui ^= (ui & w) >> 2
		ui *= 0x9e501cc3
		ui ^= (ui & w) >> 2
		ui *= 0xc860a3df
		ui &= w
		ui ^= ui >> 5
		if ui < uint32(n) {
			break
		}
	}
	return int((ui + p) % uint32(n))
}
