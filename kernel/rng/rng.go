// Package rng provides the kernel entropy source and the general purpose
// pseudo-random generator seeded from it.
package rng

import (
	"encoding/binary"
	"math/rand/v2"

	"includeos/kernel"
	"includeos/kernel/kfmt"
)

// EntropyFn fills p with random bytes from a hardware or platform source.
type EntropyFn func(p []byte) error

var (
	// panicFn is mocked by tests.
	panicFn = kfmt.Panic

	errNoEntropy = &kernel.Error{Module: "rng", Message: "entropy source unavailable", Kind: kernel.KindCollaborator}
)

// Generator couples an entropy source with a seeded pseudo-random generator.
type Generator struct {
	source EntropyFn
	prng   *rand.Rand
}

// Init attaches the entropy source and verifies that it can produce data.
// A source that fails is an unrecoverable error.
func (g *Generator) Init(source EntropyFn) {
	g.source = source

	var probe [4]byte
	if source == nil || source(probe[:]) != nil {
		g.source = nil
		panicFn(errNoEntropy)
	}
}

// ExtractUint32 returns 32 bits of entropy.
func (g *Generator) ExtractUint32() uint32 {
	var buf [4]byte
	if g.source == nil || g.source(buf[:]) != nil {
		panicFn(errNoEntropy)
		return 0
	}
	return binary.LittleEndian.Uint32(buf[:])
}

// Seed (re)seeds the pseudo-random generator.
func (g *Generator) Seed(seed uint32) {
	g.prng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)<<32|uint64(^seed)))
}

// Rand returns the seeded pseudo-random generator. It returns nil until Seed
// has been called.
func (g *Generator) Rand() *rand.Rand {
	return g.prng
}
