// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package force

import "strconv"

// Config has the scalar hyperparameters of a training run.
// Field tags give the defaults used by econfig in the example programs.
type Config struct {

	// number of units per area
	N int `default:"100" min:"1"`

	// leak time constant
	Tau float64 `default:"1"`

	// integration time step
	Dt float64 `default:"0.1"`

	// recurrent coupling scale -- > 1 is chaotic
	G float64 `default:"1.5"`

	// RLS ridge parameter: P(0) = I / Alpha
	Alpha float64 `default:"1"`

	// recurrent connection probability
	Sparsity float64 `default:"1"`

	// range of the uniform per-unit drive gains, 0 = no gain
	GainRange float64 `default:"1"`

	// std of the initial state
	X0Std float64 `default:"0.5"`

	// feedforward projection scale
	FFScale float64 `default:"1"`

	// feedforward connection probability
	FFSparsity float64 `default:"1"`

	// learn recurrent weights as well as readouts
	LearnJ bool `default:"true"`

	// number of training epochs
	Epochs int `default:"10" min:"1"`

	// random seed for all weights and initial states
	Seed uint64 `default:"1"`

	// number of threads for stepping independent areas in parallel
	NThreads int `default:"1" min:"1"`
}

// Defaults sets the default values, matching the default tags
func (cf *Config) Defaults() {
	cf.N = 100
	cf.Tau = 1
	cf.Dt = 0.1
	cf.G = 1.5
	cf.Alpha = 1
	cf.Sparsity = 1
	cf.GainRange = 1
	cf.X0Std = 0.5
	cf.FFScale = 1
	cf.FFSparsity = 1
	cf.LearnJ = true
	cf.Epochs = 10
	cf.Seed = 1
	cf.NThreads = 1
}

// Validate returns an ErrConfiguration error for non-positive tau, dt,
// alpha, size or epochs, or sparsities outside (0,1].
func (cf *Config) Validate() error {
	switch {
	case cf.N <= 0:
		return cfgErr("N must be > 0, got %d", cf.N)
	case !(cf.Tau > 0):
		return cfgErr("Tau must be > 0, got %g", cf.Tau)
	case !(cf.Dt > 0):
		return cfgErr("Dt must be > 0, got %g", cf.Dt)
	case !(cf.Alpha > 0):
		return cfgErr("Alpha must be > 0, got %g", cf.Alpha)
	case cf.Epochs < 1:
		return cfgErr("Epochs must be >= 1, got %d", cf.Epochs)
	case !(cf.Sparsity > 0 && cf.Sparsity <= 1):
		return cfgErr("Sparsity must be in (0,1], got %g", cf.Sparsity)
	case !(cf.FFSparsity > 0 && cf.FFSparsity <= 1):
		return cfgErr("FFSparsity must be in (0,1], got %g", cf.FFSparsity)
	}
	return nil
}

// ApplyArea sets the area parameters from the config
func (cf *Config) ApplyArea(ar *Area) {
	ap := &ar.Params
	ap.Dt.Tau = cf.Tau
	ap.Dt.Dt = cf.Dt
	ap.Init.G = cf.G
	ap.Init.Sparsity = cf.Sparsity
	ap.Init.GainRange = cf.GainRange
	ap.Init.X0Std = cf.X0Std
	ap.Learn.LearnJ = cf.LearnJ
	ap.Learn.RLS.Alpha = cf.Alpha
	ap.Update()
}

// Apply sets the parameters of all areas and projections of the chain
func (cf *Config) Apply(ch *Chain) {
	for _, ar := range ch.Areas {
		cf.ApplyArea(ar)
	}
	ch.Prj.Scale = cf.FFScale
	ch.Prj.Sparsity = cf.FFSparsity
}

// NewBranchChain returns the standard two-branch architecture: a ventral
// pathway of nStages areas V1 -> V2 -> ... with a learned readout on the
// last one, plus a dorsal area D driven by the rate of the second-to-last
// ventral area with its own readout.  Intermediate ventral areas learn
// from the ventral readout error.  nStages must be >= 2.
// The chain is configured from cf, built and initialized with cf.Seed.
func NewBranchChain(cf *Config, nStages, inDim, outDim int) (*Chain, error) {
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	if nStages < 2 {
		return nil, cfgErr("branch chain needs at least 2 ventral stages, got %d", nStages)
	}
	ch := NewChain("Branch")
	prv := ""
	for i := 1; i <= nStages; i++ {
		nm := "V" + strconv.Itoa(i)
		ro := ReadoutNone
		if i == nStages {
			ro = ReadoutWeights
		}
		ch.AddArea(nm, cf.N, prv, ro)
		prv = nm
	}
	ch.AddArea("D", cf.N, "V"+strconv.Itoa(nStages-1), ReadoutWeights)
	return finishChain(ch, cf, inDim, outDim)
}

// NewSeriesChain returns a single pathway of nStages areas with a
// learned readout on the last one.
func NewSeriesChain(cf *Config, nStages, inDim, outDim int) (*Chain, error) {
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	if nStages < 1 {
		return nil, cfgErr("series chain needs at least 1 stage, got %d", nStages)
	}
	ch := NewChain("Series")
	prv := ""
	for i := 1; i <= nStages; i++ {
		nm := "A" + strconv.Itoa(i)
		ro := ReadoutNone
		if i == nStages {
			ro = ReadoutWeights
		}
		ch.AddArea(nm, cf.N, prv, ro)
		prv = nm
	}
	return finishChain(ch, cf, inDim, outDim)
}

func finishChain(ch *Chain, cf *Config, inDim, outDim int) (*Chain, error) {
	cf.Apply(ch)
	if err := ch.Build(inDim, outDim); err != nil {
		return nil, err
	}
	if cf.NThreads > 1 {
		ch.ThreadAlloc(cf.NThreads)
	}
	if err := ch.Init(cf.Seed); err != nil {
		return nil, err
	}
	return ch, nil
}
