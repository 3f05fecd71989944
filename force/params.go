// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package force

import (
	"math"

	"github.com/emer/force/rls"
)

///////////////////////////////////////////////////////////////////////
//  params.go contains the per-area parameters

// AreaParams are all the parameters for one Area.
type AreaParams struct {

	// time constants for leaky integration of the state
	Dt DtParams `view:"inline"`

	// random initialization of recurrent weights and initial state
	Init InitParams `view:"inline"`

	// RLS learning of recurrent and readout weights
	Learn LearnParams `view:"inline"`
}

func (ap *AreaParams) Defaults() {
	ap.Dt.Defaults()
	ap.Init.Defaults()
	ap.Learn.Defaults()
}

// Update must be called after any changes to parameters
func (ap *AreaParams) Update() {
	ap.Dt.Update()
	ap.Init.Update()
	ap.Learn.Update()
}

// Validate returns an ErrConfiguration error for invalid parameters.
func (ap *AreaParams) Validate() error {
	if err := ap.Dt.Validate(); err != nil {
		return err
	}
	if err := ap.Init.Validate(); err != nil {
		return err
	}
	return ap.Learn.Validate()
}

// DtParams are the leaky integration time constants.
// Rate = Dt / Tau is the fraction of the new input integrated each step,
// and Rate = 1 is a memoryless update.
type DtParams struct {

	// leak time constant
	Tau float64 `def:"1" min:"0"`

	// integration time step
	Dt float64 `def:"0.1" min:"0"`

	// Dt / Tau
	Rate float64 `view:"-" json:"-" xml:"-"`

	// 1 - Rate
	Leak float64 `view:"-" json:"-" xml:"-"`
}

func (dp *DtParams) Defaults() {
	dp.Tau = 1
	dp.Dt = 0.1
	dp.Update()
}

// Update must be called after any changes to parameters
func (dp *DtParams) Update() {
	if dp.Tau > 0 {
		dp.Rate = dp.Dt / dp.Tau
	}
	dp.Leak = 1 - dp.Rate
}

func (dp *DtParams) Validate() error {
	if !(dp.Tau > 0) {
		return cfgErr("Tau must be > 0, got %g", dp.Tau)
	}
	if !(dp.Dt > 0) {
		return cfgErr("Dt must be > 0, got %g", dp.Dt)
	}
	return nil
}

// InitParams control the random initialization of an Area.
type InitParams struct {

	// coupling scale: recurrent weights are normal with std G / sqrt(Sparsity * N).
	// G > 1 gives chaotic spontaneous dynamics.
	G float64 `def:"1.5" min:"0"`

	// probability that a recurrent connection exists
	Sparsity float64 `def:"1" min:"0" max:"1"`

	// std of the normal initial state X0
	X0Std float64 `def:"0.5" min:"0"`

	// if > 0, per-unit drive gains are uniform in [-GainRange, GainRange]; 0 = no gain (all 1)
	GainRange float64 `def:"1" min:"0"`
}

func (ip *InitParams) Defaults() {
	ip.G = 1.5
	ip.Sparsity = 1
	ip.X0Std = 0.5
	ip.GainRange = 1
}

// Update must be called after any changes to parameters
func (ip *InitParams) Update() {
}

func (ip *InitParams) Validate() error {
	if !(ip.Sparsity > 0 && ip.Sparsity <= 1) {
		return cfgErr("Sparsity must be in (0,1], got %g", ip.Sparsity)
	}
	if ip.G < 0 || ip.X0Std < 0 || ip.GainRange < 0 {
		return cfgErr("G, X0Std and GainRange must be >= 0")
	}
	return nil
}

// JStd returns the std of the recurrent weights for n units
func (ip *InitParams) JStd(n int) float64 {
	return ip.G / math.Sqrt(ip.Sparsity*float64(n))
}

// LearnParams control RLS learning for an Area.
type LearnParams struct {

	// learn the recurrent weights J from the error
	LearnJ bool `def:"true"`

	// learn the readout weights W (ReadoutWeights areas only)
	LearnW bool `def:"true"`

	// recursive least squares parameters
	RLS rls.Params `view:"inline"`
}

func (lp *LearnParams) Defaults() {
	lp.LearnJ = true
	lp.LearnW = true
	lp.RLS.Defaults()
}

// Update must be called after any changes to parameters
func (lp *LearnParams) Update() {
	lp.RLS.Update()
}

func (lp *LearnParams) Validate() error {
	if err := lp.RLS.Validate(); err != nil {
		return cfgErr("%v", err)
	}
	return nil
}
