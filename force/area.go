// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package force

import (
	"math"

	"github.com/emer/force/rls"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Area is one leaky-integrator recurrent network with its own state,
// recurrent weights, optional readout weights and RLS inverse correlation.
// All of its matrices are written only by its own methods.
type Area struct {

	// name of the area -- must be unique within the Chain
	Name string

	// number of units
	N int

	// name of the upstream area providing the drive, or empty for the external input
	From string

	// how this area produces output compared against the target
	Readout ReadoutTypes

	// for ReadoutNone, name of the area whose error drives learning here
	ErrorFrom string

	// thread to run on, for parallel stepping of independent areas
	Thr int

	// all the parameters
	Params AreaParams

	// lifecycle state
	State States `inactive:"+"`

	// output (target) dimension, set in Chain.Build
	OutDim int `inactive:"+"`

	// initial state, fixed at Init and restored at the start of every epoch and evaluation
	X0 *mat.VecDense `view:"-"`

	// current state
	X *mat.VecDense `view:"-"`

	// current rate = tanh(X)
	R *mat.VecDense `view:"-"`

	// drive(t-1) used by the current step
	Drive *mat.VecDense `view:"-"`

	// per-unit gain on the drive, nil = 1
	Gain *mat.VecDense `view:"-"`

	// recurrent weights, N x N: rows receive, columns send
	J *mat.Dense `view:"-"`

	// readout weights, N x OutDim, ReadoutWeights only
	W *mat.Dense `view:"-"`

	// output for the current step: W' r or r
	Z *mat.VecDense `view:"-"`

	// output error Z - target for the current step
	Err *mat.VecDense `view:"-"`

	// running inverse correlation of the rate
	RLS *rls.State `view:"-"`

	// upstream area, set in Chain.Build
	Up *Area `view:"-"`

	// projection from upstream area, set in Chain.Build
	Prj *Projection `view:"-"`

	// area whose error is used for learning, set in Chain.Build
	ErrSrc *Area `view:"-"`

	// J r scratch
	net *mat.VecDense
}

// NewArea returns a new Area with default parameters.
func NewArea(name string, n int, from string, readout ReadoutTypes) *Area {
	ar := &Area{Name: name, N: n, From: from, Readout: readout}
	ar.Params.Defaults()
	return ar
}

// IsInput returns true if the area is driven by the external input
func (ar *Area) IsInput() bool {
	return ar.From == ""
}

// HasOutput returns true if the area produces its own output
func (ar *Area) HasOutput() bool {
	return ar.Readout != ReadoutNone
}

// Build allocates the state and weights for given output dimension.
func (ar *Area) Build(outDim int) error {
	if ar.N <= 0 {
		return dimErr("area %s: N must be > 0, got %d", ar.Name, ar.N)
	}
	ar.Params.Update()
	if err := ar.Params.Validate(); err != nil {
		return err
	}
	ar.OutDim = outDim
	n := ar.N
	ar.X0 = mat.NewVecDense(n, nil)
	ar.X = mat.NewVecDense(n, nil)
	ar.R = mat.NewVecDense(n, nil)
	ar.Drive = mat.NewVecDense(n, nil)
	ar.net = mat.NewVecDense(n, nil)
	ar.J = mat.NewDense(n, n, nil)
	ar.W = nil
	ar.Z = nil
	ar.Err = nil
	switch ar.Readout {
	case ReadoutWeights:
		ar.W = mat.NewDense(n, outDim, nil)
		ar.Z = mat.NewVecDense(outDim, nil)
		ar.Err = mat.NewVecDense(outDim, nil)
	case ReadoutRate:
		if outDim != n {
			return dimErr("area %s: rate readout needs target dim %d == N %d", ar.Name, outDim, n)
		}
		ar.Z = mat.NewVecDense(outDim, nil)
		ar.Err = mat.NewVecDense(outDim, nil)
	}
	ar.RLS = rls.NewState(n, ar.Params.Learn.RLS.Alpha)
	ar.State = Uninitialized
	return nil
}

// InitWeights samples the recurrent weights, initial state and drive gain
// from src, zeroes the readout weights and resets P to I / Alpha.
// The area goes to the Training state.
func (ar *Area) InitWeights(src rand.Source) {
	ip := &ar.Params.Init
	RandSparseNormal(ar.J, ip.JStd(ar.N), ip.Sparsity, src)
	RandNormalVec(ar.X0, ip.X0Std, src)
	if ip.GainRange > 0 {
		ar.Gain = mat.NewVecDense(ar.N, nil)
		RandUniformVec(ar.Gain, ip.GainRange, src)
	} else {
		ar.Gain = nil
	}
	if ar.W != nil {
		ar.W.Zero()
	}
	ar.RLS.Init(ar.Params.Learn.RLS.Alpha)
	ar.InitState()
	ar.State = Training
}

// InitState restores the state to the initial condition X0.
func (ar *Area) InitState() {
	ar.X.CopyVec(ar.X0)
	ar.RateFmState()
	ar.Drive.Zero()
	if ar.Z != nil {
		ar.Z.Zero()
		ar.Err.Zero()
	}
}

// RateFmState computes r = tanh(x)
func (ar *Area) RateFmState() {
	for i := 0; i < ar.N; i++ {
		ar.R.SetVec(i, math.Tanh(ar.X.AtVec(i)))
	}
}

// DriveFmInput sets the drive from an external input frame,
// scaled by the per-unit gain.
func (ar *Area) DriveFmInput(in mat.Vector) {
	if ar.Gain != nil {
		ar.Drive.MulElemVec(ar.Gain, in)
	} else {
		ar.Drive.CopyVec(in)
	}
}

// DriveFmUp sets the drive from the upstream area's current rate,
// sent through the projection.  Must be called before the upstream
// area steps so that the drive reflects r_up(t-1).
func (ar *Area) DriveFmUp() {
	ar.Drive.MulVec(ar.Prj.C, ar.Up.R)
	if ar.Gain != nil {
		ar.Drive.MulElemVec(ar.Gain, ar.Drive)
	}
}

// Step performs one leaky integration step using the current Drive:
// x = (1 - dt/tau) x + (dt/tau) (J r + drive), then r = tanh(x).
// Returns an error naming the reason if the state is not finite.
func (ar *Area) Step() error {
	dp := &ar.Params.Dt
	ar.net.MulVec(ar.J, ar.R)
	ar.net.AddVec(ar.net, ar.Drive)
	ar.X.ScaleVec(dp.Leak, ar.X)
	ar.X.AddScaledVec(ar.X, dp.Rate, ar.net)
	ar.RateFmState()
	if !rls.Finite(ar.X) {
		return &InstabilityError{Area: ar.Name, Reason: "state is not finite"}
	}
	return nil
}

// Output computes the output Z and error Z - target.  No-op for ReadoutNone.
func (ar *Area) Output(target mat.Vector) error {
	switch ar.Readout {
	case ReadoutWeights:
		ar.Z.MulVec(ar.W.T(), ar.R)
	case ReadoutRate:
		ar.Z.CopyVec(ar.R)
	default:
		return nil
	}
	ar.Err.SubVec(ar.Z, target)
	if !rls.Finite(ar.Err) {
		return &InstabilityError{Area: ar.Name, Reason: "output error is not finite"}
	}
	return nil
}

// Learn performs the RLS update of P and the weight changes
// J <- J - c e k' and W <- W - c k e', using only this area's own
// gain c and the error of ErrSrc.
func (ar *Area) Learn() error {
	if ar.State != Training {
		return nil
	}
	lp := &ar.Params.Learn
	if !lp.LearnJ && !(lp.LearnW && ar.W != nil) {
		return nil
	}
	c, err := ar.RLS.Update(&lp.RLS, ar.R)
	if err != nil {
		return &InstabilityError{Area: ar.Name, Reason: "rls update", Err: err}
	}
	e := ar.ErrSrc.Err
	if lp.LearnW && ar.W != nil {
		rls.ApplyReadout(ar.W, ar.RLS.K, e, c)
	}
	if lp.LearnJ {
		rls.ApplyRecurrent(ar.J, e, ar.RLS.K, c)
	}
	return nil
}

// Freeze moves the area to the Frozen state, after which Learn does nothing.
func (ar *Area) Freeze() {
	if ar.State == Training {
		ar.State = Frozen
	}
}

// MemBytes returns the memory used by the area's matrices and vectors
func (ar *Area) MemBytes() int {
	n := ar.N
	fl := 8
	mem := (2*n*n + 6*n) * fl // J, P, X0, X, R, Drive, net, K
	if ar.Gain != nil {
		mem += n * fl
	}
	if ar.W != nil {
		mem += (n*ar.OutDim + 2*ar.OutDim) * fl
	} else if ar.Z != nil {
		mem += 2 * ar.OutDim * fl
	}
	return mem
}
