// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package rls provides the recursive least-squares (RLS) update used in
FORCE learning: a running inverse correlation matrix P of a feature vector
(here the firing rate of a recurrent network) is maintained by a rank-one
Sherman-Morrison correction each step, so that weight updates are the exact
ridge-regularized least-squares solution without ever inverting a matrix.

Per step, given rate r:

	k    = P r
	gain = r . k
	c    = 1 / (1 + gain)
	P   <- P - c k k'

and the weight changes are -c e k' (recurrent, rows indexed by error) or
-c k e' (readout, rows indexed by rate).

P starts at I / Alpha and stays symmetric positive semi-definite in exact
arithmetic.  Floating point drift can break that over long runs, which is
reported as ErrUnstable rather than silently propagating NaNs.
*/
package rls

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrUnstable is returned when the update would divide by a vanishing
// or negative denominator, or the gain is not finite.
var ErrUnstable = errors.New("rls: numerically unstable update")

// Params are the RLS parameters.
type Params struct {

	// ridge regularization: P starts at I / Alpha.  Larger values learn more slowly.
	Alpha float64 `def:"1" min:"0"`

	// tolerance for negative gain (r' P r) before the update is rejected.
	// Small negative values arise from rounding when P is nearly singular.
	GainTol float64 `def:"1e-9" min:"0"`

	// minimum allowed value of the denominator 1 + gain.
	MinDenom float64 `def:"1e-12" min:"0"`

	// 1 / Alpha
	InvAlpha float64 `view:"-" json:"-" xml:"-"`
}

func (rp *Params) Defaults() {
	rp.Alpha = 1
	rp.GainTol = 1e-9
	rp.MinDenom = 1e-12
	rp.Update()
}

// Update must be called after any changes to parameters
func (rp *Params) Update() {
	if rp.Alpha > 0 {
		rp.InvAlpha = 1 / rp.Alpha
	}
}

// Validate returns an error if Alpha is not strictly positive.
func (rp *Params) Validate() error {
	if !(rp.Alpha > 0) {
		return fmt.Errorf("rls: Alpha must be > 0, got %g", rp.Alpha)
	}
	return nil
}

// State is the running inverse correlation matrix for one feature vector,
// with scratch storage for the k = P r vector.
type State struct {

	// running inverse correlation matrix
	P *mat.SymDense

	// k = P r from the last update
	K *mat.VecDense `view:"-"`

	// r' P r from the last update
	Gain float64 `inactive:"+"`

	// 1 / (1 + Gain) from the last update
	C float64 `inactive:"+"`

	// number of updates since Init
	NUpdates int `inactive:"+"`
}

// NewState returns a State of dimension n with P = I / alpha.
func NewState(n int, alpha float64) *State {
	st := &State{}
	st.P = mat.NewSymDense(n, nil)
	st.K = mat.NewVecDense(n, nil)
	st.Init(alpha)
	return st
}

// Size returns the feature dimension.
func (st *State) Size() int {
	n, _ := st.P.Dims()
	return n
}

// Init resets P to I / alpha.
func (st *State) Init(alpha float64) {
	n := st.Size()
	st.P.Zero()
	inv := 1 / alpha
	for i := 0; i < n; i++ {
		st.P.SetSym(i, i, inv)
	}
	st.K.Zero()
	st.Gain = 0
	st.C = 0
	st.NUpdates = 0
}

// Prime computes k = P r and gain = r' P r into st.K and st.Gain
// without changing P.
func (st *State) Prime(r mat.Vector) float64 {
	st.K.MulVec(st.P, r)
	st.Gain = mat.Dot(r, st.K)
	return st.Gain
}

// Update performs one Sherman-Morrison step for rate vector r,
// updating P in place.  Returns the scalar c = 1/(1+gain); the
// corresponding k is in st.K.  P is left untouched on error.
func (st *State) Update(rp *Params, r mat.Vector) (float64, error) {
	gain := st.Prime(r)
	if math.IsNaN(gain) || math.IsInf(gain, 0) {
		return 0, fmt.Errorf("%w: gain r'Pr is %v", ErrUnstable, gain)
	}
	if gain < -rp.GainTol {
		return 0, fmt.Errorf("%w: negative gain r'Pr = %g (P lost positive definiteness)", ErrUnstable, gain)
	}
	den := 1 + gain
	if den < rp.MinDenom {
		return 0, fmt.Errorf("%w: denominator 1+r'Pr = %g", ErrUnstable, den)
	}
	st.C = 1 / den
	st.P.SymRankOne(st.P, -st.C, st.K)
	st.NUpdates++
	return st.C, nil
}

// ApplyRecurrent applies the recurrent weight change J <- J - c e k',
// where rows of J index the error and columns index the rate.
func ApplyRecurrent(j *mat.Dense, e, k mat.Vector, c float64) {
	j.RankOne(j, -c, e, k)
}

// ApplyReadout applies the readout weight change W <- W - c k e',
// where rows of W index the rate and columns index the output.
func ApplyReadout(w *mat.Dense, k, e mat.Vector, c float64) {
	w.RankOne(w, -c, k, e)
}
