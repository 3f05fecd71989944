// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rls

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MinEigen returns the smallest eigenvalue of symmetric matrix p.
// Negative values beyond rounding mean P is no longer a valid
// inverse correlation matrix.
func MinEigen(p mat.Symmetric) (float64, error) {
	var es mat.EigenSym
	if ok := es.Factorize(p, false); !ok {
		return math.NaN(), errors.New("rls: eigen decomposition of P failed")
	}
	return floats.Min(es.Values(nil)), nil
}

// Asymmetry returns max |P_ij - P_ji| over a general matrix.
// It is 0 for a SymDense by construction, and is used to check
// explicitly computed inverses.
func Asymmetry(p mat.Matrix) float64 {
	r, c := p.Dims()
	mx := 0.0
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			mx = math.Max(mx, math.Abs(p.At(i, j)-p.At(j, i)))
		}
	}
	return mx
}

// Finite returns true if all values of the matrix are finite.
func Finite(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
