// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package force

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// RandSparseNormal fills m with normal values of given std, each entry
// kept with probability p and zero otherwise.  The mask draw is skipped
// for p >= 1 so that dense matrices consume one draw per entry.
func RandSparseNormal(m *mat.Dense, std, p float64, src rand.Source) {
	nrm := distuv.Normal{Mu: 0, Sigma: std, Src: src}
	unf := distuv.Uniform{Min: 0, Max: 1, Src: src}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if p < 1 && unf.Rand() >= p {
				m.Set(i, j, 0)
				continue
			}
			m.Set(i, j, nrm.Rand())
		}
	}
}

// RandNormalVec fills v with normal values of given std.
func RandNormalVec(v *mat.VecDense, std float64, src rand.Source) {
	nrm := distuv.Normal{Mu: 0, Sigma: std, Src: src}
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, nrm.Rand())
	}
}

// RandUniformVec fills v with uniform values in [-rng, rng].
func RandUniformVec(v *mat.VecDense, rng float64, src rand.Source) {
	unf := distuv.Uniform{Min: -rng, Max: rng, Src: src}
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, unf.Rand())
	}
}
