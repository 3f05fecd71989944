// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package force trains chains of leaky recurrent networks (Areas) to reproduce
a target spatiotemporal signal from a driving input, using online recursive
least-squares (FORCE) learning of the recurrent and readout weights.

Each Area integrates

	x(t) = (1 - dt/tau) x(t-1) + (dt/tau) (J r(t-1) + drive(t-1))
	r(t) = tanh(x(t))

where drive is the external input (scaled by an optional per-unit gain) for
the first Area, or the previous Area's rate sent through a fixed random
Projection for downstream Areas.  Several branches can share an upstream
Area, and each Area learns with its own rls.State.

A Chain is built once, initialized from a seed, trained for a number of
epochs by a Trainer (weights persist across epochs, state is reset to the
same initial condition), and replayed with learning off by Evaluate.
Weights live only in memory: Area.J, Area.W and Area.RLS.P are exposed for
any external persistence.
*/
package force
