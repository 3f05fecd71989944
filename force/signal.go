// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package force

import (
	"gonum.org/v1/gonum/mat"
)

// Signal is a space x time array: each column is one frame
// on the shared timestep grid, and each row is one dimension
// (e.g., a pixel of a flattened image frame).
type Signal struct {

	// name of the signal, for logs
	Name string

	// data, Dim rows x Len columns
	Data *mat.Dense
}

// NewSignal returns a new Signal wrapping given data (not copied).
func NewSignal(name string, data *mat.Dense) (*Signal, error) {
	if data == nil || data.IsEmpty() {
		return nil, dimErr("signal %s is empty", name)
	}
	return &Signal{Name: name, Data: data}, nil
}

// NewSignalFrames returns a new Signal from a list of frames,
// each of which becomes one column.
func NewSignalFrames(name string, frames [][]float64) (*Signal, error) {
	if len(frames) == 0 || len(frames[0]) == 0 {
		return nil, dimErr("signal %s has no frames", name)
	}
	dim := len(frames[0])
	data := mat.NewDense(dim, len(frames), nil)
	for t, fr := range frames {
		if len(fr) != dim {
			return nil, dimErr("signal %s frame %d has %d values, expected %d", name, t, len(fr), dim)
		}
		data.SetCol(t, fr)
	}
	return &Signal{Name: name, Data: data}, nil
}

// Dim returns the number of dimensions (rows)
func (sg *Signal) Dim() int {
	r, _ := sg.Data.Dims()
	return r
}

// Len returns the number of frames (columns)
func (sg *Signal) Len() int {
	_, c := sg.Data.Dims()
	return c
}

// Frame returns a view of frame t
func (sg *Signal) Frame(t int) mat.Vector {
	return sg.Data.ColView(t)
}

// CheckAligned returns an ErrDimensionMismatch error if the two signals
// do not have the same number of frames.
func CheckAligned(a, b *Signal) error {
	if a.Len() != b.Len() {
		return dimErr("signal %s has %d frames but %s has %d", a.Name, a.Len(), b.Name, b.Len())
	}
	return nil
}
