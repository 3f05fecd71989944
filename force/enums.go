// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package force

import "github.com/goki/ki/kit"

// States are the lifecycle states of an Area:
// Uninitialized -> Training -> Frozen.
type States int32

//go:generate stringer -type=States

var KiT_States = kit.Enums.AddEnum(StatesN, kit.NotBitFlag, nil)

func (ev States) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *States) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The area states
const (
	// Uninitialized areas have no weights yet -- Chain.Init must be called.
	Uninitialized States = iota

	// Training areas update J, W and P every timestep when trained.
	Training

	// Frozen areas keep their weights fixed -- only evaluation is possible.
	Frozen

	StatesN
)

// ReadoutTypes determine how an Area produces the output that is
// compared against the target.
type ReadoutTypes int32

//go:generate stringer -type=ReadoutTypes

var KiT_ReadoutTypes = kit.Enums.AddEnum(ReadoutTypesN, kit.NotBitFlag, nil)

func (ev ReadoutTypes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *ReadoutTypes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The readout types
const (
	// ReadoutNone has no output of its own: learning uses the error
	// of the area named in ErrorFrom (the terminal area of its branch).
	ReadoutNone ReadoutTypes = iota

	// ReadoutWeights reads out z = W' r through learned weights W.
	ReadoutWeights

	// ReadoutRate uses the rate itself as output: z = r.
	// Requires the target dimension to equal the area size.
	ReadoutRate

	ReadoutTypesN
)
