// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package force

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when signal, area or projection sizes disagree.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrConfiguration is returned for invalid parameters (non-positive tau, dt, alpha etc).
	ErrConfiguration = errors.New("configuration error")

	// ErrNumericalInstability is returned when the state or the RLS update
	// becomes non-finite or the inverse correlation loses positive definiteness.
	ErrNumericalInstability = errors.New("numerical instability")

	// ErrState is returned when an operation is not allowed in the current
	// lifecycle state of the areas.
	ErrState = errors.New("invalid area state")
)

// InstabilityError reports where a run failed numerically.
type InstabilityError struct {

	// epoch in which the failure occurred (0-based), -1 for evaluation
	Epoch int

	// timestep within the epoch (1-based)
	Step int

	// name of the offending area
	Area string

	// what went wrong
	Reason string

	// underlying error, if any
	Err error
}

func (ie *InstabilityError) Error() string {
	msg := fmt.Sprintf("%v: area %s, epoch %d, step %d: %s", ErrNumericalInstability, ie.Area, ie.Epoch, ie.Step, ie.Reason)
	if ie.Err != nil {
		msg += ": " + ie.Err.Error()
	}
	return msg
}

func (ie *InstabilityError) Unwrap() []error {
	if ie.Err != nil {
		return []error{ErrNumericalInstability, ie.Err}
	}
	return []error{ErrNumericalInstability}
}

// dimErr returns an ErrDimensionMismatch error with given message
func dimErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDimensionMismatch, fmt.Sprintf(format, args...))
}

// cfgErr returns an ErrConfiguration error with given message
func cfgErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
