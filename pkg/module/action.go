// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package module

const (
	StatePresent = "present"
	StateAbsent  = "absent"
)

// Action is what a run does to the resource.
type Action int

const (
	NoAction Action = iota
	Create
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case Create:
		return "Create"
	case Update:
		return "Update"
	case Delete:
		return "Delete"
	default:
		return "NoAction"
	}
}

// Decide picks the action from whether the resource exists, the requested
// state and whether the live resource drifted from the desired one.
func Decide(exists bool, state string, drift bool) Action {
	switch {
	case state == StateAbsent && exists:
		return Delete
	case state == StateAbsent:
		return NoAction
	case !exists:
		return Create
	case drift:
		return Update
	default:
		return NoAction
	}
}
