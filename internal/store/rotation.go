package store

import "fmt"

// StepKind is a single filesystem action in a rotation plan.
type StepKind int

const (
	// StepDelete removes backup slot From
	StepDelete StepKind = iota
	// StepRename moves backup slot From to slot To
	StepRename
)

func (k StepKind) String() string {
	switch k {
	case StepDelete:
		return "delete"
	case StepRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Step is one action of a rotation plan.
type Step struct {
	Kind StepKind
	From int
	To   int
}

func (s Step) String() string {
	if s.Kind == StepRename {
		return fmt.Sprintf("rename %d->%d", s.From, s.To)
	}
	return fmt.Sprintf("delete %d", s.From)
}

// PlanRotation computes the ring shift that frees backup slot 1 while keeping
// at most limit slots. occupied reports which slots currently exist; slots
// above limit are pruned first. For i from limit-1 down to 1, an occupied
// slot i displaces slot i+1 and is renamed into it. The caller then copies
// the live catalog into slot 1.
//
// PlanRotation is pure: it only reads occupied.
func PlanRotation(limit int, occupied map[int]bool) []Step {
	var steps []Step
	if limit < 1 {
		limit = 1
	}

	// Prune slots beyond the limit, oldest first
	maxSlot := 0
	for slot := range occupied {
		if slot > maxSlot {
			maxSlot = slot
		}
	}
	for slot := maxSlot; slot > limit; slot-- {
		if occupied[slot] {
			steps = append(steps, Step{Kind: StepDelete, From: slot})
		}
	}

	state := make(map[int]bool, len(occupied))
	for slot, ok := range occupied {
		if ok && slot <= limit {
			state[slot] = true
		}
	}

	for i := limit - 1; i >= 1; i-- {
		if !state[i] {
			continue
		}
		if state[i+1] {
			steps = append(steps, Step{Kind: StepDelete, From: i + 1})
		}
		steps = append(steps, Step{Kind: StepRename, From: i, To: i + 1})
		state[i+1] = true
		state[i] = false
	}

	// With a single slot nothing shifts; slot 1 is overwritten by the copy
	return steps
}
