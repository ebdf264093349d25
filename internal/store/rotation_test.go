package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func slots(ns ...int) map[int]bool {
	m := make(map[int]bool, len(ns))
	for _, n := range ns {
		m[n] = true
	}
	return m
}

func stepStrings(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.String()
	}
	return out
}

func TestPlanRotation(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		occupied map[int]bool
		want     []string
	}{
		{
			name:     "first run",
			limit:    5,
			occupied: slots(),
			want:     []string{},
		},
		{
			name:     "one backup",
			limit:    5,
			occupied: slots(1),
			want:     []string{"rename 1->2"},
		},
		{
			name:     "full ring evicts oldest",
			limit:    5,
			occupied: slots(1, 2, 3, 4, 5),
			want:     []string{"delete 5", "rename 4->5", "rename 3->4", "rename 2->3", "rename 1->2"},
		},
		{
			name:     "gaps shift independently",
			limit:    5,
			occupied: slots(1, 3),
			want:     []string{"rename 3->4", "rename 1->2"},
		},
		{
			name:     "single slot never shifts",
			limit:    1,
			occupied: slots(1),
			want:     []string{},
		},
		{
			name:     "slots beyond a lowered limit are pruned",
			limit:    2,
			occupied: slots(1, 2, 3, 4),
			want:     []string{"delete 4", "delete 3", "delete 2", "rename 1->2"},
		},
		{
			name:     "non-positive limit behaves as one",
			limit:    0,
			occupied: slots(1, 2),
			want:     []string{"delete 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stepStrings(PlanRotation(tt.limit, tt.occupied))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanRotation_DoesNotMutateInput(t *testing.T) {
	occupied := slots(1, 2)
	PlanRotation(5, occupied)
	assert.Equal(t, slots(1, 2), occupied)
}
