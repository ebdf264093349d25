package logger

import (
	"strings"
	"testing"
)

func TestProgressBar_Render(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		current int
		width   int
		want    string
	}{
		{"empty", 10, 0, 10, "[          ] 0/10 (0%)"},
		{"half", 10, 5, 10, "[=====     ] 5/10 (50%)"},
		{"full", 4, 4, 8, "[========] 4/4 (100%)"},
		{"overshoot clamps", 4, 9, 4, "[====] 9/4 (100%)"},
		{"zero total", 0, 0, 4, "[    ] 0/0 (0%)"},
		{"invalid width", 2, 1, 0, "[=====     ] 1/2 (50%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := NewProgressBar(tt.total, tt.width, false)
			pb.Update(tt.current)
			if got := pb.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgressBar_Prefix(t *testing.T) {
	pb := NewProgressBar(3, 4, false)
	pb.SetPrefix("Parsing ")
	pb.Update(2)

	if got, want := pb.Render(), "Parsing [==  ] 2/3 (66%)"; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestProgressBar_ColorKeepsText(t *testing.T) {
	pb := NewProgressBar(2, 2, true)
	pb.Update(2)
	if got := pb.Render(); !strings.Contains(got, "[==] 2/2 (100%)") {
		t.Errorf("colored render lost its text: %q", got)
	}
}
