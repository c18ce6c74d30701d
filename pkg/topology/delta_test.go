package topology

import (
	"math"
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestDifference(t *testing.T) {
	tests := []struct {
		name   string
		parent *Node
		child  *Node
		want   float64
	}{
		{
			name:   "BothPipeOffsets",
			parent: &Node{Offsets: &Offsets{PipeOffset: fp(100)}},
			child:  &Node{Offsets: &Offsets{PipeOffset: fp(90)}},
			want:   10,
		},
		{
			name:   "ScalarParent",
			parent: &Node{Offset: fp(100)},
			child:  &Node{Offsets: &Offsets{PipeOffset: fp(90)}},
			want:   10,
		},
		{
			name:   "PipeOffsetWinsOverScalar",
			parent: &Node{Offset: fp(1), Offsets: &Offsets{PipeOffset: fp(100)}},
			child:  &Node{Offsets: &Offsets{PipeOffset: fp(70)}},
			want:   30,
		},
		{
			name:   "NegativeLag",
			parent: &Node{Offsets: &Offsets{PipeOffset: fp(50)}},
			child:  &Node{Offsets: &Offsets{PipeOffset: fp(80)}},
			want:   -30,
		},
		{
			name:   "ZeroLag",
			parent: &Node{Offsets: &Offsets{PipeOffset: fp(42)}},
			child:  &Node{Offsets: &Offsets{PipeOffset: fp(42)}},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Difference(tt.parent, tt.child); got != tt.want {
				t.Errorf("Difference() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDifference_NaN(t *testing.T) {
	tests := []struct {
		name   string
		parent *Node
		child  *Node
	}{
		{"ChildMissingOffsets", &Node{Offsets: &Offsets{PipeOffset: fp(100)}}, &Node{}},
		{"ChildMissingPipeOffset", &Node{Offset: fp(100)}, &Node{Offsets: &Offsets{}}},
		{"ParentMissingBoth", &Node{}, &Node{Offsets: &Offsets{PipeOffset: fp(90)}}},
		{"ChildScalarOnly", &Node{Offset: fp(100)}, &Node{Offset: fp(90)}},
		{"BothEmpty", &Node{}, &Node{}},
		{"NilParent", nil, &Node{Offsets: &Offsets{PipeOffset: fp(90)}}},
		{"NilChild", &Node{Offset: fp(100)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Difference(tt.parent, tt.child); !math.IsNaN(got) {
				t.Errorf("Difference() = %v, want NaN", got)
			}
		})
	}
}
