package topology

import "math"

// Difference computes the replication lag between an upstream node and a
// node replicating from it: upstream offset minus downstream offset.
//
// Resolution order:
//  1. Both nodes report offsets.PIPE_OFFSET → parent − child of those.
//  2. Parent reports only the scalar offset and the child reports
//     offsets.PIPE_OFFSET → parent.offset − child PIPE_OFFSET. The root
//     reports its cursor as a scalar, so root→follower edges take this path.
//  3. Anything else → NaN.
//
// Difference never panics on missing data; callers render NaN literally.
func Difference(parent, child *Node) float64 {
	if parent == nil || child == nil {
		return math.NaN()
	}
	childOffset := child.PipeOffset()
	if childOffset == nil {
		return math.NaN()
	}
	if p := parent.PipeOffset(); p != nil {
		return *p - *childOffset
	}
	if parent.Offset != nil {
		return *parent.Offset - *childOffset
	}
	return math.NaN()
}
