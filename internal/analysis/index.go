package analysis

import "tierwalk/internal/ir"

// AssignFrameIndices lays out fn's frame: Params already occupy indices
// 0..len(Params)-1 from construction; Captures are placed immediately
// after them; Let-bound locals are allocated with a stack discipline from
// there, so that two Lets in sibling scopes (neither nested in the
// other) can reuse the same slot. fn.FrameSize is set to the high-water
// mark across the whole walk, i.e. the largest frame depth ever reached.
//
// It runs after ClosureConverter so that every CopiedVariable a closure
// needs has already been created and is ready to be indexed; running it
// any earlier would mean re-numbering every time a new capture turned up.
func AssignFrameIndices(fn *ir.Function) error {
	next := len(fn.Params)
	for _, c := range fn.Captures {
		c.FrameIndex = next
		next++
	}
	highWater := next
	if err := indexNode(fn.Body, &next, &highWater); err != nil {
		return err
	}
	fn.FrameSize = highWater
	for _, child := range fn.Nested {
		if err := AssignFrameIndices(child); err != nil {
			return err
		}
	}
	return nil
}

func indexNode(n *ir.Node, depth, highWater *int) error {
	if n == nil {
		return nil
	}
	if let, ok := n.Payload.(*ir.Let); ok {
		if err := indexNode(let.Init, depth, highWater); err != nil {
			return err
		}
		let.Var.FrameIndex = *depth
		*depth++
		if *depth > *highWater {
			*highWater = *depth
		}
		err := indexNode(let.Body, depth, highWater)
		*depth-- // the slot is free again for a sibling Let once Body is indexed
		return err
	}
	for _, c := range n.Children() {
		if err := indexNode(c, depth, highWater); err != nil {
			return err
		}
	}
	return nil
}
