package dom

import "golang.org/x/net/html"

// Climb walks the ancestors of start, nearest first, visiting at most
// maxDepth elements. depth is 1 for the parent. The walk stops at the first
// ancestor for which visit returns true and that ancestor is returned, so
// the closest match always wins. It returns nil when the bound or the top
// of the tree is reached first.
func Climb(start *html.Node, maxDepth int, visit func(n *html.Node, depth int) bool) *html.Node {
	if start == nil {
		return nil
	}
	depth := 0
	for n := Parent(start); n != nil && depth < maxDepth; n = Parent(n) {
		depth++
		if visit(n, depth) {
			return n
		}
	}
	return nil
}

// ClimbSelf is Climb with start itself visited first at depth 0. The bound
// still counts ancestors only.
func ClimbSelf(start *html.Node, maxDepth int, visit func(n *html.Node, depth int) bool) *html.Node {
	if start == nil {
		return nil
	}
	if IsElement(start) && visit(start, 0) {
		return start
	}
	return Climb(start, maxDepth, visit)
}

// ClosestAncestor returns the nearest ancestor within maxDepth matching pred
func ClosestAncestor(start *html.Node, maxDepth int, pred Predicate) *html.Node {
	return Climb(start, maxDepth, func(n *html.Node, _ int) bool { return pred(n) })
}
