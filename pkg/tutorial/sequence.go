package tutorial

// Sequence orders abstractions into a chapter plan, foundational
// concepts first. It is deterministic and never calls a model.
//
// An edge A -> B means A is a prerequisite for B, so B's in-degree
// counts how many concepts must come before it. The loop repeatedly
// places the unplaced abstraction with the lowest current in-degree,
// breaking ties by highest evidence count then lowest ID, and decrements
// the in-degree of its successors. Unlike a strict topological sort this
// always makes progress, so cycles in the (LLM-inferred, unverified)
// graph cannot stall it or drop an entry: the returned plan is a
// permutation of all abstraction IDs.
func Sequence(abstractions []Abstraction, edges []Edge) []int {
	n := len(abstractions)
	if n == 0 {
		return nil
	}

	indegree := make(map[int]int, n)
	successors := make(map[int][]int, n)
	for _, a := range abstractions {
		indegree[a.ID] = 0
	}
	for _, e := range edges {
		indegree[e.To]++
		successors[e.From] = append(successors[e.From], e.To)
	}

	evidence := make(map[int]int, n)
	for _, a := range abstractions {
		evidence[a.ID] = len(a.Evidence)
	}

	placed := make(map[int]bool, n)
	plan := make([]int, 0, n)
	for len(plan) < n {
		best := -1
		for _, a := range abstractions {
			id := a.ID
			if placed[id] {
				continue
			}
			if best == -1 || less(indegree, evidence, id, best) {
				best = id
			}
		}

		placed[best] = true
		plan = append(plan, best)
		for _, succ := range successors[best] {
			if !placed[succ] {
				indegree[succ]--
			}
		}
	}
	return plan
}

// less reports whether candidate a should be placed before b: lower
// in-degree wins, then more evidence, then lower ID.
func less(indegree, evidence map[int]int, a, b int) bool {
	if indegree[a] != indegree[b] {
		return indegree[a] < indegree[b]
	}
	if evidence[a] != evidence[b] {
		return evidence[a] > evidence[b]
	}
	return a < b
}
