package optimizer

import (
	. "github.com/cube2222/octogeo/physical"
)

var defaultOptimizationRules = []func(Node) (output Node, changed bool){
	MergeFilters,
}

// Optimize rewrites the plan into an equivalent one which reads and computes less.
// The output schema of the root node is unchanged.
func Optimize(node Node) Node {
	changed := true
	for changed {
		changed = false
		for _, rule := range defaultOptimizationRules {
			output, curChanged := rule(node)
			if curChanged {
				changed = true
				node = output
			}
		}
	}
	return PruneColumns(node)
}
