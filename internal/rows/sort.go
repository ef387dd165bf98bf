package rows

import "sort"

// Sort orders rows by (OrderCode, Specification) ascending. The sort is
// stable, so rows with equal keys keep their build order.
func Sort(rows []OutputRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].OrderCode != rows[j].OrderCode {
			return rows[i].OrderCode < rows[j].OrderCode
		}
		return rows[i].Specification < rows[j].Specification
	})
}
