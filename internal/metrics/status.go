package metrics

import "sort"

// FailureRow is the number of failures of one request type for one reason.
type FailureRow struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// FlattenFailures converts a nested type->reason map into a sorted slice of rows.
// Rows are sorted by descending count, then by type/reason for stability.
func FlattenFailures(failures map[string]map[string]int) []FailureRow {
	if len(failures) == 0 {
		return nil
	}
	rows := make([]FailureRow, 0)
	for name, reasons := range failures {
		for reason, count := range reasons {
			rows = append(rows, FailureRow{Type: name, Reason: reason, Count: count})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			if rows[i].Type == rows[j].Type {
				return rows[i].Reason < rows[j].Reason
			}
			return rows[i].Type < rows[j].Type
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
