package domain

// Merge concatenates the per-country record lists in argument order. No
// record is dropped, reordered or deduplicated.
func Merge(lists ...[]Record) []Record {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make([]Record, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
