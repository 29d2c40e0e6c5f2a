package profile

// Dedupe returns the distinct values of items in first-seen order.
func Dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Intersects reports whether a and b share at least one value.
// An empty set never intersects anything.
func Intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := toSet(a)
	for _, item := range b {
		if _, ok := set[item]; ok {
			return true
		}
	}
	return false
}

// Overlap returns the sizes of the intersection and union of a and b,
// treating both as sets.
func Overlap(a, b []string) (intersection, union int) {
	setA := toSet(a)
	setB := toSet(b)

	for item := range setA {
		if _, ok := setB[item]; ok {
			intersection++
		}
	}
	union = len(setA) + len(setB) - intersection
	return intersection, union
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
