package page

// Outermost drops regions nested inside another region of the same set,
// keeping document order.
func Outermost(tree Tree, regions []Region) []Region {
	out := make([]Region, 0, len(regions))
	for i, r := range regions {
		nested := false
		for j, o := range regions {
			if i != j && tree.Contains(o, r) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, r)
		}
	}
	return out
}
