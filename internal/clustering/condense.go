package clustering

// CondenseLabels returns a copy of labels with every label found in
// clusterMap replaced by its mapped value. Noise and unmapped labels are
// copied unchanged; labels itself is never modified.
func CondenseLabels(labels []int, clusterMap map[int]int) []int {
	out := make([]int, len(labels))
	for i, label := range labels {
		if label == Noise {
			out[i] = Noise
			continue
		}
		if mapped, ok := clusterMap[label]; ok {
			out[i] = mapped
			continue
		}
		out[i] = label
	}
	return out
}
