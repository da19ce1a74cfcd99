package reliability

// EstimateAFR maps a raw attribute value to an annual failure rate by
// piecewise-linear interpolation over the table. Values beyond the last
// sample clamp to its AFR; the data does not support extrapolating the
// trend past the observed population.
func EstimateAFR(t *Table, value uint64) float64 {
	if value == 0 {
		return 0
	}

	// Scan from the second entry, the first is the (0, 0) anchor.
	i := 1
	for i < len(t.samples) && t.samples[i].Raw < value {
		i++
	}

	if i == len(t.samples) {
		return t.samples[i-1].AFR
	}

	if t.samples[i].Raw == value {
		return t.samples[i].AFR
	}

	lo, hi := t.samples[i-1], t.samples[i]
	deltaAFR := hi.AFR - lo.AFR
	deltaRaw := float64(hi.Raw - lo.Raw)

	return lo.AFR + float64(value-lo.Raw)*deltaAFR/deltaRaw
}
