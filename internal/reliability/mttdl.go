package reliability

import (
	"fmt"
	"math"
)

// MaxParity is the highest redundancy level the forecast reports on,
// matching the maximum parity count of the array formats we model.
const MaxParity = 6

// Repair cadences sampled by the forecast, as repairs per year.
const (
	RepairWeekly    = 365.0 / 7
	RepairMonthly   = 365.0 / 30
	RepairQuarterly = 365.0 / 90
)

// DataLossProbability estimates the probability of at least one
// unrecoverable data-loss event within a year, for an array of the given
// disk count tolerating redundancy simultaneous failures, repaired at
// repairRate repairs per year.
//
// It uses the generalized MTTDL approximation from Gibson, "Redundant Disk
// Arrays: Reliable, Parallel Secondary Storage" (1990), valid when disk
// failure rates are small relative to the repair rate. Treat the result as
// an estimate, not a guarantee.
func DataLossProbability(arrayFailureRate, repairRate float64, disks, redundancy int) (float64, error) {
	switch {
	case redundancy < 1:
		return 0, fmt.Errorf("raid config: redundancy %d, need at least 1", redundancy)
	case disks <= redundancy:
		return 0, fmt.Errorf("raid config: %d disks cannot carry redundancy %d", disks, redundancy)
	case repairRate <= 0:
		return 0, fmt.Errorf("raid config: repair rate %g, must be positive", repairRate)
	case arrayFailureRate < 0:
		return 0, fmt.Errorf("raid config: negative array failure rate %g", arrayFailureRate)
	}

	// No failures expected means the MTBF below is infinite; the formula
	// divides by it, so the case has to be answered before it.
	if arrayFailureRate == 0 {
		return 0, nil
	}

	// Mean time between single-disk failures in the array, and mean time
	// until a failed disk is repaired.
	mtbf := float64(disks) / arrayFailureRate
	mttr := 1.0 / repairRate

	mttdl := math.Pow(mtbf, float64(redundancy+1)) / math.Pow(mttr, float64(redundancy))
	for i := 0; i <= redundancy; i++ {
		mttdl /= float64(disks - i)
	}

	raidFailureRate := 1.0 / mttdl

	return PoissonAtLeast(raidFailureRate, 1), nil
}
