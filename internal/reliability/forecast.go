package reliability

import "fmt"

// Device is a point-in-time snapshot of one drive's telemetry. Attributes
// holds raw SMART counters keyed by attribute ID; an absent key means the
// attribute was not reported and contributes nothing to the forecast.
// Metadata fields pass through to the report untouched.
type Device struct {
	Serial        string
	Path          string
	Name          string
	CapacityBytes uint64
	ArrayMember   bool

	Attributes map[int]uint64
}

// Attr returns the raw value of an attribute and whether it was reported.
func (d *Device) Attr(id int) (uint64, bool) {
	v, ok := d.Attributes[id]
	return v, ok
}

// DiskAFR sums the per-attribute AFR estimates of a single drive.
//
// The per-attribute rates are treated as independent competing risks and
// simply added. The signals are not truly independent, but the empirical
// curves were fitted per attribute and this is how the source population
// data combines them.
func DiskAFR(d *Device) float64 {
	afr := 0.0
	for _, id := range predictiveOrder {
		if raw, ok := d.Attributes[id]; ok {
			afr += EstimateAFR(predictiveTables[id], raw)
		}
	}
	return afr
}

// ArrayAFR sums DiskAFR over array members only. Spares still get an
// individual forecast but do not contribute to the array rate.
func ArrayAFR(devices []Device) float64 {
	rate := 0.0
	for i := range devices {
		if devices[i].ArrayMember {
			rate += DiskAFR(&devices[i])
		}
	}
	return rate
}

// Cadence is a named repair frequency.
type Cadence struct {
	Name           string
	RepairsPerYear float64
}

// DefaultCadences are the repair frequencies sampled by the forecast.
func DefaultCadences() []Cadence {
	return []Cadence{
		{Name: "1 Week", RepairsPerYear: RepairWeekly},
		{Name: "1 Month", RepairsPerYear: RepairMonthly},
		{Name: "3 Months", RepairsPerYear: RepairQuarterly},
	}
}

// Config controls the span of a forecast.
type Config struct {
	// MaxParity is the highest redundancy level to report on, 1..MaxParity.
	MaxParity int
	// Cadences are the repair frequencies to sample. Empty means
	// DefaultCadences.
	Cadences []Cadence
}

// DeviceForecast is the per-drive output of a forecast pass.
type DeviceForecast struct {
	Device Device
	// AFR is the drive's estimated annual failure rate.
	AFR float64
	// AFP is the probability the drive fails at least once within a year.
	AFP float64
}

// LossRow is the data-loss probability of the array at one redundancy
// level, one entry per sampled cadence.
type LossRow struct {
	Redundancy int
	ByCadence  []float64
}

// Forecast is the complete output of one reporting pass.
type Forecast struct {
	Devices []DeviceForecast

	// DiskCount is the number of array members.
	DiskCount int
	// ArrayFailureRate is the summed AFR of the members; it is a rate, not
	// a probability, and may exceed 1.
	ArrayFailureRate float64
	// ArrayFailureProbability is the chance of at least one member failing
	// within a year.
	ArrayFailureProbability float64

	Cadences []Cadence
	// DataLoss has one row per redundancy level 1..MaxParity for which the
	// array is large enough (redundancy < DiskCount).
	DataLoss []LossRow
}

// Compute runs a full forecast pass over the given snapshots. It is a pure
// function: devices are read, never written, and iteration order is fixed
// so repeated passes over the same input produce bit-identical floats.
func Compute(devices []Device, cfg Config) (*Forecast, error) {
	if cfg.MaxParity < 1 || cfg.MaxParity > MaxParity {
		return nil, fmt.Errorf("forecast: max parity %d out of range 1..%d", cfg.MaxParity, MaxParity)
	}
	cadences := cfg.Cadences
	if len(cadences) == 0 {
		cadences = DefaultCadences()
	}
	for _, c := range cadences {
		if c.RepairsPerYear <= 0 {
			return nil, fmt.Errorf("forecast: cadence %q has non-positive repair rate", c.Name)
		}
	}

	f := &Forecast{
		Devices:  make([]DeviceForecast, 0, len(devices)),
		Cadences: cadences,
	}

	for i := range devices {
		afr := DiskAFR(&devices[i])
		f.Devices = append(f.Devices, DeviceForecast{
			Device: devices[i],
			AFR:    afr,
			AFP:    PoissonAtLeast(afr, 1),
		})
		if devices[i].ArrayMember {
			f.DiskCount++
			f.ArrayFailureRate += afr
		}
	}

	f.ArrayFailureProbability = PoissonAtLeast(f.ArrayFailureRate, 1)

	for r := 1; r <= cfg.MaxParity && r < f.DiskCount; r++ {
		row := LossRow{Redundancy: r, ByCadence: make([]float64, len(cadences))}
		for ci, c := range cadences {
			p, err := DataLossProbability(f.ArrayFailureRate, c.RepairsPerYear, f.DiskCount, r)
			if err != nil {
				return nil, err
			}
			row.ByCadence[ci] = p
		}
		f.DataLoss = append(f.DataLoss, row)
	}

	return f, nil
}
