// Package reliability turns raw SMART telemetry into failure forecasts:
// per-disk annual failure rates from empirical data, annual failure
// probabilities via a Poisson model, and array-level data-loss
// probabilities via the generalized MTTDL approximation.
package reliability

import "fmt"

// SMART attribute IDs with empirical failure correlation.
const (
	AttrReallocatedSectors = 5
	AttrUncorrectable      = 187
	AttrCommandTimeout     = 188
	AttrLoadCycleCount     = 193
	AttrPendingSectors     = 197
	AttrOfflineUncorrect   = 198
)

// Display-only attribute IDs used by the report, not by the forecast.
const (
	AttrPowerOnHours   = 9
	AttrAirflowTemp    = 190
	AttrTemperature    = 194
	// AttrErrorLogCount is the smartctl ATA error log entry count, mapped
	// above the ATA ID space the same way NVMe health fields are mapped
	// onto pseudo-IDs.
	AttrErrorLogCount = 256
)

// Sample is one empirical data point: drives whose raw attribute value
// reached Raw showed the given annual failure rate.
type Sample struct {
	Raw uint64
	AFR float64
}

// Table is an immutable, ordered set of AFR samples for one attribute.
// The first sample is always the (0, 0) anchor and raw values strictly
// increase, so interpolation never divides by zero.
type Table struct {
	name    string
	samples []Sample
}

// NewTable validates and builds an AFR table. Violations are data errors,
// not runtime conditions: they are rejected here so queries stay total.
func NewTable(name string, samples []Sample) (*Table, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("afr table %s: need at least the zero anchor and one data point", name)
	}
	if samples[0].Raw != 0 || samples[0].AFR != 0 {
		return nil, fmt.Errorf("afr table %s: first sample must be the (0, 0) anchor", name)
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Raw <= samples[i-1].Raw {
			return nil, fmt.Errorf("afr table %s: raw values must strictly increase (index %d)", name, i)
		}
		if samples[i].AFR < 0 {
			return nil, fmt.Errorf("afr table %s: negative AFR at index %d", name, i)
		}
	}

	s := make([]Sample, len(samples))
	copy(s, samples)
	return &Table{name: name, samples: s}, nil
}

func mustTable(name string, samples []Sample) *Table {
	t, err := NewTable(name, samples)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the table's attribute label.
func (t *Table) Name() string { return t.name }

// Len returns the number of samples including the zero anchor.
func (t *Table) Len() int { return len(t.samples) }

// Sample returns the i-th sample.
func (t *Table) Sample(i int) Sample { return t.samples[i] }

// Max returns the highest empirically observed sample.
func (t *Table) Max() Sample { return t.samples[len(t.samples)-1] }

// Reference AFR curves derived from the Backblaze drive population study
// (https://www.backblaze.com/blog-smart-stats-2014-8.html). Versioned as
// the backblaze2014 dataset; shipped with the engine, never rederived.
var (
	tableReallocated = mustTable("Reallocated_Sector_Ct", []Sample{
		{0, 0},
		{1, 0.027432608477803388},
		{4, 0.07501976284584981},
		{16, 0.23589260654405794},
		{70, 0.36193219378600433},
		{260, 0.5676621428968173},
		{1100, 1.5028253400346423},
		{4500, 2.0659987547404763},
		{17000, 1.7755385684503124},
	})

	tableUncorrectable = mustTable("Reported_Uncorrect", []Sample{
		{0, 0},
		{1, 0.33877621175661743},
		{3, 0.5014425058387142},
		{11, 0.5346094598348444},
		{20, 0.8428063943161636},
		{35, 1.4429071005017484},
		{65, 1.6190935390549661},
	})

	tableCommandTimeout = mustTable("Command_Timeout", []Sample{
		{0, 0},
		{1, 0.10044174089362015},
		{13000000000, 0.334030592234279},
		{26000000000, 0.36724705400842445},
	})

	tableLoadCycle = mustTable("Load_Cycle_Count", []Sample{
		{0, 0},
		{1300, 0.024800489215129725},
		{5500, 0.05859661417772557},
		{21000, 0.19566577603409208},
		{90000, 0.2673688205712117},
	})

	tablePending = mustTable("Current_Pending_Sector", []Sample{
		{0, 0},
		{1, 0.34196613799103254},
		{2, 0.6823772508117681},
		{16, 0.9564879341127684},
		{40, 1.6519989942167461},
		{100, 2.5137741046831956},
		{250, 3.3203378817413904},
	})

	tableOfflineUncorrect = mustTable("Offline_Uncorrectable", []Sample{
		{0, 0},
		{1, 0.8135764944275583},
		{2, 1.1173469387755102},
		{4, 1.3558692421991083},
		{10, 1.7464114832535886},
		{12, 2.6449275362318843},
	})
)

// predictiveTables binds each predictive attribute to its curve. Iteration
// over tables goes through predictiveOrder so float summation is
// reproducible across runs.
var predictiveTables = map[int]*Table{
	AttrReallocatedSectors: tableReallocated,
	AttrUncorrectable:      tableUncorrectable,
	AttrCommandTimeout:     tableCommandTimeout,
	AttrLoadCycleCount:     tableLoadCycle,
	AttrPendingSectors:     tablePending,
	AttrOfflineUncorrect:   tableOfflineUncorrect,
}

var predictiveOrder = []int{
	AttrReallocatedSectors,
	AttrUncorrectable,
	AttrCommandTimeout,
	AttrLoadCycleCount,
	AttrPendingSectors,
	AttrOfflineUncorrect,
}

// TableFor returns the reference table for a predictive attribute, or nil
// if the attribute is not part of the predictive set.
func TableFor(attrID int) *Table {
	return predictiveTables[attrID]
}

// PredictiveAttributes returns the predictive attribute IDs in their fixed
// aggregation order.
func PredictiveAttributes() []int {
	ids := make([]int, len(predictiveOrder))
	copy(ids, predictiveOrder)
	return ids
}
