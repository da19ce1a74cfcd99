// Package report renders a forecast as the plain-text SMART report. It
// performs no computation of its own; everything shown comes from the
// forecast it is handed.
package report

import (
	"fmt"
	"io"
	"strings"

	"raidcast/internal/reliability"
)

// Render writes the full SMART report for a forecast pass.
func Render(w io.Writer, f *reliability.Forecast) {
	devicePad, serialPad := columnPads(f)

	fmt.Fprintf(w, "raidcast SMART report:\n\n")
	fmt.Fprintf(w, "   Temp  Power  Error AFP Size\n")
	fmt.Fprintf(w, "     C. OnDays  Count   %%   TB  %s  %s  Disk\n",
		pad("Serial", serialPad), pad("Device", devicePad))
	fmt.Fprintf(w, " -----------------------------------------------------------------------\n")

	for i := range f.Devices {
		renderDeviceRow(w, &f.Devices[i], devicePad, serialPad)
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "The AFP (Annual Failure Probability) is the probability that the disk is\n")
	fmt.Fprintf(w, "going to fail in the next year.\n\n")
	fmt.Fprintf(w, "Probability of at least one disk failure in the next year is: %.0f %%\n\n",
		f.ArrayFailureProbability*100)

	renderLossTable(w, f)

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "These are the probabilities that in the next year you'll have a sequence\n")
	fmt.Fprintf(w, "of failures that the parity WONT be able to recover, assuming that you\n")
	fmt.Fprintf(w, "regularly scrub and repair the full array in the specified time.\n")
}

func renderDeviceRow(w io.Writer, df *reliability.DeviceForecast, devicePad, serialPad int) {
	d := &df.Device

	if temp, ok := d.Attr(reliability.AttrTemperature); ok {
		fmt.Fprintf(w, "%7d", temp)
	} else if temp, ok := d.Attr(reliability.AttrAirflowTemp); ok {
		fmt.Fprintf(w, "%7d", temp)
	} else {
		fmt.Fprintf(w, "      -")
	}

	if hours, ok := d.Attr(reliability.AttrPowerOnHours); ok {
		fmt.Fprintf(w, "%7d", hours/24)
	} else {
		fmt.Fprintf(w, "      -")
	}

	if errs, ok := d.Attr(reliability.AttrErrorLogCount); ok {
		fmt.Fprintf(w, "%6d", errs)
	} else {
		fmt.Fprintf(w, "     -")
	}

	fmt.Fprintf(w, "%4.0f", df.AFP*100)

	if d.CapacityBytes > 0 {
		fmt.Fprintf(w, " %4.1f", float64(d.CapacityBytes)/1e12)
	} else {
		fmt.Fprintf(w, "    -")
	}

	fmt.Fprintf(w, "  %s", pad(orDash(d.Serial), serialPad))
	fmt.Fprintf(w, "  %s", pad(orDash(d.Path), devicePad))

	if d.Name != "" {
		fmt.Fprintf(w, "  %s", d.Name)
	} else if !d.ArrayMember {
		fmt.Fprintf(w, "  - (spare)")
	} else {
		fmt.Fprintf(w, "  -")
	}

	fmt.Fprintf(w, "\n")
}

func renderLossTable(w io.Writer, f *reliability.Forecast) {
	if len(f.DataLoss) == 0 {
		return
	}

	fmt.Fprintf(w, "Probability of data loss in the next year for different parity and\n")
	fmt.Fprintf(w, "scrub/repair times:\n\n")

	colPads := []int{20, 18, 14}
	fmt.Fprintf(w, "  Parity")
	for i, c := range f.Cadences {
		fmt.Fprintf(w, "  %s", pad(c.Name, padFor(colPads, i)))
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, " -----------------------------------------------------------------------\n")

	for _, row := range f.DataLoss {
		fmt.Fprintf(w, "%6d", row.Redundancy)
		for i, p := range row.ByCadence {
			fmt.Fprintf(w, "    %s", pad(formatProbability(p*100), padFor(colPads, i)))
		}
		fmt.Fprintf(w, "\n")
	}
}

// formatProbability renders a percentage with precision that grows as the
// value shrinks, so the tiny probabilities at high parity stay legible.
func formatProbability(v float64) string {
	width, prec := 5, 2
	for threshold := 0.1; v <= threshold && prec < 14; threshold /= 10 {
		width++
		prec++
	}
	return fmt.Sprintf("%*.*f %%", width, prec, v)
}

func columnPads(f *reliability.Forecast) (devicePad, serialPad int) {
	devicePad, serialPad = len("Device"), len("Serial")
	for i := range f.Devices {
		d := &f.Devices[i].Device
		if len(d.Path) > devicePad {
			devicePad = len(d.Path)
		}
		if len(d.Serial) > serialPad {
			serialPad = len(d.Serial)
		}
	}
	return devicePad, serialPad
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func padFor(pads []int, i int) int {
	if i < len(pads) {
		return pads[i]
	}
	return pads[len(pads)-1]
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
