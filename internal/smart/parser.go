// Package smart builds device snapshots from smartctl JSON output.
package smart

import (
	"fmt"

	"raidcast/internal/reliability"
)

// ParseDevice extracts a device snapshot from one smartctl --json document.
// Attributes that smartctl did not report are simply absent from the map;
// the forecast treats absent as "unassigned" and ignores them.
func ParseDevice(data map[string]interface{}) (reliability.Device, error) {
	d := reliability.Device{
		Attributes: make(map[int]uint64),
	}

	if device, ok := data["device"].(map[string]interface{}); ok {
		if name, ok := device["name"].(string); ok {
			d.Path = name
		}
	}

	if serial, ok := data["serial_number"].(string); ok {
		d.Serial = serial
	}
	if d.Serial == "" {
		return d, fmt.Errorf("smart: document has no serial_number")
	}

	if name, ok := data["name"].(string); ok {
		d.Name = name
	}

	if capacity, ok := data["user_capacity"].(map[string]interface{}); ok {
		if bytes, ok := capacity["bytes"].(float64); ok {
			d.CapacityBytes = uint64(bytes)
		}
	}

	// ATA SMART attribute table
	if ataAttrs, ok := data["ata_smart_attributes"].(map[string]interface{}); ok {
		if table, ok := ataAttrs["table"].([]interface{}); ok {
			for _, entry := range table {
				attr, ok := entry.(map[string]interface{})
				if !ok {
					continue
				}
				id, ok := attr["id"].(float64)
				if !ok {
					continue
				}
				raw, ok := attr["raw"].(map[string]interface{})
				if !ok {
					continue
				}
				if rawVal, ok := raw["value"].(float64); ok && rawVal >= 0 {
					d.Attributes[int(id)] = uint64(rawVal)
				}
			}
		}
	}

	// ATA error log count, mapped onto its pseudo-ID
	if errLog, ok := data["ata_smart_error_log"].(map[string]interface{}); ok {
		if summary, ok := errLog["summary"].(map[string]interface{}); ok {
			if count, ok := summary["count"].(float64); ok && count >= 0 {
				d.Attributes[reliability.AttrErrorLogCount] = uint64(count)
			}
		}
	}

	// Power-on time reported outside the attribute table (SAS, some SSDs)
	if _, ok := d.Attributes[reliability.AttrPowerOnHours]; !ok {
		if pot, ok := data["power_on_time"].(map[string]interface{}); ok {
			if hours, ok := pot["hours"].(float64); ok && hours >= 0 {
				d.Attributes[reliability.AttrPowerOnHours] = uint64(hours)
			}
		}
	}

	if nvme, ok := data["nvme_smart_health_information_log"].(map[string]interface{}); ok {
		parseNVMeLog(nvme, &d)
	}

	return d, nil
}

// parseNVMeLog maps NVMe health fields onto the standard attribute IDs so
// the report and forecast see one attribute space.
func parseNVMeLog(nvme map[string]interface{}, d *reliability.Device) {
	fields := []struct {
		key string
		id  int
	}{
		{"temperature", reliability.AttrTemperature},
		{"power_on_hours", reliability.AttrPowerOnHours},
		{"media_errors", reliability.AttrUncorrectable},
	}

	for _, f := range fields {
		if v, ok := nvme[f.key].(float64); ok && v >= 0 {
			if _, exists := d.Attributes[f.id]; !exists {
				d.Attributes[f.id] = uint64(v)
			}
		}
	}
}

// ParseReport extracts the device snapshots from an agent report payload:
// {"hostname": ..., "drives": [<smartctl documents>]}. Serials listed in
// spares are kept out of the array aggregate; every other drive is a
// member. Documents that cannot be parsed are skipped, reported in the
// returned count of rejects.
func ParseReport(payload map[string]interface{}, spares map[string]bool) (devices []reliability.Device, rejected int) {
	drives, ok := payload["drives"].([]interface{})
	if !ok {
		return nil, 0
	}

	for _, raw := range drives {
		doc, ok := raw.(map[string]interface{})
		if !ok {
			rejected++
			continue
		}
		d, err := ParseDevice(doc)
		if err != nil {
			rejected++
			continue
		}
		d.ArrayMember = !spares[d.Serial]
		devices = append(devices, d)
	}

	return devices, rejected
}
