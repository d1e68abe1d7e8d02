package tsdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-lamarzocco/internal/machine"
)

// boolToFloat maps state flags onto 0/1 gauges so they chart cleanly.
func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// RecordTelemetry writes one decoded dashboard document as telemetry points.
//
// Two measurements are produced, both tagged by machine serial:
//   - machine_state: power/steam/brewing/no_water as 0/1 gauges
//   - boiler: per-boiler status fields (target temperature for the coffee
//     boiler, heating flag per boiler)
//
// Writes are non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - serial: Machine serial number (tag)
//   - t: Decoded telemetry snapshot
func (r *Recorder) RecordTelemetry(serial string, t machine.Telemetry) {
	if !r.IsConnected() {
		return
	}

	// One timestamp per document: the points describe a single dashboard
	// snapshot and must align when queried together.
	now := time.Now()

	if t.HasMachineStatus {
		r.WritePointWithTime(
			"machine_state",
			map[string]string{"serial": serial},
			map[string]interface{}{
				"power":    boolToFloat(t.PowerOn()),
				"steam":    boolToFloat(t.SteamOn()),
				"brewing":  boolToFloat(t.Brewing),
				"no_water": boolToFloat(t.NoWater),
			},
			now,
		)
	}

	if t.Coffee.Status != "" {
		fields := map[string]interface{}{
			"heating": boolToFloat(t.Coffee.Status == "HeatingUp"),
			"ready":   boolToFloat(t.Coffee.Status == "Ready"),
		}
		if t.Coffee.TargetTemperature > 0 {
			fields["target_temperature"] = t.Coffee.TargetTemperature
		}
		r.WritePointWithTime(
			"boiler",
			map[string]string{"serial": serial, "boiler": "coffee"},
			fields,
			now,
		)
	}

	if t.Steam.Status != "" {
		r.WritePointWithTime(
			"boiler",
			map[string]string{"serial": serial, "boiler": "steam"},
			map[string]interface{}{
				"heating": boolToFloat(t.Steam.Status == "HeatingUp"),
				"ready":   boolToFloat(t.Steam.Status == "Ready"),
				"enabled": boolToFloat(t.SteamOn()),
			},
			now,
		)
	}
}

// WritePoint writes a custom point stamped with the current time.
//
// Use this for measurements that don't fit RecordTelemetry.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	recorder.WritePoint("bridge_stats",
//	    map[string]string{"serial": "MR123456"},
//	    map[string]interface{}{"reconnects": 3})
func (r *Recorder) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	r.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point with a specific timestamp.
// RecordTelemetry routes through here so the points of one dashboard
// snapshot share a timestamp.
func (r *Recorder) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !r.IsConnected() {
		return
	}

	r.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
