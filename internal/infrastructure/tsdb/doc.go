// Package tsdb records machine telemetry to InfluxDB for long-term history.
//
// This package manages:
//   - Connection to an InfluxDB v2 server with token authentication
//   - Non-blocking batched writes of telemetry points
//   - Health monitoring and graceful flush on shutdown
//
// Boiler temperatures, ready times, and machine state flags are written as
// points tagged by machine serial number, so warm-up curves and brewing
// activity can be charted next to the rest of the home's metrics.
//
// The recorder is optional: when influxdb.enabled is false the bridge runs
// without it and Connect returns ErrDisabled.
//
// # Usage
//
//	recorder, err := tsdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer recorder.Close()
//
//	recorder.RecordTelemetry("MR123456", telemetry)
package tsdb
