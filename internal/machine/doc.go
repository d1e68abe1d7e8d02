// Package machine models a single La Marzocco espresso machine: one-shot
// commands over the cloud REST API and decoding of the dashboard telemetry
// documents delivered over the realtime channel.
//
// A Machine is bound to one serial number. Commands (power, steam boiler)
// are fire-and-forget POSTs; the authoritative state arrives asynchronously
// as dashboard telemetry, which Apply folds into the tracked power, steam,
// and brewing flags.
package machine
