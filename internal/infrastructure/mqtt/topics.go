package mqtt

import "fmt"

// Topic prefixes per the Gray Logic MQTT specification.
//
// Bridge topics use the flat scheme: graylogic/{category}/{protocol}/{address}.
// This bridge publishes under the "coffee" protocol segment so runtime
// subscribers see it exactly like any other protocol bridge.
const (
	// TopicPrefix is the base for all Gray Logic topics.
	TopicPrefix = "graylogic"

	// Protocol is this bridge's protocol segment in the topic hierarchy.
	Protocol = "coffee"
)

// Topics provides builders for the coffee bridge's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.State("MR123456")
//	// Returns: "graylogic/state/coffee/MR123456"
type Topics struct{}

// State returns the topic for machine state updates (power, steam, brewing).
// Published retained so new subscribers see the current state.
//
// Example: graylogic/state/coffee/MR123456
func (Topics) State(serial string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, Protocol, serial)
}

// Telemetry returns the topic for full telemetry documents (boiler
// temperatures, ready times, water alarm).
//
// Example: graylogic/telemetry/coffee/MR123456
func (Topics) Telemetry(serial string) string {
	return fmt.Sprintf("%s/telemetry/%s/%s", TopicPrefix, Protocol, serial)
}

// Command returns the topic for a single command aspect sent to the machine.
// Aspects are "power" and "steam"; payloads are {"on": bool}.
//
// Example: graylogic/command/coffee/MR123456/power
func (Topics) Command(serial, aspect string) string {
	return fmt.Sprintf("%s/command/%s/%s/%s", TopicPrefix, Protocol, serial, aspect)
}

// AllCommands returns a pattern matching every command aspect for a machine.
//
// Pattern: graylogic/command/coffee/MR123456/+
func (Topics) AllCommands(serial string) string {
	return fmt.Sprintf("%s/command/%s/%s/+", TopicPrefix, Protocol, serial)
}

// Alert returns the topic for machine alerts, currently the water
// reservoir alarm. Published retained.
//
// Example: graylogic/alert/coffee/MR123456
func (Topics) Alert(serial string) string {
	return fmt.Sprintf("%s/alert/%s/%s", TopicPrefix, Protocol, serial)
}

// Health returns the bridge health/availability topic. The LWT is
// registered here so subscribers can detect an unexpected bridge death.
//
// Example: graylogic/health/coffee
func (Topics) Health() string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, Protocol)
}
