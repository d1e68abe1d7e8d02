package machine

import (
	"encoding/json"
	"fmt"
)

// Boiler status strings reported by the dashboard.
const (
	StatusPoweredOn = "PoweredOn"
	StatusBrewing   = "Brewing"
	StatusStandBy   = "StandBy"
	StatusOff       = "Off"
	StatusNoWater   = "NoWater"
)

// CoffeeBoiler is the brew-group boiler state from the CMCoffeeBoiler widget.
type CoffeeBoiler struct {
	Status            string
	TargetTemperature float64
	ReadyStartTime    int64
}

// SteamBoiler is the steam boiler state from the CMSteamBoilerLevel widget.
type SteamBoiler struct {
	Status         string
	TargetLevel    string
	ReadyStartTime int64
}

// CommandResult is a command acknowledgement echoed on the dashboard.
type CommandResult struct {
	ID     string
	Status string
}

// Telemetry is one decoded dashboard document.
//
// Fields for widgets absent from the document are left at their zero value;
// HasMachineStatus distinguishes "machine reported Off" from "no status
// widget in this document".
type Telemetry struct {
	HasMachineStatus bool
	MachineStatus    string
	MachineMode      string

	Brewing          bool
	BrewingStartTime int64

	Coffee CoffeeBoiler
	Steam  SteamBoiler

	// NoWater is the water reservoir alarm: the CMNoWater widget's "allarm"
	// flag, or either boiler reporting the NoWater status.
	NoWater bool

	Commands []CommandResult
}

// dashboardDoc mirrors the wire shape of a dashboard MESSAGE body.
type dashboardDoc struct {
	Widgets []struct {
		Code   string          `json:"code"`
		Output json.RawMessage `json:"output"`
	} `json:"widgets"`
	Commands []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"commands"`
}

// DecodeTelemetry parses a dashboard JSON document into a Telemetry
// snapshot. Unknown widget codes are ignored; individually malformed widget
// outputs are skipped rather than failing the whole document.
func DecodeTelemetry(body string) (Telemetry, error) {
	var doc dashboardDoc
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return Telemetry{}, fmt.Errorf("%w: %w", ErrInvalidTelemetry, err)
	}

	var t Telemetry
	for _, widget := range doc.Widgets {
		switch widget.Code {
		case "CMMachineStatus":
			var output struct {
				Status           string `json:"status"`
				Mode             string `json:"mode"`
				BrewingStartTime *int64 `json:"brewingStartTime"`
			}
			if err := json.Unmarshal(widget.Output, &output); err != nil {
				continue
			}
			t.HasMachineStatus = output.Status != ""
			t.MachineStatus = output.Status
			t.MachineMode = output.Mode
			if output.Status == StatusBrewing {
				t.Brewing = true
				if output.BrewingStartTime != nil {
					t.BrewingStartTime = *output.BrewingStartTime
				}
			}

		case "CMCoffeeBoiler":
			var output struct {
				Status            string   `json:"status"`
				TargetTemperature *float64 `json:"targetTemperature"`
				ReadyStartTime    *int64   `json:"readyStartTime"`
			}
			if err := json.Unmarshal(widget.Output, &output); err != nil {
				continue
			}
			t.Coffee.Status = output.Status
			if output.TargetTemperature != nil {
				t.Coffee.TargetTemperature = *output.TargetTemperature
			}
			if output.ReadyStartTime != nil {
				t.Coffee.ReadyStartTime = *output.ReadyStartTime
			}

		case "CMSteamBoilerLevel":
			var output struct {
				Status         string `json:"status"`
				TargetLevel    string `json:"targetLevel"`
				ReadyStartTime *int64 `json:"readyStartTime"`
			}
			if err := json.Unmarshal(widget.Output, &output); err != nil {
				continue
			}
			t.Steam.Status = output.Status
			t.Steam.TargetLevel = output.TargetLevel
			if output.ReadyStartTime != nil {
				t.Steam.ReadyStartTime = *output.ReadyStartTime
			}

		case "CMNoWater":
			var output struct {
				// The service spells the field with a double L.
				Alarm bool `json:"allarm"`
			}
			if err := json.Unmarshal(widget.Output, &output); err != nil {
				continue
			}
			if output.Alarm {
				t.NoWater = true
			}
		}
	}

	if t.Coffee.Status == StatusNoWater || t.Steam.Status == StatusNoWater {
		t.NoWater = true
	}

	for _, cmd := range doc.Commands {
		if cmd.ID == "" || cmd.Status == "" {
			continue
		}
		t.Commands = append(t.Commands, CommandResult{ID: cmd.ID, Status: cmd.Status})
	}

	return t, nil
}

// PowerOn reports whether the machine status indicates it is powered on.
func (t Telemetry) PowerOn() bool {
	return t.MachineStatus == StatusPoweredOn || t.MachineStatus == StatusBrewing
}

// SteamOn reports whether the steam boiler is heating. Off and StandBy count
// as off; every other non-empty status counts as on.
func (t Telemetry) SteamOn() bool {
	switch t.Steam.Status {
	case "", StatusOff, StatusStandBy:
		return false
	default:
		return true
	}
}
