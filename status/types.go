package status

import "fmt"

// CarStatus is the vehicle connection state reported in "car".
type CarStatus uint8

const (
	CarReadyNoVehicle CarStatus = iota + 1
	CarCharging
	CarWaitingForVehicle
	CarChargingFinished
)

// Code returns the wire code, or "" for an unknown value.
func (s CarStatus) Code() string {
	switch s {
	case CarReadyNoVehicle:
		return "1"
	case CarCharging:
		return "2"
	case CarWaitingForVehicle:
		return "3"
	case CarChargingFinished:
		return "4"
	default:
		return ""
	}
}

func (s CarStatus) String() string {
	switch s {
	case CarReadyNoVehicle:
		return "ready_no_vehicle"
	case CarCharging:
		return "charging"
	case CarWaitingForVehicle:
		return "waiting_for_vehicle"
	case CarChargingFinished:
		return "charging_finished"
	default:
		return fmt.Sprintf("car_status(%d)", uint8(s))
	}
}

// AccessState is the access control mode in "ast".
type AccessState uint8

const (
	AccessOpen AccessState = iota + 1
	AccessRFID
	AccessElectricityPrices
)

// Code returns the wire code, or "" for an unknown value.
func (s AccessState) Code() string {
	switch s {
	case AccessOpen:
		return "0"
	case AccessRFID:
		return "1"
	case AccessElectricityPrices:
		return "2"
	default:
		return ""
	}
}

func (s AccessState) String() string {
	switch s {
	case AccessOpen:
		return "open"
	case AccessRFID:
		return "rfid"
	case AccessElectricityPrices:
		return "electricity_prices"
	default:
		return fmt.Sprintf("access_state(%d)", uint8(s))
	}
}

// StopState is the automatic stop mode in "stp".
//
// The charger also emits "1" on some firmware. Its meaning is undocumented,
// so it is rejected instead of being mapped to a guess.
type StopState uint8

const (
	StopDeactivated StopState = iota + 1
	StopSwitchOffAfterKwh
)

// Code returns the wire code, or "" for an unknown value.
func (s StopState) Code() string {
	switch s {
	case StopDeactivated:
		return "0"
	case StopSwitchOffAfterKwh:
		return "2"
	default:
		return ""
	}
}

func (s StopState) String() string {
	switch s {
	case StopDeactivated:
		return "deactivated"
	case StopSwitchOffAfterKwh:
		return "switch_off_after_kwh"
	default:
		return fmt.Sprintf("stop_state(%d)", uint8(s))
	}
}

// CableCoding is the rated current of the plugged-in cable. Zero means no
// cable; valid ratings are 13 to 32 amperes.
type CableCoding uint8

const (
	NoCable CableCoding = 0

	minCableAmpere = 13
	maxCableAmpere = 32
)

// Ampere returns the cable rating and false when no cable is plugged in.
func (c CableCoding) Ampere() (uint8, bool) {
	if c == NoCable {
		return 0, false
	}
	return uint8(c), true
}

func (c CableCoding) String() string {
	if c == NoCable {
		return "no_cable"
	}
	return fmt.Sprintf("%dA", uint8(c))
}

// AwattarPriceZone is the electricity price zone in "azo".
type AwattarPriceZone uint8

const (
	AwattarAustria AwattarPriceZone = iota + 1
	AwattarGermany
)

// Code returns the wire code, or "" for an unknown value.
func (z AwattarPriceZone) Code() string {
	switch z {
	case AwattarAustria:
		return "0"
	case AwattarGermany:
		return "1"
	default:
		return ""
	}
}

func (z AwattarPriceZone) String() string {
	switch z {
	case AwattarAustria:
		return "austria"
	case AwattarGermany:
		return "germany"
	default:
		return fmt.Sprintf("awattar_price_zone(%d)", uint8(z))
	}
}

// PhaseStatus tells which phases carry voltage before and after the
// contactor.
type PhaseStatus struct {
	L1BeforeContactor bool `json:"l1_before_contactor"`
	L1AfterContactor  bool `json:"l1_after_contactor"`

	L2BeforeContactor bool `json:"l2_before_contactor"`
	L2AfterContactor  bool `json:"l2_after_contactor"`

	L3BeforeContactor bool `json:"l3_before_contactor"`
	L3AfterContactor  bool `json:"l3_after_contactor"`
}

// EnergySensorReading is the positional content of "nrg". Units follow the
// device: volts, 0.1 A, 0.1 kW (total in 0.01 kW) and percent.
type EnergySensorReading struct {
	VoltageL1 int32 `json:"voltage_l1"`
	VoltageL2 int32 `json:"voltage_l2"`
	VoltageL3 int32 `json:"voltage_l3"`
	VoltageN  int32 `json:"voltage_n"`

	CurrentL1 int32 `json:"current_l1"`
	CurrentL2 int32 `json:"current_l2"`
	CurrentL3 int32 `json:"current_l3"`

	PowerL1    int32 `json:"power_l1"`
	PowerL2    int32 `json:"power_l2"`
	PowerL3    int32 `json:"power_l3"`
	PowerN     int32 `json:"power_n"`
	PowerTotal int32 `json:"power_total"`

	PowerFactorL1 int32 `json:"power_factor_l1"`
	PowerFactorL2 int32 `json:"power_factor_l2"`
	PowerFactorL3 int32 `json:"power_factor_l3"`
	PowerFactorN  int32 `json:"power_factor_n"`
}

// Status is a fully decoded charger snapshot. Decode never returns a
// partially populated Status.
type Status struct {
	CarStatus        CarStatus           `json:"car_status"`
	Ampere           uint8               `json:"ampere"`
	AccessState      AccessState         `json:"access_state"`
	AllowCharging    bool                `json:"allow_charging"`
	StopState        StopState           `json:"stop_state"`
	CableCoding      CableCoding         `json:"cable_coding"`
	PhaseStatus      PhaseStatus         `json:"phase_status"`
	Temperature      uint8               `json:"temperature"`
	Charged          uint32              `json:"charged"`
	StopEnergy       uint32              `json:"stop_energy"`
	TotalEnergy      uint32              `json:"total_energy"`
	EnergySensor     EnergySensorReading `json:"energy_sensor"`
	SerialNumber     string              `json:"serial_number"`
	AwattarPriceZone AwattarPriceZone    `json:"awattar_price_zone"`
}

// MarshalText implementations make JSON output of a Status readable.

func (s CarStatus) MarshalText() ([]byte, error)        { return []byte(s.String()), nil }
func (s AccessState) MarshalText() ([]byte, error)      { return []byte(s.String()), nil }
func (s StopState) MarshalText() ([]byte, error)        { return []byte(s.String()), nil }
func (c CableCoding) MarshalText() ([]byte, error)      { return []byte(c.String()), nil }
func (z AwattarPriceZone) MarshalText() ([]byte, error) { return []byte(z.String()), nil }
