package status

import (
	"fmt"
	"strconv"
)

// ParseCarStatus decodes "car".
func ParseCarStatus(s string) (CarStatus, error) {
	switch s {
	case "1":
		return CarReadyNoVehicle, nil
	case "2":
		return CarCharging, nil
	case "3":
		return CarWaitingForVehicle, nil
	case "4":
		return CarChargingFinished, nil
	default:
		return 0, invalid(KeyCarStatus, s, "unknown car status")
	}
}

// ParseAccessState decodes "ast".
func ParseAccessState(s string) (AccessState, error) {
	switch s {
	case "0":
		return AccessOpen, nil
	case "1":
		return AccessRFID, nil
	case "2":
		return AccessElectricityPrices, nil
	default:
		return 0, invalid(KeyAccessState, s, "unknown access state")
	}
}

// ParseStopState decodes "stp". Only "0" and "2" are documented.
func ParseStopState(s string) (StopState, error) {
	switch s {
	case "0":
		return StopDeactivated, nil
	case "2":
		return StopSwitchOffAfterKwh, nil
	default:
		return 0, invalid(KeyStopState, s, "unknown stop state")
	}
}

// ParseAwattarPriceZone decodes "azo".
func ParseAwattarPriceZone(s string) (AwattarPriceZone, error) {
	switch s {
	case "0":
		return AwattarAustria, nil
	case "1":
		return AwattarGermany, nil
	default:
		return 0, invalid(KeyAwattarPriceZone, s, "unknown awattar price zone")
	}
}

// ParseAllowCharging decodes "alw". Any numeric value other than 1 means
// charging is not allowed.
func ParseAllowCharging(s string) (bool, error) {
	v, err := parseUint8(KeyAllowCharging, s)
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// ParseCableCoding decodes "cbl".
func ParseCableCoding(s string) (CableCoding, error) {
	v, err := parseUint8(KeyCableCoding, s)
	if err != nil {
		return 0, err
	}
	switch {
	case v == 0:
		return NoCable, nil
	case v >= minCableAmpere && v <= maxCableAmpere:
		return CableCoding(v), nil
	default:
		return 0, invalid(KeyCableCoding, s,
			fmt.Sprintf("cable coding out of range %d..%d", minCableAmpere, maxCableAmpere))
	}
}

// ParsePhaseStatus decodes "pha". Once the byte parses, decoding cannot fail.
func ParsePhaseStatus(s string) (PhaseStatus, error) {
	v, err := parseUint8(KeyPhaseStatus, s)
	if err != nil {
		return PhaseStatus{}, err
	}
	return PhaseStatusFromByte(v), nil
}

// PhaseStatusFromByte decodes the phase bit field. Bits 6 and 7 are unused.
func PhaseStatusFromByte(b uint8) PhaseStatus {
	return PhaseStatus{
		L1AfterContactor: b&(1<<0) != 0,
		L2AfterContactor: b&(1<<1) != 0,
		L3AfterContactor: b&(1<<2) != 0,

		L1BeforeContactor: b&(1<<3) != 0,
		L2BeforeContactor: b&(1<<4) != 0,
		L3BeforeContactor: b&(1<<5) != 0,
	}
}

// ParseEnergySensor decodes "nrg". Values are not range checked.
func ParseEnergySensor(values []int32) (EnergySensorReading, error) {
	if len(values) != EnergySensorLen {
		return EnergySensorReading{}, invalid(KeyEnergySensor, fmt.Sprint(values),
			fmt.Sprintf("expected %d values, got %d", EnergySensorLen, len(values)))
	}
	var arr [EnergySensorLen]int32
	copy(arr[:], values)
	return EnergySensorFromArray(arr), nil
}

// EnergySensorFromArray assigns each position of "nrg" to its named field.
func EnergySensorFromArray(nrg [EnergySensorLen]int32) EnergySensorReading {
	return EnergySensorReading{
		VoltageL1: nrg[0],
		VoltageL2: nrg[1],
		VoltageL3: nrg[2],
		VoltageN:  nrg[3],

		CurrentL1: nrg[4],
		CurrentL2: nrg[5],
		CurrentL3: nrg[6],

		PowerL1:    nrg[7],
		PowerL2:    nrg[8],
		PowerL3:    nrg[9],
		PowerN:     nrg[10],
		PowerTotal: nrg[11],

		PowerFactorL1: nrg[12],
		PowerFactorL2: nrg[13],
		PowerFactorL3: nrg[14],
		PowerFactorN:  nrg[15],
	}
}

// EncodeCurrent returns the wire form of a current limit.
func EncodeCurrent(amps uint8) string {
	return strconv.FormatUint(uint64(amps), 10)
}

// EncodeBool returns "1" for true and "0" for false.
func EncodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// EncodeAccessState returns the wire code of s.
func EncodeAccessState(s AccessState) (string, error) {
	code := s.Code()
	if code == "" {
		return "", invalid(KeyAccessState, strconv.Itoa(int(s)), "unknown access state")
	}
	return code, nil
}

func parseUint8(field, s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, &ParseError{Field: field, Value: s, Err: err}
	}
	return uint8(v), nil
}

func parseUint32(field, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, &ParseError{Field: field, Value: s, Err: err}
	}
	return uint32(v), nil
}
