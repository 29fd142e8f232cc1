package status

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertInvalid(t *testing.T, err error, field string) {
	t.Helper()
	var iv *InvalidValueError
	require.ErrorAs(t, err, &iv)
	assert.Equal(t, field, iv.Field)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func assertParseErr(t *testing.T, err error, field string) {
	t.Helper()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, field, pe.Field)
	assert.ErrorIs(t, err, ErrParse)
	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr), "ParseError should unwrap to the strconv error")
}

func TestParseCarStatus(t *testing.T) {
	valid := map[string]CarStatus{
		"1": CarReadyNoVehicle,
		"2": CarCharging,
		"3": CarWaitingForVehicle,
		"4": CarChargingFinished,
	}
	for code, want := range valid {
		got, err := ParseCarStatus(code)
		require.NoError(t, err, code)
		assert.Equal(t, want, got)
		assert.Equal(t, code, got.Code())
	}

	for _, code := range []string{"0", "5", "", "abc", " 1", "01"} {
		_, err := ParseCarStatus(code)
		assertInvalid(t, err, KeyCarStatus)
	}
}

func TestParseAccessState(t *testing.T) {
	for code, want := range map[string]AccessState{"0": AccessOpen, "1": AccessRFID, "2": AccessElectricityPrices} {
		got, err := ParseAccessState(code)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, code, got.Code())
	}
	for _, code := range []string{"3", "9", "", "open"} {
		_, err := ParseAccessState(code)
		assertInvalid(t, err, KeyAccessState)
	}
}

func TestParseStopState(t *testing.T) {
	got, err := ParseStopState("0")
	require.NoError(t, err)
	assert.Equal(t, StopDeactivated, got)

	got, err = ParseStopState("2")
	require.NoError(t, err)
	assert.Equal(t, StopSwitchOffAfterKwh, got)

	// "1" has no documented meaning and must stay unmapped.
	for _, code := range []string{"1", "3", "", "x"} {
		_, err := ParseStopState(code)
		assertInvalid(t, err, KeyStopState)
	}
}

func TestParseAwattarPriceZone(t *testing.T) {
	got, err := ParseAwattarPriceZone("0")
	require.NoError(t, err)
	assert.Equal(t, AwattarAustria, got)

	got, err = ParseAwattarPriceZone("1")
	require.NoError(t, err)
	assert.Equal(t, AwattarGermany, got)

	_, err = ParseAwattarPriceZone("2")
	assertInvalid(t, err, KeyAwattarPriceZone)
}

func TestParseAllowCharging(t *testing.T) {
	allowed, err := ParseAllowCharging("1")
	require.NoError(t, err)
	assert.True(t, allowed)

	for _, code := range []string{"0", "2", "255"} {
		allowed, err := ParseAllowCharging(code)
		require.NoError(t, err)
		assert.False(t, allowed, code)
	}

	for _, code := range []string{"", "true", "-1", "256"} {
		_, err := ParseAllowCharging(code)
		assertParseErr(t, err, KeyAllowCharging)
	}
}

func TestParseCableCoding(t *testing.T) {
	for n := 0; n <= 255; n++ {
		code := strconv.Itoa(n)
		got, err := ParseCableCoding(code)
		switch {
		case n == 0:
			require.NoError(t, err)
			assert.Equal(t, NoCable, got)
			_, plugged := got.Ampere()
			assert.False(t, plugged)
		case n >= 13 && n <= 32:
			require.NoError(t, err, code)
			amps, plugged := got.Ampere()
			assert.True(t, plugged)
			assert.Equal(t, uint8(n), amps)
		default:
			assertInvalid(t, err, KeyCableCoding)
		}
	}

	for _, code := range []string{"a", "", "256", "-13", "13.0"} {
		_, err := ParseCableCoding(code)
		assertParseErr(t, err, KeyCableCoding)
	}
}

func TestPhaseStatusFromByte(t *testing.T) {
	assert.Equal(t, PhaseStatus{}, PhaseStatusFromByte(0))

	assert.Equal(t, PhaseStatus{
		L1BeforeContactor: true,
		L2BeforeContactor: true,
		L3BeforeContactor: true,
	}, PhaseStatusFromByte(0b00111000))

	assert.Equal(t, PhaseStatus{
		L1AfterContactor: true,
		L2AfterContactor: true,
		L3AfterContactor: true,
	}, PhaseStatusFromByte(0b00000111))

	assert.Equal(t, PhaseStatus{
		L1AfterContactor:  true,
		L2BeforeContactor: true,
		L3AfterContactor:  true,
	}, PhaseStatusFromByte(0b00010101))
}

func TestPhaseStatusIsTotal(t *testing.T) {
	for n := 0; n <= 255; n++ {
		b := uint8(n)
		got, err := ParsePhaseStatus(strconv.Itoa(n))
		require.NoError(t, err)
		assert.Equal(t, PhaseStatusFromByte(b), got)

		// bits 6 and 7 never change the result
		assert.Equal(t, PhaseStatusFromByte(b&0b00111111), got)
		assert.Equal(t, b&(1<<0) != 0, got.L1AfterContactor)
		assert.Equal(t, b&(1<<1) != 0, got.L2AfterContactor)
		assert.Equal(t, b&(1<<2) != 0, got.L3AfterContactor)
		assert.Equal(t, b&(1<<3) != 0, got.L1BeforeContactor)
		assert.Equal(t, b&(1<<4) != 0, got.L2BeforeContactor)
		assert.Equal(t, b&(1<<5) != 0, got.L3BeforeContactor)
	}

	_, err := ParsePhaseStatus("256")
	assertParseErr(t, err, KeyPhaseStatus)
}

func TestEnergySensorFromArray(t *testing.T) {
	var nrg [EnergySensorLen]int32
	for i := range nrg {
		nrg[i] = int32(1000 + i)
	}
	got := EnergySensorFromArray(nrg)

	assert.Equal(t, EnergySensorReading{
		VoltageL1: 1000, VoltageL2: 1001, VoltageL3: 1002, VoltageN: 1003,
		CurrentL1: 1004, CurrentL2: 1005, CurrentL3: 1006,
		PowerL1: 1007, PowerL2: 1008, PowerL3: 1009, PowerN: 1010, PowerTotal: 1011,
		PowerFactorL1: 1012, PowerFactorL2: 1013, PowerFactorL3: 1014, PowerFactorN: 1015,
	}, got)
}

func TestParseEnergySensor(t *testing.T) {
	values := []int32{-1, 2, -3, 4, -5, 6, -7, 8, -9, 10, -11, 12, -13, 14, -15, 16}
	got, err := ParseEnergySensor(values)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), got.VoltageL1)
	assert.Equal(t, int32(12), got.PowerTotal)
	assert.Equal(t, int32(16), got.PowerFactorN)

	for _, n := range []int{0, 15, 17} {
		_, err := ParseEnergySensor(make([]int32, n))
		assertInvalid(t, err, KeyEnergySensor)
	}
}

func TestEncoders(t *testing.T) {
	assert.Equal(t, "16", EncodeCurrent(16))
	assert.Equal(t, "0", EncodeCurrent(0))
	assert.Equal(t, "255", EncodeCurrent(255))
	assert.Equal(t, "1", EncodeBool(true))
	assert.Equal(t, "0", EncodeBool(false))

	code, err := EncodeAccessState(AccessRFID)
	require.NoError(t, err)
	assert.Equal(t, "1", code)

	_, err = EncodeAccessState(AccessState(0))
	assertInvalid(t, err, KeyAccessState)
}
