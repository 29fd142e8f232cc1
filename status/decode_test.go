package status

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type DecodeTest struct {
	suite.Suite
	raw     []byte
	payload *Payload
}

func (s *DecodeTest) SetupTest() {
	raw, err := os.ReadFile("testdata/status.json")
	s.Require().NoError(err)
	s.raw = raw

	s.payload, err = ParsePayload(raw)
	s.Require().NoError(err)
}

func (s *DecodeTest) Test_FullFixture() {
	st, err := Decode(s.payload)
	s.Require().NoError(err)

	s.Equal(&Status{
		CarStatus:     CarCharging,
		Ampere:        16,
		AccessState:   AccessRFID,
		AllowCharging: true,
		StopState:     StopSwitchOffAfterKwh,
		CableCoding:   CableCoding(20),
		PhaseStatus: PhaseStatus{
			L1BeforeContactor: true,
			L1AfterContactor:  true,
			L2BeforeContactor: true,
			L2AfterContactor:  true,
			L3BeforeContactor: true,
			L3AfterContactor:  false,
		},
		Temperature: 25,
		Charged:     36000,
		StopEnergy:  100,
		TotalEnergy: 1234,
		EnergySensor: EnergySensorReading{
			VoltageL1: 231, VoltageL2: 232, VoltageL3: 233, VoltageN: 0,
			CurrentL1: 160, CurrentL2: 158, CurrentL3: 0,
			PowerL1: 37, PowerL2: 36, PowerL3: 0, PowerN: 0, PowerTotal: 730,
			PowerFactorL1: 99, PowerFactorL2: 98, PowerFactorL3: 0, PowerFactorN: 0,
		},
		SerialNumber:     "012345",
		AwattarPriceZone: AwattarGermany,
	}, st)
}

func (s *DecodeTest) Test_UnusedKeysAreKept() {
	s.Equal("B", s.payload.Version)
	s.Equal(uint16(1883), s.payload.Mcp)
	s.Equal(uint8(32), s.payload.Lot)
	s.Equal("home", s.payload.Log)
}

func (s *DecodeTest) Test_InvalidAccessState() {
	s.payload.Ast = "9"
	st, err := Decode(s.payload)
	s.Nil(st)

	var iv *InvalidValueError
	s.Require().ErrorAs(err, &iv)
	s.Equal(KeyAccessState, iv.Field)
	s.Equal("9", iv.Value)
}

func (s *DecodeTest) Test_MissingField() {
	var doc map[string]any
	s.Require().NoError(json.Unmarshal(s.raw, &doc))
	delete(doc, KeyStopState)
	body, err := json.Marshal(doc)
	s.Require().NoError(err)

	p, err := ParsePayload(body)
	s.Require().NoError(err)

	st, err := Decode(p)
	s.Nil(st)
	var iv *InvalidValueError
	s.Require().ErrorAs(err, &iv)
	s.Equal(KeyStopState, iv.Field)
	s.Equal("missing", iv.Reason)
}

// without returns the fixture re-parsed with keys removed.
func (s *DecodeTest) without(keys ...string) *Payload {
	var doc map[string]any
	s.Require().NoError(json.Unmarshal(s.raw, &doc))
	for _, k := range keys {
		delete(doc, k)
	}
	body, err := json.Marshal(doc)
	s.Require().NoError(err)

	p, err := ParsePayload(body)
	s.Require().NoError(err)
	return p
}

func (s *DecodeTest) Test_MissingSerialNumber() {
	st, err := Decode(s.without(KeySerialNumber))
	s.Nil(st)
	var iv *InvalidValueError
	s.Require().ErrorAs(err, &iv)
	s.Equal(KeySerialNumber, iv.Field)
	s.Equal("missing", iv.Reason)
}

func (s *DecodeTest) Test_AbsentEnergySensor() {
	st, err := Decode(s.without(KeyEnergySensor))
	s.Nil(st)
	var iv *InvalidValueError
	s.Require().ErrorAs(err, &iv)
	s.Equal(KeyEnergySensor, iv.Field)
	s.Equal("missing", iv.Reason)
}

func (s *DecodeTest) Test_NullCountsAsAbsent() {
	body := []byte(`{"car":null}`)
	p, err := ParsePayload(body)
	s.Require().NoError(err)
	s.False(p.Has(KeyCarStatus))
	s.False(p.Has(KeyAmpere))
}

func (s *DecodeTest) Test_EmptyNumericFieldIsParseError() {
	for _, key := range []string{KeyAmpere, KeyCableCoding} {
		p, err := ParsePayload(s.raw)
		s.Require().NoError(err)
		switch key {
		case KeyAmpere:
			p.Amp = ""
		case KeyCableCoding:
			p.Cbl = ""
		}

		st, err := Decode(p)
		s.Nil(st)
		var pe *ParseError
		s.Require().ErrorAs(err, &pe, key)
		s.Equal(key, pe.Field)
		s.False(errors.Is(err, ErrInvalidValue), key)
	}
}

func (s *DecodeTest) Test_EmptyEnumFieldIsInvalidValue() {
	s.payload.Ast = ""
	st, err := Decode(s.payload)
	s.Nil(st)
	var iv *InvalidValueError
	s.Require().ErrorAs(err, &iv)
	s.Equal(KeyAccessState, iv.Field)
	s.NotEqual("missing", iv.Reason)
}

func (s *DecodeTest) Test_EmptySerialNumberIsKept() {
	s.payload.Sse = ""
	st, err := Decode(s.payload)
	s.Require().NoError(err)
	s.Equal("", st.SerialNumber)
}

func (s *DecodeTest) Test_PayloadBuiltInCodeHoldsEveryKey() {
	s.True((&Payload{}).Has(KeySerialNumber))
	s.True(s.payload.Has(KeySerialNumber))
	s.False(s.payload.Has("nope"))
}

func (s *DecodeTest) Test_MissingEnergySensor() {
	s.payload.Nrg = nil
	st, err := Decode(s.payload)
	s.Nil(st)
	var iv *InvalidValueError
	s.Require().ErrorAs(err, &iv)
	s.Equal(KeyEnergySensor, iv.Field)
}

func (s *DecodeTest) Test_FailsFastOnFirstField() {
	s.payload.Amp = "sixteen"
	s.payload.Azo = "7"

	st, err := Decode(s.payload)
	s.Nil(st)

	var pe *ParseError
	s.Require().ErrorAs(err, &pe)
	s.Equal(KeyAmpere, pe.Field)
	s.False(errors.Is(err, ErrInvalidValue))
}

func (s *DecodeTest) Test_DecodeAllReportsEveryField() {
	s.payload.Amp = "sixteen"
	s.payload.Stp = "1"
	s.payload.Azo = "7"

	st, err := DecodeAll(s.payload)
	s.Nil(st)
	s.Require().Error(err)
	s.ErrorIs(err, ErrParse)
	s.ErrorIs(err, ErrInvalidValue)
	s.Contains(err.Error(), "field amp")
	s.Contains(err.Error(), "field stp")
	s.Contains(err.Error(), "field azo")
}

func (s *DecodeTest) Test_DecodeAllSucceedsLikeDecode() {
	want, err := Decode(s.payload)
	s.Require().NoError(err)
	got, err := DecodeAll(s.payload)
	s.Require().NoError(err)
	s.Equal(want, got)
}

func (s *DecodeTest) Test_SerialNumberIsVerbatim() {
	s.payload.Sse = "  weird serial/ä "
	st, err := Decode(s.payload)
	s.Require().NoError(err)
	s.Equal("  weird serial/ä ", st.SerialNumber)
}

func TestDecode(t *testing.T) {
	suite.Run(t, new(DecodeTest))
}

func TestDecodeNilPayload(t *testing.T) {
	st, err := Decode(nil)
	assert.Nil(t, st)
	assert.ErrorIs(t, err, ErrInvalidValue)

	st, err = DecodeAll(nil)
	assert.Nil(t, st)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestParsePayloadRejectsMalformedJSON(t *testing.T) {
	_, err := ParsePayload([]byte(`{"car": 1`))
	require.Error(t, err)

	// nrg entries must fit in int32
	_, err = ParsePayload([]byte(`{"nrg": [1, 2, 9999999999]}`))
	require.Error(t, err)
}

func TestStatusJSONUsesReadableEnums(t *testing.T) {
	out, err := json.Marshal(Status{
		CarStatus:        CarWaitingForVehicle,
		AccessState:      AccessOpen,
		StopState:        StopDeactivated,
		CableCoding:      NoCable,
		AwattarPriceZone: AwattarAustria,
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"car_status":"waiting_for_vehicle"`)
	assert.Contains(t, string(out), `"cable_coding":"no_cable"`)
	assert.Contains(t, string(out), `"awattar_price_zone":"austria"`)
}
