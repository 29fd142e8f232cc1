package status

import "errors"

// Decode turns a raw payload into a Status. It stops at the first field that
// fails and returns that field's error unchanged, so callers can inspect it
// with errors.As against *ParseError or *InvalidValueError.
func Decode(p *Payload) (*Status, error) {
	if p == nil {
		return nil, invalid("payload", "", "missing")
	}
	d := decoder{payload: p}
	st := d.run()
	if len(d.errs) > 0 {
		return nil, d.errs[0]
	}
	return st, nil
}

// DecodeAll behaves like Decode but keeps going after a failure and reports
// every failing field joined with errors.Join. The status is nil whenever
// any field fails.
func DecodeAll(p *Payload) (*Status, error) {
	if p == nil {
		return nil, invalid("payload", "", "missing")
	}
	d := decoder{payload: p, collect: true}
	st := d.run()
	if len(d.errs) > 0 {
		return nil, errors.Join(d.errs...)
	}
	return st, nil
}

type decoder struct {
	payload *Payload
	collect bool
	errs    []error
}

// ok reports whether decoding should continue.
func (d *decoder) ok() bool {
	return d.collect || len(d.errs) == 0
}

func (d *decoder) fail(err error) {
	d.errs = append(d.errs, err)
}

// field returns the raw value of a required key, recording an absent key as
// an invalid value. A present but empty value is left to its codec.
func (d *decoder) field(key, raw string) (string, bool) {
	if !d.payload.Has(key) {
		d.fail(invalid(key, "", "missing"))
		return "", false
	}
	return raw, true
}

func (d *decoder) run() *Status {
	p := d.payload
	var st Status

	if raw, ok := d.field(KeyCarStatus, p.Car); ok {
		v, err := ParseCarStatus(raw)
		d.record(err)
		st.CarStatus = v
	}
	if d.ok() {
		if raw, ok := d.field(KeyAmpere, p.Amp); ok {
			v, err := parseUint8(KeyAmpere, raw)
			d.record(err)
			st.Ampere = v
		}
	}
	if d.ok() {
		if raw, ok := d.field(KeyAccessState, p.Ast); ok {
			v, err := ParseAccessState(raw)
			d.record(err)
			st.AccessState = v
		}
	}
	if d.ok() {
		if raw, ok := d.field(KeyAllowCharging, p.Alw); ok {
			v, err := ParseAllowCharging(raw)
			d.record(err)
			st.AllowCharging = v
		}
	}
	if d.ok() {
		if raw, ok := d.field(KeyStopState, p.Stp); ok {
			v, err := ParseStopState(raw)
			d.record(err)
			st.StopState = v
		}
	}
	if d.ok() {
		if raw, ok := d.field(KeyCableCoding, p.Cbl); ok {
			v, err := ParseCableCoding(raw)
			d.record(err)
			st.CableCoding = v
		}
	}
	if d.ok() {
		if raw, ok := d.field(KeyPhaseStatus, p.Pha); ok {
			v, err := ParsePhaseStatus(raw)
			d.record(err)
			st.PhaseStatus = v
		}
	}
	if d.ok() {
		if raw, ok := d.field(KeyTemperature, p.Tmp); ok {
			v, err := parseUint8(KeyTemperature, raw)
			d.record(err)
			st.Temperature = v
		}
	}
	if d.ok() {
		if raw, ok := d.field(KeyCharged, p.Dws); ok {
			v, err := parseUint32(KeyCharged, raw)
			d.record(err)
			st.Charged = v
		}
	}
	if d.ok() {
		if raw, ok := d.field(KeyStopEnergy, p.Dwo); ok {
			v, err := parseUint32(KeyStopEnergy, raw)
			d.record(err)
			st.StopEnergy = v
		}
	}
	if d.ok() {
		if raw, ok := d.field(KeyTotalEnergy, p.Eto); ok {
			v, err := parseUint32(KeyTotalEnergy, raw)
			d.record(err)
			st.TotalEnergy = v
		}
	}
	if d.ok() {
		if _, ok := d.field(KeyEnergySensor, ""); ok {
			v, err := ParseEnergySensor(p.Nrg)
			d.record(err)
			st.EnergySensor = v
		}
	}
	if d.ok() {
		if raw, ok := d.field(KeySerialNumber, p.Sse); ok {
			st.SerialNumber = raw
		}
	}
	if d.ok() {
		if raw, ok := d.field(KeyAwattarPriceZone, p.Azo); ok {
			v, err := ParseAwattarPriceZone(raw)
			d.record(err)
			st.AwattarPriceZone = v
		}
	}

	return &st
}

func (d *decoder) record(err error) {
	if err != nil {
		d.fail(err)
	}
}
