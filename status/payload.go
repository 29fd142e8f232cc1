package status

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Wire keys of the fields that Decode reads.
const (
	KeyCarStatus        = "car"
	KeyAmpere           = "amp"
	KeyAccessState      = "ast"
	KeyAllowCharging    = "alw"
	KeyStopState        = "stp"
	KeyCableCoding      = "cbl"
	KeyPhaseStatus      = "pha"
	KeyTemperature      = "tmp"
	KeyCharged          = "dws"
	KeyStopEnergy       = "dwo"
	KeyTotalEnergy      = "eto"
	KeyEnergySensor     = "nrg"
	KeySerialNumber     = "sse"
	KeyAwattarPriceZone = "azo"
)

// EnergySensorLen is the number of values the charger reports in "nrg".
const EnergySensorLen = 16

// Payload is the raw status document as returned by the charger's v1 API.
// Every documented key is mapped so that a captured document round-trips,
// but only the keys listed above are decoded. Keys unknown to this struct
// are ignored by encoding/json, which keeps newer firmware readable.
type Payload struct {
	// --- Firmware & runtime ---
	Version string `json:"version"`
	Tme     string `json:"tme"`
	Rbc     string `json:"rbc"`
	Rbt     string `json:"rbt"`

	// --- Charging state ---
	Car string `json:"car"`
	Amp string `json:"amp"`
	Err string `json:"err"`
	Ast string `json:"ast"`
	Alw string `json:"alw"`
	Stp string `json:"stp"`
	Cbl string `json:"cbl"`
	Pha string `json:"pha"`
	Tmp string `json:"tmp"`
	Dws string `json:"dws"`
	Dwo string `json:"dwo"`
	Adi string `json:"adi"`
	Uby string `json:"uby"`
	Eto string `json:"eto"`
	Wst string `json:"wst"`
	Txi string `json:"txi"`

	// nrg carries voltages, currents, powers and power factors. The device
	// documentation does not pin the integer width; int32 covers every
	// observed value.
	Nrg []int32 `json:"nrg"`

	// --- Device & network ---
	Fwv string `json:"fwv"`
	Sse string `json:"sse"`
	Wss string `json:"wss"`
	Wke string `json:"wke"`
	Wen string `json:"wen"`
	Cdi string `json:"cdi"`
	Tof string `json:"tof"`
	Tds string `json:"tds"`
	Lbr string `json:"lbr"`

	// --- Awattar & ampere presets ---
	Aho string `json:"aho"`
	Afi string `json:"afi"`
	Azo string `json:"azo"`
	Ama string `json:"ama"`
	Al1 string `json:"al1"`
	Al2 string `json:"al2"`
	Al3 string `json:"al3"`
	Al4 string `json:"al4"`
	Al5 string `json:"al5"`

	// --- LED & UI ---
	Cid string `json:"cid"`
	Cch string `json:"cch"`
	Cfi string `json:"cfi"`
	Lse string `json:"lse"`
	Ust string `json:"ust"`
	Wak string `json:"wak"`
	R1x string `json:"r1x"`
	Dto string `json:"dto"`
	Nmo string `json:"nmo"`
	Sch string `json:"sch"`
	Sdp string `json:"sdp"`

	// --- RFID cards: energy, id, name ---
	Eca string `json:"eca"`
	Ecr string `json:"ecr"`
	Ecd string `json:"ecd"`
	Ec4 string `json:"ec4"`
	Ec5 string `json:"ec5"`
	Ec6 string `json:"ec6"`
	Ec7 string `json:"ec7"`
	Ec8 string `json:"ec8"`
	Ec9 string `json:"ec9"`
	Ec1 string `json:"ec1"`
	Rca string `json:"rca"`
	Rcr string `json:"rcr"`
	Rcd string `json:"rcd"`
	Rc4 string `json:"rc4"`
	Rc5 string `json:"rc5"`
	Rc6 string `json:"rc6"`
	Rc7 string `json:"rc7"`
	Rc8 string `json:"rc8"`
	Rc9 string `json:"rc9"`
	Rc1 string `json:"rc1"`
	Rna string `json:"rna"`
	Rnm string `json:"rnm"`
	Rne string `json:"rne"`
	Rn4 string `json:"rn4"`
	Rn5 string `json:"rn5"`
	Rn6 string `json:"rn6"`
	Rn7 string `json:"rn7"`
	Rn8 string `json:"rn8"`
	Rn9 string `json:"rn9"`
	Rn1 string `json:"rn1"`

	// --- Load balancing ---
	Loe uint8  `json:"loe"`
	Lot uint8  `json:"lot"`
	Lom uint8  `json:"lom"`
	Lop uint8  `json:"lop"`
	Log string `json:"log"`
	Lon uint8  `json:"lon"`
	Lof uint8  `json:"lof"`
	Loa uint8  `json:"loa"`
	Lch uint32 `json:"lch"`

	// --- MQTT cloud connection ---
	Mce uint8  `json:"mce"`
	Mcs string `json:"mcs"`
	Mcp uint16 `json:"mcp"`
	Mcu string `json:"mcu"`
	Mck string `json:"mck"`
	Mcc uint8  `json:"mcc"`

	// keys present in the parsed document; nil for a Payload built in code
	present map[string]struct{}
}

// ParsePayload unmarshals a status document and records which keys it holds.
// A key with a JSON null value counts as absent.
func ParsePayload(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status payload: %w", err)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status payload: %w", err)
	}
	p.present = make(map[string]struct{}, len(keys))
	for k, v := range keys {
		if string(bytes.TrimSpace(v)) != "null" {
			p.present[k] = struct{}{}
		}
	}
	return &p, nil
}

// Has reports whether the document held key. A Payload built in code holds
// every key.
func (p *Payload) Has(key string) bool {
	if p.present == nil {
		return true
	}
	_, ok := p.present[key]
	return ok
}
