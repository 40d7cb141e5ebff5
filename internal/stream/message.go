package stream

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Message is one classified frame from the time stream. Exactly one
// concrete type is produced per frame; frames that are not valid JSON
// objects classify as Malformed rather than being dropped.
type Message interface {
	isMessage()
}

// Welcome is the session-opening frame sent by the server.
type Welcome struct {
	Text             string `json:"message"`
	UpdateIntervalMS int64  `json:"update_interval_ms"`
	MaxDurationSecs  int64  `json:"max_duration_secs"`
}

// Tick carries one periodic time reading. EpochMS is nil when the frame
// omitted the field, which is distinct from a present zero value.
type Tick struct {
	EpochMS       *int64  `json:"epoch_ms"`
	ISO8601       string  `json:"iso8601"`
	Sequence      int64   `json:"sequence"`
	IsStale       bool    `json:"is_stale"`
	StalenessSecs float64 `json:"staleness_secs"`
}

// ServerError is an error frame reported by the server.
type ServerError struct {
	Text string `json:"message"`
}

// Unknown is a well-formed frame whose type field is not recognized.
type Unknown struct {
	RawType string
}

// Malformed is a frame that failed JSON decoding.
type Malformed struct {
	Raw string
}

func (Welcome) isMessage()     {}
func (Tick) isMessage()        {}
func (ServerError) isMessage() {}
func (Unknown) isMessage()     {}
func (Malformed) isMessage()   {}

// Classify parses a raw text frame into a typed Message. It never fails:
// undecodable input maps to Malformed and an unrecognized type field maps
// to Unknown.
func Classify(data []byte) Message {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return Malformed{Raw: string(data)}
	}

	msgType := "unknown"
	if t := gjson.GetBytes(data, "type"); t.Exists() {
		msgType = t.String()
	}

	switch msgType {
	case "welcome":
		var msg Welcome
		if err := json.Unmarshal(data, &msg); err != nil {
			return Malformed{Raw: string(data)}
		}
		return msg
	case "tick":
		var msg Tick
		if err := json.Unmarshal(data, &msg); err != nil {
			return Malformed{Raw: string(data)}
		}
		return msg
	case "error":
		var msg ServerError
		if err := json.Unmarshal(data, &msg); err != nil {
			return Malformed{Raw: string(data)}
		}
		return msg
	default:
		return Unknown{RawType: msgType}
	}
}

// Counts tallies classified frames by variant. Malformed frames are
// tracked separately because they carry no message type of their own.
type Counts struct {
	Welcome   int64 `json:"welcome"`
	Tick      int64 `json:"tick"`
	Error     int64 `json:"error"`
	Unknown   int64 `json:"unknown"`
	Malformed int64 `json:"malformed"`
}

// Add records one classified message in the matching counter.
func (c *Counts) Add(m Message) {
	switch m.(type) {
	case Welcome:
		c.Welcome++
	case Tick:
		c.Tick++
	case ServerError:
		c.Error++
	case Unknown:
		c.Unknown++
	case Malformed:
		c.Malformed++
	}
}

// Merge adds another tally into this one.
func (c *Counts) Merge(other Counts) {
	c.Welcome += other.Welcome
	c.Tick += other.Tick
	c.Error += other.Error
	c.Unknown += other.Unknown
	c.Malformed += other.Malformed
}

// Total returns the number of frames recorded, malformed included.
func (c Counts) Total() int64 {
	return c.Welcome + c.Tick + c.Error + c.Unknown + c.Malformed
}
