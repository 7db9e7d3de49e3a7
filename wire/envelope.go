// Package wire implements the fixed binary envelope exchanged between the
// realtime ingester and the stream processor over the log.
//
// The schema is deliberately hand-rolled rather than built on a generic
// serialization library: the log transport needs one exact, versioned byte
// layout that both producer and consumer agree on without a schema registry,
// and nothing else in this repository needs general-purpose serialization.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// version is the only envelope layout this codec understands. Decode
// rejects anything else so an incompatible future encoder fails loudly
// instead of silently corrupting state.
const version = 1

// Trade is the wire and in-memory representation of a single trade tick.
type Trade struct {
	Conditions []string
	Price      float64
	Symbol     string
	TradeTsMs  int64
	Volume     float64
}

// Envelope is the top-level frame published to the log topic.
type Envelope struct {
	Type string
	Data []Trade
}

// Encode renders env as its canonical binary form. Encode is deterministic:
// Decode(Encode(env)) reproduces env exactly for any valid Envelope.
func Encode(env Envelope) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(version)

	if err := writeString(&buf, env.Type); err != nil {
		return nil, fmt.Errorf("wire: encode type: %w", err)
	}

	if err := binary.Write(&buf, binary.BigEndian, uint32(len(env.Data))); err != nil {
		return nil, fmt.Errorf("wire: encode data count: %w", err)
	}

	for i, t := range env.Data {
		if err := encodeTrade(&buf, t); err != nil {
			return nil, fmt.Errorf("wire: encode trade %d: %w", i, err)
		}
	}

	return buf.Bytes(), nil
}

// Decode parses raw into an Envelope. An unknown version byte, a truncated
// frame, or a length-prefixed field reaching past the end of raw is an
// error. Missing optional fields (empty conditions, trade_ts_ms=0) decode to
// their zero values rather than failing.
func Decode(raw []byte) (Envelope, error) {
	r := bytes.NewReader(raw)

	v, err := r.ReadByte()
	if err != nil {
		return Envelope{}, fmt.Errorf("wire: read version: %w", err)
	}
	if v != version {
		return Envelope{}, fmt.Errorf("wire: unsupported envelope version %d", v)
	}

	typ, err := readString(r)
	if err != nil {
		return Envelope{}, fmt.Errorf("wire: decode type: %w", err)
	}

	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return Envelope{}, fmt.Errorf("wire: decode data count: %w", err)
	}

	data := make([]Trade, 0, count)
	for i := uint32(0); i < count; i++ {
		t, err := decodeTrade(r)
		if err != nil {
			return Envelope{}, fmt.Errorf("wire: decode trade %d: %w", i, err)
		}
		data = append(data, t)
	}

	if r.Len() != 0 {
		return Envelope{}, fmt.Errorf("wire: %d trailing bytes after envelope", r.Len())
	}

	return Envelope{Type: typ, Data: data}, nil
}

func encodeTrade(buf *bytes.Buffer, t Trade) error {
	if err := writeString(buf, t.Symbol); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, t.Price); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, t.Volume); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, uint32(len(t.Conditions))); err != nil {
		return err
	}
	for _, c := range t.Conditions {
		if err := writeString(buf, c); err != nil {
			return err
		}
	}
	return binary.Write(buf, binary.BigEndian, t.TradeTsMs)
}

func decodeTrade(r *bytes.Reader) (Trade, error) {
	symbol, err := readString(r)
	if err != nil {
		return Trade{}, err
	}

	var price, volume float64
	if err := binary.Read(r, binary.BigEndian, &price); err != nil {
		return Trade{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &volume); err != nil {
		return Trade{}, err
	}

	var condCount uint32
	if err := binary.Read(r, binary.BigEndian, &condCount); err != nil {
		return Trade{}, err
	}
	conditions := make([]string, 0, condCount)
	for i := uint32(0); i < condCount; i++ {
		c, err := readString(r)
		if err != nil {
			return Trade{}, err
		}
		conditions = append(conditions, c)
	}

	var tradeTsMs int64
	if err := binary.Read(r, binary.BigEndian, &tradeTsMs); err != nil {
		return Trade{}, err
	}

	return Trade{
		Symbol:     symbol,
		Price:      price,
		Volume:     volume,
		Conditions: conditions,
		TradeTsMs:  tradeTsMs,
	}, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := buf.WriteString(s)
	return err
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	if int64(n) > int64(r.Len()) {
		return "", fmt.Errorf("wire: string length %d exceeds remaining %d bytes", n, r.Len())
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", err
	}
	return string(b), nil
}
