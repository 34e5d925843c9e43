package engine

import (
	"encoding/json"
	"fmt"
)

// msgKind distinguishes the two message flavors a round may emit.
type msgKind uint8

const (
	msgKindBcast msgKind = 1
	msgKindP2P   msgKind = 2
)

// wireMessage is the envelope around every round payload. The engine core
// only ever interprets the envelope; the payload is opaque bytes decoded by
// the round that consumes it.
type wireMessage struct {
	Kind    msgKind `json:"kind"`
	From    int     `json:"from"`
	To      int     `json:"to,omitempty"`
	Payload []byte  `json:"payload"`
}

func encodeBcast(from int, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("engine: encoding broadcast payload: %w", err)
	}
	return json.Marshal(wireMessage{Kind: msgKindBcast, From: from, Payload: raw})
}

func encodeP2P(from, to int, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("engine: encoding p2p payload: %w", err)
	}
	return json.Marshal(wireMessage{Kind: msgKindP2P, From: from, To: to, Payload: raw})
}

func decodeWire(b []byte) (*wireMessage, error) {
	var m wireMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("engine: decoding wire message: %w", err)
	}
	if m.Kind != msgKindBcast && m.Kind != msgKindP2P {
		return nil, fmt.Errorf("engine: unknown message kind %d", m.Kind)
	}
	return &m, nil
}
