package net

import (
	"errors"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Engine.IO v4 packet types, first byte of every websocket frame.
const (
	eioOpen    byte = '0'
	eioClose   byte = '1'
	eioPing    byte = '2'
	eioPong    byte = '3'
	eioMessage byte = '4'
)

// Socket.IO packet types, second byte of an Engine.IO message.
const (
	sioConnect      byte = '0'
	sioDisconnect   byte = '1'
	sioEvent        byte = '2'
	sioAck          byte = '3'
	sioConnectError byte = '4'
)

const noAck = -1

var errMalformedPacket = errors.New("malformed socket.io packet")

// handshake is the payload of the Engine.IO open packet.
type handshake struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
	MaxPayload   int    `json:"maxPayload"`
}

// frame is a decoded websocket frame.
//
// +-----------+------------+----------+----------------+
// | eio type  | sio type   | ack id   | json payload   |
// +-----------+------------+----------+----------------+
// | 1 byte    | 1 byte     | digits   | object / array |
// +-----------+------------+----------+----------------+
//
// sio type, ack id and payload are only present on eio messages.
type frame struct {
	eio     byte
	sio     byte
	ackID   int
	payload []byte
}

// Message is an event or an ack received from the server.
type Message struct {
	Event string
	Args  []jsoniter.RawMessage
}

// Decode unmarshals the i-th argument into v.
func (m Message) Decode(i int, v any) error {
	if i < 0 || i >= len(m.Args) {
		return fmt.Errorf("message %q has no argument %d", m.Event, i)
	}
	return json.Unmarshal(m.Args[i], v)
}

func parseFrame(raw []byte) (frame, error) {
	f := frame{ackID: noAck}
	if len(raw) == 0 {
		return f, errMalformedPacket
	}
	f.eio = raw[0]
	if f.eio != eioMessage {
		f.payload = raw[1:]
		return f, nil
	}
	if len(raw) < 2 {
		return f, errMalformedPacket
	}
	f.sio = raw[1]
	rest := raw[2:]

	// namespaced packets look like "42/chat,[...]"; only the default
	// namespace is used so the prefix is skipped
	if len(rest) > 0 && rest[0] == '/' {
		i := 0
		for i < len(rest) && rest[i] != ',' {
			i++
		}
		if i == len(rest) {
			rest = nil
		} else {
			rest = rest[i+1:]
		}
	}

	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i > 0 {
		id, err := strconv.Atoi(string(rest[:i]))
		if err != nil {
			return f, errMalformedPacket
		}
		f.ackID = id
	}
	f.payload = rest[i:]
	return f, nil
}

// decodeEvent splits an event payload `["name", arg...]`.
func decodeEvent(payload []byte) (Message, error) {
	var parts []jsoniter.RawMessage
	if err := json.Unmarshal(payload, &parts); err != nil {
		return Message{}, fmt.Errorf("decode event: %w", err)
	}
	if len(parts) == 0 {
		return Message{}, errMalformedPacket
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return Message{}, fmt.Errorf("decode event name: %w", err)
	}
	return Message{Event: name, Args: parts[1:]}, nil
}

func decodeAckArgs(payload []byte) ([]jsoniter.RawMessage, error) {
	var args []jsoniter.RawMessage
	if len(payload) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(payload, &args); err != nil {
		return nil, fmt.Errorf("decode ack: %w", err)
	}
	return args, nil
}

// encodeEvent builds "42[<id>]["event", args...]".
func encodeEvent(ackID int, event string, args ...any) ([]byte, error) {
	body := make([]any, 0, len(args)+1)
	body = append(body, event)
	body = append(body, args...)
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	out := []byte{eioMessage, sioEvent}
	if ackID != noAck {
		out = strconv.AppendInt(out, int64(ackID), 10)
	}
	return append(out, data...), nil
}

// encodeAck answers a server-side ack request: "43<id>[args...]".
func encodeAck(ackID int, args ...any) ([]byte, error) {
	if args == nil {
		args = []any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode ack: %w", err)
	}
	out := []byte{eioMessage, sioAck}
	out = strconv.AppendInt(out, int64(ackID), 10)
	return append(out, data...), nil
}
