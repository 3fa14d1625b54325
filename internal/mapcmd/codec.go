package mapcmd

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec names accepted by NewCodec.
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

type Codec func(Command) ([]byte, error)

func NewCodec(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return func(c Command) ([]byte, error) { return json.Marshal(c) }, nil
	case CodecMsgpack:
		return func(c Command) ([]byte, error) { return msgpack.Marshal(c) }, nil
	default:
		return nil, fmt.Errorf("unknown map command codec %q", name)
	}
}
