package wire

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype of control service calls.
const CodecName = "tracectl"

func init() {
	encoding.RegisterCodec(codec{})
}

// codec marshals control service messages. Other services on the same
// server (health) keep the default proto codec.
type codec struct{}

func (codec) Name() string { return CodecName }

func (codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("tracectl codec: cannot marshal %T", v)
	}
	return m.Marshal()
}

func (codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("tracectl codec: cannot unmarshal into %T", v)
	}
	return m.Unmarshal(data)
}
