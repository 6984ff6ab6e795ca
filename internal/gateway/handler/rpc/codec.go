package rpc

import (
	"encoding/json"
	"fmt"

	"compass/internal/util/jsonutil"
)

// JSONCodec lets Connect carry plain Go structs as JSON. It registers under
// the name "json", replacing the protobuf JSON codec for application/json
// and application/connect+json.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return jsonutil.MarshalNoEscape(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode json message: %w", err)
	}
	return nil
}
