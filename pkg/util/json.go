package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// DecodeJSON 解码时数字保留为 json.Number，避免超过 2^53 的整数丢精度
func DecodeJSON(r io.Reader, v any) error {
	if r == nil {
		return errors.New("empty json body")
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}

func UnmarshalJSON(data []byte, v any) error {
	return DecodeJSON(bytes.NewReader(data), v)
}
