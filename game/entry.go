package game

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// PlayerState 角色对外字段（增量广播与快照共用）
type PlayerState struct {
	GridX   int     `json:"gridX"`
	GridY   int     `json:"gridY"`
	Heading float64 `json:"heading"`
	HeldOrb bool    `json:"heldOrb"`
}

// ProjectileState 弹丸对外字段
type ProjectileState struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Heading   float64 `json:"heading"`
	ShooterID string  `json:"shooterId"`
}

// Entry 编码为二元数组 [id, value|null]；Value 为 nil 表示移除
type Entry[T any] struct {
	ID    string
	Value *T
}

func (e Entry[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.ID, e.Value})
}

func (e *Entry[T]) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("entry must be a [id, value] pair, got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.ID); err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	e.Value = nil
	if bytes.Equal(bytes.TrimSpace(raw[1]), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw[1]))
	dec.DisallowUnknownFields()
	v := new(T)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("entry %q: %w", e.ID, err)
	}
	e.Value = v
	return nil
}

func (e Entry[T]) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := enc.EncodeString(e.ID); err != nil {
		return err
	}
	if e.Value == nil {
		return enc.EncodeNil()
	}
	return enc.Encode(e.Value)
}

func (e *Entry[T]) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 2 {
		return fmt.Errorf("entry must be a [id, value] pair, got %d elements", n)
	}
	if e.ID, err = dec.DecodeString(); err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	var v *T
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("entry %q: %w", e.ID, err)
	}
	e.Value = v
	return nil
}
