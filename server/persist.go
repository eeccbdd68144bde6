package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"orbarena/game"
)

var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// validRoomID 房间 id 同时用作快照文件名，只允许安全字符
func validRoomID(id string) bool {
	return roomIDPattern.MatchString(id)
}

func snapshotExt(codec game.Codec) string {
	if codec == game.CodecJSON {
		return ".json"
	}
	return ".snap"
}

// SnapshotPath 房间快照文件路径；未配置目录时返回空
func (c Config) SnapshotPath(roomID string) string {
	if c.SnapshotDir == "" {
		return ""
	}
	return filepath.Join(c.SnapshotDir, roomID+snapshotExt(c.SnapshotCodec))
}

// SaveSnapshot 先写临时文件再 rename，避免留下半个快照
func SaveSnapshot(path string, snap game.Snapshot, codec game.Codec) error {
	b, err := game.EncodeSnapshot(snap, codec)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadSnapshot 读取快照；文件不存在时返回 ok=false
func LoadSnapshot(path string, codec game.Codec) (snap game.Snapshot, ok bool, err error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, err
	}
	snap, err = game.DecodeSnapshot(b, codec)
	if err != nil {
		return snap, false, fmt.Errorf("load %s: %w", path, err)
	}
	return snap, true, nil
}
