package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"orbarena/game"
)

// Config 服务与房间参数
type Config struct {
	Addr                string
	LogFile             string
	TickHz              int
	WorldSize           float64
	TileSize            float64
	DefaultRoom         string
	NPCs                int // 每个房间的 NPC 数量
	NPCDecisionInterval int
	SnapshotDir         string // 为空表示不持久化
	SnapshotCodec       game.Codec
	ReclaimTicks        int // 快照恢复的玩家等待重连的 Tick 数
	SendBuffer          int
	InputBuffer         int
}

func DefaultConfig() Config {
	return Config{
		Addr:                ":8080",
		LogFile:             "app.log",
		TickHz:              60,
		WorldSize:           game.DefaultWorldSize,
		TileSize:            game.DefaultTileSize,
		DefaultRoom:         "room-1",
		NPCDecisionInterval: game.NPCDecisionInterval,
		SnapshotCodec:       game.CodecMsgpack,
		ReclaimTicks:        600,
		SendBuffer:          64,
		InputBuffer:         256,
	}
}

// fileConfig JSON 配置文件，只覆盖出现的字段
type fileConfig struct {
	Addr                *string  `json:"addr"`
	LogFile             *string  `json:"logFile"`
	TickHz              *int     `json:"tickHz"`
	WorldSize           *float64 `json:"worldSize"`
	TileSize            *float64 `json:"tileSize"`
	DefaultRoom         *string  `json:"defaultRoom"`
	NPCs                *int     `json:"npcs"`
	NPCDecisionInterval *int     `json:"npcDecisionInterval"`
	SnapshotDir         *string  `json:"snapshotDir"`
	SnapshotCodec       *string  `json:"snapshotCodec"`
	ReclaimTicks        *int     `json:"reclaimTicks"`
	SendBuffer          *int     `json:"sendBuffer"`
	InputBuffer         *int     `json:"inputBuffer"`
}

func (f fileConfig) apply(base Config) (Config, error) {
	if f.Addr != nil {
		base.Addr = *f.Addr
	}
	if f.LogFile != nil {
		base.LogFile = *f.LogFile
	}
	if f.TickHz != nil {
		base.TickHz = *f.TickHz
	}
	if f.WorldSize != nil {
		base.WorldSize = *f.WorldSize
	}
	if f.TileSize != nil {
		base.TileSize = *f.TileSize
	}
	if f.DefaultRoom != nil {
		base.DefaultRoom = *f.DefaultRoom
	}
	if f.NPCs != nil {
		base.NPCs = *f.NPCs
	}
	if f.NPCDecisionInterval != nil {
		base.NPCDecisionInterval = *f.NPCDecisionInterval
	}
	if f.SnapshotDir != nil {
		base.SnapshotDir = *f.SnapshotDir
	}
	if f.SnapshotCodec != nil {
		codec, err := game.ParseCodec(*f.SnapshotCodec)
		if err != nil {
			return base, err
		}
		base.SnapshotCodec = codec
	}
	if f.ReclaimTicks != nil {
		base.ReclaimTicks = *f.ReclaimTicks
	}
	if f.SendBuffer != nil {
		base.SendBuffer = *f.SendBuffer
	}
	if f.InputBuffer != nil {
		base.InputBuffer = *f.InputBuffer
	}
	return base, nil
}

// LoadConfigFile 在 base 之上应用配置文件
func LoadConfigFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return base, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc.apply(base)
}

// LoadEnvFile 把 .env 文件载入进程环境（不覆盖已存在的变量），文件不存在不算错误
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv 用 ORBARENA_* 环境变量覆盖配置
func ApplyEnv(base Config) (Config, error) {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	str("ORBARENA_ADDR", &base.Addr)
	str("ORBARENA_LOG", &base.LogFile)
	str("ORBARENA_DEFAULT_ROOM", &base.DefaultRoom)
	str("ORBARENA_SNAPSHOT_DIR", &base.SnapshotDir)
	if v, ok := os.LookupEnv("ORBARENA_SNAPSHOT_CODEC"); ok {
		codec, err := game.ParseCodec(v)
		if err != nil {
			return base, err
		}
		base.SnapshotCodec = codec
	}
	for key, dst := range map[string]*int{
		"ORBARENA_TICK_HZ":               &base.TickHz,
		"ORBARENA_NPCS":                  &base.NPCs,
		"ORBARENA_NPC_DECISION_INTERVAL": &base.NPCDecisionInterval,
		"ORBARENA_RECLAIM_TICKS":         &base.ReclaimTicks,
	} {
		if err := num(key, dst); err != nil {
			return base, err
		}
	}
	return base, nil
}

// Sanitize 把非法值恢复为默认
func (c Config) Sanitize() Config {
	def := DefaultConfig()
	if c.TickHz <= 0 || c.TickHz > 1000 {
		c.TickHz = def.TickHz
	}
	if c.WorldSize <= 0 {
		c.WorldSize = def.WorldSize
	}
	if c.TileSize <= 0 || c.TileSize > c.WorldSize {
		c.TileSize = def.TileSize
	}
	if c.DefaultRoom == "" {
		c.DefaultRoom = def.DefaultRoom
	}
	if c.NPCs < 0 {
		c.NPCs = 0
	}
	if c.NPCDecisionInterval <= 0 {
		c.NPCDecisionInterval = def.NPCDecisionInterval
	}
	if c.SnapshotCodec == "" {
		c.SnapshotCodec = def.SnapshotCodec
	}
	if c.ReclaimTicks < 0 {
		c.ReclaimTicks = 0
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = def.SendBuffer
	}
	if c.InputBuffer <= 0 {
		c.InputBuffer = def.InputBuffer
	}
	return c
}

func (c Config) worldConfig(seed int64) game.Config {
	return game.Config{WorldSize: c.WorldSize, TileSize: c.TileSize, Seed: seed}
}
