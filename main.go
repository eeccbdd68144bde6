package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orbarena/server"
)

// OrbArena 入口：启动 HTTP + WebSocket 服务，并初始化房间管理器
func main() {
	var (
		addr       string
		logFile    string
		configPath string
		envFile    string
		snapDir    string
		debug      bool
	)
	def := server.DefaultConfig()
	flag.StringVar(&addr, "addr", def.Addr, "server listen address, e.g. :8080")
	flag.StringVar(&logFile, "log", def.LogFile, "log file path (rotated)")
	flag.StringVar(&configPath, "config", "", "optional JSON config file")
	flag.StringVar(&envFile, "env", ".env", "optional env file with ORBARENA_* overrides")
	flag.StringVar(&snapDir, "snapshots", "", "directory for room snapshots; empty disables persistence")
	flag.BoolVar(&debug, "debug", false, "log debug events (kills, bad messages)")
	flag.Parse()

	cfg := def
	if configPath != "" {
		loaded, err := server.LoadConfigFile(configPath, cfg)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}
	if err := server.LoadEnvFile(envFile); err != nil {
		panic(err)
	}
	cfg, err := server.ApplyEnv(cfg)
	if err != nil {
		panic(err)
	}
	// 命令行显式给出的参数优先于配置文件
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = addr
		case "log":
			cfg.LogFile = logFile
		case "snapshots":
			cfg.SnapshotDir = snapDir
		}
	})
	cfg = cfg.Sanitize()

	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(cfg.LogFile, debug); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	rm := server.InitRoomManager(cfg)
	// 先预创建一个默认房间，便于快速试跑
	if _, err := rm.GetOrCreateRoom(cfg.DefaultRoom); err != nil {
		server.Log.Fatalf("create default room: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", rm.HandleWS)
	// 管理与监控接口
	mux.HandleFunc("/admin/config", rm.HandleAdminConfig)
	mux.HandleFunc("/admin/snapshot", rm.HandleAdminSnapshot)
	mux.HandleFunc("/metrics", rm.HandleMetrics)
	mux.HandleFunc("/rooms", rm.HandleRooms)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		server.Log.Infof("OrbArena listening on %s (tick %dHz, room %s)", cfg.Addr, cfg.TickHz, cfg.DefaultRoom)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）：先停 HTTP，再停房间（保存快照）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		server.Log.Warnw("http shutdown", "err", err)
	}
	rm.Shutdown()
}
