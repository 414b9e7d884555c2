/*
Lumen demo application: boots the engine with the testbed scene.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/voxelforge/lumen/engine"
	"github.com/voxelforge/lumen/engine/config"
	"github.com/voxelforge/lumen/engine/core"
	"github.com/voxelforge/lumen/testbed"
)

func main() {
	cfg, err := config.Load("lumen.toml")
	if err != nil {
		panic(err)
	}
	core.LogSetLevel(cfg.CoreLogLevel())

	game := testbed.NewTestGame(cfg)

	eng, err := engine.New(game)
	if err != nil {
		panic(err)
	}
	if err := eng.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		_ = eng.Shutdown()
		os.Exit(0)
	}()

	if err := eng.Run(); err != nil {
		panic(err)
	}
	if err := eng.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
}
