package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/mogaika/gltf_browser/compression/wasmcodec"
	"github.com/mogaika/gltf_browser/config"
	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/loader"
	"github.com/mogaika/gltf_browser/status"
	"github.com/mogaika/gltf_browser/utils"
	"github.com/mogaika/gltf_browser/vfs"
	"github.com/mogaika/gltf_browser/web"
)

func main() {
	var addr, dir, configPath, codecPath, streamPath, dump string
	var verbose bool
	flag.StringVar(&addr, "i", "", "Address of server (overrides config)")
	flag.StringVar(&dir, "dir", "", "Path to directory with gltf/glb assets (overrides config)")
	flag.StringVar(&configPath, "config", "", "Path to yaml config")
	flag.StringVar(&codecPath, "codec", "", "Path to draco decoder wasm module (overrides config)")
	flag.StringVar(&streamPath, "streams", "", "Path to meshoptimizer wasm module (overrides config)")
	flag.StringVar(&dump, "dump", "", "Decode one asset from -dir, dump it to stdout and exit")
	flag.BoolVar(&verbose, "v", false, "Development logging")
	flag.Parse()

	var logger *zap.Logger
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	diag.SetLogger(logger)

	cfg := config.Default()
	if configPath != "" {
		if cfg, err = config.Load(configPath); err != nil {
			logger.Fatal("config", zap.Error(err))
		}
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dir != "" {
		cfg.Server.Dir = dir
	}
	if codecPath != "" {
		cfg.CodecWasm = codecPath
	}
	if streamPath != "" {
		cfg.StreamWasm = streamPath
	}
	config.Set(cfg)

	ctx := context.Background()
	opts := []loader.Option{loader.WithConfig(cfg), loader.WithLogger(logger)}
	if cfg.CodecWasm != "" {
		wasm, err := os.ReadFile(cfg.CodecWasm)
		if err != nil {
			logger.Fatal("codec module", zap.Error(err))
		}
		codec, err := wasmcodec.New(ctx, wasm)
		if err != nil {
			logger.Fatal("codec module", zap.String("path", cfg.CodecWasm), zap.Error(err))
		}
		defer codec.Close(ctx)
		opts = append(opts, loader.WithCodec(codec))
	}
	if cfg.StreamWasm != "" {
		wasm, err := os.ReadFile(cfg.StreamWasm)
		if err != nil {
			logger.Fatal("stream decoder module", zap.Error(err))
		}
		streams, err := wasmcodec.NewStreamDecoder(ctx, wasm)
		if err != nil {
			logger.Fatal("stream decoder module", zap.String("path", cfg.StreamWasm), zap.Error(err))
		}
		defer streams.Close(ctx)
		opts = append(opts, loader.WithStreamDecoder(streams))
	}

	root := vfs.NewDirectoryDriver(cfg.Server.Dir)
	s := web.NewServer(root, status.NewHub(), opts...)

	if dump != "" {
		a, err := s.Asset(ctx, dump)
		if err != nil {
			logger.Fatal("dump", zap.String("asset", dump), zap.Error(err))
		}
		utils.Dump(os.Stdout, a.Document, a.Meshes, a.Diagnostics)
		return
	}

	if err := web.StartServer(cfg.Server.Addr, s); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
