package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/metaclassing/exllamav2/backend/webgpu"
	"github.com/metaclassing/exllamav2/internal/config"
	"github.com/metaclassing/exllamav2/internal/device"
	"github.com/metaclassing/exllamav2/loader"
)

func loadCmd() *cli.Command {
	var (
		filePath    string
		tensorName  string
		domain      string
		configPath  string
		readWorkers int
		copyWorkers int
		blockKB     int
	)

	return &cli.Command{
		Name:  "load",
		Usage: "Load tensors from a .safetensors file and report throughput",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to .safetensors file",
				Destination: &filePath,
				Required:    true,
			},
			&cli.StringFlag{Name: "tensor", Usage: "load a single tensor by name (default: all)", Destination: &tensorName},
			&cli.StringFlag{Name: "device", Usage: "destination memory domain: host, sim, or gpu", Value: "host", Destination: &domain},
			&cli.StringFlag{Name: "config", Usage: "path to YAML tuning file", Destination: &configPath},
			&cli.IntFlag{Name: "read-workers", Usage: "file reader threads (0 = default)", Destination: &readWorkers},
			&cli.IntFlag{Name: "copy-workers", Usage: "transfer threads (0 = default)", Destination: &copyWorkers},
			&cli.IntFlag{Name: "block-kb", Usage: "block size in KiB (0 = default)", Destination: &blockKB},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_ = ctx
			log := slog.New(slog.NewTextHandler(os.Stderr, nil))

			cfg := loader.DefaultConfig()
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
			}
			if readWorkers > 0 {
				cfg.ReadWorkers = readWorkers
			}
			if copyWorkers > 0 {
				cfg.CopyWorkers = copyWorkers
			}
			if blockKB > 0 {
				cfg.BlockSize = blockKB * 1024
			}

			st, err := loader.OpenSafeTensors(filePath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			st.SetConfig(cfg)

			names := st.TensorNames()
			sort.Strings(names)
			if tensorName != "" {
				names = []string{tensorName}
			}

			var gpu *webgpu.Backend
			if domain == "gpu" {
				gpu, err = webgpu.New()
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				defer gpu.Release()
				log.Info("gpu backend ready", "adapter", gpu.AdapterName())
			}

			var total uint64
			start := time.Now()
			for _, name := range names {
				info, err := st.TensorInfo(name)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				size := uint64(info.DataOffsets[1] - info.DataOffsets[0])

				var dst loader.Target
				var release func()
				switch domain {
				case "host":
					dst = loader.NewHostTarget(make([]byte, size))
				case "sim":
					dst = device.NewAsyncTarget(size)
				case "gpu":
					t, err := gpu.NewTarget(size)
					if err != nil {
						return cli.Exit(fmt.Sprintf("error: %v", err), 1)
					}
					dst, release = t, t.Release
				default:
					return cli.Exit(fmt.Sprintf("error: unknown device %q", domain), 1)
				}

				if err := st.LoadTensorInto(name, dst); err != nil {
					if release != nil {
						release()
					}
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				if release != nil {
					release()
				}
				total += size
			}
			elapsed := time.Since(start)

			log.Info("load complete",
				"tensors", len(names),
				"bytes", total,
				"elapsed", elapsed,
				"throughput_mb_s", fmt.Sprintf("%.1f", float64(total)/1e6/elapsed.Seconds()),
				"read_workers", cfg.ReadWorkers,
				"copy_workers", cfg.CopyWorkers,
				"block_size", cfg.BlockSize,
			)
			return nil
		},
	}
}
