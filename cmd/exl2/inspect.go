package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/metaclassing/exllamav2/loader"
)

func inspectCmd() *cli.Command {
	var (
		filePath     string
		tensorFilter string
		showMeta     bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "List the tensors of a .safetensors file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to .safetensors file",
				Destination: &filePath,
				Required:    true,
			},
			&cli.StringFlag{Name: "filter", Usage: "substring filter for tensor names", Destination: &tensorFilter},
			&cli.BoolFlag{Name: "metadata", Usage: "show header metadata", Destination: &showMeta},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_ = ctx

			st, err := loader.OpenSafeTensors(filePath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			if showMeta {
				for k, v := range st.Metadata() {
					fmt.Printf("# %s = %s\n", k, v)
				}
			}

			names := st.TensorNames()
			sort.Strings(names)

			var total int64
			shown := 0
			for _, name := range names {
				if tensorFilter != "" && !strings.Contains(name, tensorFilter) {
					continue
				}
				info, err := st.TensorInfo(name)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				size := info.DataOffsets[1] - info.DataOffsets[0]
				total += size
				shown++
				fmt.Printf("%-60s %-5s %-16v %12d bytes\n", name, info.DType, info.Shape, size)
			}
			fmt.Printf("%d tensors, %d bytes\n", shown, total)
			return nil
		},
	}
}
