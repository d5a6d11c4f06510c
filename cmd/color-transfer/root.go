package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/color-transfer/internal/gpu"
	"github.com/ironsheep/color-transfer/internal/transfer"
)

// Environment variables read when the matching flag is not set.
const (
	envLogLevel  = "COLOR_TRANSFER_LOG_LEVEL"
	envMaxHeapMB = "COLOR_TRANSFER_MAX_HEAP_MB"
)

var rootCmd = &cobra.Command{
	Use:   "color-transfer",
	Short: "Transfer the color mood of a reference photograph onto other images",
	Long: `color-transfer matches the CIE Lab mean and standard deviation of an
image to those of a reference photograph.

Logs go to stderr; stdout carries results (and the MCP protocol in serve mode).

Environment variables:
  COLOR_TRANSFER_LOG_LEVEL=debug   Log level (debug, info, warn, error)
  COLOR_TRANSFER_MAX_HEAP_MB=2048  Heap ceiling used by the memory governor`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "", "Log level: debug, info, warn or error (default warn)")
	flags.Int("max-heap-mb", 0, "Heap ceiling in MiB (default GOMEMLIMIT or 4096)")
	flags.Bool("no-gpu", false, "Never use the GPU shader path")
	flags.String("gpu-host", "auto", "GPU shader host: auto, device or software")
}

// stringSetting returns the flag value when set, else the environment value.
func stringSetting(cmd *cobra.Command, flag, env string) string {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		return f.Value.String()
	}
	return os.Getenv(env)
}

// parseLevel maps a level name to a slog level. Empty selects warn.
func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelWarn, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	lvl, err := parseLevel(stringSetting(cmd, "log-level", envLogLevel))
	if err != nil {
		return err
	}
	// stdout is reserved for results and the MCP protocol.
	transfer.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// maxHeapBytes resolves the heap ceiling; 0 lets the telemetry decide.
func maxHeapBytes(cmd *cobra.Command) (uint64, error) {
	s := stringSetting(cmd, "max-heap-mb", envMaxHeapMB)
	if s == "" || s == "0" {
		return 0, nil
	}
	mb, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid max heap %q: %w", s, err)
	}
	return mb * transfer.MiB, nil
}

// gpuHosts returns the shader hosts to try for a --gpu-host value, in order.
func gpuHosts(name string) ([]gpu.Host, error) {
	switch name {
	case "", "auto":
		return []gpu.Host{gpu.NewDeviceHost(), gpu.NewSoftwareHost()}, nil
	case "device":
		return []gpu.Host{gpu.NewDeviceHost()}, nil
	case "software":
		return []gpu.Host{gpu.NewSoftwareHost()}, nil
	default:
		return nil, fmt.Errorf("invalid gpu host %q (want auto, device or software)", name)
	}
}

// newEngine builds the engine from persistent flags. The first shader host
// that initializes backs the GPU filter; when none does the engine simply
// uses the CPU.
func newEngine(ctx context.Context, cmd *cobra.Command) (*transfer.Engine, error) {
	maxHeap, err := maxHeapBytes(cmd)
	if err != nil {
		return nil, err
	}
	opts := []transfer.Option{
		transfer.WithTelemetry(transfer.NewRuntimeTelemetry(maxHeap)),
	}

	noGPU, _ := cmd.Flags().GetBool("no-gpu")
	if !noGPU {
		hostName, _ := cmd.Flags().GetString("gpu-host")
		hosts, err := gpuHosts(hostName)
		if err != nil {
			return nil, err
		}
		for _, host := range hosts {
			shader := gpu.NewShaderFilter(host)
			if err := shader.Init(ctx); err != nil {
				_ = shader.Close()
				continue
			}
			opts = append(opts, transfer.WithGPU(shader))
			break
		}
	}
	return transfer.New(opts...), nil
}
