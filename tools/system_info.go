package tools

import (
	"context"
	"encoding/json"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

type SystemInfoInput struct{}

var SystemInfoInputSchema = GenerateSchema[SystemInfoInput]()

var SystemInfoDefinition = ToolDefinition{
	Name:        "get_system_info",
	Description: "Get a snapshot of system resource usage: CPU, memory, disk, and platform.",
	InputSchema: SystemInfoInputSchema,
	Function:    SystemInfo,
}

func SystemInfo(ctx context.Context, _ json.RawMessage) (string, error) {
	out := map[string]any{}

	if pcts, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pcts) > 0 {
		out["cpu_percent"] = pcts[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		out["memory"] = map[string]any{
			"total":        vm.Total,
			"available":    vm.Available,
			"used":         vm.Used,
			"used_percent": vm.UsedPercent,
		}
	}
	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		out["disk"] = map[string]any{
			"total":        du.Total,
			"free":         du.Free,
			"used":         du.Used,
			"used_percent": du.UsedPercent,
		}
	}
	if hi, err := host.InfoWithContext(ctx); err == nil {
		out["platform"] = map[string]any{
			"os":       hi.OS,
			"platform": hi.Platform,
			"version":  hi.PlatformVersion,
			"kernel":   hi.KernelVersion,
			"uptime":   hi.Uptime,
		}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
