package cmd

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/urfave/cli"
)

// Print a report of the host resources available to the cpu tracers.
// Probes that fail on exotic platforms are skipped instead of aborting
// the report.
func Info(ctx *cli.Context) error {
	setupLogging(ctx)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Property", "Value"})

	if hostInfo, err := host.Info(); err == nil {
		table.Append([]string{"Host", hostInfo.Hostname})
		table.Append([]string{"OS", fmt.Sprintf("%s (%s %s)", hostInfo.OS, hostInfo.Platform, hostInfo.PlatformVersion)})
	} else {
		logger.Warningf("unable to query host info: %s", err)
	}

	if cpuInfo, err := cpu.Info(); err == nil && len(cpuInfo) > 0 {
		table.Append([]string{"CPU model", cpuInfo[0].ModelName})
		table.Append([]string{"CPU clock", fmt.Sprintf("%.0f MHz", cpuInfo[0].Mhz)})
	} else if err != nil {
		logger.Warningf("unable to query cpu info: %s", err)
	}

	if physCores, err := cpu.Counts(false); err == nil {
		table.Append([]string{"Physical cores", fmt.Sprintf("%d", physCores)})
	}
	if logicalCores, err := cpu.Counts(true); err == nil {
		table.Append([]string{"Logical cores", fmt.Sprintf("%d", logicalCores)})
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		table.Append([]string{"Memory", fmt.Sprintf("%.1f GiB total, %.1f GiB available", gib(vmStat.Total), gib(vmStat.Available))})
	} else {
		logger.Warningf("unable to query memory info: %s", err)
	}

	// NewDefault attaches one tracer per logical core unless overridden.
	table.Append([]string{"Default tracers", fmt.Sprintf("%d", runtime.NumCPU())})

	table.Render()
	logger.Noticef("host capabilities\n%s", buf.String())

	return nil
}

func gib(numBytes uint64) float64 {
	return float64(numBytes) / (1 << 30)
}
