// Package cpuspec inspects the host CPU to pick a sensible inference thread
// count. Hybrid Intel parts report performance and efficiency cores together,
// and running inference on E-cores hurts throughput, so we count P-cores.
package cpuspec

import (
	"regexp"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// CPUSpec contains information about CPU specifications
type CPUSpec struct {
	BrandName        string
	PerformanceCores int
}

// GetCPUSpec returns CPU specifications including the number of performance cores
func GetCPUSpec() CPUSpec {
	brandName := cpuid.CPU.BrandName

	return CPUSpec{
		BrandName:        brandName,
		PerformanceCores: determinePerformanceCores(brandName),
	}
}

// GetOptimalThreadCount returns the recommended number of threads for model inference
func (c CPUSpec) GetOptimalThreadCount() int {
	// Actual available CPU count matters in VMs and containers
	availableCPUs := runtime.NumCPU()

	if c.PerformanceCores > 0 {
		if c.PerformanceCores > availableCPUs {
			return availableCPUs
		}
		return c.PerformanceCores
	}

	// Fallback to all logical cores if P-cores can't be determined
	if cores := cpuid.CPU.LogicalCores; cores > 0 {
		return cores
	}
	return availableCPUs
}

// determinePerformanceCores maps known hybrid Intel desktop model numbers
// to their P-core counts. Non-hybrid CPUs return 0 and the caller falls
// back to logical core count.
func determinePerformanceCores(brandName string) int {
	brandName = strings.ToLower(brandName)

	intelCoreRegex := regexp.MustCompile(`intel.*core.*i[3579]-(\d{5})`)
	matches := intelCoreRegex.FindStringSubmatch(brandName)
	if len(matches) < 2 {
		return 0
	}

	model := matches[1]
	generation := model[:2]
	tier := model[2:]

	switch generation {
	case "12", "13", "14":
		switch tier {
		case "900", "700":
			return 8
		case "600", "500", "400":
			return 6
		case "100":
			return 4
		}
	}
	return 0
}
