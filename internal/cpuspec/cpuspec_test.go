package cpuspec

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterminePerformanceCores(t *testing.T) {
	cases := []struct {
		brand string
		want  int
	}{
		{"12th Gen Intel(R) Core(TM) i9-12900K", 8},
		{"12th Gen Intel(R) Core(TM) i7-12700", 8},
		{"13th Gen Intel(R) Core(TM) i5-13600K", 6},
		{"13th Gen Intel(R) Core(TM) i5-13400F", 6},
		{"Intel(R) Core(TM) i5-14500", 6},
		{"12th Gen Intel(R) Core(TM) i3-12100", 4},
		// Pre-hybrid and non-Intel parts fall through to zero
		{"Intel(R) Core(TM) i7-9700K CPU @ 3.60GHz", 0},
		{"AMD Ryzen 9 5950X 16-Core Processor", 0},
		{"Apple M2", 0},
		{"", 0},
	}

	for _, tc := range cases {
		t.Run(tc.brand, func(t *testing.T) {
			assert.Equal(t, tc.want, determinePerformanceCores(tc.brand))
		})
	}
}

func TestGetOptimalThreadCount(t *testing.T) {
	// Known P-core count is capped by the actually available CPUs
	spec := CPUSpec{BrandName: "test", PerformanceCores: 8}
	got := spec.GetOptimalThreadCount()
	assert.LessOrEqual(t, got, runtime.NumCPU())
	assert.Positive(t, got)

	// Unknown CPU still yields a usable thread count
	spec = CPUSpec{BrandName: "unknown", PerformanceCores: 0}
	assert.Positive(t, spec.GetOptimalThreadCount())
}

func TestGetCPUSpec(t *testing.T) {
	spec := GetCPUSpec()
	assert.Positive(t, spec.GetOptimalThreadCount())
}
