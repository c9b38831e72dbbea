package helpers

import (
	"bufio"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
)

const fallbackMemoryLimitMB = 512

// meminfoPath is read for MemTotal. Hosts without procfs report 0.
var meminfoPath = "/proc/meminfo"

// TotalSystemMemoryMB returns physical RAM in MB, or 0 when unknown.
func TotalSystemMemoryMB() int {
	file, err := os.Open(meminfoPath)
	if err != nil {
		return 0
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] != "MemTotal:" {
			continue
		}
		kb, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0
		}
		return kb / 1024
	}
	return 0
}

// CacheMemoryLimitMB resolves the soft limit for the proxy process. A
// positive cache.memory_limit_mb wins. Otherwise the limit is 75% of RAM,
// floored at 512MB unless the host has less. Unknown RAM yields 512MB.
func CacheMemoryLimitMB(configuredMB int) int {
	if configuredMB > 0 {
		return configuredMB
	}

	totalMB := TotalSystemMemoryMB()
	if totalMB == 0 {
		return fallbackMemoryLimitMB
	}

	limit := totalMB * 3 / 4
	if limit < fallbackMemoryLimitMB {
		if totalMB < fallbackMemoryLimitMB {
			return totalMB
		}
		return fallbackMemoryLimitMB
	}
	return limit
}

// ApplyMemoryLimit hands the resolved limit to the Go runtime so upstream
// bodies buffered by in-flight proxy requests push GC before the host runs dry.
func ApplyMemoryLimit(configuredMB int) int {
	limit := CacheMemoryLimitMB(configuredMB)
	debug.SetMemoryLimit(int64(limit) << 20)
	return limit
}
