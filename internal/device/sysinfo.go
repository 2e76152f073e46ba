package device

import (
	"bufio"
	"context"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

// SystemInfo collects host identity and resource figures via uname,
// sysinfo and statfs.
func (c *LinuxController) SystemInfo(ctx context.Context) (SystemInfo, error) {
	info := SystemInfo{
		Arch:     runtime.GOARCH,
		CPUCount: runtime.NumCPU(),
	}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}

	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		info.Kernel = charsToString(uts.Release[:])
		info.Arch = charsToString(uts.Machine[:])
	}

	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err == nil {
		unit := int64(si.Unit)
		if unit == 0 {
			unit = 1
		}
		info.MemoryMB = int64(si.Totalram) * unit / (1 << 20)
		info.MemoryFreeMB = int64(si.Freeram) * unit / (1 << 20)
		info.UptimeHours = float64(si.Uptime) / 3600
	}

	var fs unix.Statfs_t
	if err := unix.Statfs("/", &fs); err == nil {
		info.DiskTotalGB = int64(fs.Blocks) * fs.Bsize / (1 << 30)
		info.DiskFreeGB = int64(fs.Bfree) * fs.Bsize / (1 << 30)
	}

	info.CPU = cpuModel()

	return info, nil
}

func cpuModel() string {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "model name") {
			if _, value, ok := strings.Cut(line, ":"); ok {
				return strings.TrimSpace(value)
			}
		}
	}
	return ""
}

func charsToString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
