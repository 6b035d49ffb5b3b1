package httpapi

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

var processStart = time.Now()

func (h *handler) adminAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, h.audits.listLimit(limit))
}

// adminStatus reports host and process health for the platform
// operators. Collector errors surface as nulls rather than failing
// the whole endpoint.
func (h *handler) adminStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"time":       time.Now().UTC(),
		"uptime":     time.Since(processStart).String(),
		"goroutines": runtime.NumGoroutine(),
		"go_version": runtime.Version(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		status["memory"] = map[string]interface{}{
			"total_bytes": vm.Total,
			"used_bytes":  vm.Used,
			"used_pct":    vm.UsedPercent,
		}
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		status["cpu_pct"] = percents[0]
	}
	if info, err := host.Info(); err == nil {
		status["host"] = map[string]interface{}{
			"hostname": info.Hostname,
			"os":       info.OS,
			"platform": info.Platform,
			"uptime_s": info.Uptime,
		}
	}

	writeJSON(w, http.StatusOK, status)
}
