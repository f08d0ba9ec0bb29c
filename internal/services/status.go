package services

import (
	"context"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type StatusSample struct {
	CapturedAt        time.Time `json:"captured_at"`
	Database          string    `json:"database"`
	Users             int64     `json:"users"`
	Events            int64     `json:"events"`
	Categories        int64     `json:"categories"`
	ProcessRSSBytes   int64     `json:"process_rss_bytes"`
	SystemMemoryTotal int64     `json:"system_memory_total_bytes"`
	SystemMemoryUsed  int64     `json:"system_memory_used_bytes"`
	DiskTotalBytes    int64     `json:"disk_total_bytes"`
	DiskUsedBytes     int64     `json:"disk_used_bytes"`
	UptimeSeconds     int64     `json:"uptime_seconds"`
}

// CaptureStatus pings the database, counts rows and samples host resources. Host probes
// that fail leave their fields at zero; a database failure is returned with the sample.
func CaptureStatus(ctx context.Context, database *sqlx.DB, diskPath string, startedAt time.Time) (StatusSample, error) {
	sample := StatusSample{CapturedAt: time.Now().UTC(), Database: "ok"}
	if !startedAt.IsZero() {
		sample.UptimeSeconds = int64(time.Since(startedAt).Seconds())
	}

	if proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if rss, err := proc.MemoryInfoWithContext(ctx); err == nil && rss != nil {
			sample.ProcessRSSBytes = int64(rss.RSS)
		}
	}
	if memStat, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		sample.SystemMemoryTotal = int64(memStat.Total)
		sample.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	diskStat, err := disk.UsageWithContext(ctx, diskPath)
	if err != nil {
		diskStat, err = disk.UsageWithContext(ctx, "/")
	}
	if err == nil {
		sample.DiskTotalBytes = int64(diskStat.Total)
		sample.DiskUsedBytes = int64(diskStat.Used)
	}

	if err := database.PingContext(ctx); err != nil {
		sample.Database = "unavailable"
		return sample, err
	}
	counts := []struct {
		table string
		dest  *int64
	}{
		{"users", &sample.Users},
		{"events", &sample.Events},
		{"categories", &sample.Categories},
	}
	for _, c := range counts {
		if err := database.GetContext(ctx, c.dest, `SELECT COUNT(*) FROM `+c.table); err != nil {
			sample.Database = "unavailable"
			return sample, err
		}
	}
	return sample, nil
}
