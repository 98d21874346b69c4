package services

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"clicktrail/internal/config"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

type geoIPReader interface {
	City(ip net.IP) (*geoip2.City, error)
	Metadata() maxminddb.Metadata
	Close() error
}

// MaxMindLookup answers geolocation from a local GeoLite2 City database. When
// MaxMind credentials are configured the file is fetched with geoipupdate on
// first use and refreshed daily.
type MaxMindLookup struct {
	cfg    config.Config
	logger *slog.Logger

	mu     sync.RWMutex
	reader geoIPReader
}

func NewMaxMindLookup(cfg config.Config, logger *slog.Logger) *MaxMindLookup {
	return &MaxMindLookup{cfg: cfg, logger: logger}
}

func (m *MaxMindLookup) canDownload() bool {
	return m.cfg.MaxMindAccountID != "" && m.cfg.MaxMindLicenseKey != ""
}

// Init opens an existing database or downloads one. Lookups fail with
// ErrGeoUnavailable until a reader is loaded.
func (m *MaxMindLookup) Init(ctx context.Context) {
	path := m.cfg.MaxMindDBPath
	if _, err := os.Stat(path); err == nil {
		m.open(path)
		return
	}
	if !m.canDownload() {
		m.logger.Warn("GeoIP database missing and no MaxMind credentials, provider disabled", "path", path)
		return
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		m.logger.Error("Failed to create GeoIP directory", "path", path, "error", err)
		return
	}

	m.logger.Info("Downloading GeoIP database", "editions", m.cfg.MaxMindEditionIDs)
	if err := m.download(ctx); err != nil {
		m.logger.Error("GeoIP download failed", "error", err)
		return
	}
	m.open(path)
}

func (m *MaxMindLookup) StartUpdater(ctx context.Context) {
	m.StartUpdaterWithInterval(ctx, 24*time.Hour)
}

func (m *MaxMindLookup) StartUpdaterWithInterval(ctx context.Context, interval time.Duration) {
	if !m.canDownload() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := m.download(ctx); err != nil {
				m.logger.Error("GeoIP refresh failed", "error", err)
				continue
			}
			m.open(m.cfg.MaxMindDBPath)
		case <-ctx.Done():
			return
		}
	}
}

// download runs geoipupdate against a throwaway config file next to the
// database.
func (m *MaxMindLookup) download(ctx context.Context) error {
	dir := filepath.Dir(m.cfg.MaxMindDBPath)
	confPath := filepath.Join(dir, "GeoIP.conf")

	conf := fmt.Sprintf("AccountID %s\nLicenseKey %s\nEditionIDs %s\nDatabaseDirectory %s\n",
		m.cfg.MaxMindAccountID, m.cfg.MaxMindLicenseKey, m.cfg.MaxMindEditionIDs, dir)
	if err := os.WriteFile(confPath, []byte(conf), 0o600); err != nil {
		return fmt.Errorf("write GeoIP.conf: %w", err)
	}
	defer os.Remove(confPath)

	out, err := exec.CommandContext(ctx, "geoipupdate", "-f", confPath, "-d", dir).CombinedOutput()
	if err != nil {
		return fmt.Errorf("geoipupdate: %w: %s", err, out)
	}
	return nil
}

// open swaps in a reader for path. The previous reader is closed even when
// the new one cannot be opened.
func (m *MaxMindLookup) open(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reader != nil {
		m.reader.Close()
		m.reader = nil
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		m.logger.Error("Failed to open GeoIP database", "path", path, "error", err)
		return
	}
	m.reader = reader

	meta := reader.Metadata()
	m.logger.Info("GeoIP database loaded", "type", meta.DatabaseType, "build_epoch", meta.BuildEpoch)
}

func (m *MaxMindLookup) Lookup(ctx context.Context, ip net.IP) (Location, error) {
	m.mu.RLock()
	reader := m.reader
	m.mu.RUnlock()

	if reader == nil {
		return Location{}, ErrGeoUnavailable
	}
	if err := ctx.Err(); err != nil {
		return Location{}, err
	}

	record, err := reader.City(ip)
	if err != nil {
		return Location{}, fmt.Errorf("geoip lookup: %w", err)
	}
	if record.Country.IsoCode == "" {
		return Location{}, ErrGeoUnavailable
	}

	loc := Location{
		CountryCode: record.Country.IsoCode,
		CountryName: record.Country.Names["en"],
		City:        record.City.Names["en"],
	}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names["en"]
	}
	if lat, lon := record.Location.Latitude, record.Location.Longitude; lat != 0 || lon != 0 {
		loc.Latitude = &lat
		loc.Longitude = &lon
	}
	return loc, nil
}
