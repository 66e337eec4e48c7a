// Package onewire talks to 1-Wire temperature probes through the w1-gpio
// and w1-therm kernel drivers.
package onewire

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"codeberg.org/mutker/thermlog/internal/errors"
	"codeberg.org/mutker/thermlog/internal/logger"
	"codeberg.org/mutker/thermlog/internal/registry"
)

const (
	FamilyDS18B20 = registry.Family("DS18B20")

	bootOverlay = "dtoverlay=w1-gpio"
	slaveFile   = "w1_slave"
)

// familyCodes maps supported families onto their 1-Wire family code, the
// prefix of every device directory.
var familyCodes = map[registry.Family]string{
	FamilyDS18B20: "28",
}

var requiredModules = []string{"w1_gpio", "w1_therm"}

// Config holds the sysfs and boot paths the bus is inspected through.
type Config struct {
	BootConfig string
	Modules    string
	Devices    string
}

// Sysfs implements Detector and Sampler on top of /sys/bus/w1.
type Sysfs struct {
	cfg    Config
	logger logger.Logger
}

// NewSysfs returns a sysfs-backed detector and sampler.
func NewSysfs(cfg Config, log logger.Logger) *Sysfs {
	if log == nil {
		log = logger.Nop()
	}

	return &Sysfs{cfg: cfg, logger: log}
}

// SupportedFamilies returns the families this package can read.
func SupportedFamilies() []registry.Family {
	families := make([]registry.Family, 0, len(familyCodes))
	for f := range familyCodes {
		families = append(families, f)
	}
	sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })

	return families
}

func (s *Sysfs) Supports(family registry.Family) bool {
	_, ok := familyCodes[family]
	return ok
}

// PrerequisitesMet checks that the w1-gpio overlay is enabled at boot and
// that both w1 kernel modules are loaded.
func (s *Sysfs) PrerequisitesMet(family registry.Family) bool {
	if !s.Supports(family) {
		return false
	}

	overlay, err := s.overlayEnabled()
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.cfg.BootConfig).Msg("Failed to read boot config")
		return false
	}
	if !overlay {
		s.logger.Error().Str("path", s.cfg.BootConfig).Msgf("%s is not enabled", bootOverlay)
		return false
	}

	missing, err := s.missingModules()
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.cfg.Modules).Msg("Failed to read module list")
		return false
	}
	if len(missing) > 0 {
		s.logger.Error().Strs("modules", missing).Msg("Kernel modules not loaded")
		return false
	}

	return true
}

func (s *Sysfs) overlayEnabled() (bool, error) {
	f, err := os.Open(s.cfg.BootConfig)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		// Overlays may carry parameters: dtoverlay=w1-gpio,gpiopin=4
		if line == bootOverlay || strings.HasPrefix(line, bootOverlay+",") {
			return true, nil
		}
	}

	return false, scanner.Err()
}

func (s *Sysfs) missingModules() ([]string, error) {
	data, err := os.ReadFile(s.cfg.Modules)
	if err != nil {
		return nil, err
	}

	loaded := make(map[string]bool)
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 {
			loaded[fields[0]] = true
		}
	}

	var missing []string
	for _, m := range requiredModules {
		if !loaded[m] {
			missing = append(missing, m)
		}
	}

	return missing, nil
}

// EnumerateProbes lists the device directories of family, sorted.
func (s *Sysfs) EnumerateProbes(family registry.Family) ([]registry.ProbeID, error) {
	errFactory := errors.New()

	code, ok := familyCodes[family]
	if !ok {
		return nil, errFactory.WithData(ErrUnsupportedFamily, family)
	}

	matches, err := filepath.Glob(filepath.Join(s.cfg.Devices, code+"-*"))
	if err != nil {
		return nil, errFactory.Wrap(ErrEnumerateFailed, err)
	}
	sort.Strings(matches)

	ids := make([]registry.ProbeID, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, registry.ProbeID(filepath.Base(m)))
	}

	s.logger.Debug().
		Str("family", string(family)).
		Int("count", len(ids)).
		Msg("Probes enumerated")

	return ids, nil
}

// Sample reads the w1_slave file of a probe and returns degrees Celsius.
func (s *Sysfs) Sample(ctx context.Context, family registry.Family, id registry.ProbeID) (registry.Reading, error) {
	errFactory := errors.New()

	if !s.Supports(family) {
		return registry.Absent(), errFactory.WithData(ErrUnsupportedFamily, family)
	}
	if err := ctx.Err(); err != nil {
		return registry.Absent(), errFactory.Wrap(errors.ErrTimeout, err)
	}

	data, err := os.ReadFile(filepath.Join(s.cfg.Devices, string(id), slaveFile))
	if err != nil {
		return registry.Absent(), errFactory.WithData(ErrReadFailed, struct {
			Probe string
			Error string
		}{
			Probe: string(id),
			Error: err.Error(),
		})
	}

	celsius, err := ParseSlave(string(data))
	if err != nil {
		return registry.Absent(), err
	}

	return registry.Float(celsius), nil
}

// ParseSlave decodes w1_slave contents:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func ParseSlave(content string) (float64, error) {
	errFactory := errors.New()

	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) < 2 {
		return 0, errFactory.WithData(ErrMalformedReading, content)
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, errFactory.New(ErrCRCMismatch)
	}

	idx := strings.LastIndex(lines[1], "t=")
	if idx < 0 {
		return 0, errFactory.WithData(ErrMalformedReading, lines[1])
	}
	milli, err := strconv.ParseInt(strings.TrimSpace(lines[1][idx+2:]), 10, 64)
	if err != nil {
		return 0, errFactory.Wrap(ErrMalformedReading, err)
	}

	return float64(milli) / 1000, nil
}
