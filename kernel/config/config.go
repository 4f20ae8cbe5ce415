// Package config loads the boot configuration of the hosted kernel from a
// TOML file. Keys missing from the file keep their default value and the
// logging settings can be overridden from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"includeos/kernel/hal"
	"includeos/kernel/kfmt"
	"includeos/kernel/kmain"
	"includeos/kernel/mem"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// Environment variables that override the [log] section.
const (
	EnvLogLevel     = "INCLUDEOS_LOG_LEVEL"
	EnvLogNoColor   = "INCLUDEOS_LOG_NOCOLOR"
	EnvLogTimestamp = "INCLUDEOS_LOG_TIMESTAMP"
)

// Config is the complete boot configuration.
type Config struct {
	Layout kmain.Layout
	Log    kfmt.LogConfig

	// Plugins restricts the registered plugins to the listed names. An
	// empty list enables every plugin.
	Plugins []string

	// PreHeapGap is the size of the area left between the image and the
	// heap.
	PreHeapGap mem.Size

	// Memory overrides the amount of RAM detected by the platform when
	// non-zero.
	Memory mem.Size
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Layout:     kmain.DefaultLayout(),
		Log:        kfmt.DefaultLogConfig(),
		PreHeapGap: hal.DefaultPreHeapGap,
	}
}

type fileConfig struct {
	Layout struct {
		DiagnosticsBase   uint64 `toml:"diagnostics_base"`
		DiagnosticsSize   string `toml:"diagnostics_size"`
		LowMemoryOffset   uint64 `toml:"low_memory_offset"`
		HeapAlignmentMask uint64 `toml:"heap_alignment_mask"`
		StackStart        uint64 `toml:"stack_start"`
		StackEnd          uint64 `toml:"stack_end"`
	} `toml:"layout"`

	Log struct {
		Level     string `toml:"level"`
		NoColor   bool   `toml:"no_color"`
		Timestamp bool   `toml:"timestamp"`
	} `toml:"log"`

	Boot struct {
		Plugins    []string `toml:"plugins"`
		PreHeapGap string   `toml:"pre_heap_gap"`
	} `toml:"boot"`

	Platform struct {
		Memory string `toml:"memory"`
	} `toml:"platform"`
}

// Load reads the configuration at path on top of Default and applies the
// environment overrides. An empty path only applies the overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return Config{}, fmt.Errorf("load kernel config: %w", err)
		}

		if err := apply(&cfg, &raw, meta); err != nil {
			return Config{}, err
		}
	}

	applyEnvOverrides(&cfg.Log)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func apply(cfg *Config, raw *fileConfig, meta toml.MetaData) error {
	if meta.IsDefined("layout", "diagnostics_base") {
		cfg.Layout.DiagnosticsBase = uintptr(raw.Layout.DiagnosticsBase)
	}

	if meta.IsDefined("layout", "diagnostics_size") {
		size, err := parseSize("layout.diagnostics_size", raw.Layout.DiagnosticsSize)
		if err != nil {
			return err
		}
		cfg.Layout.DiagnosticsSize = size
	}

	if meta.IsDefined("layout", "low_memory_offset") {
		cfg.Layout.LowMemoryOffset = uintptr(raw.Layout.LowMemoryOffset)
	}

	if meta.IsDefined("layout", "heap_alignment_mask") {
		cfg.Layout.HeapAlignmentMask = extendMask(raw.Layout.HeapAlignmentMask)
	}

	if meta.IsDefined("layout", "stack_start") {
		cfg.Layout.StackStart = uintptr(raw.Layout.StackStart)
	}

	if meta.IsDefined("layout", "stack_end") {
		cfg.Layout.StackEnd = uintptr(raw.Layout.StackEnd)
	}

	if meta.IsDefined("log", "level") {
		lvl, ok := parseLevel(raw.Log.Level)
		if !ok {
			return fmt.Errorf("parse log.level: unknown level %q", raw.Log.Level)
		}
		cfg.Log.Level = lvl
	}

	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}

	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}

	if meta.IsDefined("boot", "plugins") {
		cfg.Plugins = normalizeNames(raw.Boot.Plugins)
	}

	if meta.IsDefined("boot", "pre_heap_gap") {
		size, err := parseSize("boot.pre_heap_gap", raw.Boot.PreHeapGap)
		if err != nil {
			return err
		}
		cfg.PreHeapGap = size
	}

	if meta.IsDefined("platform", "memory") {
		size, err := parseSize("platform.memory", raw.Platform.Memory)
		if err != nil {
			return err
		}
		cfg.Memory = size
	}

	return nil
}

// Validate checks the layout for values the boot sequence cannot work with.
func Validate(cfg Config) error {
	l := cfg.Layout

	switch {
	case l.DiagnosticsSize == 0:
		return fmt.Errorf("invalid layout: diagnostics_size must be non-zero")
	case l.StackStart > l.StackEnd:
		return fmt.Errorf("invalid layout: stack_start 0x%x is above stack_end 0x%x", l.StackStart, l.StackEnd)
	case !isAlignmentMask(l.HeapAlignmentMask):
		return fmt.Errorf("invalid layout: heap_alignment_mask 0x%x is not of the form ^(2^n-1)", l.HeapAlignmentMask)
	case l.LowMemoryOffset == 0:
		return fmt.Errorf("invalid layout: low_memory_offset must be non-zero")
	}

	diagEnd := l.DiagnosticsEnd()
	if l.DiagnosticsBase <= l.StackEnd && l.StackStart <= diagEnd {
		return fmt.Errorf("invalid layout: diagnostics region overlaps the stack")
	}

	return nil
}

// extendMask widens a mask written in its 32-bit form (e.g. 0xffff0000) to
// the pointer width by setting every bit above bit 31.
func extendMask(mask uint64) uintptr {
	if mask > 0xffffffff {
		return uintptr(mask)
	}
	return ^uintptr(^uint32(mask))
}

func isAlignmentMask(mask uintptr) bool {
	inv := ^mask
	return mask != 0 && inv&(inv+1) == 0
}

func parseSize(key, raw string) (mem.Size, error) {
	size, err := mem.ParseSize(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return size, nil
}

func normalizeNames(in []string) []string {
	out := make([]string, 0, len(in))
	for _, name := range in {
		if v := strings.TrimSpace(name); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func applyEnvOverrides(cfg *kfmt.LogConfig) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
