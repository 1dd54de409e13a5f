package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

const (
	EnvPath  = "KLONSHIE_LOG_PATH"
	FileName = "diagnostics_log.txt"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	level    = zerolog.InfoLevel
	dir      string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: KLONSHIE_LOG_PATH environment variable
	if envPath := os.Getenv(EnvPath); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

// SetLevel takes a zerolog level name; unknown names leave the level alone.
func SetLevel(name string) error {
	if name == "" {
		return nil
	}
	l, err := zerolog.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("log level %q: %w", name, err)
	}
	logMu.Lock()
	level = l
	if logReady {
		diagLog = diagLog.Level(l)
	}
	logMu.Unlock()
	return nil
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, FileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).Level(level).With().Timestamp().Int("pid", os.Getpid()).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

func Debug(msg string) {
	if logReady {
		diagLog.Debug().Msg(msg)
	}
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(surface, device string, reducedMotion bool) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("surface", surface).
		Str("device", device).
		Bool("reduced_motion", reducedMotion).
		Msg("session_start")
}

func SessionEnd(flashRuns, alarmRuns int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("flash_runs", flashRuns).
		Int("alarm_runs", alarmRuns).
		Msg("session_end")
}

func FlashStart(rateHz float64, intervalMs int64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("rate_hz", rateHz).
		Int64("interval_ms", intervalMs).
		Msg("flash_start")
}

func FlashStop() {
	if logReady {
		diagLog.Info().Msg("flash_stop")
	}
}

// FlashSuppressed records a start refused because of reduced motion.
func FlashSuppressed(source string) {
	if !logReady {
		return
	}
	diagLog.Info().Str("source", source).Msg("flash_suppressed")
}

func AlarmStart(device string, volume float64, active int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("device", device).
		Float64("volume", volume).
		Int("active_oscillators", active).
		Msg("alarm_start")
}

func AlarmStop(started, stopped int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("started", started).
		Int("stopped", stopped).
		Msg("alarm_stop")
}

func VolumeChange(volume float64) {
	if !logReady {
		return
	}
	diagLog.Debug().Float64("volume", volume).Msg("volume_change")
}
