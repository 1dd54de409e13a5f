//go:build integration

package test_test

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mewkiz/flac"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("KLONSHIE_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "KLONSHIE_TEST_BIN not set; build klonshie and point it at the binary")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

type result struct {
	out    string
	logDir string
}

func runKlonshie(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	logDir := t.TempDir()
	cmdArgs := append([]string{"-logpath", logDir, "-config", filepath.Join(logDir, "none.yaml")}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), "KLONSHIE_REDUCED_MOTION=")

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("klonshie exited with error: %v\noutput: %s", err, out)
	}
	return result{out: string(out), logDir: logDir}
}

func (r result) lines(prefix string) []string {
	var got []string
	for _, l := range strings.Split(r.out, "\n") {
		if strings.HasPrefix(l, prefix) {
			got = append(got, l)
		}
	}
	return got
}

func (r result) last(t *testing.T, prefix string) string {
	t.Helper()
	l := r.lines(prefix)
	if len(l) == 0 {
		t.Fatalf("no %s line in output:\n%s", prefix, r.out)
	}
	return l[len(l)-1]
}

func readLog(t *testing.T, logDir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, "diagnostics_log.txt"))
	if err != nil {
		t.Fatalf("failed to read diagnostics: %v", err)
	}
	return string(data)
}

func TestStartFlashesAndSounds(t *testing.T) {
	r := runKlonshie(t, cmds("START", "SLEEP 1200", "STATUS", "STOP", "QUIT"), "-test")

	if len(r.lines("PANEL bright")) == 0 {
		t.Skipf("platform reports reduced motion:\n%s", r.out)
	}
	if got := r.last(t, "STATUS"); got != "STATUS flashing=on alarm=on oscillators=3" {
		t.Errorf("status = %q", got)
	}
	if got := r.last(t, "PANEL"); !strings.HasPrefix(got, "PANEL idle") {
		t.Errorf("final panel = %q, want idle", got)
	}
	if got := r.last(t, "ALARM"); got != "ALARM off" {
		t.Errorf("final alarm = %q", got)
	}

	diag := readLog(t, r.logDir)
	for _, want := range []string{"session_start", "flash_start", "alarm_start", "alarm_stop", "session_end"} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics missing %s", want)
		}
	}
}

func TestReducedMotionNeverFlashes(t *testing.T) {
	r := runKlonshie(t, cmds("START", "SLEEP 800", "STATUS", "QUIT"), "-test", "-reduced-motion")

	if n := len(r.lines("PANEL bright")); n != 0 {
		t.Errorf("%d bright frames under reduced motion", n)
	}
	if len(r.lines("PANEL advisory")) == 0 {
		t.Error("advisory never shown")
	}
	if got := r.last(t, "SETTINGS"); !strings.Contains(got, "flash=off") {
		t.Errorf("settings = %q, want flash=off", got)
	}
	if got := r.last(t, "STATUS"); !strings.Contains(got, "alarm=on") {
		t.Errorf("status = %q, want alarm on", got)
	}
	if !strings.Contains(readLog(t, r.logDir), "flash_suppressed") {
		t.Error("diagnostics missing flash_suppressed")
	}
}

func TestAudioFailureKeepsFlashing(t *testing.T) {
	r := runKlonshie(t, cmds("AUDIO fail", "START", "SLEEP 300", "STATUS", "QUIT"), "-test")

	if len(r.lines("ERROR")) == 0 {
		t.Errorf("no error reported:\n%s", r.out)
	}
	got := r.last(t, "STATUS")
	if !strings.Contains(got, "alarm=off") {
		t.Errorf("status = %q, want alarm off", got)
	}
	if len(r.lines("PANEL advisory")) == 0 && !strings.Contains(got, "flashing=on") {
		t.Errorf("status = %q, want flashing on", got)
	}
}

func TestRateAndVolumeClamp(t *testing.T) {
	r := runKlonshie(t, cmds("RATE 5", "VOLUME -1", "STATUS", "QUIT"), "-test")
	got := r.last(t, "SETTINGS")
	if !strings.Contains(got, "rate=2.0 Hz") || !strings.Contains(got, "volume=0%") {
		t.Errorf("settings = %q", got)
	}
}

func TestHotkeyTapToggles(t *testing.T) {
	r := runKlonshie(t, cmds("TAP", "SLEEP 200", "STATUS", "TAP", "SLEEP 200", "STATUS", "QUIT"), "-test")
	status := r.lines("STATUS")
	if len(status) != 2 {
		t.Fatalf("status lines = %v", status)
	}
	if !strings.Contains(status[0], "alarm=on") {
		t.Errorf("after first tap: %q", status[0])
	}
	if !strings.Contains(status[1], "alarm=off") || !strings.Contains(status[1], "flashing=off") {
		t.Errorf("after second tap: %q", status[1])
	}
}

func TestUnknownCommand(t *testing.T) {
	r := runKlonshie(t, cmds("DANCE", "QUIT"), "-test")
	if got := r.last(t, "ERROR"); !strings.Contains(got, "DANCE") {
		t.Errorf("error = %q", got)
	}
	if r.last(t, "BYE") != "BYE" {
		t.Error("no clean exit")
	}
}

func TestRenderWritesFlac(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alarm.flac")
	runKlonshie(t, "", "-render", path, "-seconds", "0.5")

	stream, err := flac.ParseFile(path)
	if err != nil {
		t.Fatalf("parsing rendered file: %v", err)
	}
	defer stream.Close()
	if stream.Info.SampleRate != 44100 || stream.Info.NChannels != 1 {
		t.Errorf("stream info = %+v", stream.Info)
	}
	total := 0
	for {
		f, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("decoding frame: %v", err)
		}
		total += f.Subframes[0].NSamples
	}
	if total != 22050 {
		t.Errorf("samples = %d, want 22050", total)
	}
}
