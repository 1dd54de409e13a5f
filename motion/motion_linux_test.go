//go:build linux

package motion

import (
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

func TestDecodeAnimations(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		reduced bool
		wantErr bool
	}{
		{"plain true", true, false, false},
		{"plain false", false, true, false},
		{"variant", dbus.MakeVariant(false), true, false},
		{"nested variant", dbus.MakeVariant(dbus.MakeVariant(true)), false, false},
		{"string", "false", false, true},
		{"nil", nil, false, true},
	}
	for _, tt := range tests {
		got, err := decodeAnimations(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.reduced {
			t.Errorf("%s: reduced = %v, want %v", tt.name, got, tt.reduced)
		}
	}
}

func stubSetting(t *testing.T, v any, err error) *[]string {
	t.Helper()
	var asked []string
	old := readSetting
	readSetting = func(namespace, key string) (any, error) {
		asked = append(asked, namespace+"/"+key)
		return v, err
	}
	t.Cleanup(func() { readSetting = old })
	return &asked
}

func TestQuerySystemReadsPortal(t *testing.T) {
	asked := stubSetting(t, dbus.MakeVariant(false), nil)
	reduced, err := querySystem()
	if err != nil {
		t.Fatal(err)
	}
	if !reduced {
		t.Error("animations disabled but reduced motion not reported")
	}
	if len(*asked) != 1 || (*asked)[0] != "org.gnome.desktop.interface/enable-animations" {
		t.Errorf("read %v", *asked)
	}
}

func TestPortalErrorMeansAnimate(t *testing.T) {
	t.Setenv(EnvVar, "")
	stubSetting(t, nil, errors.New("no session bus"))
	s := &System{TTL: time.Hour, query: querySystem}
	if s.ReducedMotion() {
		t.Error("portal failure reported reduced motion")
	}
}
