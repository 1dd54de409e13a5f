//go:build darwin

package motion

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

func querySystem() (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	out, err := exec.CommandContext(ctx, "defaults", "read", "com.apple.universalaccess", "reduceMotion").Output()
	if err != nil {
		// Key is absent until the user touches the setting.
		return false, fmt.Errorf("defaults read: %w", err)
	}
	return strings.TrimSpace(string(out)) == "1", nil
}
