package workflow

import (
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	t.Parallel()

	v := GetVersion()
	if v != Version {
		t.Errorf("GetVersion() = %s, want %s", v, Version)
	}
	if parts := strings.Split(v, "."); len(parts) != 3 {
		t.Errorf("Version %q is not major.minor.patch", v)
	}
}
