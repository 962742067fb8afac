package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromGOOS(t *testing.T) {
	tests := []struct {
		goos string
		want Platform
		name string
	}{
		{"windows", Windows, "Windows"},
		{"linux", Linux, "Linux"},
		{"darwin", MacOS, "macOS"},
		{"freebsd", Unsupported, "Unsupported"},
		{"", Unsupported, "Unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			got := FromGOOS(tt.goos)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.name, got.String())
		})
	}
}

func TestCurrent(t *testing.T) {
	assert.Equal(t, FromGOOS(runtime.GOOS), Current())
}
