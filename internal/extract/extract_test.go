package extract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitKV(t *testing.T) {
	tests := []struct {
		line, sep  string
		key, value string
		ok         bool
	}{
		{"Model name:   Intel(R) Core(TM) i7", ":", "Model name", "Intel(R) Core(TM) i7", true},
		{"Name=AMD Ryzen 7 5800X", "=", "Name", "AMD Ryzen 7 5800X", true},
		{"Caption=WDC: Blue=1TB", "=", "Caption", "WDC: Blue=1TB", true},
		{"   no separator here", ":", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			k, v, ok := SplitKV(tt.line, tt.sep)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, k)
			assert.Equal(t, tt.value, v)
		})
	}
}

func TestLines_StripsCR(t *testing.T) {
	assert.Equal(t, []string{"", "Name=GPU", "DriverVersion=1.0"}, Lines("\r\nName=GPU\r\nDriverVersion=1.0\r\n"))
	assert.Nil(t, Lines(""))
}

func TestLines_LongLine(t *testing.T) {
	long := "Packages: " + strings.Repeat("x", 2<<20)
	lines := Lines("first\n" + long + "\nlast")
	require.Len(t, lines, 3)
	assert.Equal(t, long, lines[1])
	assert.Equal(t, "last", lines[2])
}

func TestLastField(t *testing.T) {
	rest, last := LastField("Intel(R) Wireless Bluetooth(R)   22.150.0.6")
	assert.Equal(t, "Intel(R) Wireless Bluetooth(R)", rest)
	assert.Equal(t, "22.150.0.6", last)

	rest, last = LastField("Single")
	assert.Equal(t, "", rest)
	assert.Equal(t, "Single", last)

	rest, last = LastField("   ")
	assert.Equal(t, "", rest)
	assert.Equal(t, "", last)
}

func TestOrUnknown(t *testing.T) {
	assert.Equal(t, Unknown, OrUnknown("  "))
	assert.Equal(t, "x", OrUnknown("x"))
}

func TestBytesToGB(t *testing.T) {
	tests := []struct {
		in   string
		want Amount
	}{
		{"1073741824", Number(1.0)},
		{"17179869184", Number(16)},
		{"500107862016", Number(465.76)},
		{" 8589934592 ", Number(8)},
		{"", Text(Unavailable)},
		{"n/a", Text(Unavailable)},
		{"-1", Text(Unavailable)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, BytesToGB(tt.in))
		})
	}
}

func TestBytesToMB(t *testing.T) {
	assert.Equal(t, Number(4096), BytesToMB("4294967296"))
	assert.Equal(t, Number(1.5), BytesToMB("1572864"))
	assert.Equal(t, Text(Unavailable), BytesToMB("abc"))
}

func TestSizeConversions(t *testing.T) {
	assert.Equal(t, Number(16), SizeToGB("16 GB"))
	assert.Equal(t, Number(8), SizeToGB("8192 MB"))
	assert.Equal(t, Number(0.5), SizeToGB("512 MiB"))
	assert.Equal(t, Text("No Module Installed"), SizeToGB("No Module Installed"))
	assert.Equal(t, Text(Unknown), SizeToGB(""))

	assert.Equal(t, Number(1536), SizeToMB("1536 MB"))
	assert.Equal(t, Number(8192), SizeToMB("8 GB"))
	assert.Equal(t, Number(24576), SizeToMB("24576 MiB"))
	assert.Equal(t, Text("lots"), SizeToMB("lots"))
}

func TestAmount_JSON(t *testing.T) {
	type rec struct {
		Capacity Amount `json:"capacity"`
	}

	b, err := json.Marshal(rec{Capacity: Number(1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"capacity":1}`, string(b))

	b, err = json.Marshal(rec{Capacity: Text(Unavailable)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"capacity":"unavailable"}`, string(b))

	var got rec
	require.NoError(t, json.Unmarshal([]byte(`{"capacity":465.76}`), &got))
	assert.Equal(t, Number(465.76), got.Capacity)
	require.NoError(t, json.Unmarshal([]byte(`{"capacity":"8 GB"}`), &got))
	assert.Equal(t, Text("8 GB"), got.Capacity)
	assert.Equal(t, "8 GB", got.Capacity.String())
	assert.Equal(t, "465.76", Number(465.76).String())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		desc string
		want Category
	}{
		{"Logitech USB Keyboard", CategoryInput},
		{"Wireless Keyboard", CategoryInput},
		{"Razer Gaming Mouse", CategoryInput},
		{"Ratón óptico", CategoryInput},
		{"Generic HID pointer", CategoryInput},
		{"C-Media USB Audio Device", CategoryAudio},
		{"HyperX Headset", CategoryAudio},
		{"Integrated Webcam", CategoryCamera},
		{"Bluetooth audio receiver", CategoryAudio},
		{"SanDisk USB Drive", CategoryStorage},
		{"Kingston Mass Storage", CategoryStorage},
		{"Intel Bluetooth Adapter", CategoryConnectivity},
		{"Wireless Network Adapter", CategoryConnectivity},
		{"Linux Foundation 3.0 root hub", CategoryOther},
		{"", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.desc))
		})
	}
}

func TestClassify_Total(t *testing.T) {
	valid := map[Category]bool{
		CategoryInput: true, CategoryAudio: true, CategoryCamera: true,
		CategoryStorage: true, CategoryConnectivity: true, CategoryOther: true,
	}
	for _, d := range []string{"x", "KEYBOARD", "日本語デバイス", "disk camera", "\t"} {
		assert.True(t, valid[Classify(d)], d)
	}
	// camera is checked before storage
	assert.Equal(t, CategoryCamera, Classify("disk camera"))
}
