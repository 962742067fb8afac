package extract

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is a converted quantity. It serializes as a JSON number when the
// conversion succeeded and as a string (the raw text, or Unavailable)
// otherwise.
type Amount struct {
	Value float64
	Text  string
}

// Number returns a numeric Amount.
func Number(v float64) Amount {
	return Amount{Value: v}
}

// Text returns a textual Amount.
func Text(s string) Amount {
	return Amount{Text: s}
}

// IsNumber reports whether the Amount holds a converted value.
func (a Amount) IsNumber() bool {
	return a.Text == ""
}

func (a Amount) String() string {
	if a.IsNumber() {
		return strconv.FormatFloat(a.Value, 'f', -1, 64)
	}
	return a.Text
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.IsNumber() {
		return json.Marshal(a.Value)
	}
	return json.Marshal(a.Text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*a = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = Text(s)
	return nil
}

const (
	kib = 1024
	mib = kib * 1024
	gib = mib * 1024
	tib = gib * 1024
)

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BytesToGB converts a decimal byte count to GB (1024^3) with two decimals.
// Non-numeric input yields Unavailable.
func BytesToGB(s string) Amount {
	return bytesTo(s, gib)
}

// BytesToMB converts a decimal byte count to MB (1024^2) with two decimals.
// Non-numeric input yields Unavailable.
func BytesToMB(s string) Amount {
	return bytesTo(s, mib)
}

func bytesTo(s string, unit float64) Amount {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return Text(Unavailable)
	}
	return Number(Round2(float64(n) / unit))
}

// SizeToGB parses a size such as "16 GB", "8192 MB" or "8192 MiB" into GB.
// Text that does not parse is kept as reported.
func SizeToGB(s string) Amount {
	return sizeTo(s, gib)
}

// SizeToMB parses a size such as "1536 MB", "8 GB" or "8192 MiB" into MB.
// Text that does not parse is kept as reported.
func SizeToMB(s string) Amount {
	return sizeTo(s, mib)
}

func sizeTo(s string, unit float64) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return Text(Unknown)
	}
	f := strings.Fields(s)
	if len(f) != 2 {
		return Text(s)
	}
	n, err := strconv.ParseFloat(f[0], 64)
	if err != nil {
		return Text(s)
	}
	mult, ok := unitMultiplier(f[1])
	if !ok {
		return Text(s)
	}
	return Number(Round2(n * mult / unit))
}

func unitMultiplier(u string) (float64, bool) {
	switch strings.ToUpper(u) {
	case "B", "BYTES":
		return 1, true
	case "KB", "KIB", "K":
		return kib, true
	case "MB", "MIB", "M":
		return mib, true
	case "GB", "GIB", "G":
		return gib, true
	case "TB", "TIB", "T":
		return tib, true
	default:
		return 0, false
	}
}
