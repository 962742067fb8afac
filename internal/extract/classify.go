package extract

import "strings"

// Category is the derived kind of a peripheral.
type Category string

const (
	CategoryInput        Category = "Input"
	CategoryAudio        Category = "Audio"
	CategoryCamera       Category = "Camera"
	CategoryStorage      Category = "Storage"
	CategoryConnectivity Category = "Connectivity"
	CategoryOther        Category = "Other"
)

type keywordSet struct {
	category Category
	keywords []string
}

// Checked in order; the first set with a matching keyword wins.
var keywordSets = []keywordSet{
	{CategoryInput, []string{"keyboard", "teclado", "input"}},
	{CategoryInput, []string{"mouse", "ratón", "pointer"}},
	{CategoryAudio, []string{"audio", "speaker", "headset", "micrófono", "microphone"}},
	{CategoryCamera, []string{"camera", "webcam"}},
	{CategoryStorage, []string{"usb drive", "storage", "disk", "almacenamiento"}},
	{CategoryConnectivity, []string{"bluetooth", "wireless"}},
}

// Classify derives a Category from a raw device description.
func Classify(description string) Category {
	d := strings.ToLower(description)
	for _, set := range keywordSets {
		for _, kw := range set.keywords {
			if strings.Contains(d, kw) {
				return set.category
			}
		}
	}
	return CategoryOther
}
