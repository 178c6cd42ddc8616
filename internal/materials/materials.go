// Package materials turns Vision API label sets into packaging-material
// flags. Matching is case sensitive: the upstream labelers emit the four
// category names in lowercase and anything else is ignored.
package materials

import "strings"

const (
	labelPlastic   = "plastic"
	labelPaper     = "paper"
	labelCarton    = "carton"
	labelCardboard = "cardboard"
)

// Flags reports which packaging materials were recognized in an image.
type Flags struct {
	HasPlastic   bool `json:"has_plastic"`
	HasPaper     bool `json:"has_paper"`
	HasCarton    bool `json:"has_carton"`
	HasCardboard bool `json:"has_cardboard"`
}

// Classify maps a label set onto material flags using exact string equality.
// Labels outside the four categories are skipped.
func Classify(labels []string) Flags {
	var flags Flags
	for _, label := range labels {
		switch label {
		case labelPlastic:
			flags.HasPlastic = true
		case labelPaper:
			flags.HasPaper = true
		case labelCarton:
			flags.HasCarton = true
		case labelCardboard:
			flags.HasCardboard = true
		}
	}
	return flags
}

// ContainsPlastic reports whether any label mentions plastic. Unlike Classify
// this is a substring test, matching "Plastic bottle" style labels the Vision
// API returns for label detection.
func ContainsPlastic(labels []string) bool {
	for _, label := range labels {
		if strings.Contains(label, "Plastic") || strings.Contains(label, "plastic") {
			return true
		}
	}
	return false
}

// PickRetailer selects the retailer name from annotation candidates: the
// first detected logo wins, then the first text snippet, otherwise empty.
func PickRetailer(logos, texts []string) string {
	for _, logo := range logos {
		if name := strings.TrimSpace(logo); name != "" {
			return name
		}
	}
	for _, text := range texts {
		if name := strings.TrimSpace(text); name != "" {
			return name
		}
	}
	return ""
}
