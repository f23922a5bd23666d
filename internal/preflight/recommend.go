package preflight

import (
	"fmt"
	"io"
)

// Recommendations bundles every threshold the gate enforces, for display
// and machine consumption.
type Recommendations struct {
	MinNDKVersion         int    `json:"min_ndk_version"`
	RecommendedNDKVersion string `json:"recommended_ndk_version"`
	MinTargetAPI          int    `json:"min_target_api"`
	RecommendedTargetAPI  int    `json:"recommended_target_api"`
	MinNDKAPI             int    `json:"min_ndk_api"`
	RecommendedNDKAPI     int    `json:"recommended_ndk_api"`
}

// CurrentRecommendations returns the thresholds currently enforced.
func CurrentRecommendations() Recommendations {
	return Recommendations{
		MinNDKVersion:         MinNDKVersion,
		RecommendedNDKVersion: RecommendedNDKVersion,
		MinTargetAPI:          MinTargetAPI,
		RecommendedTargetAPI:  RecommendedTargetAPI,
		MinNDKAPI:             MinNDKAPI,
		RecommendedNDKAPI:     RecommendedNDKAPI,
	}
}

// PrintRecommendations writes the enforced thresholds, one per line.
func PrintRecommendations(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Min supported NDK version: %d\n", MinNDKVersion)
	_, _ = fmt.Fprintf(w, "Recommended NDK version: %s\n", RecommendedNDKVersion)
	_, _ = fmt.Fprintf(w, "Min target API: %d\n", MinTargetAPI)
	_, _ = fmt.Fprintf(w, "Recommended target API: %d\n", RecommendedTargetAPI)
	_, _ = fmt.Fprintf(w, "Min NDK API: %d\n", MinNDKAPI)
	_, _ = fmt.Fprintf(w, "Recommended NDK API: %d\n", RecommendedNDKAPI)
}
