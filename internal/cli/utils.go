// Package cli provides output rendering for the Matome command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/matome/internal/models"
	"github.com/hyperjump/matome/pkg/utils"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputCompact is one result per line, grep-friendly.
	OutputCompact OutputFormat = "compact"
)

// ParseFormat validates an -output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON, OutputCompact:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteSearchResults writes a search response to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		for i, result := range response.Results {
			fmt.Fprintf(w, "%d\t%.4f\t%d\t%s\n", i+1, result.Score, result.ID, result.Title)
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	scope := ""
	if response.ClusterID != nil {
		scope = fmt.Sprintf(" in cluster %d", *response.ClusterID)
	}
	fmt.Fprintf(w, "\nFound %d results%s in %dms\n\n", response.Total, scope, response.QueryTime)
	for i, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | ID: %d", i+1, result.Score, result.ID)
		if result.ClusterID != nil {
			fmt.Fprintf(w, " | Cluster: %d", *result.ClusterID)
		}
		fmt.Fprintln(w)
		if result.Title != "" {
			fmt.Fprintf(w, "Title: %s\n", result.Title)
		}
		if result.Snippet != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(result.Snippet, 200))
		}
		fmt.Fprintln(w)
	}
}

// WriteClusters writes cluster snapshots to w in the given format.
func WriteClusters(w io.Writer, clusters []models.Cluster, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(clusters)
	case OutputCompact:
		for _, c := range clusters {
			fmt.Fprintf(w, "%d\t%d\t%s\n", c.ID, len(c.DocumentIDs), c.Name)
		}
		return nil
	default:
		for _, c := range clusters {
			writeClusterText(w, c)
		}
		return nil
	}
}

// WriteCluster writes one cluster snapshot to w.
func WriteCluster(w io.Writer, c models.Cluster, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}
	writeClusterText(w, c)
	return nil
}

func writeClusterText(w io.Writer, c models.Cluster) {
	fmt.Fprintf(w, "cluster %d: %s\n", c.ID, c.Name)
	if len(c.Concepts) > 0 {
		fmt.Fprintf(w, "  concepts:  %s\n", strings.Join(c.Concepts, ", "))
	}
	if c.SkillLevel != "" {
		fmt.Fprintf(w, "  level:     %s\n", c.SkillLevel)
	}
	fmt.Fprintf(w, "  documents: %d", len(c.DocumentIDs))
	if len(c.DocumentIDs) > 0 {
		ids := make([]string, len(c.DocumentIDs))
		for i, id := range c.DocumentIDs {
			ids[i] = fmt.Sprintf("%d", id)
		}
		fmt.Fprintf(w, " (%s)", strings.Join(ids, ", "))
	}
	fmt.Fprintln(w)
}
