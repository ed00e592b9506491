package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/services"
)

// Graph output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// GraphHandler handles graph export and cartel listing.
type GraphHandler struct {
	service *services.RiskService
	timeout time.Duration
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(service *services.RiskService, timeout time.Duration) *GraphHandler {
	return &GraphHandler{
		service: service,
		timeout: timeout,
	}
}

// ExportOptions configures a graph export.
type ExportOptions struct {
	TenderID string // Center of the neighborhood (empty = full graph)
	Depth    int    // Hops around the tender (0 = default)
}

// CartelsResult contains the co-bidding groups.
type CartelsResult struct {
	Cartels []services.CartelCluster `json:"cartels"`
	Total   int                      `json:"total"`
}

// HandleExport projects the graph for visualization.
func (h *GraphHandler) HandleExport(ctx context.Context, opts ExportOptions) (*entities.GraphData, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	data, err := h.service.ExportGraph(ctx, opts.TenderID, opts.Depth)
	if err != nil {
		return nil, fmt.Errorf("exporting graph: %w", err)
	}
	return data, nil
}

// HandleCartels lists co-bidding groups.
func (h *GraphHandler) HandleCartels(ctx context.Context) (*CartelsResult, error) {
	cartels, err := h.service.ListCartels(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cartels: %w", err)
	}
	return &CartelsResult{Cartels: cartels, Total: len(cartels)}, nil
}

// RenderGraph writes data to w as indented JSON or Graphviz DOT.
func RenderGraph(w io.Writer, data *entities.GraphData, format string) error {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatDOT:
		return renderDOT(w, data)
	default:
		return fmt.Errorf("unsupported graph format: %s (expected %s or %s)", format, FormatJSON, FormatDOT)
	}
}

var nodeShapes = map[entities.NodeType]string{
	entities.NodeCompany:  "box",
	entities.NodeDirector: "ellipse",
	entities.NodeOfficial: "diamond",
	entities.NodeTender:   "note",
}

var riskColors = map[entities.RiskCategory]string{
	entities.RiskHigh:   "#f8b4b4",
	entities.RiskMedium: "#fde68a",
	entities.RiskLow:    "#bbf7d0",
}

func renderDOT(w io.Writer, data *entities.GraphData) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "digraph sentinel {")
	fmt.Fprintln(bw, "  rankdir=LR;")
	fmt.Fprintln(bw, "  node [fontname=\"Helvetica\"];")

	for _, n := range data.Nodes {
		attrs := []string{
			fmt.Sprintf("label=%q", n.Label),
			"shape=" + nodeShapes[n.Type],
		}
		if color, ok := riskColors[n.RiskLevel]; ok {
			attrs = append(attrs, "style=filled", fmt.Sprintf("fillcolor=%q", color))
		}
		fmt.Fprintf(bw, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	for _, e := range data.Edges {
		label := string(e.Relationship)
		if e.Label != "" {
			label += ": " + e.Label
		}
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if e.Suspicious {
			attrs = append(attrs, "color=red", "penwidth=2")
		}
		fmt.Fprintf(bw, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
