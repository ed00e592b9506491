// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/services"
)

// Tender list limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// RiskHandler handles scoring and lookup requests against the published snapshot.
type RiskHandler struct {
	service *services.RiskService
	timeout time.Duration
}

// NewRiskHandler creates a new risk handler. A positive timeout bounds the
// scoring work of each request.
func NewRiskHandler(service *services.RiskService, timeout time.Duration) *RiskHandler {
	return &RiskHandler{
		service: service,
		timeout: timeout,
	}
}

// ListOptions holds unparsed tender list filters as they arrive from flags or query strings.
type ListOptions struct {
	RiskLevel string // HIGH, MEDIUM or LOW, case-insensitive (empty = all)
	Status    string // Tender status, case-insensitive (empty = all)
	SortBy    string // risk, value or date (empty = risk)
	Limit     int    // 1..MaxListLimit (0 = DefaultListLimit)
}

// ListResult contains one page of the scored tender list.
// Total counts every matching tender before the limit is applied.
type ListResult struct {
	Tenders []services.TenderWithRisk `json:"tenders"`
	Total   int                       `json:"total"`
}

// HandleList validates the filters and returns scored tenders.
func (h *RiskHandler) HandleList(ctx context.Context, opts ListOptions) (*ListResult, error) {
	listOpts, err := parseListOptions(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	limit := listOpts.Limit
	listOpts.Limit = 0
	tenders, err := h.service.ListTendersWithRisk(ctx, listOpts)
	if err != nil {
		return nil, fmt.Errorf("listing tenders: %w", err)
	}
	total := len(tenders)
	if len(tenders) > limit {
		tenders = tenders[:limit]
	}
	return &ListResult{Tenders: tenders, Total: total}, nil
}

// HandleScore computes the risk score of one tender.
func (h *RiskHandler) HandleScore(ctx context.Context, tenderID string) (*entities.RiskScore, error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()
	return h.service.ComputeRiskScore(ctx, tenderID)
}

// HandleTender returns a tender with its score, bids and winner.
func (h *RiskHandler) HandleTender(ctx context.Context, tenderID string) (*services.TenderDetail, error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()
	return h.service.TenderDetail(ctx, tenderID)
}

// HandleCompany returns a company with its directors and awards.
func (h *RiskHandler) HandleCompany(ctx context.Context, companyID string) (*services.CompanyDetail, error) {
	return h.service.CompanyDetail(ctx, companyID)
}

// HandleStats returns dashboard statistics.
func (h *RiskHandler) HandleStats(ctx context.Context) (*services.Stats, error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()
	return h.service.Stats(ctx)
}

// HandleRefresh reloads the snapshot from the repository.
func (h *RiskHandler) HandleRefresh(ctx context.Context) (*services.SnapshotInfo, error) {
	return h.service.Refresh(ctx)
}

// HandleInfo describes the published snapshot.
func (h *RiskHandler) HandleInfo() (*services.SnapshotInfo, error) {
	return h.service.Info()
}

func (h *RiskHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func parseListOptions(opts ListOptions) (services.ListOptions, error) {
	var out services.ListOptions

	if opts.RiskLevel != "" {
		c := entities.RiskCategory(strings.ToUpper(opts.RiskLevel))
		if !c.IsValid() {
			return out, invalidParam("risk_level", opts.RiskLevel, "HIGH, MEDIUM, LOW")
		}
		out.Category = c
	}

	if opts.Status != "" {
		s := entities.TenderStatus(strings.ToUpper(opts.Status))
		if !s.IsValid() {
			return out, invalidParam("status", opts.Status, joinStatuses())
		}
		out.Status = s
	}

	out.SortBy = services.SortByRisk
	if opts.SortBy != "" {
		f := services.SortField(strings.ToLower(opts.SortBy))
		if !f.IsValid() {
			return out, invalidParam("sort_by", opts.SortBy, "risk, value, date")
		}
		out.SortBy = f
	}

	switch {
	case opts.Limit == 0:
		out.Limit = DefaultListLimit
	case opts.Limit < 0 || opts.Limit > MaxListLimit:
		return out, &entities.ValidationError{
			Entity:  "query",
			Field:   "limit",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxListLimit, opts.Limit),
		}
	default:
		out.Limit = opts.Limit
	}

	return out, nil
}

func invalidParam(field, value, allowed string) error {
	return &entities.ValidationError{
		Entity:  "query",
		Field:   field,
		Message: fmt.Sprintf("%q must be one of %s", value, allowed),
	}
}

func joinStatuses() string {
	names := make([]string, len(entities.TenderStatuses))
	for i, s := range entities.TenderStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
