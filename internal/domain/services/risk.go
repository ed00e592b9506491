package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
	"github.com/sentinel-oversight/sentinel/internal/domain/graph"
	"github.com/sentinel-oversight/sentinel/internal/domain/ports"
	"github.com/sentinel-oversight/sentinel/internal/domain/rules"
)

// SortField selects the ordering of tender listings.
type SortField string

const (
	SortByRisk  SortField = "risk"
	SortByValue SortField = "value"
	SortByDate  SortField = "date"
)

// IsValid reports whether f is a known sort field.
func (f SortField) IsValid() bool {
	return f == SortByRisk || f == SortByValue || f == SortByDate
}

// ListOptions filters and orders tender listings. Zero values mean no filter,
// risk ordering and no limit.
type ListOptions struct {
	Category entities.RiskCategory
	Status   entities.TenderStatus
	SortBy   SortField
	Limit    int
}

// TenderWithRisk pairs a tender with its score.
type TenderWithRisk struct {
	Tender      *entities.Tender    `json:"tender"`
	Risk        *entities.RiskScore `json:"risk"`
	BidderCount int                 `json:"bidder_count"`
}

// TenderDetail is a tender with its score, bids and winning company.
type TenderDetail struct {
	Tender         *entities.Tender    `json:"tender"`
	Risk           *entities.RiskScore `json:"risk"`
	Bids           []*entities.Bid     `json:"bids"`
	WinningCompany *entities.Company   `json:"winning_company,omitempty"`
	Official       *entities.Official  `json:"awarding_official,omitempty"`
}

// CompanyDetail is a company with its directors and awards.
type CompanyDetail struct {
	Company    *entities.Company    `json:"company"`
	Directors  []*entities.Director `json:"directors"`
	TendersWon []*entities.Tender   `json:"tenders_won"`
	BidCount   int                  `json:"bid_count"`
}

// CartelCluster is a co-bidding group.
type CartelCluster struct {
	CompanyIDs   []string `json:"company_ids"`
	CompanyNames []string `json:"company_names"`
	Size         int      `json:"size"`
}

// SnapshotInfo describes the published snapshot.
type SnapshotInfo struct {
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
	Tenders  int       `json:"tenders"`
	Nodes    int       `json:"nodes"`
	Edges    int       `json:"edges"`
}

// state is the unit published on refresh: a snapshot and the graph built from it.
type state struct {
	snapshot *entities.Snapshot
	graph    *graph.Graph
}

// RiskServiceOptions configures a RiskService.
type RiskServiceOptions struct {
	// Thresholds left at the zero value select rules.DefaultThresholds.
	Thresholds rules.Thresholds
	// Workers bounds concurrent tender scoring. Zero means GOMAXPROCS.
	Workers int
	Logger  *zap.Logger
}

// RiskService scores tenders against the current snapshot and its graph.
// Readers never block on refresh: a new state is built aside and swapped in atomically.
type RiskService struct {
	repo       ports.EntityRepository
	rules      []rules.Rule
	thresholds rules.Thresholds
	workers    int
	logger     *zap.Logger

	current   atomic.Pointer[state]
	refreshMu sync.Mutex
}

// NewRiskService creates a RiskService reading from repo. No snapshot is loaded until Refresh.
func NewRiskService(repo ports.EntityRepository, opts RiskServiceOptions) *RiskService {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	thresholds := opts.Thresholds
	if thresholds.IsZero() {
		thresholds = rules.DefaultThresholds()
	}
	return &RiskService{
		repo:       repo,
		rules:      rules.Standard(thresholds),
		thresholds: thresholds,
		workers:    workers,
		logger:     logger,
	}
}

// Refresh loads the dataset, rebuilds snapshot and graph, and publishes them together.
// On failure the previously published state stays in place.
func (s *RiskService) Refresh(ctx context.Context) (*SnapshotInfo, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ds, err := s.repo.LoadDataset(ctx)
	if err != nil {
		snapshotBuildsTotal.WithLabelValues("load_error").Inc()
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	return s.publish(ds)
}

// Publish validates and publishes a dataset directly, bypassing the repository.
func (s *RiskService) Publish(ds *entities.Dataset) (*SnapshotInfo, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.publish(ds)
}

func (s *RiskService) publish(ds *entities.Dataset) (*SnapshotInfo, error) {
	snap, err := entities.NewSnapshot(ds)
	if err != nil {
		snapshotBuildsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("validating snapshot: %w", err)
	}
	g, err := graph.Build(snap)
	if err != nil {
		snapshotBuildsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	st := &state{snapshot: snap, graph: g}
	s.current.Store(st)

	snapshotBuildsTotal.WithLabelValues("ok").Inc()
	graphNodes.Set(float64(g.NodeCount()))
	graphEdges.Set(float64(g.EdgeCount()))

	info := st.info()
	s.logger.Info("snapshot published",
		zap.String("version", info.Version),
		zap.Int("tenders", info.Tenders),
		zap.Int("nodes", info.Nodes),
		zap.Int("edges", info.Edges),
	)
	return info, nil
}

func (st *state) info() *SnapshotInfo {
	tenders, _, _, _, _ := st.snapshot.Counts()
	return &SnapshotInfo{
		Version:  st.snapshot.Version,
		LoadedAt: st.snapshot.LoadedAt,
		Tenders:  tenders,
		Nodes:    st.graph.NodeCount(),
		Edges:    st.graph.EdgeCount(),
	}
}

func (s *RiskService) loaded() (*state, error) {
	st := s.current.Load()
	if st == nil {
		return nil, entities.ErrNoSnapshot
	}
	return st, nil
}

// Info describes the published snapshot.
func (s *RiskService) Info() (*SnapshotInfo, error) {
	st, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return st.info(), nil
}

// Thresholds returns the rule thresholds in effect.
func (s *RiskService) Thresholds() rules.Thresholds {
	return s.thresholds
}

// ComputeRiskScore scores one tender against the published snapshot.
func (s *RiskService) ComputeRiskScore(ctx context.Context, tenderID string) (*entities.RiskScore, error) {
	st, err := s.loaded()
	if err != nil {
		return nil, err
	}
	t, ok := st.snapshot.Tender(tenderID)
	if !ok {
		return nil, &entities.NotFoundError{Entity: "tender", ID: tenderID}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	score := s.score(st, t)
	scoreDuration.WithLabelValues("single").Observe(time.Since(start).Seconds())
	return score, nil
}

// score evaluates every rule against one tender. Degraded or failing rules are skipped.
func (s *RiskService) score(st *state, t *entities.Tender) *entities.RiskScore {
	factors := make([]*entities.RiskFactor, 0, len(s.rules))
	for _, r := range s.rules {
		f, err := r.Evaluate(t, st.graph, st.snapshot)
		if err != nil {
			var de *entities.DegradedRuleError
			if errors.As(err, &de) {
				ruleDegradedTotal.WithLabelValues(string(r.Type)).Inc()
				s.logger.Warn("rule degraded",
					zap.String("rule", string(r.Type)),
					zap.String("tender_id", t.ID),
					zap.String("reason", de.Reason),
				)
				continue
			}
			s.logger.Error("rule failed",
				zap.String("rule", string(r.Type)),
				zap.String("tender_id", t.ID),
				zap.Error(err),
			)
			continue
		}
		if f != nil {
			ruleFiredTotal.WithLabelValues(string(f.Type)).Inc()
			factors = append(factors, f)
		}
	}
	return Aggregate(t.ID, factors)
}

// scoreAll scores tenders on a bounded pool of workers. Results keep the input order.
func (s *RiskService) scoreAll(ctx context.Context, st *state, tenders []*entities.Tender) ([]*entities.RiskScore, error) {
	start := time.Now()
	defer func() {
		scoreDuration.WithLabelValues("batch").Observe(time.Since(start).Seconds())
	}()

	scores := make([]*entities.RiskScore, len(tenders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, t := range tenders {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = s.score(st, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring tenders: %w", err)
	}
	return scores, nil
}

// ScoreAll scores every tender in the snapshot, keyed by tender id.
func (s *RiskService) ScoreAll(ctx context.Context) (map[string]*entities.RiskScore, error) {
	st, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return s.scoreMap(ctx, st)
}

func (s *RiskService) scoreMap(ctx context.Context, st *state) (map[string]*entities.RiskScore, error) {
	tenders := st.snapshot.Tenders()
	scores, err := s.scoreAll(ctx, st, tenders)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*entities.RiskScore, len(scores))
	for _, sc := range scores {
		out[sc.TenderID] = sc
	}
	return out, nil
}

// ListTendersWithRisk scores, filters, orders and truncates the tender list.
// Ties are broken by ascending tender id.
func (s *RiskService) ListTendersWithRisk(ctx context.Context, opts ListOptions) ([]TenderWithRisk, error) {
	st, err := s.loaded()
	if err != nil {
		return nil, err
	}

	var candidates []*entities.Tender
	for _, t := range st.snapshot.Tenders() {
		if opts.Status != "" && t.Status != opts.Status {
			continue
		}
		candidates = append(candidates, t)
	}

	scores, err := s.scoreAll(ctx, st, candidates)
	if err != nil {
		return nil, err
	}

	results := make([]TenderWithRisk, 0, len(candidates))
	for i, t := range candidates {
		if opts.Category != "" && scores[i].Category != opts.Category {
			continue
		}
		results = append(results, TenderWithRisk{
			Tender:      t,
			Risk:        scores[i],
			BidderCount: len(st.snapshot.BidsForTender(t.ID)),
		})
	}

	sortTenders(results, opts.SortBy)
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

func sortTenders(results []TenderWithRisk, by SortField) {
	less := func(a, b TenderWithRisk) (bool, bool) {
		switch by {
		case SortByValue:
			c := a.Tender.EstimatedValue.Cmp(b.Tender.EstimatedValue)
			return c > 0, c != 0
		case SortByDate:
			if a.Tender.PublishedDate.Equal(b.Tender.PublishedDate) {
				return false, false
			}
			return a.Tender.PublishedDate.After(b.Tender.PublishedDate), true
		default:
			return a.Risk.Overall > b.Risk.Overall, a.Risk.Overall != b.Risk.Overall
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if ok, decided := less(results[i], results[j]); decided {
			return ok
		}
		return results[i].Tender.ID < results[j].Tender.ID
	})
}

// TenderDetail returns a tender with its score, bids, winner and awarding official.
func (s *RiskService) TenderDetail(ctx context.Context, tenderID string) (*TenderDetail, error) {
	st, err := s.loaded()
	if err != nil {
		return nil, err
	}
	t, ok := st.snapshot.Tender(tenderID)
	if !ok {
		return nil, &entities.NotFoundError{Entity: "tender", ID: tenderID}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detail := &TenderDetail{
		Tender: t,
		Risk:   s.score(st, t),
		Bids:   st.snapshot.BidsForTender(tenderID),
	}
	if c, ok := st.snapshot.Company(t.AwardedTo); ok {
		detail.WinningCompany = c
	}
	if o, ok := st.snapshot.Official(t.AwardingOfficialID); ok {
		detail.Official = o
	}
	return detail, nil
}

// CompanyDetail returns a company with its directors and awarded tenders.
func (s *RiskService) CompanyDetail(_ context.Context, companyID string) (*CompanyDetail, error) {
	st, err := s.loaded()
	if err != nil {
		return nil, err
	}
	c, ok := st.snapshot.Company(companyID)
	if !ok {
		return nil, &entities.NotFoundError{Entity: "company", ID: companyID}
	}

	detail := &CompanyDetail{
		Company:    c,
		Directors:  []*entities.Director{},
		TendersWon: st.snapshot.TendersWonBy(companyID),
	}
	for _, did := range c.DirectorIDs {
		if d, ok := st.snapshot.Director(did); ok {
			detail.Directors = append(detail.Directors, d)
		}
	}
	for _, b := range st.snapshot.Bids() {
		if b.CompanyID == companyID {
			detail.BidCount++
		}
	}
	return detail, nil
}

// ListCartels returns the co-bidding groups under the configured thresholds.
func (s *RiskService) ListCartels(_ context.Context) ([]CartelCluster, error) {
	st, err := s.loaded()
	if err != nil {
		return nil, err
	}

	groups := st.graph.CoBiddingGroups(s.thresholds.CartelMinSharedTenders, s.thresholds.CartelMinGroupSize)
	out := make([]CartelCluster, 0, len(groups))
	for _, grp := range groups {
		names := make([]string, 0, len(grp))
		for _, id := range grp {
			if c, ok := st.snapshot.Company(id); ok {
				names = append(names, c.Name)
			}
		}
		out = append(out, CartelCluster{CompanyIDs: grp, CompanyNames: names, Size: len(grp)})
	}
	return out, nil
}
