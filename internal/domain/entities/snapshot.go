package entities

import (
	"errors"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a validated, indexed and immutable view of a Dataset.
// Accessors return shared pointers; callers must not modify them.
type Snapshot struct {
	Version  string
	LoadedAt time.Time

	tenders   map[string]*Tender
	companies map[string]*Company
	directors map[string]*Director
	officials map[string]*Official

	tenderIDs   []string
	companyIDs  []string
	directorIDs []string
	officialIDs []string

	bids         []*Bid
	bidsByTender map[string][]*Bid
	awardsByCo   map[string][]*Tender
}

// NewSnapshot validates the dataset and indexes it.
// Every problem found is reported; the returned error joins one ValidationError per issue.
func NewSnapshot(ds *Dataset) (*Snapshot, error) {
	s := &Snapshot{
		Version:      uuid.New().String(),
		LoadedAt:     time.Now().UTC(),
		tenders:      make(map[string]*Tender, len(ds.Tenders)),
		companies:    make(map[string]*Company, len(ds.Companies)),
		directors:    make(map[string]*Director, len(ds.Directors)),
		officials:    make(map[string]*Official, len(ds.Officials)),
		bidsByTender: make(map[string][]*Bid),
		awardsByCo:   make(map[string][]*Tender),
	}

	v := &validator{seen: make(map[string]string)}
	s.index(ds, v)
	s.validateReferences(v)
	if len(v.errs) > 0 {
		return nil, errors.Join(v.errs...)
	}
	s.sortIndexes()
	return s, nil
}

type validator struct {
	errs []error
	seen map[string]string
}

func (v *validator) add(entity, id, field, msg string) {
	v.errs = append(v.errs, &ValidationError{Entity: entity, ID: id, Field: field, Message: msg})
}

// claim records a node id and reports whether it is new across all entity kinds.
func (v *validator) claim(entity, id string) bool {
	if id == "" {
		v.add(entity, "", "id", "is required")
		return false
	}
	if prev, ok := v.seen[id]; ok {
		v.add(entity, id, "id", "duplicates "+prev+" id")
		return false
	}
	v.seen[id] = entity
	return true
}

func (s *Snapshot) index(ds *Dataset, v *validator) {
	for i := range ds.Companies {
		c := &ds.Companies[i]
		if !v.claim("company", c.ID) {
			continue
		}
		if c.Name == "" {
			v.add("company", c.ID, "name", "is required")
		}
		s.companies[c.ID] = c
		s.companyIDs = append(s.companyIDs, c.ID)
	}
	for i := range ds.Directors {
		d := &ds.Directors[i]
		if !v.claim("director", d.ID) {
			continue
		}
		if d.Name == "" {
			v.add("director", d.ID, "name", "is required")
		}
		s.directors[d.ID] = d
		s.directorIDs = append(s.directorIDs, d.ID)
	}
	for i := range ds.Officials {
		o := &ds.Officials[i]
		if !v.claim("official", o.ID) {
			continue
		}
		if o.Name == "" {
			v.add("official", o.ID, "name", "is required")
		}
		s.officials[o.ID] = o
		s.officialIDs = append(s.officialIDs, o.ID)
	}
	for i := range ds.Tenders {
		t := &ds.Tenders[i]
		if !v.claim("tender", t.ID) {
			continue
		}
		validateTender(t, v)
		s.tenders[t.ID] = t
		s.tenderIDs = append(s.tenderIDs, t.ID)
	}

	bidIDs := make(map[string]struct{}, len(ds.Bids))
	for i := range ds.Bids {
		b := &ds.Bids[i]
		if b.ID == "" {
			v.add("bid", "", "id", "is required")
			continue
		}
		if _, dup := bidIDs[b.ID]; dup {
			v.add("bid", b.ID, "id", "duplicates bid id")
			continue
		}
		bidIDs[b.ID] = struct{}{}
		if b.Amount.IsNegative() {
			v.add("bid", b.ID, "amount", "must not be negative")
		}
		s.bids = append(s.bids, b)
	}
}

func validateTender(t *Tender, v *validator) {
	if t.Title == "" {
		v.add("tender", t.ID, "title", "is required")
	}
	if !t.Status.IsValid() {
		v.add("tender", t.ID, "status", "unknown status "+string(t.Status))
	}
	if t.EstimatedValue.IsNegative() {
		v.add("tender", t.ID, "estimated_value", "must not be negative")
	}
	if t.AwardedAmount != nil && t.AwardedAmount.IsNegative() {
		v.add("tender", t.ID, "awarded_amount", "must not be negative")
	}
	switch {
	case t.PublishedDate.IsZero():
		v.add("tender", t.ID, "published_date", "is required")
	case t.Deadline.IsZero():
		v.add("tender", t.ID, "deadline", "is required")
	case DateOf(t.Deadline).Before(DateOf(t.PublishedDate)):
		v.add("tender", t.ID, "deadline", "must not precede published date")
	}
}

func (s *Snapshot) validateReferences(v *validator) {
	for _, id := range s.companyIDs {
		c := s.companies[id]
		for _, did := range c.DirectorIDs {
			d, ok := s.directors[did]
			if !ok {
				v.add("company", c.ID, "director_ids", "unknown director "+did)
				continue
			}
			if !slices.Contains(d.CompanyIDs, c.ID) {
				v.add("company", c.ID, "director_ids", "director "+did+" does not list this company")
			}
		}
	}
	for _, id := range s.directorIDs {
		d := s.directors[id]
		for _, cid := range d.CompanyIDs {
			c, ok := s.companies[cid]
			if !ok {
				v.add("director", d.ID, "company_ids", "unknown company "+cid)
				continue
			}
			if !slices.Contains(c.DirectorIDs, d.ID) {
				v.add("director", d.ID, "company_ids", "company "+cid+" does not list this director")
			}
		}
	}
	for _, id := range s.officialIDs {
		o := s.officials[id]
		for _, rel := range o.Relations {
			if !rel.Kind.IsValid() {
				v.add("official", o.ID, "relations", "unknown relation kind "+string(rel.Kind))
			}
			_, isDirector := s.directors[rel.TargetID]
			_, isCompany := s.companies[rel.TargetID]
			if !isDirector && !isCompany {
				v.add("official", o.ID, "relations", "unknown relation target "+rel.TargetID)
			}
		}
	}
	for _, id := range s.tenderIDs {
		t := s.tenders[id]
		if t.AwardedTo != "" {
			if _, ok := s.companies[t.AwardedTo]; !ok {
				v.add("tender", t.ID, "awarded_to", "unknown company "+t.AwardedTo)
			} else {
				s.awardsByCo[t.AwardedTo] = append(s.awardsByCo[t.AwardedTo], t)
			}
		}
		if t.AwardingOfficialID != "" {
			if _, ok := s.officials[t.AwardingOfficialID]; !ok {
				v.add("tender", t.ID, "awarding_official_id", "unknown official "+t.AwardingOfficialID)
			}
		}
	}
	for _, b := range s.bids {
		t, ok := s.tenders[b.TenderID]
		if !ok {
			v.add("bid", b.ID, "tender_id", "unknown tender "+b.TenderID)
		}
		if _, ok := s.companies[b.CompanyID]; !ok {
			v.add("bid", b.ID, "company_id", "unknown company "+b.CompanyID)
		}
		if ok && !t.Deadline.IsZero() && DateOf(b.SubmittedAt).After(DateOf(t.Deadline)) {
			v.add("bid", b.ID, "submission_date", "after tender deadline")
		}
		if ok {
			s.bidsByTender[b.TenderID] = append(s.bidsByTender[b.TenderID], b)
		}
	}
}

func (s *Snapshot) sortIndexes() {
	sort.Strings(s.tenderIDs)
	sort.Strings(s.companyIDs)
	sort.Strings(s.directorIDs)
	sort.Strings(s.officialIDs)

	byID := func(a, b *Bid) int { return strings.Compare(a.ID, b.ID) }
	slices.SortFunc(s.bids, byID)
	for _, bids := range s.bidsByTender {
		slices.SortFunc(bids, byID)
	}
	for _, won := range s.awardsByCo {
		slices.SortFunc(won, func(a, b *Tender) int { return strings.Compare(a.ID, b.ID) })
	}
}

// Tender returns the tender with the given id.
func (s *Snapshot) Tender(id string) (*Tender, bool) {
	t, ok := s.tenders[id]
	return t, ok
}

// Company returns the company with the given id.
func (s *Snapshot) Company(id string) (*Company, bool) {
	c, ok := s.companies[id]
	return c, ok
}

// Director returns the director with the given id.
func (s *Snapshot) Director(id string) (*Director, bool) {
	d, ok := s.directors[id]
	return d, ok
}

// Official returns the official with the given id.
func (s *Snapshot) Official(id string) (*Official, bool) {
	o, ok := s.officials[id]
	return o, ok
}

// Tenders returns all tenders in ascending id order.
func (s *Snapshot) Tenders() []*Tender {
	out := make([]*Tender, len(s.tenderIDs))
	for i, id := range s.tenderIDs {
		out[i] = s.tenders[id]
	}
	return out
}

// Companies returns all companies in ascending id order.
func (s *Snapshot) Companies() []*Company {
	out := make([]*Company, len(s.companyIDs))
	for i, id := range s.companyIDs {
		out[i] = s.companies[id]
	}
	return out
}

// Directors returns all directors in ascending id order.
func (s *Snapshot) Directors() []*Director {
	out := make([]*Director, len(s.directorIDs))
	for i, id := range s.directorIDs {
		out[i] = s.directors[id]
	}
	return out
}

// Officials returns all officials in ascending id order.
func (s *Snapshot) Officials() []*Official {
	out := make([]*Official, len(s.officialIDs))
	for i, id := range s.officialIDs {
		out[i] = s.officials[id]
	}
	return out
}

// Bids returns all bids in ascending id order.
func (s *Snapshot) Bids() []*Bid {
	return slices.Clone(s.bids)
}

// BidsForTender returns the bids on a tender in ascending id order.
func (s *Snapshot) BidsForTender(tenderID string) []*Bid {
	return slices.Clone(s.bidsByTender[tenderID])
}

// TendersWonBy returns the tenders awarded to a company in ascending id order.
func (s *Snapshot) TendersWonBy(companyID string) []*Tender {
	return slices.Clone(s.awardsByCo[companyID])
}

// Counts returns the number of tenders, companies, directors, officials and bids.
func (s *Snapshot) Counts() (tenders, companies, directors, officials, bids int) {
	return len(s.tenderIDs), len(s.companyIDs), len(s.directorIDs), len(s.officialIDs), len(s.bids)
}
