package parsers

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

// DateLayouts are the accepted date formats, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ParseDate parses s with the first matching layout in DateLayouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ToDataset validates the raw records and converts them to domain entities.
// Every problem found is reported; the returned error joins ValidationErrors.
func (d *RawDataset) ToDataset() (*entities.Dataset, error) {
	c := &converter{v: validatorInstance()}
	ds := &entities.Dataset{
		Tenders:   make([]entities.Tender, 0, len(d.Tenders)),
		Companies: make([]entities.Company, 0, len(d.Companies)),
		Directors: make([]entities.Director, 0, len(d.Directors)),
		Officials: make([]entities.Official, 0, len(d.Officials)),
		Bids:      make([]entities.Bid, 0, len(d.Bids)),
	}

	for _, rt := range d.Tenders {
		if t, ok := c.tender(rt); ok {
			ds.Tenders = append(ds.Tenders, t)
		}
	}
	for _, rc := range d.Companies {
		if co, ok := c.company(rc); ok {
			ds.Companies = append(ds.Companies, co)
		}
	}
	for _, rd := range d.Directors {
		if c.check("director", rd.ID, rd.LineNum, rd) {
			ds.Directors = append(ds.Directors, entities.Director{
				ID:         rd.ID,
				Name:       rd.Name,
				NationalID: rd.NationalID,
				CompanyIDs: append([]string(nil), rd.CompanyIDs...),
			})
		}
	}
	for _, ro := range d.Officials {
		if c.check("official", ro.ID, ro.LineNum, ro) {
			ds.Officials = append(ds.Officials, officialFrom(ro))
		}
	}
	for _, rb := range d.Bids {
		if b, ok := c.bid(rb); ok {
			ds.Bids = append(ds.Bids, b)
		}
	}

	if len(c.errs) > 0 {
		return nil, errors.Join(c.errs...)
	}
	return ds, nil
}

type converter struct {
	v    *validator.Validate
	errs []error
}

func (c *converter) fail(entity, id string, line int, field, msg string) {
	if id == "" {
		id = fmt.Sprintf("#%d", line)
	}
	c.errs = append(c.errs, &entities.ValidationError{Entity: entity, ID: id, Field: field, Message: msg})
}

// check runs struct validation and records one error per failing field.
func (c *converter) check(entity, id string, line int, rec any) bool {
	err := c.v.Struct(rec)
	if err == nil {
		return true
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		c.fail(entity, id, line, "", err.Error())
		return false
	}
	for _, fe := range fieldErrs {
		c.fail(entity, id, line, fieldPath(fe), describe(fe))
	}
	return false
}

func (c *converter) date(entity, id string, line int, field, value string) (time.Time, bool) {
	t, err := ParseDate(value)
	if err != nil {
		c.fail(entity, id, line, field, err.Error())
		return time.Time{}, false
	}
	return t, true
}

func (c *converter) tender(rt RawTender) (entities.Tender, bool) {
	if !c.check("tender", rt.ID, rt.LineNum, rt) {
		return entities.Tender{}, false
	}
	published, ok1 := c.date("tender", rt.ID, rt.LineNum, "published_date", rt.PublishedDate)
	deadline, ok2 := c.date("tender", rt.ID, rt.LineNum, "deadline", rt.Deadline)
	if !ok1 || !ok2 {
		return entities.Tender{}, false
	}
	return entities.Tender{
		ID:                 rt.ID,
		Reference:          rt.ReferenceNumber,
		Title:              rt.Title,
		Description:        rt.Description,
		ProcuringEntity:    rt.ProcuringEntity,
		Category:           rt.Category,
		EstimatedValue:     rt.EstimatedValue,
		PublishedDate:      published,
		Deadline:           deadline,
		Status:             entities.TenderStatus(rt.Status),
		AwardedTo:          rt.AwardedTo,
		AwardedAmount:      rt.AwardedAmount,
		AwardingOfficialID: rt.ProcurementOfficerID,
	}, true
}

func (c *converter) company(rc RawCompany) (entities.Company, bool) {
	if !c.check("company", rc.ID, rc.LineNum, rc) {
		return entities.Company{}, false
	}
	var registered time.Time
	if rc.RegistrationDate != "" {
		t, ok := c.date("company", rc.ID, rc.LineNum, "registration_date", rc.RegistrationDate)
		if !ok {
			return entities.Company{}, false
		}
		registered = t
	}
	return entities.Company{
		ID:                 rc.ID,
		Name:               rc.Name,
		RegistrationNumber: rc.RegistrationNumber,
		RegistrationDate:   registered,
		Address:            rc.Address,
		Phone:              rc.Phone,
		Email:              rc.Email,
		DirectorIDs:        append([]string(nil), rc.DirectorIDs...),
	}, true
}

func (c *converter) bid(rb RawBid) (entities.Bid, bool) {
	if !c.check("bid", rb.ID, rb.LineNum, rb) {
		return entities.Bid{}, false
	}
	submitted, ok := c.date("bid", rb.ID, rb.LineNum, "submission_date", rb.SubmissionDate)
	if !ok {
		return entities.Bid{}, false
	}
	return entities.Bid{
		ID:             rb.ID,
		TenderID:       rb.TenderID,
		CompanyID:      rb.CompanyID,
		Amount:         rb.Amount,
		SubmittedAt:    submitted,
		TechnicalScore: rb.TechnicalScore,
	}, true
}

func officialFrom(ro RawOfficial) entities.Official {
	targets := make([]string, 0, len(ro.RelatedPersons))
	for id := range ro.RelatedPersons {
		targets = append(targets, id)
	}
	sort.Strings(targets)

	o := entities.Official{
		ID:         ro.ID,
		Name:       ro.Name,
		Department: ro.Department,
		Position:   ro.Position,
	}
	for _, id := range targets {
		o.Relations = append(o.Relations, entities.OfficialRelation{
			TargetID: id,
			Kind:     entities.RelationKind(ro.RelatedPersons[id]),
		})
	}
	return o
}

// fieldPath strips the struct name from the validator namespace, e.g.
// "RawOfficial.related_persons[dir-1]" becomes "related_persons[dir-1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("%q must be one of %s", fe.Value(), fe.Param())
	case "email":
		return fmt.Sprintf("%q is not a valid email address", fe.Value())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// FromDataset converts domain entities back to the raw file representation.
func FromDataset(ds *entities.Dataset) *RawDataset {
	raw := &RawDataset{
		Tenders:   make([]RawTender, 0, len(ds.Tenders)),
		Companies: make([]RawCompany, 0, len(ds.Companies)),
		Directors: make([]RawDirector, 0, len(ds.Directors)),
		Officials: make([]RawOfficial, 0, len(ds.Officials)),
		Bids:      make([]RawBid, 0, len(ds.Bids)),
	}
	for _, t := range ds.Tenders {
		raw.Tenders = append(raw.Tenders, RawTender{
			ID:                   t.ID,
			ReferenceNumber:      t.Reference,
			Title:                t.Title,
			Description:          t.Description,
			ProcuringEntity:      t.ProcuringEntity,
			Category:             t.Category,
			EstimatedValue:       t.EstimatedValue,
			PublishedDate:        FormatDate(t.PublishedDate),
			Deadline:             FormatDate(t.Deadline),
			Status:               string(t.Status),
			AwardedTo:            t.AwardedTo,
			AwardedAmount:        t.AwardedAmount,
			ProcurementOfficerID: t.AwardingOfficialID,
		})
	}
	for _, c := range ds.Companies {
		raw.Companies = append(raw.Companies, RawCompany{
			ID:                 c.ID,
			Name:               c.Name,
			RegistrationNumber: c.RegistrationNumber,
			RegistrationDate:   FormatDate(c.RegistrationDate),
			Address:            c.Address,
			Phone:              c.Phone,
			Email:              c.Email,
			DirectorIDs:        c.DirectorIDs,
		})
	}
	for _, d := range ds.Directors {
		raw.Directors = append(raw.Directors, RawDirector{
			ID:         d.ID,
			Name:       d.Name,
			NationalID: d.NationalID,
			CompanyIDs: d.CompanyIDs,
		})
	}
	for _, o := range ds.Officials {
		ro := RawOfficial{ID: o.ID, Name: o.Name, Department: o.Department, Position: o.Position}
		if len(o.Relations) > 0 {
			ro.RelatedPersons = make(map[string]string, len(o.Relations))
			for _, rel := range o.Relations {
				ro.RelatedPersons[rel.TargetID] = string(rel.Kind)
			}
		}
		raw.Officials = append(raw.Officials, ro)
	}
	for _, b := range ds.Bids {
		raw.Bids = append(raw.Bids, RawBid{
			ID:             b.ID,
			TenderID:       b.TenderID,
			CompanyID:      b.CompanyID,
			Amount:         b.Amount,
			SubmissionDate: FormatDate(b.SubmittedAt),
			TechnicalScore: b.TechnicalScore,
		})
	}
	return raw
}

// FormatDate renders t as a plain date at midnight UTC and as RFC 3339
// otherwise. The zero time renders as the empty string.
func FormatDate(t time.Time) string {
	switch {
	case t.IsZero():
		return ""
	case t.Equal(entities.DateOf(t)) && t.Location() == time.UTC:
		return t.Format("2006-01-02")
	default:
		return t.Format(time.RFC3339)
	}
}
