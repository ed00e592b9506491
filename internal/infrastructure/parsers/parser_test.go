package parsers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-oversight/sentinel/internal/domain/entities"
)

const sampleJSON = `{
	"tenders": [{
		"id": "tender-001",
		"reference_number": "MOH/2024/001",
		"title": "Supply of Medical Equipment",
		"procuring_entity": "Ministry of Health",
		"category": "Medical Supplies",
		"estimated_value": 45000000,
		"published_date": "2024-03-01",
		"deadline": "2024-03-05T17:00:00",
		"status": "AWARDED",
		"awarded_to": "comp-001",
		"awarded_amount": "81000000",
		"procurement_officer_id": "off-001"
	}],
	"companies": [{
		"id": "comp-001",
		"name": "Apex Supplies Ltd",
		"registration_number": "PVT-2019-001",
		"registration_date": "2019-04-12",
		"address": "Moi Avenue, Nairobi",
		"phone": "+254 700 000 001",
		"email": "info@apex.co.ke",
		"director_ids": ["dir-001"]
	}],
	"directors": [{"id": "dir-001", "name": "Jane Wanjiku", "company_ids": ["comp-001"]}],
	"officials": [{
		"id": "off-001",
		"name": "John Kamau",
		"department": "Procurement",
		"position": "Director",
		"related_persons": {"dir-001": "SIBLING", "comp-001": "BUSINESS_PARTNER"}
	}],
	"bids": [{
		"id": "bid-001",
		"tender_id": "tender-001",
		"company_id": "comp-001",
		"amount": 81000000,
		"submission_date": "2024-03-04 10:30",
		"technical_score": 78.5
	}]
}`

func TestJSONParser_Parse_ValidInput(t *testing.T) {
	parser := &JSONParser{}
	raw, err := parser.Parse(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	require.Len(t, raw.Tenders, 1)
	require.Len(t, raw.Companies, 1)
	require.Len(t, raw.Directors, 1)
	require.Len(t, raw.Officials, 1)
	require.Len(t, raw.Bids, 1)

	tender := raw.Tenders[0]
	assert.Equal(t, "tender-001", tender.ID)
	assert.Equal(t, "off-001", tender.ProcurementOfficerID)
	assert.True(t, tender.EstimatedValue.Equal(decimal.NewFromInt(45_000_000)))
	require.NotNil(t, tender.AwardedAmount)
	assert.True(t, tender.AwardedAmount.Equal(decimal.NewFromInt(81_000_000)))
	assert.Equal(t, 1, tender.LineNum)

	assert.Equal(t, "SIBLING", raw.Officials[0].RelatedPersons["dir-001"])
	require.NotNil(t, raw.Bids[0].TechnicalScore)
	assert.Equal(t, "78.5", raw.Bids[0].TechnicalScore.String())
}

func TestJSONParser_Parse_EmptyDocument(t *testing.T) {
	parser := &JSONParser{}
	raw, err := parser.Parse(strings.NewReader("{}"))
	require.NoError(t, err)

	ds, err := raw.ToDataset()
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Size())
}

func TestJSONParser_Parse_InvalidInput(t *testing.T) {
	parser := &JSONParser{}
	_, err := parser.Parse(strings.NewReader("not json"))
	require.Error(t, err)
}

func TestBidCSVParser_Parse_ValidInput(t *testing.T) {
	input := `id,tender_id,company_id,amount,submission_date,technical_score
bid-001,tender-001,comp-001,1500000,2024-03-04,80
bid-002, tender-001 ,comp-002,1490000.50,2024-03-04T09:00:00,`

	parser := &BidCSVParser{}
	raw, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, raw.Bids, 2)
	assert.Empty(t, raw.Tenders)

	first := raw.Bids[0]
	assert.Equal(t, "bid-001", first.ID)
	assert.Equal(t, 2, first.LineNum)
	require.NotNil(t, first.TechnicalScore)
	assert.Equal(t, "80", first.TechnicalScore.String())

	second := raw.Bids[1]
	assert.Equal(t, "tender-001", second.TenderID)
	assert.Equal(t, "1490000.5", second.Amount.String())
	assert.Nil(t, second.TechnicalScore)
	assert.Equal(t, 3, second.LineNum)
}

func TestBidCSVParser_Parse_ColumnOrderIndependent(t *testing.T) {
	input := `amount,submission_date,company_id,tender_id,id
200,2024-01-02,comp-1,tender-1,bid-1`

	parser := &BidCSVParser{}
	raw, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, raw.Bids, 1)
	assert.Equal(t, "bid-1", raw.Bids[0].ID)
	assert.Equal(t, "comp-1", raw.Bids[0].CompanyID)
}

func TestBidCSVParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", "", "reading CSV header"},
		{"missing column", "id,tender_id,company_id,amount\n", "missing required column: submission_date"},
		{"bad amount", "id,tender_id,company_id,amount,submission_date\nb,t,c,lots,2024-01-01\n", "line 2: invalid amount"},
		{"bad score", "id,tender_id,company_id,amount,submission_date,technical_score\nb,t,c,1,2024-01-01,x\n", "invalid technical_score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &BidCSVParser{}
			_, err := parser.Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format   string
		expected Parser
	}{
		{"json", &JSONParser{}},
		{"JSON", &JSONParser{}},
		{"csv", &BidCSVParser{}},
		{"xml", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.expected, ForFormat(tt.format))
		})
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		expected Parser
	}{
		{"dataset.json", &JSONParser{}},
		{"path/to/BIDS.CSV", &BidCSVParser{}},
		{"notes.txt", nil},
		{"noext", nil},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, ForFile(tt.filename))
		})
	}
}

func TestRawDataset_Merge(t *testing.T) {
	a := &RawDataset{Tenders: []RawTender{{ID: "t-1"}}}
	b := &RawDataset{Bids: []RawBid{{ID: "b-1"}, {ID: "b-2"}}, Tenders: []RawTender{{ID: "t-2"}}}

	a.Merge(b)
	assert.Len(t, a.Tenders, 2)
	assert.Len(t, a.Bids, 2)
}

func TestToDataset_Converts(t *testing.T) {
	raw, err := (&JSONParser{}).Parse(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	ds, err := raw.ToDataset()
	require.NoError(t, err)

	tender := ds.Tenders[0]
	assert.Equal(t, "MOH/2024/001", tender.Reference)
	assert.Equal(t, entities.TenderAwarded, tender.Status)
	assert.Equal(t, "off-001", tender.AwardingOfficialID)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), tender.PublishedDate)
	assert.Equal(t, 4, tender.WindowDays())

	company := ds.Companies[0]
	assert.Equal(t, time.Date(2019, 4, 12, 0, 0, 0, 0, time.UTC), company.RegistrationDate)

	// relations come out sorted by target id
	assert.Equal(t, []entities.OfficialRelation{
		{TargetID: "comp-001", Kind: entities.RelationBusinessPartner},
		{TargetID: "dir-001", Kind: entities.RelationSibling},
	}, ds.Officials[0].Relations)

	assert.Equal(t, time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC), ds.Bids[0].SubmittedAt)

	_, err = entities.NewSnapshot(ds)
	require.NoError(t, err)
}

func TestToDataset_MissingRegistrationDate(t *testing.T) {
	raw := &RawDataset{Companies: []RawCompany{{ID: "comp-1", Name: "Acme"}}}

	ds, err := raw.ToDataset()
	require.NoError(t, err)
	assert.True(t, ds.Companies[0].RegistrationDate.IsZero())
}

func TestToDataset_ReportsEveryProblem(t *testing.T) {
	raw := &RawDataset{
		Tenders: []RawTender{
			{ID: "tender-1", Title: "Roads", PublishedDate: "2024-01-01", Deadline: "2024-01-20", Status: "PENDING", LineNum: 1},
			{ID: "tender-2", Title: "Water", PublishedDate: "yesterday", Deadline: "2024-01-20", Status: "OPEN", LineNum: 2},
		},
		Companies: []RawCompany{{Name: "No Id Ltd", Email: "nope", LineNum: 4}},
		Officials: []RawOfficial{{ID: "off-1", Name: "A", RelatedPersons: map[string]string{"dir-1": "COUSIN"}}},
		Bids:      []RawBid{{ID: "bid-1", TenderID: "tender-1", SubmissionDate: "2024-01-02"}},
	}

	ds, err := raw.ToDataset()
	require.Error(t, err)
	assert.Nil(t, ds)
	assert.True(t, entities.IsValidation(err))

	msg := err.Error()
	assert.Contains(t, msg, "invalid tender tender-1: status: \"PENDING\" must be one of OPEN EVALUATION AWARDED CANCELLED")
	assert.Contains(t, msg, "invalid tender tender-2: published_date: unrecognised date \"yesterday\"")
	assert.Contains(t, msg, "invalid company #4: id: is required")
	assert.Contains(t, msg, "invalid company #4: email: \"nope\" is not a valid email address")
	assert.Contains(t, msg, "invalid official off-1: related_persons[dir-1]")
	assert.Contains(t, msg, "invalid bid bid-1: company_id: is required")
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-03-01T08:15:00Z", time.Date(2024, 3, 1, 8, 15, 0, 0, time.UTC)},
		{"2024-03-01T08:15:00", time.Date(2024, 3, 1, 8, 15, 0, 0, time.UTC)},
		{" 2024-03-01 08:15 ", time.Date(2024, 3, 1, 8, 15, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}

	_, err := ParseDate("01/03/2024")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "dataset.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o644))

	ds, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Size())

	_, err = LoadFile(filepath.Join(dir, "dataset.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestFromDataset_RoundTrips(t *testing.T) {
	raw, err := (&JSONParser{}).Parse(strings.NewReader(sampleJSON))
	require.NoError(t, err)
	ds, err := raw.ToDataset()
	require.NoError(t, err)

	back := FromDataset(ds)
	assert.Equal(t, "2024-03-01", back.Tenders[0].PublishedDate)
	assert.Equal(t, "2024-03-05T17:00:00Z", back.Tenders[0].Deadline)
	assert.Equal(t, "off-001", back.Tenders[0].ProcurementOfficerID)
	assert.Equal(t, map[string]string{"dir-001": "SIBLING", "comp-001": "BUSINESS_PARTNER"}, back.Officials[0].RelatedPersons)

	again, err := back.ToDataset()
	require.NoError(t, err)
	assert.Equal(t, ds.Officials, again.Officials)
	assert.True(t, ds.Tenders[0].Deadline.Equal(again.Tenders[0].Deadline))
	assert.True(t, ds.Bids[0].SubmittedAt.Equal(again.Bids[0].SubmittedAt))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "", FormatDate(time.Time{}))
	assert.Equal(t, "2024-03-01", FormatDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-01T09:30:00Z", FormatDate(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)))
}
