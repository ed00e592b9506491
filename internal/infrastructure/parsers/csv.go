package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// BidCSVParser parses bids from CSV format.
type BidCSVParser struct{}

// Parse reads CSV from the reader and returns a dataset holding only bids.
// Expected columns: id, tender_id, company_id, amount, submission_date, technical_score
func (p *BidCSVParser) Parse(r io.Reader) (*RawDataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	bids, err := p.readRecords(reader, colIndex)
	if err != nil {
		return nil, err
	}
	return &RawDataset{Bids: bids}, nil
}

// readHeader reads and validates the CSV header row.
func (p *BidCSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	requiredCols := []string{"id", "tender_id", "company_id", "amount", "submission_date"}
	for _, col := range requiredCols {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawBids.
func (p *BidCSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawBid, error) {
	var bids []RawBid
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		bid, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}

	return bids, nil
}

// parseRecord converts a CSV record to a RawBid.
func (p *BidCSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (RawBid, error) {
	bid := RawBid{
		ID:             getColumn(record, colIndex, "id"),
		TenderID:       getColumn(record, colIndex, "tender_id"),
		CompanyID:      getColumn(record, colIndex, "company_id"),
		SubmissionDate: getColumn(record, colIndex, "submission_date"),
		LineNum:        lineNum,
	}

	amount, err := decimal.NewFromString(getColumn(record, colIndex, "amount"))
	if err != nil {
		return RawBid{}, fmt.Errorf("line %d: invalid amount %q: %w", lineNum, getColumn(record, colIndex, "amount"), err)
	}
	bid.Amount = amount

	if scoreStr := getColumn(record, colIndex, "technical_score"); scoreStr != "" {
		score, err := decimal.NewFromString(scoreStr)
		if err != nil {
			return RawBid{}, fmt.Errorf("line %d: invalid technical_score %q: %w", lineNum, scoreStr, err)
		}
		bid.TechnicalScore = &score
	}

	return bid, nil
}

// getColumn safely retrieves a trimmed column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
