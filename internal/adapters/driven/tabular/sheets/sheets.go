// Package sheets provides a Google Sheets-backed tabular record store.
// The upstream register is a spreadsheet maintained by the operations
// team; the first row of the record sheet holds column headers.
package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.TabularStore = (*Store)(nil)

// Default sheet names within the spreadsheet.
const (
	DefaultRecordSheet   = "Records"
	DefaultFeedbackSheet = "Feedback"
)

// scopes needed to read records and append feedback rows.
var scopes = []string{sheets.SpreadsheetsScope}

// Config holds configuration for the Sheets store.
type Config struct {
	// SpreadsheetID identifies the register spreadsheet (required).
	SpreadsheetID string

	// CredentialsFile is the path to a service account JSON key (required).
	CredentialsFile string

	// RecordSheet is the sheet holding the records (default: Records).
	RecordSheet string

	// FeedbackSheet is the sheet feedback rows are appended to
	// (default: Feedback).
	FeedbackSheet string
}

// Store reads records from and appends feedback to a Google
// spreadsheet.
type Store struct {
	svc           *sheets.Service
	spreadsheetID string
	recordSheet   string
	feedbackSheet string
}

// NewStore creates a Sheets store authenticated with a service account
// key file.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet ID is required")
	}
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("sheets: credentials file is required")
	}
	if cfg.RecordSheet == "" {
		cfg.RecordSheet = DefaultRecordSheet
	}
	if cfg.FeedbackSheet == "" {
		cfg.FeedbackSheet = DefaultFeedbackSheet
	}

	key, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets: read credentials: %w", err)
	}

	jwt, err := google.JWTConfigFromJSON(key, scopes...)
	if err != nil {
		return nil, fmt.Errorf("sheets: parse credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithTokenSource(jwt.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	return &Store{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		recordSheet:   cfg.RecordSheet,
		feedbackSheet: cfg.FeedbackSheet,
	}, nil
}

// Search returns records where any cell matches any of the terms,
// case-insensitively. The whole record sheet is fetched per call; the
// register is small and the sheet is the source of truth, so no local
// cache is kept.
func (s *Store) Search(ctx context.Context, terms []string) ([]domain.TabularRow, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.recordSheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: fetch records: %w", err)
	}
	if len(resp.Values) < 2 {
		return nil, nil
	}

	headers := make([]string, len(resp.Values[0]))
	for i, h := range resp.Values[0] {
		headers[i] = fmt.Sprint(h)
	}

	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}

	var matched []domain.TabularRow
	for _, raw := range resp.Values[1:] {
		record := make(domain.TabularRow, len(headers))
		for i, h := range headers {
			if i < len(raw) {
				record[h] = fmt.Sprint(raw[i])
			} else {
				record[h] = ""
			}
		}
		if rowMatches(record, lowered) {
			matched = append(matched, record)
		}
	}

	return matched, nil
}

// AppendFeedback appends a feedback row to the feedback sheet.
func (s *Store) AppendFeedback(ctx context.Context, fb domain.Feedback) error {
	row := &sheets.ValueRange{
		Values: [][]any{{
			fb.ID,
			fb.ThreadID,
			fb.User,
			fb.Rating,
			fb.Question,
			fb.Answer,
			fb.CreatedAt.Format("2006-01-02 15:04:05"),
		}},
	}

	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.feedbackSheet, row).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append feedback: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	// The HTTP-backed service needs no explicit cleanup
	return nil
}

// rowMatches reports whether any cell contains any of the lowered terms.
func rowMatches(record domain.TabularRow, lowered []string) bool {
	for _, value := range record {
		cell := strings.ToLower(value)
		for _, term := range lowered {
			if strings.Contains(cell, term) {
				return true
			}
		}
	}
	return false
}
