package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/estateflow/backend/internal/domain/shared"
	csvimport "github.com/estateflow/backend/internal/infrastructure/import"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxImportRows caps a single lead import
const MaxImportRows = 5000

// Lead import columns, after header normalization
const (
	colCustomerName = "customer_name"
	colEmail        = "email"
	colPhone        = "phone"
	colSource       = "source"
	colValue        = "value"
	colPriority     = "priority"
	colAgentID      = "agent_id"
	colNotes        = "notes"
)

// LeadImportResult summarizes a CSV lead import
type LeadImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	SkippedRows  int                  `json:"skipped_rows"`
	ErrorRows    int                  `json:"error_rows"`
	LeadIDs      []uuid.UUID          `json:"lead_ids"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// ImportLeads creates one prospecting lead per CSV row. Rows that fail
// validation are reported and skipped; the rest are imported. A row whose
// email or phone repeats an imported row is skipped as a duplicate.
func (s *PipelineService) ImportLeads(ctx context.Context, r io.Reader) (*LeadImportResult, error) {
	parser, err := csvimport.NewParser(r, csvimport.WithMaxRows(MaxImportRows))
	if err != nil {
		return nil, importFileError(err)
	}
	if missing := parser.MissingHeaders(colCustomerName); len(missing) > 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument,
			fmt.Sprintf("CSV file is missing required columns: %s", strings.Join(missing, ", ")))
	}
	if !parser.HasHeader(colEmail) && !parser.HasHeader(colPhone) {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "CSV file needs an email or a phone column")
	}

	result := &LeadImportResult{LeadIDs: make([]uuid.UUID, 0)}
	rowErrors := csvimport.NewErrorCollection(100)
	seen := make(map[string]int)
	titler := cases.Title(language.English)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := parser.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var rowErr *csvimport.RowError
			if errors.As(err, &rowErr) {
				result.TotalRows++
				result.ErrorRows++
				rowErrors.Add(*rowErr)
				continue
			}
			return nil, importFileError(err)
		}
		result.TotalRows++

		req := leadRequestFromRow(row, titler)
		if dupRow, column, value, dup := duplicateOf(seen, req); dup {
			result.SkippedRows++
			rowErrors.AddDuplicate(row.LineNumber, column, value, dupRow)
			continue
		}

		lead, err := s.CreateLead(ctx, req)
		if err != nil {
			if shared.CodeOf(err) == "" {
				return nil, err
			}
			result.ErrorRows++
			addRowErrors(rowErrors, row.LineNumber, err)
			continue
		}
		rememberContacts(seen, row.LineNumber, req)
		result.ImportedRows++
		result.LeadIDs = append(result.LeadIDs, lead.ID)
	}

	result.Errors = rowErrors.Errors()
	result.IsTruncated = rowErrors.IsTruncated()
	result.TotalErrors = rowErrors.TotalCount()

	s.logger.Info("lead import finished",
		zap.Int("total_rows", result.TotalRows),
		zap.Int("imported", result.ImportedRows),
		zap.Int("skipped", result.SkippedRows),
		zap.Int("errors", result.ErrorRows),
	)

	return result, nil
}

func importFileError(err error) error {
	switch {
	case errors.Is(err, csvimport.ErrEmptyFile),
		errors.Is(err, csvimport.ErrInvalidEncoding),
		errors.Is(err, csvimport.ErrMissingHeader),
		errors.Is(err, csvimport.ErrTooManyRows):
		return shared.NewDomainError(shared.CodeInvalidArgument, err.Error())
	}
	var rowErr *csvimport.RowError
	if errors.As(err, &rowErr) {
		return shared.NewDomainError(shared.CodeInvalidArgument, rowErr.Error())
	}
	return fmt.Errorf("failed to read lead import: %w", err)
}

// leadRequestFromRow maps a CSV row onto a lead draft. Names are title
// cased; source and priority accept any casing and spaces for hyphens.
func leadRequestFromRow(row *csvimport.Row, titler cases.Caser) CreateLeadRequest {
	return CreateLeadRequest{
		CustomerName: titler.String(strings.Join(strings.Fields(row.Get(colCustomerName)), " ")),
		Email:        strings.ToLower(row.Get(colEmail)),
		Phone:        row.Get(colPhone),
		Source:       enumValue(row.Get(colSource)),
		Value:        strings.ReplaceAll(row.Get(colValue), ",", ""),
		Priority:     enumValue(row.Get(colPriority)),
		AgentID:      row.Get(colAgentID),
		Notes:        row.Get(colNotes),
	}
}

func enumValue(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(s, "_", " "))), "-")
}

func contactKeys(req CreateLeadRequest) []struct{ column, value string } {
	return []struct{ column, value string }{
		{colEmail, req.Email},
		{colPhone, strings.Join(strings.Fields(req.Phone), "")},
	}
}

// duplicateOf reports the first earlier imported row sharing the draft's
// email or phone
func duplicateOf(seen map[string]int, req CreateLeadRequest) (int, string, string, bool) {
	for _, k := range contactKeys(req) {
		if k.value == "" {
			continue
		}
		if first, ok := seen[k.column+":"+k.value]; ok {
			return first, k.column, k.value, true
		}
	}
	return 0, "", "", false
}

func rememberContacts(seen map[string]int, line int, req CreateLeadRequest) {
	for _, k := range contactKeys(req) {
		if k.value != "" {
			seen[k.column+":"+k.value] = line
		}
	}
}

// addRowErrors converts a rejected draft into per-column row errors
func addRowErrors(ec *csvimport.ErrorCollection, line int, err error) {
	var de *shared.DomainError
	if errors.As(err, &de) && len(de.Details) > 0 {
		for _, d := range de.Details {
			ec.Add(csvimport.RowError{Row: line, Column: d.Field, Code: csvimport.ErrCodeInvalidValue, Message: d.Message})
		}
		return
	}
	ec.Add(csvimport.RowError{Row: line, Code: csvimport.ErrCodeRejected, Message: err.Error()})
}
