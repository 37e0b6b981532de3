package inventory

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/inventory"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/mrp/backend/internal/domain/shared/valueobject"
	csvimport "github.com/mrp/backend/internal/infrastructure/import"
	"github.com/shopspring/decimal"
)

const (
	// MaxImportFileSize limits uploaded CSV files to 5MB
	MaxImportFileSize = 5 * 1024 * 1024

	// maxImportErrors caps the per-row errors returned to the caller
	maxImportErrors = 100
)

// materialImportHeaders are the columns a material CSV must carry. Quantity
// and cost columns are optional and default to zero.
var materialImportHeaders = []string{"sku", "name", "unit"}

// MaterialImportResult summarizes one import run
type MaterialImportResult struct {
	ImportID     uuid.UUID            `json:"import_id"`
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// MaterialImportService bulk-creates materials from a CSV file during tenant
// onboarding. Each row is applied atomically: the material and its opening
// stock ledger entry commit together or not at all. Row failures are
// collected and never abort the rest of the file.
type MaterialImportService struct {
	materialRepo inventory.MaterialRepository
	txScope      TransactionScope
	eventBus     shared.EventPublisher
}

// NewMaterialImportService creates a new MaterialImportService
func NewMaterialImportService(
	materialRepo inventory.MaterialRepository,
	txScope TransactionScope,
	eventBus shared.EventPublisher,
) *MaterialImportService {
	return &MaterialImportService{
		materialRepo: materialRepo,
		txScope:      txScope,
		eventBus:     eventBus,
	}
}

// validationRules returns the per-column rules for material import
func (s *MaterialImportService) validationRules() []csvimport.FieldRule {
	zero := decimal.Zero
	return []csvimport.FieldRule{
		csvimport.Field("sku").Required().String().MinLength(1).MaxLength(50).
			Pattern(`^[A-Za-z0-9_-]+$`, "letters, numbers, underscores and hyphens").Unique().Build(),
		csvimport.Field("name").Required().String().MinLength(1).MaxLength(200).Build(),
		csvimport.Field("unit").Required().String().Custom(func(value string) error {
			_, err := valueobject.ParseUnit(value)
			return err
		}).Build(),
		csvimport.Field("stock_quantity").Decimal().MinValue(zero).Build(),
		csvimport.Field("reorder_level").Decimal().MinValue(zero).Build(),
		csvimport.Field("unit_cost").Decimal().MinValue(zero).Build(),
		csvimport.Field("description").String().MaxLength(500).Build(),
	}
}

// ImportFromBytes parses and imports a material CSV. File-level problems
// (encoding, missing headers, no data) fail the whole call; row-level
// problems are reported in the result.
func (s *MaterialImportService) ImportFromBytes(ctx context.Context, tenantID uuid.UUID, operatorID *uuid.UUID, data []byte) (*MaterialImportResult, error) {
	if len(data) > MaxImportFileSize {
		return nil, shared.NewDomainError("IMPORT_FILE_TOO_LARGE",
			fmt.Sprintf("Import file exceeds the %dMB limit", MaxImportFileSize/(1024*1024)))
	}

	parser, err := csvimport.ParseFromBytes(data)
	if err != nil {
		return nil, shared.NewDomainError("IMPORT_INVALID_FILE", err.Error())
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, shared.NewDomainError("IMPORT_INVALID_FILE", err.Error())
	}
	if missing := parser.ValidateHeaders(materialImportHeaders); len(missing) > 0 {
		return nil, shared.NewDomainError("IMPORT_MISSING_HEADERS",
			fmt.Sprintf("Import file is missing required columns: %v", missing))
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, shared.NewDomainError("IMPORT_INVALID_FILE", err.Error())
	}
	if len(rows) == 0 {
		return nil, shared.NewDomainError("IMPORT_EMPTY", "CSV file contains no data rows")
	}

	// One reference ID ties every opening-stock ledger entry back to this run.
	importID := uuid.New()
	result := &MaterialImportResult{
		ImportID:  importID,
		TotalRows: len(rows),
	}

	validator := csvimport.NewFieldValidator(s.validationRules(), maxImportErrors)
	errors := validator.Errors()

	valid := make([]*csvimport.Row, 0, len(rows))
	for _, row := range rows {
		if validator.ValidateRow(row) {
			valid = append(valid, row)
		} else {
			result.ErrorRows++
		}
	}

	for _, row := range valid {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := s.importRow(ctx, tenantID, operatorID, importID, row, errors); err != nil {
			result.ErrorRows++
			continue
		}
		result.ImportedRows++
	}

	result.Errors = errors.Errors()
	result.IsTruncated = errors.IsTruncated()
	result.TotalErrors = errors.TotalCount()

	return result, nil
}

// importRow creates one material and, when the row carries starting stock,
// the adjustment ledger entry that establishes the opening balance. Both
// persist in one transaction. The returned error is already recorded in the
// error collection; callers only use it to count the row as failed.
func (s *MaterialImportService) importRow(
	ctx context.Context,
	tenantID uuid.UUID,
	operatorID *uuid.UUID,
	importID uuid.UUID,
	row *csvimport.Row,
	errors *csvimport.ErrorCollection,
) error {
	sku := row.Get("sku")
	name := row.Get("name")
	description := row.Get("description")

	unit, err := valueobject.ParseUnit(row.Get("unit"))
	if err != nil {
		errors.AddValidationError(row.LineNumber, "unit", csvimport.ErrCodeImportValidation, err.Error())
		return err
	}

	stockQty, err := decimal.NewFromString(row.GetOrDefault("stock_quantity", "0"))
	if err != nil {
		errors.AddTypeError(row.LineNumber, "stock_quantity", "decimal", row.Get("stock_quantity"))
		return err
	}
	reorderLevel, err := decimal.NewFromString(row.GetOrDefault("reorder_level", "0"))
	if err != nil {
		errors.AddTypeError(row.LineNumber, "reorder_level", "decimal", row.Get("reorder_level"))
		return err
	}
	unitCost, err := decimal.NewFromString(row.GetOrDefault("unit_cost", "0"))
	if err != nil {
		errors.AddTypeError(row.LineNumber, "unit_cost", "decimal", row.Get("unit_cost"))
		return err
	}

	exists, err := s.materialRepo.ExistsBySKU(ctx, tenantID, sku)
	if err != nil {
		errors.AddValidationError(row.LineNumber, "sku", csvimport.ErrCodeImportValidation,
			"failed to check existing materials: "+err.Error())
		return err
	}
	if exists {
		errors.Add(csvimport.NewRowErrorWithValue(row.LineNumber, "sku", csvimport.ErrCodeImportDuplicateInDB,
			fmt.Sprintf("material with SKU '%s' already exists", sku), sku))
		return shared.ErrAlreadyExists
	}

	material, err := inventory.NewMaterial(tenantID, sku, name, unit, reorderLevel, unitCost)
	if err != nil {
		errors.AddValidationError(row.LineNumber, "", csvimport.ErrCodeImportValidation, err.Error())
		return err
	}
	if description != "" {
		if err := material.Update(name, description); err != nil {
			errors.AddValidationError(row.LineNumber, "description", csvimport.ErrCodeImportValidation, err.Error())
			return err
		}
	}

	var entry *inventory.InventoryTransaction
	if stockQty.IsPositive() {
		before, err := material.ApplyStockChange(stockQty, inventory.TransactionTypeAdjustment)
		if err != nil {
			errors.AddValidationError(row.LineNumber, "stock_quantity", csvimport.ErrCodeImportValidation, err.Error())
			return err
		}

		entry, err = inventory.NewInventoryTransaction(tenantID, material.ID, inventory.TransactionTypeAdjustment,
			before, stockQty, "Initial stock from import")
		if err != nil {
			errors.AddValidationError(row.LineNumber, "stock_quantity", csvimport.ErrCodeImportValidation, err.Error())
			return err
		}
		entry.WithReference(inventory.ReferenceTypeImport, importID)
		if operatorID != nil {
			entry.WithOperatorID(*operatorID)
		}
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.MaterialRepo().Save(ctx, material); err != nil {
			return err
		}
		if entry != nil {
			if err := repos.TransactionRepo().Create(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		errors.AddValidationError(row.LineNumber, "", csvimport.ErrCodeImportValidation,
			"failed to save material: "+err.Error())
		return err
	}

	if s.eventBus != nil {
		events := material.GetDomainEvents()
		if len(events) > 0 {
			if err := s.eventBus.Publish(ctx, events...); err != nil {
				log.Printf("WARNING: failed to publish domain events for material import: %v", err)
			}
		}
		material.ClearDomainEvents()
	}

	return nil
}
