package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of stock movement recorded in the ledger
type TransactionType string

const (
	// TransactionTypeRestock represents stock coming in (purchasing, returns)
	TransactionTypeRestock TransactionType = "restock"
	// TransactionTypeDeduction represents stock being consumed (production runs)
	TransactionTypeDeduction TransactionType = "deduction"
	// TransactionTypeAdjustment represents a manual correction (stock takes, imports)
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeRestock, TransactionTypeDeduction, TransactionTypeAdjustment:
		return true
	}
	return false
}

// ValidateChange checks a signed quantity change against the type's sign
// rules: restocks are strictly positive, deductions strictly negative, and
// adjustments may go either way but never zero.
func (t TransactionType) ValidateChange(change decimal.Decimal) error {
	switch t {
	case TransactionTypeRestock:
		if change.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be positive")
		}
	case TransactionTypeDeduction:
		if change.GreaterThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_QUANTITY", "Deduction quantity must be negative")
		}
	case TransactionTypeAdjustment:
		if change.IsZero() {
			return shared.NewDomainError("INVALID_QUANTITY", "Adjustment quantity cannot be zero")
		}
	default:
		return shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	return nil
}

// ReferenceType identifies the document a ledger entry originates from
type ReferenceType string

const (
	ReferenceTypeProductionRun ReferenceType = "production_run"
	ReferenceTypePurchaseOrder ReferenceType = "purchase_order"
	ReferenceTypeStockTake     ReferenceType = "stock_take"
	ReferenceTypeImport        ReferenceType = "import"
	ReferenceTypeManual        ReferenceType = "manual"
)

// String returns the string representation of ReferenceType
func (r ReferenceType) String() string {
	return string(r)
}

// IsValid returns true if the reference type is valid
func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceTypeProductionRun, ReferenceTypePurchaseOrder, ReferenceTypeStockTake, ReferenceTypeImport, ReferenceTypeManual:
		return true
	}
	return false
}

// InventoryTransaction is one immutable ledger entry for a material. Entries
// are only ever inserted; corrections are new adjustment entries. The record
// deliberately has no UpdatedAt column.
type InventoryTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_inv_tx_tenant_time,priority:1"`
	MaterialID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_inv_tx_material"`
	TransactionType TransactionType `gorm:"type:varchar(20);not null;index:idx_inv_tx_type"`
	QuantityBefore  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityChange  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityAfter   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason          string          `gorm:"type:varchar(255);not null"`
	Notes           string          `gorm:"type:text"`
	ReferenceType   *ReferenceType  `gorm:"type:varchar(30);index:idx_inv_tx_reference"`
	ReferenceID     *uuid.UUID      `gorm:"type:uuid;index:idx_inv_tx_reference"`
	OperatorID      *uuid.UUID      `gorm:"type:uuid"`
	TransactionDate time.Time       `gorm:"type:timestamptz;not null;index:idx_inv_tx_tenant_time,priority:2"`
	CreatedAt       time.Time       `gorm:"type:timestamptz;not null"`
}

// TableName returns the table name for GORM
func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// NewInventoryTransaction creates a new ledger entry. QuantityAfter chains
// from QuantityBefore plus the signed change, and the change must obey the
// type's sign rules.
func NewInventoryTransaction(
	tenantID uuid.UUID,
	materialID uuid.UUID,
	txType TransactionType,
	quantityBefore decimal.Decimal,
	quantityChange decimal.Decimal,
	reason string,
) (*InventoryTransaction, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if materialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if err := txType.ValidateChange(quantityChange); err != nil {
		return nil, err
	}
	if quantityBefore.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Balance before cannot be negative")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Transaction reason is required")
	}

	quantityAfter := quantityBefore.Add(quantityChange)
	if quantityAfter.IsNegative() {
		return nil, shared.ErrInsufficientStock
	}

	now := time.Now()
	tx := &InventoryTransaction{
		ID:              uuid.New(),
		TenantID:        tenantID,
		MaterialID:      materialID,
		TransactionType: txType,
		QuantityBefore:  quantityBefore,
		QuantityChange:  quantityChange,
		QuantityAfter:   quantityAfter,
		Reason:          reason,
		TransactionDate: now,
		CreatedAt:       now,
	}

	return tx, nil
}

// WithNotes sets free-form notes on the entry
func (t *InventoryTransaction) WithNotes(notes string) *InventoryTransaction {
	t.Notes = notes
	return t
}

// WithReference links the entry to its originating document
func (t *InventoryTransaction) WithReference(refType ReferenceType, refID uuid.UUID) *InventoryTransaction {
	t.ReferenceType = &refType
	t.ReferenceID = &refID
	return t
}

// WithOperatorID records the acting user
func (t *InventoryTransaction) WithOperatorID(operatorID uuid.UUID) *InventoryTransaction {
	t.OperatorID = &operatorID
	return t
}

// WithTransactionDate overrides the transaction timestamp (backdated entries)
func (t *InventoryTransaction) WithTransactionDate(date time.Time) *InventoryTransaction {
	t.TransactionDate = date
	return t
}

// IsIncrease returns true if the entry increased stock
func (t *InventoryTransaction) IsIncrease() bool {
	return t.QuantityChange.GreaterThan(decimal.Zero)
}

// IsDecrease returns true if the entry decreased stock
func (t *InventoryTransaction) IsDecrease() bool {
	return t.QuantityChange.LessThan(decimal.Zero)
}
