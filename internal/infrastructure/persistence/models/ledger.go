package models

import (
	"time"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeObligationModel is the persistence model for the FeeObligation aggregate root.
type FeeObligationModel struct {
	TenantAggregateModel
	ObligationNumber string                  `gorm:"type:varchar(50);not null;uniqueIndex:idx_obligation_tenant_number,priority:2"`
	PartyID          uuid.UUID               `gorm:"type:uuid;not null;index"`
	PartyName        string                  `gorm:"type:varchar(200);not null"`
	FeeType          string                  `gorm:"type:varchar(50);not null;index"`
	ScheduleItemID   *uuid.UUID              `gorm:"type:uuid;index"`
	AmountDueMinor   int64                   `gorm:"not null"`
	AmountPaidMinor  int64                   `gorm:"not null;default:0"`
	BalanceMinor     int64                   `gorm:"not null;index"`
	Currency         valueobject.Currency    `gorm:"type:varchar(3);not null"`
	Status           ledger.ObligationStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	DueDate          *time.Time              `gorm:"index"`
	CreditEntries    ledger.CreditEntries    `gorm:"type:jsonb;default:'[]'"`
	Remark           string                  `gorm:"type:text"`
	PaidAt           *time.Time
}

// TableName returns the table name for GORM
func (FeeObligationModel) TableName() string {
	return "fee_obligations"
}

// ToDomain converts the persistence model to a domain FeeObligation entity.
func (m *FeeObligationModel) ToDomain() *ledger.FeeObligation {
	return &ledger.FeeObligation{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		ObligationNumber: m.ObligationNumber,
		PartyID:          m.PartyID,
		PartyName:        m.PartyName,
		FeeType:          m.FeeType,
		ScheduleItemID:   m.ScheduleItemID,
		AmountDueMinor:   m.AmountDueMinor,
		AmountPaidMinor:  m.AmountPaidMinor,
		BalanceMinor:     m.BalanceMinor,
		Currency:         m.Currency,
		Status:           m.Status,
		DueDate:          m.DueDate,
		CreditEntries:    m.CreditEntries,
		Remark:           m.Remark,
		PaidAt:           m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain FeeObligation entity.
func (m *FeeObligationModel) FromDomain(fo *ledger.FeeObligation) {
	m.FromDomainTenantAggregateRoot(fo.TenantAggregateRoot)
	m.ObligationNumber = fo.ObligationNumber
	m.PartyID = fo.PartyID
	m.PartyName = fo.PartyName
	m.FeeType = fo.FeeType
	m.ScheduleItemID = fo.ScheduleItemID
	m.AmountDueMinor = fo.AmountDueMinor
	m.AmountPaidMinor = fo.AmountPaidMinor
	m.BalanceMinor = fo.BalanceMinor
	m.Currency = fo.Currency
	m.Status = fo.Status
	m.DueDate = fo.DueDate
	m.CreditEntries = fo.CreditEntries
	m.Remark = fo.Remark
	m.PaidAt = fo.PaidAt
}

// FeeObligationModelFromDomain creates a new persistence model from a domain FeeObligation.
func FeeObligationModelFromDomain(fo *ledger.FeeObligation) *FeeObligationModel {
	m := &FeeObligationModel{}
	m.FromDomain(fo)
	return m
}

// PaymentRecordModel is the persistence model for the PaymentRecord aggregate root.
type PaymentRecordModel struct {
	TenantAggregateModel
	RecordNumber     string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_record_tenant_number,priority:2"`
	ObligationID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	ObligationNumber string                `gorm:"type:varchar(50);not null"`
	PartyID          uuid.UUID             `gorm:"type:uuid;not null;index"`
	GrossMinor       int64                 `gorm:"not null"`
	DiscountMinor    int64                 `gorm:"not null;default:0"`
	ScholarshipMinor int64                 `gorm:"not null;default:0"`
	NetMinor         int64                 `gorm:"not null"`
	Currency         valueobject.Currency  `gorm:"type:varchar(3);not null"`
	Channel          ledger.PaymentChannel `gorm:"type:varchar(20);not null;index"`
	DiscountCode     string                `gorm:"type:varchar(50)"`
	PayerPhone       string                `gorm:"type:varchar(20)"`
	CorrelationID    string                `gorm:"type:varchar(100);index"`
	ExternalRef      string                `gorm:"type:varchar(100)"`
	State            ledger.PaymentState   `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	RejectReason     string                `gorm:"type:varchar(500)"`
	FlaggedForReview bool                  `gorm:"not null;default:false;index"`
	ReviewNote       string                `gorm:"type:varchar(500)"`
	Remark           string                `gorm:"type:text"`
	SettledAt        *time.Time
	RejectedAt       *time.Time
	ResolvedBy       *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (PaymentRecordModel) TableName() string {
	return "payment_records"
}

// ToDomain converts the persistence model to a domain PaymentRecord entity.
func (m *PaymentRecordModel) ToDomain() *ledger.PaymentRecord {
	return &ledger.PaymentRecord{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		RecordNumber:     m.RecordNumber,
		ObligationID:     m.ObligationID,
		ObligationNumber: m.ObligationNumber,
		PartyID:          m.PartyID,
		GrossMinor:       m.GrossMinor,
		DiscountMinor:    m.DiscountMinor,
		ScholarshipMinor: m.ScholarshipMinor,
		NetMinor:         m.NetMinor,
		Currency:         m.Currency,
		Channel:          m.Channel,
		DiscountCode:     m.DiscountCode,
		PayerPhone:       m.PayerPhone,
		CorrelationID:    m.CorrelationID,
		ExternalRef:      m.ExternalRef,
		State:            m.State,
		RejectReason:     m.RejectReason,
		FlaggedForReview: m.FlaggedForReview,
		ReviewNote:       m.ReviewNote,
		Remark:           m.Remark,
		SettledAt:        m.SettledAt,
		RejectedAt:       m.RejectedAt,
		ResolvedBy:       m.ResolvedBy,
	}
}

// FromDomain populates the persistence model from a domain PaymentRecord entity.
func (m *PaymentRecordModel) FromDomain(pr *ledger.PaymentRecord) {
	m.FromDomainTenantAggregateRoot(pr.TenantAggregateRoot)
	m.RecordNumber = pr.RecordNumber
	m.ObligationID = pr.ObligationID
	m.ObligationNumber = pr.ObligationNumber
	m.PartyID = pr.PartyID
	m.GrossMinor = pr.GrossMinor
	m.DiscountMinor = pr.DiscountMinor
	m.ScholarshipMinor = pr.ScholarshipMinor
	m.NetMinor = pr.NetMinor
	m.Currency = pr.Currency
	m.Channel = pr.Channel
	m.DiscountCode = pr.DiscountCode
	m.PayerPhone = pr.PayerPhone
	m.CorrelationID = pr.CorrelationID
	m.ExternalRef = pr.ExternalRef
	m.State = pr.State
	m.RejectReason = pr.RejectReason
	m.FlaggedForReview = pr.FlaggedForReview
	m.ReviewNote = pr.ReviewNote
	m.Remark = pr.Remark
	m.SettledAt = pr.SettledAt
	m.RejectedAt = pr.RejectedAt
	m.ResolvedBy = pr.ResolvedBy
}

// PaymentRecordModelFromDomain creates a new persistence model from a domain PaymentRecord.
func PaymentRecordModelFromDomain(pr *ledger.PaymentRecord) *PaymentRecordModel {
	m := &PaymentRecordModel{}
	m.FromDomain(pr)
	return m
}

// FeeScheduleItemModel is the persistence model for the FeeScheduleItem aggregate root.
type FeeScheduleItemModel struct {
	TenantAggregateModel
	Name          string               `gorm:"type:varchar(200);not null"`
	FeeType       string               `gorm:"type:varchar(50);not null;index"`
	AmountMinor   int64                `gorm:"not null"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null"`
	Mandatory     bool                 `gorm:"not null;default:false"`
	DueOffsetDays int                  `gorm:"not null;default:0"`
	Active        bool                 `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (FeeScheduleItemModel) TableName() string {
	return "fee_schedule_items"
}

// ToDomain converts the persistence model to a domain FeeScheduleItem entity.
func (m *FeeScheduleItemModel) ToDomain() *ledger.FeeScheduleItem {
	return &ledger.FeeScheduleItem{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		Name:          m.Name,
		FeeType:       m.FeeType,
		AmountMinor:   m.AmountMinor,
		Currency:      m.Currency,
		Mandatory:     m.Mandatory,
		DueOffsetDays: m.DueOffsetDays,
		Active:        m.Active,
	}
}

// FromDomain populates the persistence model from a domain FeeScheduleItem entity.
func (m *FeeScheduleItemModel) FromDomain(si *ledger.FeeScheduleItem) {
	m.FromDomainTenantAggregateRoot(si.TenantAggregateRoot)
	m.Name = si.Name
	m.FeeType = si.FeeType
	m.AmountMinor = si.AmountMinor
	m.Currency = si.Currency
	m.Mandatory = si.Mandatory
	m.DueOffsetDays = si.DueOffsetDays
	m.Active = si.Active
}

// FeeScheduleItemModelFromDomain creates a new persistence model from a domain FeeScheduleItem.
func FeeScheduleItemModelFromDomain(si *ledger.FeeScheduleItem) *FeeScheduleItemModel {
	m := &FeeScheduleItemModel{}
	m.FromDomain(si)
	return m
}

// DiscountCodeModel is the persistence model for the DiscountCode aggregate root.
type DiscountCodeModel struct {
	TenantAggregateModel
	Code       string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_discount_tenant_code,priority:2"`
	Kind       ledger.DiscountKind `gorm:"type:varchar(20);not null"`
	Percentage decimal.Decimal     `gorm:"type:decimal(5,2);not null;default:0"`
	FixedMinor int64               `gorm:"not null;default:0"`
	Active     bool                `gorm:"not null;default:true;index"`
	ValidFrom  *time.Time
	ValidUntil *time.Time
}

// TableName returns the table name for GORM
func (DiscountCodeModel) TableName() string {
	return "discount_codes"
}

// ToDomain converts the persistence model to a domain DiscountCode entity.
func (m *DiscountCodeModel) ToDomain() *ledger.DiscountCode {
	return &ledger.DiscountCode{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		Code:       m.Code,
		Kind:       m.Kind,
		Percentage: m.Percentage,
		FixedMinor: m.FixedMinor,
		Active:     m.Active,
		ValidFrom:  m.ValidFrom,
		ValidUntil: m.ValidUntil,
	}
}

// FromDomain populates the persistence model from a domain DiscountCode entity.
func (m *DiscountCodeModel) FromDomain(dc *ledger.DiscountCode) {
	m.FromDomainTenantAggregateRoot(dc.TenantAggregateRoot)
	m.Code = dc.Code
	m.Kind = dc.Kind
	m.Percentage = dc.Percentage
	m.FixedMinor = dc.FixedMinor
	m.Active = dc.Active
	m.ValidFrom = dc.ValidFrom
	m.ValidUntil = dc.ValidUntil
}

// DiscountCodeModelFromDomain creates a new persistence model from a domain DiscountCode.
func DiscountCodeModelFromDomain(dc *ledger.DiscountCode) *DiscountCodeModel {
	m := &DiscountCodeModel{}
	m.FromDomain(dc)
	return m
}
