package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Site struct {
	Code      string
	Name      string
	Timezone  string
	CreatedAt time.Time
}

type User struct {
	ID                uuid.UUID
	Site              string
	Email             string
	FullName          string
	HashedPassword    string
	RoleID            uuid.UUID
	CustomPermissions []byte
	IsActive          bool
	CreatedAt         time.Time
}

type Role struct {
	ID          uuid.UUID
	Name        string
	Permissions []byte
	CreatedAt   time.Time
}

type PermissionRegistry struct {
	ID        int32
	Tree      []byte
	UpdatedAt time.Time
}

type Safesheet struct {
	ID             uuid.UUID
	Site           string
	InitialBalance pgtype.Numeric
	CreatedAt      time.Time
}

type SafesheetEntry struct {
	ID              uuid.UUID
	SafesheetID     uuid.UUID
	EntryDate       time.Time
	AssignedDate    pgtype.Timestamptz
	Description     string
	CashIn          pgtype.Numeric
	CashExpenseOut  pgtype.Numeric
	CashDepositBank pgtype.Numeric
	Photo           pgtype.Text
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CashSummary struct {
	ID            uuid.UUID
	Site          string
	BusinessDate  time.Time
	ShiftNumber   int32
	FuelSales     pgtype.Numeric
	MerchSales    pgtype.Numeric
	CashCollected pgtype.Numeric
	CardCollected pgtype.Numeric
	DepositAmount pgtype.Numeric
	Notes         pgtype.Text
	Report        []byte
	Status        string
	SubmittedAt   pgtype.Timestamptz
	CreatedAt     time.Time
}

type Vendor struct {
	ID           uuid.UUID
	Name         string
	Email        pgtype.Text
	PaymentTerms pgtype.Text
	IsActive     bool
	CreatedAt    time.Time
}

type Payable struct {
	ID            uuid.UUID
	Site          string
	VendorID      uuid.UUID
	InvoiceNumber pgtype.Text
	Amount        pgtype.Numeric
	Method        string
	PayableDate   time.Time
	CreatedAt     time.Time
}

type FleetCard struct {
	ID           uuid.UUID
	CardNumber   string
	CustomerName string
	Site         string
	Balance      pgtype.Numeric
	IsActive     bool
	CreatedAt    time.Time
}

type WriteOff struct {
	ID           uuid.UUID
	Site         string
	Upc          string
	ItemName     string
	Quantity     int32
	Reason       string
	WriteOffDate time.Time
	CreatedAt    time.Time
}

type CycleCountItem struct {
	ID          uuid.UUID
	Site        string
	Upc         string
	Name        string
	Grade       string
	Flagged     bool
	OnHand      int32
	CountedQty  pgtype.Int4
	CountedAt   pgtype.Timestamptz
	DisplayDate pgtype.Date
	UpdatedAt   time.Time
}

type AuditLog struct {
	ID        uuid.UUID
	ActorID   uuid.UUID
	Action    string
	Entity    string
	Detail    []byte
	CreatedAt time.Time
}

type PasswordReset struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
