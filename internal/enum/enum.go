package enum

// Status and method values below mirror CHECK constraints in the
// schema; changing one means a migration.

const (
	CashSummaryStatusDraft     = "DRAFT"
	CashSummaryStatusSubmitted = "SUBMITTED"
)

const (
	PayableMethodCash   = "CASH"
	PayableMethodSafe   = "SAFE"
	PayableMethodCheque = "CHEQUE"
	PayableMethodEFT    = "EFT"
)

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleManager = "MANAGER"
	UserRoleStation = "STATION"
)

const (
	ItemGradeA = "A"
	ItemGradeB = "B"
	ItemGradeC = "C"
)

// Ledger entry descriptions the automatic flows key on. UpsertDailyDeposit
// matches entries by this exact string, so it is load-bearing.
const (
	EntryDescriptionDailyDeposit = "Daily Deposit"
	EntryDescriptionPayoutPrefix = "Payout - "
)

const (
	WriteOffReasonDamaged = "DAMAGED"
	WriteOffReasonExpired = "EXPIRED"
	WriteOffReasonTheft   = "THEFT"
	WriteOffReasonOther   = "OTHER"
)
