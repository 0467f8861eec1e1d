package enum

// ── Order state machine (CHECK constrained in DB) ──

const (
	OrderStatusPending    = "pending"
	OrderStatusInProgress = "in_progress"
	OrderStatusDone       = "done"
)

// ── Order pricing mode (CHECK constrained in DB) ──

const (
	OrderTypeCustom  = "custom"
	OrderTypePackage = "package"
)
