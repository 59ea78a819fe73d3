package models

// AuditAction is the recommended response to a family portfolio gap.
type AuditAction string

const (
	AuditAdd    AuditAction = "ADD"
	AuditReview AuditAction = "REVIEW"
	AuditIgnore AuditAction = "IGNORE"
)

// FamilyAuditGap is a ticker held in one family account but missing from others.
type FamilyAuditGap struct {
	Ticker          string      `json:"ticker"`
	Holder          string      `json:"holder"`
	MissingFrom     []string    `json:"missing_from"`
	ConvictionScore *float64    `json:"conviction_score"`
	Action          AuditAction `json:"action"`
	Reason          string      `json:"reason,omitempty"`
}

// FamilyAudit is the audit endpoint's response.
type FamilyAudit struct {
	Gaps         []FamilyAuditGap `json:"gaps"`
	Accounts     []string         `json:"accounts"`
	TotalTickers int              `json:"total_tickers"`
}
