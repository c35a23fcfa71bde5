package domain

// RuleLog records the outcome of a single rule pass within an engine run.
type RuleLog struct {
	RuleID        string `json:"rule_id"`
	RuleName      string `json:"rule_name"`
	ItemsAffected int    `json:"items_affected"`
}

// RunSummary is the aggregate result of one engine run, returned to the
// scheduler or admin tool that triggered it. Partial success is reported
// transparently: counts plus a non-empty Errors slice.
type RunSummary struct {
	Success        bool      `json:"success"`
	RulesProcessed int       `json:"rules_processed"`
	ItemsUpdated   int       `json:"items_updated"`
	ItemsCleared   int64     `json:"items_cleared"`
	Errors         []string  `json:"errors"`
	Logs           []RuleLog `json:"logs"`
}
