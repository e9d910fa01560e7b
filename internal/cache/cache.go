package cache

import (
	"context"
	"time"
)

// SentReport records the most recent dispatched report for an org.
type SentReport struct {
	Subject     string    `json:"subject"`
	Recipients  []string  `json:"recipients"`
	OptionCount int       `json:"optionCount"`
	SentAt      time.Time `json:"sentAt"`
}

type ReportCache interface {
	StoreLastReport(ctx context.Context, orgID string, rec SentReport) error
}
