package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoadAvailable is the only load status considered for option reports.
const LoadAvailable = "available"

type Load struct {
	ID           string
	Status       string
	OrgID        string
	CustomLoadID *string

	// Raw text as stored upstream; may be zone-less or malformed, so all
	// parsing belongs to the eligibility check.
	PickupDateClose *string

	OriginLocationID      *string
	DestinationLocationID *string
}

type Location struct {
	ID    string
	City  string
	State string
}

type Carrier struct {
	ID        string
	Name      string
	MCNumber  *string
	DOTNumber *string
}

type Option struct {
	ID          string
	LoadID      string
	CarrierID   *string
	Status      string
	OfferedRate *decimal.Decimal
	Phone       *string
	CreatedAt   *time.Time
}

// LoadSummary is the slice of load data carried on each report row.
// Origin and Destination are display strings, "City, ST" when the location
// row exists.
type LoadSummary struct {
	ID           string
	CustomLoadID *string
	Origin       *string
	Destination  *string
}

// OptionDetail is an option enriched with its load and carrier for reporting.
type OptionDetail struct {
	Option
	Load        LoadSummary
	CarrierName *string
	CarrierMC   *string
	CarrierDOT  *string
}
