package report

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erin-happyrobot/pepsi-options-emails/internal/model"
)

// Email timestamps render in the ops team's zone no matter where the service
// runs.
var central = mustLoadLocation("America/Chicago")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("report: load timezone " + name + ": " + err.Error())
	}
	return loc
}

func Subject(count int) string {
	plural := "s"
	if count == 1 {
		plural = ""
	}
	return fmt.Sprintf("Options Report - %d Option%s Available", count, plural)
}

const columnHeader = "Carrier MC        Carrier DOT      Offer Amount     Phone Number      Option Logged Time"

// Text renders the plain-text report body that goes out as the email.
// Options group by load number in first-seen order; within a load the most
// recently logged option comes first.
func Text(options []model.OptionDetail, generatedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "OPTIONS REPORT\nGenerated at %s\n\nSUMMARY\nTotal Options: %d\n\n",
		generatedAt.UTC().Format("2006-01-02 15:04:05 UTC"), len(options))

	groups := buildGroups(options)
	if len(groups) == 0 {
		b.WriteString("No options found matching the criteria.\n")
		return b.String()
	}

	for _, g := range groups {
		fmt.Fprintf(&b, "\n%s\nLOAD NUMBER: %s\nLANE: %s\n%s\n\n",
			rule("=", 60), g.CustomLoadID, g.Lane, rule("=", 60))
		b.WriteString(columnHeader + "\n")
		b.WriteString(rule("─", 80) + "\n")

		for _, row := range g.Rows {
			fmt.Fprintf(&b, "%-16s %-16s %-16s %-20s %s\n",
				row.CarrierMC, row.CarrierDOT, row.Rate, row.Phone, row.LoggedTime)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// HTML renders the same report as a styled document for browser previews.
func HTML(options []model.OptionDetail, generatedAt time.Time) string {
	data := reportData{
		GeneratedAt: generatedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
		Count:       len(options),
		Loads:       buildGroups(options),
	}

	var b strings.Builder
	if err := reportTemplate.Execute(&b, data); err != nil {
		slog.Error("render html report", "error", err)
	}
	return b.String()
}

type reportData struct {
	GeneratedAt string
	Count       int
	Loads       []loadGroup
}

type loadGroup struct {
	CustomLoadID string
	Lane         string
	Rows         []optionRow
}

type optionRow struct {
	CarrierMC  string
	CarrierDOT string
	Rate       string
	Phone      string
	LoggedTime string
}

func buildGroups(options []model.OptionDetail) []loadGroup {
	type bucket struct {
		key  string
		opts []model.OptionDetail
	}

	index := make(map[string]int)
	var buckets []bucket

	for _, opt := range options {
		key := "Unknown"
		if opt.Load.CustomLoadID != nil {
			key = *opt.Load.CustomLoadID
		}

		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, bucket{key: key})
		}
		buckets[i].opts = append(buckets[i].opts, opt)
	}

	groups := make([]loadGroup, 0, len(buckets))
	for _, bk := range buckets {
		opts := bk.opts
		sort.SliceStable(opts, func(i, j int) bool {
			return sortTime(opts[i]).After(sortTime(opts[j]))
		})

		g := loadGroup{
			CustomLoadID: bk.key,
			Lane:         lane(opts[0].Load.Origin, opts[0].Load.Destination),
		}
		for _, opt := range opts {
			g.Rows = append(g.Rows, optionRow{
				CarrierMC:  orNA(opt.CarrierMC),
				CarrierDOT: orNA(opt.CarrierDOT),
				Rate:       formatRate(opt.OfferedRate),
				Phone:      FormatPhone(opt.Phone),
				LoggedTime: FormatTimestamp(opt.CreatedAt),
			})
		}
		groups = append(groups, g)
	}
	return groups
}

func sortTime(o model.OptionDetail) time.Time {
	if o.CreatedAt == nil {
		return time.Time{}
	}
	return *o.CreatedAt
}

func lane(origin, destination *string) string {
	o := orNA(origin)
	d := orNA(destination)
	if o == "N/A" || d == "N/A" {
		return "N/A"
	}
	return o + " → " + d
}

// FormatPhone normalizes to (XXX) XXX-XXXX. An 11-digit number with a leading
// 1 drops the country code; anything with at least 10 digits formats its
// first 10; shorter values pass through trimmed.
func FormatPhone(phone *string) string {
	if phone == nil {
		return "N/A"
	}
	raw := strings.TrimSpace(*phone)
	if raw == "" || raw == "N/A" {
		return "N/A"
	}

	var digits []byte
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, byte(r))
		}
	}

	switch {
	case len(digits) == 10:
		return fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10])
	case len(digits) == 11 && digits[0] == '1':
		return fmt.Sprintf("(%s) %s-%s", digits[1:4], digits[4:7], digits[7:11])
	case len(digits) >= 10:
		return fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10])
	case len(digits) > 0:
		return raw
	default:
		return "N/A"
	}
}

// FormatTimestamp renders an instant in Central time, or N/A when absent.
func FormatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}
	return t.In(central).Format("2006-01-02 15:04:05 Central")
}

func formatRate(rate *decimal.Decimal) string {
	if rate == nil {
		return "N/A"
	}
	return "$" + rate.StringFixed(2)
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func rule(ch string, n int) string {
	return strings.Repeat(ch, n)
}
