package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Prefixes identify the entity kind of an ID at a glance.
const (
	PrefixAccount     = "acct"
	PrefixTransaction = "tx"
	PrefixHolding     = "hold"
	PrefixInvestment  = "inv"
	PrefixSchedule    = "sched"
	PrefixBudget      = "bud"
	PrefixGoal        = "goal"
	PrefixContrib     = "contrib"
	PrefixRule        = "rule"
	PrefixMilestone   = "mile"
)

// occurrenceSpace namespaces deterministic IDs of schedule-generated transactions.
var occurrenceSpace = uuid.MustParse("6f1c2c1e-3d0b-4c52-9a4e-0d6a7c1b9e55")

// New returns a random ID like "tx_4f0c...".
func New(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// Occurrence returns the transaction ID for a schedule's occurrence on a
// date. The same inputs always yield the same ID, so re-posting an
// occurrence is detected as a duplicate.
func Occurrence(scheduleID string, on time.Time) string {
	name := scheduleID + "@" + on.Format("2006-01-02")
	return PrefixTransaction + "_" + uuid.NewSHA1(occurrenceSpace, []byte(name)).String()
}

// Parse splits an ID into its prefix and UUID.
func Parse(s string) (prefix string, u uuid.UUID, err error) {
	prefix, rest, ok := strings.Cut(s, "_")
	if !ok || prefix == "" {
		return "", uuid.Nil, fmt.Errorf("invalid ID format: %q", s)
	}
	u, err = uuid.Parse(rest)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("invalid UUID in ID %q: %w", s, err)
	}
	return prefix, u, nil
}

// HasPrefix reports whether s is a well-formed ID of the given kind.
func HasPrefix(s, prefix string) bool {
	p, _, err := Parse(s)
	return err == nil && p == prefix
}

// keySpace namespaces IDs derived from external references.
var keySpace = uuid.MustParse("0b7e9a52-5c1d-4f3e-8a26-3d9f14c0e7b1")

// FromKey returns a stable ID for an externally identified record, such as
// a bank statement line. Equal keys yield equal IDs.
func FromKey(prefix, key string) string {
	return prefix + "_" + uuid.NewSHA1(keySpace, []byte(key)).String()
}
