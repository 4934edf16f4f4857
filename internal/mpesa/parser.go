// Package mpesa reads outgoing M-PESA confirmation SMS so a real payment can
// be submitted for analysis.
package mpesa

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind is the verb the confirmation uses for an outgoing payment.
type Kind string

const (
	Sent Kind = "sent"
	Paid Kind = "paid"
)

var ErrNotConfirmation = errors.New("not a valid outgoing M-PESA message")

// Confirmation is one parsed outgoing confirmation.
type Confirmation struct {
	TransactionID string
	Kind          Kind
	Amount        float64
	Recipient     string
	DateTime      time.Time
	Balance       float64
	Cost          float64
}

// The pattern tolerates the variants seen in real messages: optional
// periods and doubled spaces, "for account ..." inside the recipient,
// "M-PESA" or "business" balance, "PM.New" with no space, and trailing
// marketing text after the cost.
var (
	money          = `Ksh[\d,]+(?:\.\d+)?`
	confirmationRe = regexp.MustCompile(`(?i)(\w+)\s+Confirmed\.?\s+(` + money + `)\s+(sent|paid)\s+to\s+(.*?)\s*\.?\s+on\s+(\d{1,2}/\d{1,2}/\d{2})\s+at\s+(\d{1,2}:\d{2}\s?(?:AM|PM))\.?\s*New\s+(?:M-PESA|business)\s+balance\s+is\s+(` + money + `)\.\s*Transaction\s+cost,?\s*(` + money + `)(?:\.|\b)`)
	startRe        = regexp.MustCompile(`(?i)\bConfirmed\..*\b(?:sent|paid)\s+to\b`)
)

// ParseConfirmation parses a single outgoing confirmation. Incoming
// ("received") messages are rejected.
func ParseConfirmation(msg string) (*Confirmation, error) {
	m := confirmationRe.FindStringSubmatch(msg)
	if m == nil {
		return nil, ErrNotConfirmation
	}

	amount, err := parseKsh(m[2])
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}

	recipient := strings.Join(strings.Fields(strings.TrimSuffix(m[4], ".")), " ")

	dateTime, err := parseDateTime(m[5], m[6])
	if err != nil {
		return nil, fmt.Errorf("failed to parse date/time: %w", err)
	}

	balance, err := parseKsh(m[7])
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	cost, err := parseKsh(m[8])
	if err != nil {
		return nil, fmt.Errorf("failed to parse cost: %w", err)
	}

	return &Confirmation{
		TransactionID: strings.ToUpper(m[1]),
		Kind:          Kind(strings.ToLower(m[3])),
		Amount:        amount,
		Recipient:     recipient,
		DateTime:      dateTime,
		Balance:       balance,
		Cost:          cost,
	}, nil
}

func parseKsh(s string) (float64, error) {
	s = strings.ReplaceAll(s[len("Ksh"):], ",", "")
	return strconv.ParseFloat(s, 64)
}

// parseDateTime reads "17/9/25" and "6:56 PM" (or "6:56PM") as local time.
func parseDateTime(date, clock string) (time.Time, error) {
	clock = strings.ToUpper(strings.ReplaceAll(clock, " ", ""))
	clock = clock[:len(clock)-2] + " " + clock[len(clock)-2:]
	return time.ParseInLocation("2/1/06 3:04 PM", date+" "+clock, time.Local)
}

// Split breaks a pasted message into one string per confirmation. Lines that
// do not start a confirmation are dropped.
func Split(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && startRe.MatchString(line) {
			out = append(out, line)
		}
	}
	return out
}

// IsBatch reports whether content holds more than one confirmation.
func IsBatch(content string) bool {
	return len(Split(content)) > 1
}
