package checkout

import (
	"context"
	"fmt"
)

// PriceLine is a catalog price charged through its processor price id
type PriceLine struct {
	PriceID  string
	Quantity int64
}

// AdHocLine is an amount without a catalog price, e.g. a final balance
type AdHocLine struct {
	Name        string
	AmountCents int64
	Currency    string
	Quantity    int64
}

// SessionRequest describes a hosted checkout session
type SessionRequest struct {
	Lines             []PriceLine
	AdHoc             []AdHocLine
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	CustomerEmail     string
	Metadata          map[string]string
}

// ProcessorSession is the processor's view of a hosted checkout session
type ProcessorSession struct {
	ID                string
	URL               string
	Paid              bool
	ClientReferenceID string
	AmountTotal       int64
	Metadata          map[string]string
}

// Processor creates and reads hosted checkout sessions
type Processor interface {
	CreateSession(ctx context.Context, req *SessionRequest) (*ProcessorSession, error)
	GetSession(ctx context.Context, id string) (*ProcessorSession, error)
}

// UnavailableProcessor is used when the processor could not be initialized.
// Every call fails with ErrProcessorUnavailable.
type UnavailableProcessor struct {
	Reason string
}

func (p UnavailableProcessor) CreateSession(context.Context, *SessionRequest) (*ProcessorSession, error) {
	return nil, p.err()
}

func (p UnavailableProcessor) GetSession(context.Context, string) (*ProcessorSession, error) {
	return nil, p.err()
}

func (p UnavailableProcessor) err() error {
	if p.Reason == "" {
		return ErrProcessorUnavailable
	}
	return fmt.Errorf("%w: %s", ErrProcessorUnavailable, p.Reason)
}
