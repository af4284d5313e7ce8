package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency enumerates the currencies sale reports arrive in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyARS Currency = "ARS"
	CurrencyEUR Currency = "EUR"
)

// SaleStatus enumerates the manual-verification lifecycle.
type SaleStatus string

const (
	SaleStatusPending  SaleStatus = "PENDING"
	SaleStatusVerified SaleStatus = "VERIFIED"
	SaleStatusRejected SaleStatus = "REJECTED"
)

// ProofType distinguishes how a linked proof renders downstream.
type ProofType string

const (
	ProofTypeImage ProofType = "image"
	ProofTypePdf   ProofType = "pdf"
)

// Sale is the structured record extracted from a closer's report message.
// CreatedAt carries the original message send time so chronological order
// survives reprocessing and backfill.
type Sale struct {
	ID          string
	ExternalKey string

	CloserID   string
	CloserName string

	ClientName  string
	ClientEmail string
	ClientPhone string

	Amount        decimal.Decimal
	Currency      Currency
	Product       string
	Funnel        string
	PaymentMethod string
	PaymentType   string
	Extras        string

	// Proof linkage. ProofMessageID keeps the quoted-message breadcrumb
	// even when no proof record resolved.
	ProofURL       string
	ProofType      ProofType
	ProofMessageID string

	RawText         string
	GroupID         string
	SourceMessageID string

	Status     SaleStatus
	Verified   bool
	VerifiedAt *time.Time
	VerifiedBy *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
