package domain

import (
	"strings"
	"time"
)

// PaymentMethod selects how an order is paid.
type PaymentMethod string

const (
	PaymentHostedCard   PaymentMethod = "hosted_card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentHostedCard || m == PaymentBankTransfer
}

// CustomerDetails are the contact details collected on the payment step.
type CustomerDetails struct {
	Name    string `json:"name" bson:"name"`
	Email   string `json:"email" bson:"email"`
	Phone   string `json:"phone" bson:"phone"`
	Company string `json:"company,omitempty" bson:"company,omitempty"`
	Brief   string `json:"brief,omitempty" bson:"brief,omitempty"`
}

// Validate reports the first required field that is blank.
func (c CustomerDetails) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return Validation("name is required", nil)
	case strings.TrimSpace(c.Email) == "":
		return Validation("email is required", nil)
	case strings.TrimSpace(c.Phone) == "":
		return Validation("phone is required", nil)
	}
	return nil
}

// OrderRecord is the server-owned order created from a checkout.
type OrderRecord struct {
	ID            string        `json:"id"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        string        `json:"status"`
	Total         float64       `json:"total"`
	CreatedAt     time.Time     `json:"created_at"`
}

// BankTransferProof is what a customer submits after paying by bank transfer.
type BankTransferProof struct {
	TransactionID      string `json:"transaction_id"`
	BankName           string `json:"bank_name"`
	AccountNumberLast4 string `json:"account_number_last4"`
	Notes              string `json:"notes,omitempty"`
	ProofFileName      string `json:"proof_file_name,omitempty"`
}

// Validate reports the first required field that is blank.
func (p BankTransferProof) Validate() error {
	switch {
	case strings.TrimSpace(p.TransactionID) == "":
		return Validation("transaction id is required", nil)
	case strings.TrimSpace(p.BankName) == "":
		return Validation("bank name is required", nil)
	case strings.TrimSpace(p.AccountNumberLast4) == "":
		return Validation("last 4 digits of the account number are required", nil)
	}
	return nil
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (p BankTransferProof) Trimmed() BankTransferProof {
	return BankTransferProof{
		TransactionID:      strings.TrimSpace(p.TransactionID),
		BankName:           strings.TrimSpace(p.BankName),
		AccountNumberLast4: strings.TrimSpace(p.AccountNumberLast4),
		Notes:              strings.TrimSpace(p.Notes),
		ProofFileName:      strings.TrimSpace(p.ProofFileName),
	}
}
