package models

import (
	"database/sql"
	"time"
)

type BankAccount struct {
	ID            string       `db:"id"`
	UserID        string       `db:"user_id"`
	AccountName   string       `db:"account_name"`
	AccountNumber string       `db:"account_number"`
	BankName      string       `db:"bank_name"`
	RoutingNumber string       `db:"routing_number"`
	SwiftCode     string       `db:"swift_code"`
	IsDefault     bool         `db:"is_default"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     sql.NullTime `db:"updated_at"`
}

// BankAccountFields carries the mutable, non-default fields of an account.
// Nil pointers mean "leave unchanged".
type BankAccountFields struct {
	AccountName   *string
	AccountNumber *string
	BankName      *string
	RoutingNumber *string
	SwiftCode     *string
}
