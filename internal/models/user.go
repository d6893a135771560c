package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID                 string       `db:"id"`
	FirstName          string       `db:"first_name"`
	LastName           string       `db:"last_name"`
	Email              string       `db:"email"`
	PhoneNumber        string       `db:"phone_number"`
	HashedPassword     string       `db:"hashed_password"`
	Role               string       `db:"role"`
	VerificationStatus string       `db:"verification_status"`
	Status             string       `db:"status"`
	CreatedAt          time.Time    `db:"created_at"`
	UpdatedAt          sql.NullTime `db:"updated_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsReviewer reports whether the user can act on other users' records,
// i.e approve/reject KYC submissions and work support tickets.
func (u *User) IsReviewer() bool {
	return u.Role == UserRoleAdmin
}
