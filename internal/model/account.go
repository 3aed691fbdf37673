package model

import "time"

// Account is the referential target for ledger entries. Kept minimal: the
// import engine only needs identity and a display name.
type Account struct {
	ID        string
	Owner     string
	Name      string
	Currency  string
	CreatedAt time.Time
}
