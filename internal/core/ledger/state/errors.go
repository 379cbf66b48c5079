package state

import "errors"

var (
	// ErrAccountNotFound is returned when an account root does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrOfferNotFound is returned when an offer does not exist.
	ErrOfferNotFound = errors.New("offer not found")

	// ErrOfferExists is returned when creating an offer whose ID is taken.
	ErrOfferExists = errors.New("offer already exists")

	// ErrTxnClosed is returned when using a transaction after Commit or Rollback.
	ErrTxnClosed = errors.New("ledger transaction is closed")

	// ErrChildOpen is returned when a transaction with an open child is used
	// for writes, committed, or given a second child.
	ErrChildOpen = errors.New("ledger transaction has an open child")

	// ErrIDPoolExhausted is returned when no more offer IDs can be issued.
	ErrIDPoolExhausted = errors.New("offer ID pool exhausted")
)
