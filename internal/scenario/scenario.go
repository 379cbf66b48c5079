// Package scenario loads order-book scenarios from JSON and replays them
// through the offer operations.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
	"github.com/LeJamon/goDEXd/internal/core/tx/offer"
)

// Operation types.
const (
	OpSell = "sell"
	OpBuy  = "buy"
)

var (
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrDuplicateAccount = errors.New("duplicate account")
)

// Scenario is a starting ledger and the operations applied to it.
type Scenario struct {
	Name string `json:"name"`
	// Header overrides the configured genesis header when LedgerSeq is set.
	Header     entry.LedgerHeader `json:"header"`
	Accounts   []AccountFixture   `json:"accounts"`
	Offers     []OfferFixture     `json:"offers"`
	Operations []Operation        `json:"operations"`
}

// AccountFixture is an account root with its trust lines.
type AccountFixture struct {
	ID      entry.AccountID `json:"id"`
	Balance int64           `json:"balance"`
	Lines   []LineFixture   `json:"lines"`
}

// LineFixture is a trust line. Lines are authorized unless Unauthorized or
// MaintainOnly is set.
type LineFixture struct {
	Asset        entry.Asset `json:"asset"`
	Balance      int64       `json:"balance"`
	Limit        int64       `json:"limit"`
	Unauthorized bool        `json:"unauthorized,omitempty"`
	MaintainOnly bool        `json:"maintain_only,omitempty"`
}

func (l LineFixture) flags() uint32 {
	switch {
	case l.Unauthorized:
		return 0
	case l.MaintainOnly:
		return entry.TrustLineAuthorizedToMaintainLiabilities
	default:
		return entry.TrustLineAuthorized
	}
}

// OfferFixture is a resting offer placed before any operation runs. It is
// written as is, without crossing.
type OfferFixture struct {
	Seller  entry.AccountID `json:"seller"`
	Selling entry.Asset     `json:"selling"`
	Buying  entry.Asset     `json:"buying"`
	Amount  int64           `json:"amount"`
	Price   entry.Price     `json:"price"`
	Passive bool            `json:"passive,omitempty"`
}

// Operation is one sell or buy offer operation. Amount is the selling
// amount of a sell and the buying amount of a buy.
type Operation struct {
	Type    string          `json:"type"`
	Source  entry.AccountID `json:"source"`
	Selling entry.Asset     `json:"selling"`
	Buying  entry.Asset     `json:"buying"`
	Amount  int64           `json:"amount"`
	Price   entry.Price     `json:"price"`
	OfferID int64           `json:"offer_id,omitempty"`
	Passive bool            `json:"passive,omitempty"`
}

func (op Operation) sell() *offer.ManageSellOffer {
	return &offer.ManageSellOffer{
		Source:  op.Source,
		Selling: op.Selling,
		Buying:  op.Buying,
		Amount:  op.Amount,
		Price:   op.Price,
		OfferID: op.OfferID,
		Passive: op.Passive,
	}
}

func (op Operation) buy() *offer.ManageBuyOffer {
	return &offer.ManageBuyOffer{
		Source:    op.Source,
		Selling:   op.Selling,
		Buying:    op.Buying,
		BuyAmount: op.Amount,
		Price:     op.Price,
		OfferID:   op.OfferID,
	}
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and checks a scenario.
func Parse(r io.Reader) (*Scenario, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the fixtures for structural errors. Operation contents are
// checked when they are applied.
func (sc *Scenario) Validate() error {
	seen := make(map[entry.AccountID]bool, len(sc.Accounts))
	for _, acc := range sc.Accounts {
		if seen[acc.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateAccount, acc.ID)
		}
		seen[acc.ID] = true
	}
	for i, o := range sc.Offers {
		if !seen[o.Seller] {
			return fmt.Errorf("offer %d: unknown seller %s", i, o.Seller)
		}
	}
	for i, op := range sc.Operations {
		if op.Type != OpSell && op.Type != OpBuy {
			return fmt.Errorf("operation %d: %w %q", i, ErrUnknownOperation, op.Type)
		}
	}
	return nil
}

// assets returns every distinct asset the scenario mentions.
func (sc *Scenario) assets() []entry.Asset {
	var out []entry.Asset
	add := func(a entry.Asset) {
		for _, b := range out {
			if a.Equal(b) {
				return
			}
		}
		out = append(out, a)
	}
	for _, acc := range sc.Accounts {
		for _, l := range acc.Lines {
			add(l.Asset)
		}
	}
	for _, o := range sc.Offers {
		add(o.Selling)
		add(o.Buying)
	}
	for _, op := range sc.Operations {
		add(op.Selling)
		add(op.Buying)
	}
	return out
}
