package scenario

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/LeJamon/goDEXd/internal/core/exchange"
	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
	"github.com/LeJamon/goDEXd/internal/core/ledger/state"
	"github.com/LeJamon/goDEXd/internal/core/tx/offer"
	"github.com/LeJamon/goDEXd/internal/storage/database"
)

// Runner replays scenarios.
type Runner struct {
	Generation       exchange.Generation
	MaxOffersToCross int
	// Genesis is used when the scenario carries no header.
	Genesis   entry.LedgerHeader
	CacheSize int
	Recorder  offer.TradeRecorder
	Logger    *zap.Logger
}

// Step is the outcome of one operation.
type Step struct {
	Index         int                    `json:"index"`
	Type          string                 `json:"type"`
	Source        entry.AccountID        `json:"source"`
	Result        string                 `json:"result"`
	Effect        string                 `json:"effect"`
	Offer         *entry.Offer           `json:"offer,omitempty"`
	Claims        []entry.ClaimOfferAtom `json:"claims,omitempty"`
	SheepSent     int64                  `json:"sheep_sent"`
	WheatReceived int64                  `json:"wheat_received"`
}

// Snapshot is the ledger state after the last operation.
type Snapshot struct {
	Header   entry.LedgerHeader `json:"header"`
	Accounts []*entry.Account   `json:"accounts"`
	Lines    []*entry.TrustLine `json:"lines"`
	Offers   []*entry.Offer     `json:"offers"`
}

// Report is the result of a run. Digest is the hex SHA-256 of the encoded
// steps and final state, so equal runs have equal digests.
type Report struct {
	Name       string   `json:"name"`
	Generation string   `json:"generation"`
	Steps      []Step   `json:"steps"`
	Final      Snapshot `json:"final"`
	Digest     string   `json:"digest"`
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// Run seeds db with the scenario fixtures and applies its operations in
// order. db should be empty.
func (r *Runner) Run(ctx context.Context, db database.DB, sc *Scenario) (*Report, error) {
	log := r.logger().With(zap.String("scenario", sc.Name))

	genesis := r.Genesis
	if sc.Header.LedgerSeq != 0 {
		genesis = sc.Header
	}
	root, err := state.NewRoot(ctx, db, state.Options{Genesis: genesis, CacheSize: r.CacheSize, Logger: log})
	if err != nil {
		return nil, err
	}
	if err := r.seed(root, sc); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	engine := offer.NewEngine(exchange.NewConverter(r.Generation, r.MaxOffersToCross, log), r.Recorder, log)
	report := &Report{Name: sc.Name, Generation: r.Generation.String()}
	for i, op := range sc.Operations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var out *offer.Outcome
		switch op.Type {
		case OpSell:
			out, err = engine.ApplySell(ctx, root, op.sell())
		case OpBuy:
			out, err = engine.ApplyBuy(ctx, root, op.buy())
		default:
			err = fmt.Errorf("%w %q", ErrUnknownOperation, op.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		log.Info("applied operation",
			zap.Int("index", i),
			zap.String("type", op.Type),
			zap.Stringer("result", out.Result))
		report.Steps = append(report.Steps, Step{
			Index:         i,
			Type:          op.Type,
			Source:        op.Source,
			Result:        out.Result.String(),
			Effect:        out.Effect.String(),
			Offer:         out.Offer,
			Claims:        out.Claims,
			SheepSent:     out.SheepSent,
			WheatReceived: out.WheatReceived,
		})
	}

	if report.Final, err = snapshot(root, sc); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if report.Digest, err = digest(report); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *Runner) seed(root *state.Root, sc *Scenario) error {
	txn, err := state.NewTxn(root)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	for _, acc := range sc.Accounts {
		if err := txn.StoreAccount(&entry.Account{ID: acc.ID, Balance: acc.Balance}); err != nil {
			return err
		}
		for _, l := range acc.Lines {
			if err := txn.StoreTrustLine(&entry.TrustLine{
				AccountID: acc.ID,
				Asset:     l.Asset,
				Balance:   l.Balance,
				Limit:     l.Limit,
				Flags:     l.flags(),
			}); err != nil {
				return err
			}
		}
	}

	header := txn.Header()
	for _, f := range sc.Offers {
		o := &entry.Offer{SellerID: f.Seller, Selling: f.Selling, Buying: f.Buying, Amount: f.Amount, Price: f.Price}
		if f.Passive {
			o.Flags |= entry.OfferPassive
		}
		if err := txn.CreateOffer(o); err != nil {
			return err
		}
		h, err := exchange.LoadHoldings(txn, f.Seller, f.Selling, f.Buying)
		if err != nil {
			return err
		}
		if r.Generation.TracksLiabilities() {
			if err := exchange.AcquireLiabilities(header, h, o); err != nil {
				return fmt.Errorf("offer %d of %s is not backed: %w", o.OfferID, f.Seller, err)
			}
		}
		h.Account.NumSubEntries++
		if err := h.Store(txn); err != nil {
			return err
		}
	}
	return txn.Commit()
}

func snapshot(root *state.Root, sc *Scenario) (Snapshot, error) {
	var snap Snapshot
	txn, err := state.NewTxn(root)
	if err != nil {
		return snap, err
	}
	defer txn.Rollback()

	snap.Header = txn.Header()
	for _, fix := range sc.Accounts {
		acc, err := txn.LoadAccount(fix.ID)
		if err != nil {
			return snap, err
		}
		snap.Accounts = append(snap.Accounts, acc)
		for _, l := range fix.Lines {
			line, err := txn.LoadTrustLine(fix.ID, l.Asset)
			if err != nil {
				return snap, err
			}
			if line != nil {
				snap.Lines = append(snap.Lines, line)
			}
		}
	}

	assets := sc.assets()
	for _, selling := range assets {
		for _, buying := range assets {
			if selling.Equal(buying) {
				continue
			}
			offers, err := txn.Offers(entry.Book{Selling: selling, Buying: buying})
			if err != nil {
				return snap, err
			}
			snap.Offers = append(snap.Offers, offers...)
		}
	}
	sort.Slice(snap.Offers, func(i, j int) bool { return snap.Offers[i].OfferID < snap.Offers[j].OfferID })
	return snap, nil
}

func digest(report *Report) (string, error) {
	data, err := entry.Encode(struct {
		Steps []Step
		Final Snapshot
	}{report.Steps, report.Final})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
