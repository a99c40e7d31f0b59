// Package watchlist tracks instruments an account wants to follow without
// holding them.
package watchlist

import (
	"context"
	"errors"

	"papertrade/internal/model"
	"papertrade/internal/store"
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

func (s *Service) Add(ctx context.Context, accountID, instrumentID string) error {
	return s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.Account(ctx, accountID); err != nil {
			return err
		}
		if _, err := tx.Instrument(ctx, instrumentID); err != nil {
			return err
		}
		return tx.AddWatch(ctx, accountID, instrumentID)
	})
}

func (s *Service) Remove(ctx context.Context, accountID, instrumentID string) error {
	return s.store.Update(ctx, func(tx store.Tx) error {
		return tx.RemoveWatch(ctx, accountID, instrumentID)
	})
}

// List resolves the account's watched instruments. Entries whose instrument
// has since been delisted are skipped.
func (s *Service) List(ctx context.Context, accountID string) ([]model.Instrument, error) {
	out := []model.Instrument{}
	err := s.store.View(ctx, func(tx store.Tx) error {
		ids, err := tx.ListWatchedInstrumentIDs(ctx, accountID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			in, err := tx.Instrument(ctx, id)
			if errors.Is(err, store.ErrInstrumentNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, in)
		}
		return nil
	})
	return out, err
}
