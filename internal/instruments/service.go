// Package instruments manages the listing catalog: the set of simulated
// stocks that can be traded.
package instruments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"papertrade/internal/model"
	"papertrade/internal/store"
)

var ErrInvalidInstrument = errors.New("invalid instrument")

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

func validate(in model.Instrument) error {
	if strings.TrimSpace(in.Ticker) == "" {
		return fmt.Errorf("%w: ticker is required", ErrInvalidInstrument)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInstrument)
	}
	if in.Volume < 0 {
		return fmt.Errorf("%w: volume must not be negative", ErrInvalidInstrument)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInstrument)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in model.Instrument) (model.Instrument, error) {
	in.Ticker = strings.ToUpper(strings.TrimSpace(in.Ticker))
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return model.Instrument{}, err
	}
	err := s.store.Update(ctx, func(tx store.Tx) error {
		id, err := tx.CreateInstrument(ctx, in)
		in.ID = id
		return err
	})
	if err != nil {
		return model.Instrument{}, err
	}
	return in, nil
}

// Update overwrites name, ticker, volume and price of an existing
// instrument.
func (s *Service) Update(ctx context.Context, id string, in model.Instrument) (model.Instrument, error) {
	in.Ticker = strings.ToUpper(strings.TrimSpace(in.Ticker))
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return model.Instrument{}, err
	}
	var updated model.Instrument
	err := s.store.Update(ctx, func(tx store.Tx) error {
		existing, err := tx.Instrument(ctx, id)
		if err != nil {
			return err
		}
		existing.Name = in.Name
		existing.Ticker = in.Ticker
		existing.Volume = in.Volume
		existing.Price = in.Price
		if err := tx.SaveInstrument(ctx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return model.Instrument{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(tx store.Tx) error {
		return tx.DeleteInstrument(ctx, id)
	})
}

func (s *Service) Get(ctx context.Context, id string) (model.Instrument, error) {
	var in model.Instrument
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		in, err = tx.Instrument(ctx, id)
		return err
	})
	return in, err
}

func (s *Service) List(ctx context.Context) ([]model.Instrument, error) {
	var out []model.Instrument
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.ListInstruments(ctx)
		return err
	})
	return out, err
}
