package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cobaltlane/sentinel/internal/auth/domain"
	"github.com/cobaltlane/sentinel/internal/auth/store"
	"github.com/cobaltlane/sentinel/pkg/cryptox"
	"github.com/cobaltlane/sentinel/pkg/idx"
	"github.com/cobaltlane/sentinel/pkg/keymutex"
	"github.com/cobaltlane/sentinel/pkg/slogx"
)

const (
	// GateCodeDigits is the length of issued passcodes.
	GateCodeDigits = 6

	// DefaultGateCodeTTL is the fixed validity window of a passcode.
	DefaultGateCodeTTL = 5 * time.Minute
)

// GateService issues and consumes the one-time passcodes protecting named
// boolean switches. All generate/validate work for one gate runs under a
// per-gate lock held around the whole transaction, so racing callers
// serialize instead of minting duplicate codes; unrelated gates proceed
// independently.
type GateService struct {
	Store        store.Store
	Locks        *keymutex.KeyMutex
	SharedSecret string
	CodeTTL      time.Duration
}

func NewGateService(st store.Store, sharedSecret string, codeTTL time.Duration) *GateService {
	if codeTTL <= 0 {
		codeTTL = DefaultGateCodeTTL
	}
	return &GateService{
		Store:        st,
		Locks:        keymutex.New(0),
		SharedSecret: sharedSecret,
		CodeTTL:      codeTTL,
	}
}

// GateCodeResult is what RequestCode hands back for out-of-band delivery.
type GateCodeResult struct {
	Code             string `json:"code"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// RequestCode returns the outstanding valid code for the gate, or mints a new
// one when none exists. Concurrent callers for the same gate observe the same
// code; exactly one record exists per gate at commit time.
func (s *GateService) RequestCode(ctx context.Context, gateID string) (*GateCodeResult, error) {
	now := time.Now().UTC()

	s.Locks.Lock(gateID)
	defer s.Locks.Unlock(gateID)

	var result *GateCodeResult
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.GateCodes().GetActiveGateCode(ctx, gateID)
		switch {
		case err == nil && !existing.Expired(now):
			// Get-or-create: a valid outstanding code is returned unchanged.
			result = &GateCodeResult{
				Code:             existing.Code,
				ExpiresInSeconds: int(existing.ExpiresAt.Sub(now).Seconds()),
			}
			return nil
		case err == nil:
			if err := tx.GateCodes().DeleteGateCode(ctx, existing.ID); err != nil {
				return err
			}
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		code, err := cryptox.GenerateNumericCode(GateCodeDigits)
		if err != nil {
			return err
		}

		record := domain.GateCode{
			ID:        idx.New().String(),
			GateID:    gateID,
			Code:      code,
			ExpiresAt: now.Add(s.CodeTTL),
			CreatedAt: now,
		}
		if err := tx.GateCodes().CreateGateCode(ctx, record); err != nil {
			return err
		}

		// Defensive cleanup; the single-outstanding invariant should make
		// this a no-op.
		if err := tx.GateCodes().DeleteExpiredUnconsumedGateCodes(ctx, gateID, now); err != nil {
			return err
		}

		result = &GateCodeResult{
			Code:             code,
			ExpiresInSeconds: int(s.CodeTTL.Seconds()),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// validate consumes the code for the gate. Wrong code and absent code are
// indistinguishable. An expired code is burned on sight: it is marked
// consumed and can never validate afterwards.
func (s *GateService) validate(ctx context.Context, gateID, code string) (bool, error) {
	now := time.Now().UTC()

	s.Locks.Lock(gateID)
	defer s.Locks.Unlock(gateID)

	var valid bool
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		record, err := tx.GateCodes().FindUnconsumedGateCode(ctx, gateID, code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}

		if err := tx.GateCodes().MarkGateCodeConsumed(ctx, record.ID, now); err != nil {
			return err
		}
		valid = !record.Expired(now)

		// Bound consumed-record growth without a separate sweep.
		return tx.GateCodes().DeleteOldestConsumedGateCode(ctx, gateID, record.ID)
	})
	if err != nil {
		return false, err
	}
	return valid, nil
}

// Clear deletes any outstanding unconsumed code for the gate so it cannot be
// reused even within its validity window.
func (s *GateService) Clear(ctx context.Context, gateID string) error {
	s.Locks.Lock(gateID)
	defer s.Locks.Unlock(gateID)

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.GateCodes().DeleteUnconsumedGateCodes(ctx, gateID)
	})
}

// ToggleResult reports the gate's state after a successful toggle.
type ToggleResult struct {
	Gate    string `json:"gate"`
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

// Toggle flips the gate's boolean flag. It requires both the static shared
// secret and a valid passcode; the shared-secret check runs first and does
// not depend on code validity.
func (s *GateService) Toggle(ctx context.Context, gateID, code, sharedSecret string) (*ToggleResult, error) {
	l := slogx.FromContext(ctx)

	if s.SharedSecret == "" ||
		subtle.ConstantTimeCompare([]byte(sharedSecret), []byte(s.SharedSecret)) != 1 {
		l.Warn("gate toggle refused: shared secret mismatch", slog.String("gate_id", gateID))
		return nil, ErrInvalidSharedSecret
	}

	ok, err := s.validate(ctx, gateID, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOrExpiredCode
	}

	current, err := s.Store.Settings().GetFlag(ctx, gateID)
	if err != nil {
		return nil, err
	}
	next := !current
	if err := s.Store.Settings().SetFlag(ctx, gateID, next); err != nil {
		return nil, err
	}

	// The code is already consumed; clearing removes any other outstanding
	// record so nothing survives the toggle.
	if err := s.Clear(ctx, gateID); err != nil {
		return nil, err
	}

	l.Info("gate toggled", slog.String("gate_id", gateID), slog.Bool("enabled", next))

	state := "disabled"
	if next {
		state = "enabled"
	}
	return &ToggleResult{
		Gate:    gateID,
		Enabled: next,
		Message: fmt.Sprintf("gate %q is now %s", gateID, state),
	}, nil
}

// IsEnabled is a read passthrough for collaborators that short-circuit with a
// "service disabled" condition. Absent flags read as enabled.
func (s *GateService) IsEnabled(ctx context.Context, flag string) (bool, error) {
	return s.Store.Settings().GetFlag(ctx, flag)
}
