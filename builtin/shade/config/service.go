// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package config

import (
	"github.com/pkg/errors"

	"github.com/shadefi/shade/asset"
	"github.com/shadefi/shade/builtin/reverts"
	"github.com/shadefi/shade/builtin/shade/tier"
	"github.com/shadefi/shade/events"
	"github.com/shadefi/shade/kv"
	"github.com/shadefi/shade/ledger"
	"github.com/shadefi/shade/shade"
)

var (
	bucket = kv.Bucket("c")
	// Key is the well known key of the config record.
	Key = shade.Blake2b(shade.ProtocolConfigSeed)
)

type Service struct {
	tx     *ledger.Tx
	config *ledger.Raw[*Config]
}

func New(tx *ledger.Tx) *Service {
	return &Service{
		tx:     tx,
		config: ledger.NewRaw[*Config](tx, bucket, string(shade.ProtocolConfigSeed)),
	}
}

// Get returns the config, or nil before initialization.
func (s *Service) Get() (*Config, error) {
	cfg, err := s.config.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get config")
	}
	return cfg, nil
}

// GetInitialized returns the config, failing with NotInitialized before initialization.
func (s *Service) GetInitialized() (*Config, error) {
	cfg, err := s.Get()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, reverts.New(reverts.NotInitialized, "protocol config")
	}
	return cfg, nil
}

// Set persists the config.
func (s *Service) Set(cfg *Config) error {
	if err := s.config.Upsert(cfg); err != nil {
		return errors.Wrap(err, "failed to set config")
	}
	return nil
}

// Initialize creates the config with admin as its administrator.
func (s *Service) Initialize(admin shade.Address, feeBP uint64, thresholds tier.Thresholds) (*Config, error) {
	if err := ValidateFee(feeBP); err != nil {
		return nil, err
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.Get()
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, reverts.New(reverts.AlreadyInitialized, "protocol config")
	}

	cfg := &Config{
		Admin:          admin,
		FeeBasisPoints: feeBP,
		Thresholds:     thresholds,
		CapLimits:      tier.DefaultCapLimits,
		FeeVault:       asset.FeeVault,
		StakingVault:   asset.StakingVault,
	}
	if err := s.Set(cfg); err != nil {
		return nil, err
	}

	s.tx.Emit(events.New(events.KindProtocolInitialized, Key, admin).
		With("admin", shade.Address{}, admin).
		With("feeBasisPoints", 0, feeBP))
	return cfg, nil
}

// UpdateFee sets the fee rate.
func (s *Service) UpdateFee(caller shade.Address, bp uint64) (*Config, error) {
	cfg, err := s.adminConfig(caller)
	if err != nil {
		return nil, err
	}
	if err := ValidateFee(bp); err != nil {
		return nil, err
	}

	old := cfg.FeeBasisPoints
	cfg.FeeBasisPoints = bp
	if err := s.Set(cfg); err != nil {
		return nil, err
	}

	s.tx.Emit(events.New(events.KindFeeUpdated, Key, caller).With("feeBasisPoints", old, bp))
	return cfg, nil
}

// UpdateTiers sets the tier thresholds. Staker tiers follow on their next recompute.
func (s *Service) UpdateTiers(caller shade.Address, thresholds tier.Thresholds) (*Config, error) {
	cfg, err := s.adminConfig(caller)
	if err != nil {
		return nil, err
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}

	old := cfg.Thresholds
	cfg.Thresholds = thresholds
	if err := s.Set(cfg); err != nil {
		return nil, err
	}

	s.tx.Emit(events.New(events.KindTiersUpdated, Key, caller).
		With("bronze", old.Bronze, thresholds.Bronze).
		With("silver", old.Silver, thresholds.Silver).
		With("gold", old.Gold, thresholds.Gold))
	return cfg, nil
}

// UpdateCapLimits sets the per tier cap limits.
func (s *Service) UpdateCapLimits(caller shade.Address, limits tier.CapLimits) (*Config, error) {
	cfg, err := s.adminConfig(caller)
	if err != nil {
		return nil, err
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	old := cfg.CapLimits
	cfg.CapLimits = limits
	if err := s.Set(cfg); err != nil {
		return nil, err
	}

	s.tx.Emit(events.New(events.KindCapLimitsUpdated, Key, caller).
		With("baseCap", old.BaseCap, limits.BaseCap).
		With("none", old.None, limits.None).
		With("bronze", old.Bronze, limits.Bronze).
		With("silver", old.Silver, limits.Silver).
		With("gold", old.Gold, limits.Gold))
	return cfg, nil
}

func (s *Service) adminConfig(caller shade.Address) (*Config, error) {
	cfg, err := s.GetInitialized()
	if err != nil {
		return nil, err
	}
	if caller != cfg.Admin {
		return nil, reverts.Newf(reverts.Unauthorized, "%v is not the admin", caller)
	}
	return cfg, nil
}

func feeTooHigh(bp uint64) error {
	return reverts.Newf(reverts.FeeTooHigh, "%d basis points exceeds %d", bp, shade.MaxFeeBasisPoints)
}
