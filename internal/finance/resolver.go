// Package finance implements the fee and installment resolution engine: the
// layered override hierarchy that decides what a student owes for a billing
// year, and the schedule builder that decides when.
package finance

import (
	"context"
	"time"

	"github.com/mukisa/shulefees/internal/model"
	"github.com/mukisa/shulefees/internal/store"
)

// Service is the engine facade: resolution reads flow through its config
// cache, mutations write through to the store and invalidate the cache.
type Service struct {
	store store.Store
	cache *ConfigCache
	now   func() time.Time
}

// NewService creates an engine backed by st with its own config cache.
func NewService(st store.Store) *Service {
	return &Service{
		store: st,
		cache: NewConfigCache(st),
		now:   time.Now,
	}
}

// Cache exposes the service's config cache, mainly so callers can warm or
// drop a year explicitly.
func (s *Service) Cache() *ConfigCache {
	return s.cache
}

// ResolveOptions scope a resolution to a billing year. AnchorClass is a
// fallback class name tried when the student's own class has no
// configuration (e.g. a stream name that isn't configured while its parent
// class is).
type ResolveOptions struct {
	Year        int
	AnchorClass string
}

// ResolveEffectiveFinance computes the fee and plan that apply to one
// student. Missing configuration is never an error: every branch degrades to
// a zero fee or empty plan so any student always gets an answer.
func (s *Service) ResolveEffectiveFinance(ctx context.Context, studentID, className string, opts ResolveOptions) (*model.EffectiveFinance, error) {
	data, err := s.cache.EnsureFinanceData(ctx, opts.Year)
	if err != nil {
		return nil, err
	}

	var classCfg *model.ClassConfig
	if cfg, ok := data.Classes[normalizeClassName(className)]; ok {
		classCfg = &cfg
	} else if opts.AnchorClass != "" {
		if cfg, ok := data.Classes[normalizeClassName(opts.AnchorClass)]; ok {
			classCfg = &cfg
		}
	}

	var feeOverride *model.StudentFeeOverride
	if ov, ok := data.StudentFees[studentID]; ok {
		feeOverride = &ov
	}
	var planOverride *model.StudentPlanOverride
	if ov, ok := data.StudentPlans[studentID]; ok {
		planOverride = &ov
	}

	eff := &model.EffectiveFinance{
		ClassConfig:  classCfg,
		FeeOverride:  feeOverride,
		PlanOverride: planOverride,
	}

	// A fee override only counts while locked; an unlocked one is inert
	// even with a non-zero amount.
	switch {
	case feeOverride != nil && feeOverride.Locked:
		eff.Fee = feeOverride.FeePerYear
	case classCfg != nil:
		eff.Fee = classCfg.FeePerYear
	}

	// Plan overrides have no lock semantics: present means it wins.
	switch {
	case planOverride != nil:
		eff.PlanID = planOverride.PlanID
	case classCfg != nil:
		eff.PlanID = classCfg.DefaultPlanID
	}

	return eff, nil
}
