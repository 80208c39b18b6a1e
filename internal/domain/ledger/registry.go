package ledger

import (
	"fmt"
	"sort"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/entity"
)

// MaterialReceiveIssueConfig describes the raw-material ledger: Receive
// pulls finished transfers out of production, Issue hands material back
// to the floor.
func MaterialReceiveIssueConfig() *Config {
	return &Config{
		Type:         TypeMaterialReceiveIssue,
		Table:        "ldg_material_receive_issue",
		NumberPrefix: "MRI",
		Activities: map[string]ActivitySpec{
			ActivityReceive: {
				Direction:      entity.DirectionIncrease,
				RequiresExpiry: true,
				AutoBatch:      true,
				Upstream: &UpstreamRef{
					Ledger:        TypeProductionMovement,
					Activities:    []string{ActivityTransfer},
					ExpirySources: []string{ActivityProduction},
				},
			},
			ActivityIssue: {
				Direction: entity.DirectionDecrease,
				Upstream: &UpstreamRef{
					Ledger:        TypeMaterialReceiveIssue,
					Activities:    []string{ActivityReceive},
					ExpirySources: []string{ActivityReceive},
				},
			},
		},
	}
}

// ProductReceiveIssueConfig describes the finished-product ledger. Beyond
// plain receive/issue it tracks customer returns and the two-leg rework
// cycle: goods come back in via ReceiveCustomerRework, go out to the floor
// via IssueProdRework or back to the customer via IssueCustomerRework, and
// reworked goods return via ReceiveProdRework.
func ProductReceiveIssueConfig() *Config {
	receivePool := &UpstreamRef{
		Ledger:        TypeProductReceiveIssue,
		Activities:    []string{ActivityReceive},
		ExpirySources: []string{ActivityReceive, ActivityReturn},
	}
	reworkPool := &UpstreamRef{
		Ledger:        TypeProductReceiveIssue,
		Activities:    []string{ActivityReceiveCustomerRework},
		ExpirySources: []string{ActivityReceiveCustomerRework},
	}
	return &Config{
		Type:         TypeProductReceiveIssue,
		Table:        "ldg_product_receive_issue",
		NumberPrefix: "PRI",
		Activities: map[string]ActivitySpec{
			ActivityReceive: {
				Direction:      entity.DirectionIncrease,
				RequiresExpiry: true,
				AutoBatch:      true,
				Upstream: &UpstreamRef{
					Ledger:        TypeProductionMovement,
					Activities:    []string{ActivityTransfer},
					ExpirySources: []string{ActivityProduction},
				},
			},
			ActivityIssue:     {Direction: entity.DirectionDecrease, Upstream: receivePool},
			ActivitySample:    {Direction: entity.DirectionDecrease, Upstream: receivePool},
			ActivityGift:      {Direction: entity.DirectionDecrease, Upstream: receivePool},
			ActivityPromotion: {Direction: entity.DirectionDecrease, Upstream: receivePool},
			ActivityWaste:     {Direction: entity.DirectionDecrease, Upstream: receivePool},
			ActivityReturn: {
				Direction:      entity.DirectionIncrease,
				RequiresExpiry: true,
				ManualBatch:    true,
			},
			ActivityReceiveCustomerRework: {
				Direction:      entity.DirectionIncrease,
				RequiresExpiry: true,
				ManualBatch:    true,
			},
			ActivityIssueCustomerRework: {Direction: entity.DirectionDecrease, Upstream: reworkPool},
			ActivityIssueProdRework:     {Direction: entity.DirectionDecrease, Upstream: reworkPool},
			ActivityReceiveProdRework: {
				Direction:      entity.DirectionIncrease,
				RequiresExpiry: true,
				ManualBatch:    true,
				Upstream: &UpstreamRef{
					Ledger:        TypeProductReceiveIssue,
					Activities:    []string{ActivityIssueProdRework},
					ExpirySources: []string{ActivityReceiveCustomerRework, ActivityReturn},
				},
			},
		},
	}
}

// ProductionMovementConfig describes the production-floor ledger: batches
// are born here by Production and leave via Transfer (to the receive
// ledgers) or Wastage.
func ProductionMovementConfig() *Config {
	productionPool := &UpstreamRef{
		Ledger:        TypeProductionMovement,
		Activities:    []string{ActivityProduction},
		ExpirySources: []string{ActivityProduction},
	}
	return &Config{
		Type:         TypeProductionMovement,
		Table:        "ldg_production_movement",
		NumberPrefix: "PMV",
		Activities: map[string]ActivitySpec{
			ActivityProduction: {
				Direction:      entity.DirectionIncrease,
				RequiresExpiry: true,
				AutoBatch:      true,
			},
			ActivityTransfer: {Direction: entity.DirectionDecrease, Upstream: productionPool},
			ActivityWastage:  {Direction: entity.DirectionDecrease, Upstream: productionPool},
		},
	}
}

// DailySalesConfig describes the sales ledger. Sale draws on product
// receive batches cross-ledger; its own-ledger running stock therefore
// sits at or below zero and relies on the depleted-batch bypass, with the
// upstream availability check carrying the real guard.
func DailySalesConfig() *Config {
	return &Config{
		Type:         TypeDailySales,
		Table:        "ldg_daily_sales",
		NumberPrefix: "DSF",
		Activities: map[string]ActivitySpec{
			ActivitySale: {
				Direction: entity.DirectionDecrease,
				Upstream: &UpstreamRef{
					Ledger:        TypeProductReceiveIssue,
					Activities:    []string{ActivityReceive},
					ExpirySources: []string{ActivityReceive, ActivityReturn},
				},
				RuleName: "sale_quantity_cap",
				Rule:     "quantity <= 100000.0",
			},
			ActivitySalesReturn: {
				Direction:      entity.DirectionIncrease,
				RequiresExpiry: true,
				ManualBatch:    true,
				RuleName:       "return_reason_required",
				Rule:           "note != ''",
			},
		},
	}
}

// Registry holds every ledger config plus the compiled validation rules.
type Registry struct {
	configs map[Type]*Config
	rules   map[ruleKey]compiledRule
}

// NewRegistry validates the configs, resolves cross-ledger upstream
// references and compiles activity rules.
func NewRegistry(configs ...*Config) (*Registry, error) {
	r := &Registry{
		configs: make(map[Type]*Config, len(configs)),
		rules:   make(map[ruleKey]compiledRule),
	}
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.configs[cfg.Type]; dup {
			return nil, fmt.Errorf("ledger registry: duplicate config for %s", cfg.Type)
		}
		r.configs[cfg.Type] = cfg
	}

	for _, cfg := range r.configs {
		for name, spec := range cfg.Activities {
			if spec.Upstream != nil {
				if err := r.checkUpstream(cfg, name, spec.Upstream); err != nil {
					return nil, err
				}
			}
			if spec.Rule != "" {
				prog, err := compileRule(spec.Rule)
				if err != nil {
					return nil, fmt.Errorf("ledger %s: activity %s rule %s: %w", cfg.Type, name, spec.RuleName, err)
				}
				r.rules[ruleKey{cfg.Type, name}] = compiledRule{name: spec.RuleName, program: prog}
			}
		}
	}

	return r, nil
}

func (r *Registry) checkUpstream(cfg *Config, activity string, up *UpstreamRef) error {
	src, ok := r.configs[up.Ledger]
	if !ok {
		return fmt.Errorf("ledger %s: activity %s references unknown upstream ledger %s", cfg.Type, activity, up.Ledger)
	}
	for _, act := range up.Activities {
		if _, ok := src.Activities[act]; !ok {
			return fmt.Errorf("ledger %s: activity %s references unknown upstream activity %s.%s", cfg.Type, activity, up.Ledger, act)
		}
	}
	for _, act := range up.ExpirySources {
		if _, ok := src.Activities[act]; !ok {
			return fmt.Errorf("ledger %s: activity %s references unknown expiry source %s.%s", cfg.Type, activity, up.Ledger, act)
		}
	}
	return nil
}

// DefaultRegistry builds the registry for the four production ledgers.
// The configs are compile-time literals, so failure here is a programming
// error and panics.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		MaterialReceiveIssueConfig(),
		ProductReceiveIssueConfig(),
		ProductionMovementConfig(),
		DailySalesConfig(),
	)
	if err != nil {
		panic(fmt.Sprintf("ledger: default registry: %v", err))
	}
	return r
}

// Get resolves a ledger type, e.g. from a URL segment.
func (r *Registry) Get(t Type) (*Config, error) {
	cfg, ok := r.configs[t]
	if !ok {
		return nil, apperror.NewValidation(fmt.Sprintf("unknown ledger %q", t)).
			WithDetail("ledger", string(t))
	}
	return cfg, nil
}

// Types lists the registered ledger types, sorted.
func (r *Registry) Types() []Type {
	types := make([]Type, 0, len(r.configs))
	for t := range r.configs {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
