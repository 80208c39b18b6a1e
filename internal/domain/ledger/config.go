// Package ledger implements the batch ledger engine: one generic record
// lifecycle, stock calculator and available-batch resolver, parametrized
// per ledger instance by a Config value. The taxonomies live in registry.go.
package ledger

import (
	"fmt"
	"sort"
	"strings"

	"milltrack/internal/core/entity"
)

// Type identifies a ledger instance.
type Type string

const (
	TypeMaterialReceiveIssue Type = "material_receive_issue"
	TypeProductReceiveIssue  Type = "product_receive_issue"
	TypeProductionMovement   Type = "production_movement"
	TypeDailySales           Type = "daily_sales"
)

// Activity names shared across ledger taxonomies.
const (
	ActivityReceive               = "Receive"
	ActivityIssue                 = "Issue"
	ActivityReturn                = "Return"
	ActivityReceiveCustomerRework = "ReceiveCustomerRework"
	ActivityIssueCustomerRework   = "IssueCustomerRework"
	ActivityIssueProdRework       = "IssueProdRework"
	ActivityReceiveProdRework     = "ReceiveProdRework"
	ActivitySample                = "Sample"
	ActivityGift                  = "Gift"
	ActivityPromotion             = "Promotion"
	ActivityWaste                 = "Waste"
	ActivityProduction            = "Production"
	ActivityTransfer              = "Transfer"
	ActivityWastage               = "Wastage"
	ActivitySale                  = "Sale"
	ActivitySalesReturn           = "SalesReturn"
)

// UpstreamRef points at the activity pool that feeds a consuming activity.
// The pool's per-batch output is the aggregated quantity of Activities in
// the Ledger's table; expiry dates are sourced from ExpirySources records
// of the same table, most-recent-first.
type UpstreamRef struct {
	Ledger        Type
	Activities    []string
	ExpirySources []string
}

// poolKey identifies the pool for consumer grouping. Two activities with
// the same poolKey draw down the same availability.
func (u *UpstreamRef) poolKey() string {
	acts := append([]string(nil), u.Activities...)
	sort.Strings(acts)
	return string(u.Ledger) + "|" + strings.Join(acts, ",")
}

// ActivitySpec describes one activity's behavior within a ledger.
type ActivitySpec struct {
	// Direction classifies the activity as stock-increasing or decreasing
	Direction entity.ActivityDirection

	// RequiresExpiry demands an expiry date (supplied or sourced upstream)
	RequiresExpiry bool

	// ManualBatch requires a caller-entered batch prefixed "{itemCode}-"
	ManualBatch bool

	// AutoBatch marks the ledger's canonical stock-increasing activity:
	// when no batch is supplied one is synthesized as {itemCode}-{DDMMYY}
	AutoBatch bool

	// Upstream is set for activities whose batch choice is validated
	// against an upstream pool (nil for free-standing activities)
	Upstream *UpstreamRef

	// RuleName/Rule attach an optional CEL validation expression,
	// compiled at registry construction and evaluated on create/update
	RuleName string
	Rule     string
}

// Config parametrizes one ledger instance of the shared engine.
type Config struct {
	Type Type

	// Table is the ledger's record table (ldg_*)
	Table string

	// NumberPrefix seeds document number auto-generation (e.g. "MRI")
	NumberPrefix string

	Activities map[string]ActivitySpec
}

// Spec returns the activity spec, or false for an unknown activity.
func (c *Config) Spec(activity string) (ActivitySpec, bool) {
	spec, ok := c.Activities[activity]
	return spec, ok
}

// Direction returns the activity's stock direction. Unknown activities are
// treated as decreasing so a misconfigured fold can only under-count stock.
func (c *Config) Direction(activity string) entity.ActivityDirection {
	if spec, ok := c.Activities[activity]; ok {
		return spec.Direction
	}
	return entity.DirectionDecrease
}

// Increasing returns the sorted list of stock-increasing activities.
func (c *Config) Increasing() []string {
	var acts []string
	for name, spec := range c.Activities {
		if spec.Direction == entity.DirectionIncrease {
			acts = append(acts, name)
		}
	}
	sort.Strings(acts)
	return acts
}

// Decreasing returns the sorted list of stock-decreasing activities.
func (c *Config) Decreasing() []string {
	var acts []string
	for name, spec := range c.Activities {
		if spec.Direction == entity.DirectionDecrease {
			acts = append(acts, name)
		}
	}
	sort.Strings(acts)
	return acts
}

// ConsumersOf returns every activity of this ledger drawing down the given
// pool, sorted. Availability is pool output minus the aggregated quantity
// of ALL these activities, so fan-out consumers share one budget.
func (c *Config) ConsumersOf(pool *UpstreamRef) []string {
	if pool == nil {
		return nil
	}
	key := pool.poolKey()
	var acts []string
	for name, spec := range c.Activities {
		if spec.Upstream != nil && spec.Upstream.poolKey() == key {
			acts = append(acts, name)
		}
	}
	sort.Strings(acts)
	return acts
}

// ActivityNames returns every activity of the ledger, sorted.
func (c *Config) ActivityNames() []string {
	acts := make([]string, 0, len(c.Activities))
	for name := range c.Activities {
		acts = append(acts, name)
	}
	sort.Strings(acts)
	return acts
}

// AutoBatchActivity returns the canonical auto-batch activity name, or "".
func (c *Config) AutoBatchActivity() string {
	for name, spec := range c.Activities {
		if spec.AutoBatch {
			return name
		}
	}
	return ""
}

// Validate checks the config's internal consistency. Cross-ledger upstream
// references are checked by the registry, which sees all configs.
func (c *Config) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("ledger config: type is required")
	}
	if c.Table == "" {
		return fmt.Errorf("ledger %s: table is required", c.Type)
	}
	if c.NumberPrefix == "" {
		return fmt.Errorf("ledger %s: number prefix is required", c.Type)
	}
	if len(c.Activities) == 0 {
		return fmt.Errorf("ledger %s: at least one activity is required", c.Type)
	}

	autoBatch := 0
	for name, spec := range c.Activities {
		switch spec.Direction {
		case entity.DirectionIncrease, entity.DirectionDecrease:
		default:
			return fmt.Errorf("ledger %s: activity %s has invalid direction %q", c.Type, name, spec.Direction)
		}
		if spec.AutoBatch {
			autoBatch++
			if spec.Direction != entity.DirectionIncrease {
				return fmt.Errorf("ledger %s: auto-batch activity %s must be stock-increasing", c.Type, name)
			}
			if spec.ManualBatch {
				return fmt.Errorf("ledger %s: activity %s cannot be both auto-batch and manual-batch", c.Type, name)
			}
		}
		if spec.Upstream != nil {
			if spec.Upstream.Ledger == "" {
				return fmt.Errorf("ledger %s: activity %s upstream ledger is required", c.Type, name)
			}
			if len(spec.Upstream.Activities) == 0 {
				return fmt.Errorf("ledger %s: activity %s upstream activities are required", c.Type, name)
			}
		}
		if (spec.Rule == "") != (spec.RuleName == "") {
			return fmt.Errorf("ledger %s: activity %s must set rule and rule name together", c.Type, name)
		}
	}
	if autoBatch > 1 {
		return fmt.Errorf("ledger %s: at most one auto-batch activity is allowed", c.Type)
	}

	return nil
}
