package ledger

import (
	"strings"
	"testing"

	"milltrack/internal/core/entity"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	types := r.Types()
	if len(types) != 4 {
		t.Fatalf("want 4 ledgers, got %d: %v", len(types), types)
	}
	for _, lt := range []Type{TypeMaterialReceiveIssue, TypeProductReceiveIssue, TypeProductionMovement, TypeDailySales} {
		if _, err := r.Get(lt); err != nil {
			t.Errorf("Get(%s): %v", lt, err)
		}
	}

	if _, err := r.Get("warehouse_transfer"); err == nil {
		t.Error("want error for unknown ledger type")
	}
}

func TestConfigDirections(t *testing.T) {
	cfg := MaterialReceiveIssueConfig()

	if got := cfg.Increasing(); len(got) != 1 || got[0] != ActivityReceive {
		t.Errorf("increasing\nwant: [Receive]\ngot:  %v", got)
	}
	if got := cfg.Decreasing(); len(got) != 1 || got[0] != ActivityIssue {
		t.Errorf("decreasing\nwant: [Issue]\ngot:  %v", got)
	}
	if got := cfg.Direction("Unknown"); got != entity.DirectionDecrease {
		t.Errorf("unknown activity direction\nwant: decrease\ngot:  %s", got)
	}
}

func TestConsumersOf_SharedPool(t *testing.T) {
	cfg := ProductReceiveIssueConfig()

	receiveSpec, _ := cfg.Spec(ActivityIssue)
	consumers := cfg.ConsumersOf(receiveSpec.Upstream)
	want := []string{ActivityGift, ActivityIssue, ActivityPromotion, ActivitySample, ActivityWaste}
	if strings.Join(consumers, ",") != strings.Join(want, ",") {
		t.Errorf("receive pool consumers\nwant: %v\ngot:  %v", want, consumers)
	}

	reworkSpec, _ := cfg.Spec(ActivityIssueProdRework)
	consumers = cfg.ConsumersOf(reworkSpec.Upstream)
	want = []string{ActivityIssueCustomerRework, ActivityIssueProdRework}
	if strings.Join(consumers, ",") != strings.Join(want, ",") {
		t.Errorf("rework pool consumers\nwant: %v\ngot:  %v", want, consumers)
	}
}

func TestConsumersOf_CrossLedgerPool(t *testing.T) {
	cfg := DailySalesConfig()
	saleSpec, _ := cfg.Spec(ActivitySale)

	consumers := cfg.ConsumersOf(saleSpec.Upstream)
	if len(consumers) != 1 || consumers[0] != ActivitySale {
		t.Errorf("sale pool consumers\nwant: [Sale]\ngot:  %v", consumers)
	}
}

func TestAutoBatchActivity(t *testing.T) {
	tests := []struct {
		cfg  *Config
		want string
	}{
		{MaterialReceiveIssueConfig(), ActivityReceive},
		{ProductReceiveIssueConfig(), ActivityReceive},
		{ProductionMovementConfig(), ActivityProduction},
		{DailySalesConfig(), ""},
	}
	for _, tt := range tests {
		if got := tt.cfg.AutoBatchActivity(); got != tt.want {
			t.Errorf("%s auto-batch activity\nwant: %q\ngot:  %q", tt.cfg.Type, tt.want, got)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Type:         "test_ledger",
			Table:        "ldg_test",
			NumberPrefix: "TST",
			Activities: map[string]ActivitySpec{
				"In":  {Direction: entity.DirectionIncrease, AutoBatch: true},
				"Out": {Direction: entity.DirectionDecrease},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing table", func(c *Config) { c.Table = "" }, "table is required"},
		{"missing prefix", func(c *Config) { c.NumberPrefix = "" }, "number prefix is required"},
		{"no activities", func(c *Config) { c.Activities = nil }, "at least one activity"},
		{
			"bad direction",
			func(c *Config) { c.Activities["Odd"] = ActivitySpec{Direction: "sideways"} },
			"invalid direction",
		},
		{
			"auto-batch must increase",
			func(c *Config) { c.Activities["Out"] = ActivitySpec{Direction: entity.DirectionDecrease, AutoBatch: true} },
			"must be stock-increasing",
		},
		{
			"two auto-batch activities",
			func(c *Config) { c.Activities["In2"] = ActivitySpec{Direction: entity.DirectionIncrease, AutoBatch: true} },
			"at most one auto-batch",
		},
		{
			"auto and manual exclusive",
			func(c *Config) {
				c.Activities["In"] = ActivitySpec{Direction: entity.DirectionIncrease, AutoBatch: true, ManualBatch: true}
			},
			"cannot be both",
		},
		{
			"upstream needs activities",
			func(c *Config) {
				c.Activities["Out"] = ActivitySpec{Direction: entity.DirectionDecrease, Upstream: &UpstreamRef{Ledger: "test_ledger"}}
			},
			"upstream activities are required",
		},
		{
			"rule needs a name",
			func(c *Config) {
				c.Activities["Out"] = ActivitySpec{Direction: entity.DirectionDecrease, Rule: "quantity > 0.0"}
			},
			"rule and rule name together",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error\nwant substring: %s\ngot: %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewRegistry_CrossLedgerChecks(t *testing.T) {
	orphan := &Config{
		Type:         "orphan",
		Table:        "ldg_orphan",
		NumberPrefix: "ORP",
		Activities: map[string]ActivitySpec{
			"Out": {
				Direction: entity.DirectionDecrease,
				Upstream:  &UpstreamRef{Ledger: "missing_ledger", Activities: []string{"In"}},
			},
		},
	}
	if _, err := NewRegistry(orphan); err == nil {
		t.Error("want error for unknown upstream ledger")
	}

	badActivity := &Config{
		Type:         "bad",
		Table:        "ldg_bad",
		NumberPrefix: "BAD",
		Activities: map[string]ActivitySpec{
			"In": {Direction: entity.DirectionIncrease},
			"Out": {
				Direction: entity.DirectionDecrease,
				Upstream:  &UpstreamRef{Ledger: "bad", Activities: []string{"Nope"}},
			},
		},
	}
	if _, err := NewRegistry(badActivity); err == nil {
		t.Error("want error for unknown upstream activity")
	}

	if _, err := NewRegistry(MaterialReceiveIssueConfig()); err == nil {
		t.Error("want error when a cross-ledger reference has no target config")
	}
}
