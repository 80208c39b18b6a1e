package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "milltrack/internal/core/numerator"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64 // Simulates DB sequence value
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	// Strict passes (key); cached passes (key, increment).
	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment

	return &mockRow{val: m.currentValue}
}

var testPeriod = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("MRI")

	num, err := svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "MRI-2025-00001" {
		t.Errorf("expected MRI-2025-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "MRI-2025-00002" {
		t.Errorf("expected MRI-2025-00002, got %s", num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("DSF")

	opts := &corenumerator.Options{
		Strategy:  corenumerator.StrategyCached,
		RangeSize: 10,
	}

	// First call allocates 1..10 from the DB; DB value ends at 10.
	num, err := svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "DSF-2025-00001" {
		t.Errorf("expected DSF-2025-00001, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected DB value to be 10, got %d", q.currentValue)
	}

	// Second call is served from memory; DB does not change.
	num, err = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "DSF-2025-00002" {
		t.Errorf("expected DSF-2025-00002, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected DB value to stay 10, got %d", q.currentValue)
	}

	// Exhaust the range; the next call reserves 11..20.
	for i := 0; i < 8; i++ {
		_, _ = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	}

	num, err = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "DSF-2025-00011" {
		t.Errorf("expected DSF-2025-00011, got %s", num)
	}
	if q.currentValue != 20 {
		t.Errorf("expected DB value to be 20, got %d", q.currentValue)
	}
}

func TestBuildKey(t *testing.T) {
	svc := New(&mockQuerier{})

	tests := []struct {
		name   string
		cfg    corenumerator.Config
		period time.Time
		want   string
	}{
		{
			name:   "yearly reset",
			cfg:    corenumerator.Config{Prefix: "PRI", ResetPeriod: "year"},
			period: testPeriod,
			want:   "PRI_2025",
		},
		{
			name:   "monthly reset",
			cfg:    corenumerator.Config{Prefix: "PMV", ResetPeriod: "month"},
			period: testPeriod,
			want:   "PMV_2025_03",
		},
		{
			name:   "no reset",
			cfg:    corenumerator.Config{Prefix: "ITM", ResetPeriod: "never"},
			period: testPeriod,
			want:   "ITM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.buildKey(tt.cfg, tt.period); got != tt.want {
				t.Errorf("buildKey() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	svc := New(&mockQuerier{})

	tests := []struct {
		name string
		cfg  corenumerator.Config
		num  int64
		want string
	}{
		{
			name: "with year",
			cfg:  corenumerator.Config{Prefix: "MRI", IncludeYear: true, PadWidth: 5},
			num:  42,
			want: "MRI-2025-00042",
		},
		{
			name: "without year",
			cfg:  corenumerator.Config{Prefix: "SUP", PadWidth: 5},
			num:  7,
			want: "SUP-00007",
		},
		{
			name: "default pad width",
			cfg:  corenumerator.Config{Prefix: "ITM"},
			num:  123,
			want: "ITM-00123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.formatNumber(tt.cfg, testPeriod, tt.num); got != tt.want {
				t.Errorf("formatNumber() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		formatted string
		want      int64
	}{
		{"MRI-2025-00042", 42},
		{"SUP-00007", 7},
		{"garbage", -1},
	}

	for _, tt := range tests {
		if got := ParseNumber(tt.formatted); got != tt.want {
			t.Errorf("ParseNumber(%s) = %d, want %d", tt.formatted, got, tt.want)
		}
	}
}
