// Package main provides a CLI tool for seeding the database with initial data.
//
// It always provisions the auth baseline (roles, permissions, admin user).
// With SEED_DEMO_DATA=true it also loads a small flour-mill dataset: units,
// currencies, items, suppliers, prices and a ledger history that walks a
// grain lot from purchase through milling to sale and return.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	appctx "milltrack/internal/core/context"
	"milltrack/internal/core/dbctx"
	"milltrack/internal/core/entity"
	"milltrack/internal/core/id"
	corenumerator "milltrack/internal/core/numerator"
	"milltrack/internal/core/security"
	"milltrack/internal/core/types"
	"milltrack/internal/domain/ledger"
	"milltrack/internal/domain/masterdata"
	"milltrack/internal/infrastructure/numerator"
	"milltrack/internal/infrastructure/storage/postgres"
	"milltrack/internal/infrastructure/storage/postgres/catalog_repo"
	"milltrack/internal/infrastructure/storage/postgres/ledger_repo"
	"milltrack/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	// Connect to database
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	// Repositories resolve their querier from context, the same way the
	// request middleware wires it for the server.
	txManager := postgres.NewTxManager(pool)
	ctx = dbctx.WithPool(ctx, pool.Unwrap())
	ctx = dbctx.WithTxManager(ctx, txManager)

	if err := seedRolesAndPermissions(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed roles and permissions", "error", err)
	}

	adminUserID, err := seedAdminUser(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	// Seed demo data if requested
	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, txManager, log, adminUserID); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedRolesAndPermissions provisions the role and permission baseline. All
// inserts are idempotent, so re-running the seeder is safe.
func seedRolesAndPermissions(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	roles := []struct {
		code        string
		name        string
		description string
		isSystem    bool
	}{
		{"admin", "Administrator", "Full access, bypasses permission checks", true},
		{"operator", "Operator", "Records stock movements and maintains catalogs", false},
		{"viewer", "Viewer", "Read-only access to ledgers, catalogs and reports", false},
	}
	for _, r := range roles {
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO roles (id, code, name, description, is_system, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (code) DO NOTHING
		`, id.New(), r.code, r.name, r.description, r.isSystem)
		if err != nil {
			return fmt.Errorf("insert role %s: %w", r.code, err)
		}
	}

	permissions := []struct {
		code        string
		name        string
		resource    string
		action      string
	}{
		{"ledger:read", "View ledger records", "ledger", "read"},
		{"ledger:write", "Create and edit ledger records", "ledger", "write"},
		{"ledger:delete", "Delete ledger records", "ledger", "delete"},
		{"catalog:read", "View catalogs", "catalog", "read"},
		{"catalog:write", "Create and edit catalog entries", "catalog", "write"},
		{"report:read", "View stock reports", "report", "read"},
	}
	for _, p := range permissions {
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO permissions (id, code, name, description, resource, action)
			VALUES ($1, $2, $3, $3, $4, $5)
			ON CONFLICT (code) DO NOTHING
		`, id.New(), p.code, p.name, p.resource, p.action)
		if err != nil {
			return fmt.Errorf("insert permission %s: %w", p.code, err)
		}
	}

	grants := []struct {
		role  string
		perms []string
	}{
		{"admin", []string{"ledger:read", "ledger:write", "ledger:delete", "catalog:read", "catalog:write", "report:read"}},
		{"operator", []string{"ledger:read", "ledger:write", "catalog:read", "catalog:write", "report:read"}},
		{"viewer", []string{"ledger:read", "catalog:read", "report:read"}},
	}
	for _, g := range grants {
		for _, perm := range g.perms {
			_, err := pool.Pool.Exec(ctx, `
				INSERT INTO role_permissions (role_id, permission_id, created_at)
				SELECT r.id, p.id, now()
				FROM roles r
				JOIN permissions p ON p.code = $2
				WHERE r.code = $1
				ON CONFLICT (role_id, permission_id) DO NOTHING
			`, g.role, perm)
			if err != nil {
				return fmt.Errorf("grant %s to %s: %w", perm, g.role, err)
			}
		}
	}

	log.Infow("seeded roles and permissions", "roles", len(roles), "permissions", len(permissions))
	return nil
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@milltrack.io"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	// Check if admin already exists
	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1 AND deleted_at IS NULL`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return existingID, nil
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check admin exists: %w", err)
	}

	// Hash password
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	now := time.Now()

	// Create admin user
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name,
			is_active, is_admin, created_at, updated_at, version
		)
		VALUES ($1, $2, $3, 'System', 'Admin', true, true, $4, $4, 1)
	`, userID, adminEmail, string(passwordHash), now)
	if err != nil {
		return id.Nil(), fmt.Errorf("insert admin user: %w", err)
	}

	// Assign admin role
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id, granted_by)
		SELECT $1, id, NULL FROM roles WHERE code = 'admin'
		ON CONFLICT (user_id, role_id) DO NOTHING
	`, userID)
	if err != nil {
		return id.Nil(), fmt.Errorf("assign admin role: %w", err)
	}

	log.Infow("created admin user", "email", adminEmail, "user_id", userID)
	return userID, nil
}

// seededItem carries what the demo ledger history needs from the catalog.
type seededItem struct {
	ID   id.ID
	Code string
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, txManager *postgres.TxManager, log *logger.Logger, adminID id.ID) error {
	log.Info("seeding demo data")

	units, err := seedUnits(ctx, pool, log)
	if err != nil {
		return fmt.Errorf("seed units: %w", err)
	}

	usdID, err := seedCurrencies(ctx, pool, log)
	if err != nil {
		return fmt.Errorf("seed currencies: %w", err)
	}

	items, err := seedItems(ctx, pool, log, units)
	if err != nil {
		return fmt.Errorf("seed items: %w", err)
	}

	if err := seedSuppliers(ctx, pool, log); err != nil {
		return fmt.Errorf("seed suppliers: %w", err)
	}

	if err := seedItemPrices(ctx, pool, log, items, usdID); err != nil {
		return fmt.Errorf("seed item prices: %w", err)
	}

	if err := seedFeatureFlags(ctx, pool, log); err != nil {
		return fmt.Errorf("seed feature flags: %w", err)
	}

	if err := seedLedgerHistory(ctx, pool, txManager, log, adminID, items); err != nil {
		return fmt.Errorf("seed ledger history: %w", err)
	}

	log.Info("demo data seeded")
	return nil
}

// advanceSequence pushes a numerator sequence past a set of fixed codes so
// API-created rows continue the numbering. The highest numeric suffix wins,
// so a list with gaps still lands past its last code.
func advanceSequence(ctx context.Context, pool *postgres.Pool, prefix string, codes []string) error {
	var max int64
	for _, c := range codes {
		if n := numerator.ParseNumber(c); n > max {
			max = n
		}
	}
	num := numerator.New(pool.Unwrap())
	return num.SetNextNumber(ctx, corenumerator.DefaultConfig(prefix), time.Now(), max)
}

// fetchCatalogID returns the id of an existing catalog row by code.
func fetchCatalogID(ctx context.Context, pool *postgres.Pool, table, code string) (id.ID, error) {
	var existing id.ID
	err := pool.Pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE code = $1 AND deletion_mark = FALSE`, table),
		code,
	).Scan(&existing)
	if err != nil {
		return id.Nil(), fmt.Errorf("fetch %s %s: %w", table, code, err)
	}
	return existing, nil
}

func seedUnits(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (map[string]string, error) {
	units := []struct {
		code     string
		name     string
		unitType string
		symbol   string
		intlCode string
		isBase   bool
		factor   string
	}{
		{"kg", "Kilogram", "weight", "kg", "KGM", true, "1"},
		{"t", "Tonne", "weight", "t", "TNE", false, "1000"},
		{"pcs", "Piece", "piece", "pcs", "H87", true, "1"},
		{"bag50", "Bag 50 kg", "pack", "bag", "", false, "50"},
	}

	ids := make(map[string]string, len(units))
	for _, u := range units {
		unitID := id.New()
		tag, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_units (
				id, code, name, type, symbol, international_code,
				conversion_factor, is_base, version
			)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, 1)
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, unitID, u.code, u.name, u.unitType, u.symbol, u.intlCode, u.factor, u.isBase)
		if err != nil {
			return nil, fmt.Errorf("insert unit %s: %w", u.code, err)
		}
		if tag.RowsAffected() == 0 {
			unitID, err = fetchCatalogID(ctx, pool, "cat_units", u.code)
			if err != nil {
				return nil, err
			}
		}
		ids[u.code] = unitID.String()
	}

	log.Infow("seeded units", "count", len(units))
	return ids, nil
}

func seedCurrencies(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	currencies := []struct {
		code          string
		name          string
		isoNumeric    string
		symbol        string
		decimalPlaces int
		isBase        bool
		country       string
	}{
		{"USD", "US Dollar", "840", "$", 2, true, "United States"},
		{"EUR", "Euro", "978", "€", 2, false, "European Union"},
	}

	var usdID id.ID
	for _, c := range currencies {
		currencyID := id.New()
		tag, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_currencies (
				id, code, name, iso_code, iso_numeric_code, symbol,
				decimal_places, is_base, country, version
			)
			VALUES ($1, $2, $3, $2, $4, $5, $6, $7, $8, 1)
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, currencyID, c.code, c.name, c.isoNumeric, c.symbol, c.decimalPlaces, c.isBase, c.country)
		if err != nil {
			return id.Nil(), fmt.Errorf("insert currency %s: %w", c.code, err)
		}
		if tag.RowsAffected() == 0 {
			currencyID, err = fetchCatalogID(ctx, pool, "cat_currencies", c.code)
			if err != nil {
				return id.Nil(), err
			}
		}
		if c.code == "USD" {
			usdID = currencyID
		}
	}

	log.Infow("seeded currencies", "count", len(currencies))
	return usdID, nil
}

func seedItems(ctx context.Context, pool *postgres.Pool, log *logger.Logger, units map[string]string) (map[string]seededItem, error) {
	year := time.Now().Format("2006")
	code := func(n int) string { return fmt.Sprintf("ITM-%s-%05d", year, n) }

	items := []struct {
		code        string
		name        string
		kind        string
		unit        string
		shelfDays   int
		description string
	}{
		{code(1), "Wheat Grain", "material", "kg", 365, "Raw milling wheat"},
		{code(2), "Premium Wheat Flour", "product", "kg", 180, "Extra grade, 10 kg and 50 kg packing"},
		{code(3), "First Grade Flour", "product", "kg", 180, ""},
		{code(4), "Wheat Bran", "product", "kg", 90, "Milling by-product"},
		{code(5), "Poly Bag 50 kg", "material", "pcs", 0, "Packaging"},
	}

	seeded := make(map[string]seededItem, len(items))
	for _, it := range items {
		itemID := id.New()
		tag, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_items (
				id, code, name, kind, unit_id, status,
				shelf_life_days, description, version
			)
			VALUES ($1, $2, $3, $4, $5, 'active', $6, NULLIF($7, ''), 1)
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, itemID, it.code, it.name, it.kind, units[it.unit], it.shelfDays, it.description)
		if err != nil {
			return nil, fmt.Errorf("insert item %s: %w", it.name, err)
		}
		if tag.RowsAffected() == 0 {
			itemID, err = fetchCatalogID(ctx, pool, "cat_items", it.code)
			if err != nil {
				return nil, err
			}
		}
		seeded[it.name] = seededItem{ID: itemID, Code: it.code}
	}

	codes := make([]string, 0, len(items))
	for _, it := range items {
		codes = append(codes, it.code)
	}
	if err := advanceSequence(ctx, pool, "ITM", codes); err != nil {
		return nil, fmt.Errorf("advance item sequence: %w", err)
	}

	log.Infow("seeded items", "count", len(items))
	return seeded, nil
}

func seedSuppliers(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	year := time.Now().Format("2006")
	code := func(n int) string { return fmt.Sprintf("SUP-%s-%05d", year, n) }

	suppliers := []struct {
		code    string
		name    string
		taxID   string
		contact string
		phone   string
		email   string
		address string
	}{
		{code(1), "Golden Plains Grain Co.", "7701234567", "Maria Petrova", "+1-202-555-0134", "sales@goldenplains.example", "12 Elevator Rd, Wichita, KS"},
		{code(2), "Prairie Harvest Ltd.", "5009876543", "Tom Becker", "+1-202-555-0188", "grain@prairieharvest.example", ""},
	}

	for _, s := range suppliers {
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_suppliers (
				id, code, name, tax_id, contact_person, phone, email,
				address, status, version
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), 'active', 1)
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, id.New(), s.code, s.name, s.taxID, s.contact, s.phone, s.email, s.address)
		if err != nil {
			return fmt.Errorf("insert supplier %s: %w", s.name, err)
		}
	}

	codes := make([]string, 0, len(suppliers))
	for _, s := range suppliers {
		codes = append(codes, s.code)
	}
	if err := advanceSequence(ctx, pool, "SUP", codes); err != nil {
		return fmt.Errorf("advance supplier sequence: %w", err)
	}

	log.Infow("seeded suppliers", "count", len(suppliers))
	return nil
}

func seedItemPrices(ctx context.Context, pool *postgres.Pool, log *logger.Logger, items map[string]seededItem, currencyID id.ID) error {
	year := time.Now().Format("2006")
	code := func(n int) string { return fmt.Sprintf("PRC-%s-%05d", year, n) }
	validFrom := time.Now().AddDate(0, 0, -30)

	prices := []struct {
		item      string
		priceType string
		price     types.Money
	}{
		{"Wheat Grain", "purchase", types.MustMoney("0.24")},
		{"Poly Bag 50 kg", "purchase", types.MustMoney("0.35")},
		{"Premium Wheat Flour", "sale", types.MustMoney("0.68")},
		{"First Grade Flour", "sale", types.MustMoney("0.55")},
		{"Wheat Bran", "sale", types.MustMoney("0.19")},
	}

	codes := make([]string, 0, len(prices))
	for n, p := range prices {
		item, ok := items[p.item]
		if !ok {
			return fmt.Errorf("price references unknown item %q", p.item)
		}
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_item_prices (
				id, code, name, item_id, currency_id, price_type,
				price, valid_from, version
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, id.New(), code(n+1), fmt.Sprintf("%s, %s", p.item, p.priceType),
			item.ID, currencyID, p.priceType, p.price, validFrom)
		if err != nil {
			return fmt.Errorf("insert price for %s: %w", p.item, err)
		}
		codes = append(codes, code(n+1))
	}

	if err := advanceSequence(ctx, pool, "PRC", codes); err != nil {
		return fmt.Errorf("advance price sequence: %w", err)
	}

	log.Infow("seeded item prices", "count", len(prices))
	return nil
}

// seedFeatureFlags provisions the flags the ledger engine consults at
// runtime. The depleted-batch bypass must exist and be enabled, otherwise
// sales fail: the sales ledger's own running stock sits at or below zero
// and only the upstream availability check guards it.
func seedFeatureFlags(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	flags := []struct {
		name        string
		description string
		enabled     bool
	}{
		{security.FlagDepletedBatchBypass, "Skip the availability check for depleted batches", true},
	}

	for _, f := range flags {
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO sys_feature_flags (id, flag_name, description, is_enabled)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (flag_name) DO NOTHING
		`, id.New(), f.name, f.description, f.enabled)
		if err != nil {
			return fmt.Errorf("insert feature flag %s: %w", f.name, err)
		}
	}

	log.Infow("seeded feature flags", "count", len(flags))
	return nil
}

// seedLedgerHistory replays a month of mill activity through the ledger
// service, so running balances, document numbers and batch links come out
// exactly as they would from the API.
func seedLedgerHistory(ctx context.Context, pool *postgres.Pool, txManager *postgres.TxManager, log *logger.Logger, adminID id.ID, items map[string]seededItem) error {
	var existing int
	if err := pool.Pool.QueryRow(ctx, `SELECT count(*) FROM ldg_material_receive_issue`).Scan(&existing); err != nil {
		return fmt.Errorf("check ledger history: %w", err)
	}
	if existing > 0 {
		log.Info("ledger history already present, skipping")
		return nil
	}

	// The audit stamps read the user from the context, same as a request.
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: adminID.String(), IsAdmin: true})

	resolver := masterdata.NewResolver(catalog_repo.NewItemRepo(), nil, nil)
	svc := ledger.NewService(ledger.ServiceConfig{
		Registry:  ledger.DefaultRegistry(),
		Repo:      ledger_repo.NewRecordRepo(),
		Items:     resolver,
		TxManager: txManager,
		Numerator: numerator.New(pool.Unwrap()),
	})

	now := time.Now().UTC()
	day := func(daysAgo int) time.Time { return now.AddDate(0, 0, -daysAgo) }
	expiryIn := func(from time.Time, days int) *time.Time {
		e := from.AddDate(0, 0, days)
		return &e
	}

	create := func(lt ledger.Type, activity, item, batch string, qty float64, date time.Time, expiry *time.Time, note string) (string, error) {
		rec := entity.NewLedgerRecord()
		rec.Date = date
		rec.Activity = activity
		rec.ItemName = item
		rec.Batch = batch
		rec.Quantity = types.NewQuantityFromFloat64(qty)
		rec.ExpiryDate = expiry
		rec.Note = note
		if err := svc.Create(ctx, lt, &rec); err != nil {
			return "", fmt.Errorf("%s %s %s: %w", lt, activity, item, err)
		}
		return rec.Batch, nil
	}

	// Purchased materials arrive with the expiry from the delivery papers;
	// the batch is auto-numbered from the item code and date.
	grainBatch, err := create(ledger.TypeMaterialReceiveIssue, ledger.ActivityReceive,
		"Wheat Grain", "", 5000, day(14), expiryIn(day(14), 365), "PO-2031, Golden Plains Grain Co.")
	if err != nil {
		return err
	}
	if _, err := create(ledger.TypeMaterialReceiveIssue, ledger.ActivityReceive,
		"Poly Bag 50 kg", "", 2000, day(14), expiryIn(day(14), 1095), "PO-2032, packaging stock"); err != nil {
		return err
	}
	if _, err := create(ledger.TypeMaterialReceiveIssue, ledger.ActivityIssue,
		"Wheat Grain", grainBatch, 3600, day(12), nil, "To mill, shift 1"); err != nil {
		return err
	}

	// Milling run: production births the product batches, transfers move
	// them to the finished goods store.
	premiumBatch, err := create(ledger.TypeProductionMovement, ledger.ActivityProduction,
		"Premium Wheat Flour", "", 1800, day(11), expiryIn(day(11), 180), "Milling run 114")
	if err != nil {
		return err
	}
	firstBatch, err := create(ledger.TypeProductionMovement, ledger.ActivityProduction,
		"First Grade Flour", "", 900, day(11), expiryIn(day(11), 180), "Milling run 114")
	if err != nil {
		return err
	}
	branBatch, err := create(ledger.TypeProductionMovement, ledger.ActivityProduction,
		"Wheat Bran", "", 600, day(11), expiryIn(day(11), 90), "Milling run 114")
	if err != nil {
		return err
	}
	for _, t := range []struct {
		item  string
		batch string
		qty   float64
	}{
		{"Premium Wheat Flour", premiumBatch, 1500},
		{"First Grade Flour", firstBatch, 900},
		{"Wheat Bran", branBatch, 600},
	} {
		if _, err := create(ledger.TypeProductionMovement, ledger.ActivityTransfer,
			t.item, t.batch, t.qty, day(10), nil, "To finished goods store"); err != nil {
			return err
		}
	}
	if _, err := create(ledger.TypeProductionMovement, ledger.ActivityWastage,
		"Premium Wheat Flour", premiumBatch, 25, day(10), nil, "Sifter cleanout"); err != nil {
		return err
	}

	// Finished goods store receives the transfers; expiry dates come from
	// the production records, so none are passed here.
	for _, r := range []struct {
		item  string
		batch string
		qty   float64
	}{
		{"Premium Wheat Flour", premiumBatch, 1500},
		{"First Grade Flour", firstBatch, 900},
		{"Wheat Bran", branBatch, 600},
	} {
		if _, err := create(ledger.TypeProductReceiveIssue, ledger.ActivityReceive,
			r.item, r.batch, r.qty, day(10), nil, ""); err != nil {
			return err
		}
	}
	if _, err := create(ledger.TypeProductReceiveIssue, ledger.ActivityIssue,
		"Premium Wheat Flour", premiumBatch, 40, day(9), nil, "Staff shop"); err != nil {
		return err
	}
	if _, err := create(ledger.TypeProductReceiveIssue, ledger.ActivitySample,
		"Premium Wheat Flour", premiumBatch, 5, day(9), nil, "Lab retention sample"); err != nil {
		return err
	}
	if _, err := create(ledger.TypeProductReceiveIssue, ledger.ActivityGift,
		"Premium Wheat Flour", premiumBatch, 10, day(8), nil, "Trade fair"); err != nil {
		return err
	}
	if _, err := create(ledger.TypeProductReceiveIssue, ledger.ActivityPromotion,
		"First Grade Flour", firstBatch, 15, day(8), nil, "Bakery promo packs"); err != nil {
		return err
	}
	if _, err := create(ledger.TypeProductReceiveIssue, ledger.ActivityWaste,
		"Wheat Bran", branBatch, 15, day(8), nil, "Moisture damage"); err != nil {
		return err
	}

	// Sales draw on the received product batches.
	if _, err := create(ledger.TypeDailySales, ledger.ActivitySale,
		"Premium Wheat Flour", premiumBatch, 420, day(7), nil, "Order SO-1088"); err != nil {
		return err
	}
	if _, err := create(ledger.TypeDailySales, ledger.ActivitySale,
		"First Grade Flour", firstBatch, 300, day(7), nil, "Order SO-1090"); err != nil {
		return err
	}
	if _, err := create(ledger.TypeDailySales, ledger.ActivitySale,
		"Premium Wheat Flour", premiumBatch, 260, day(5), nil, "Order SO-1102"); err != nil {
		return err
	}
	if _, err := create(ledger.TypeDailySales, ledger.ActivitySalesReturn,
		"Premium Wheat Flour", premiumBatch, 30, day(3), expiryIn(day(11), 180), "Torn bags, order SO-1088"); err != nil {
		return err
	}
	if _, err := create(ledger.TypeProductReceiveIssue, ledger.ActivityReturn,
		"Premium Wheat Flour", premiumBatch, 30, day(3), expiryIn(day(11), 180), "Customer return, order SO-1088"); err != nil {
		return err
	}

	// Rework cycle: a complained lot comes back under its own batch, goes
	// to the floor and returns re-sifted. The receive leg sources its
	// expiry from the customer rework record.
	reworkBatch := items["First Grade Flour"].Code + "-RW1"
	if _, err := create(ledger.TypeProductReceiveIssue, ledger.ActivityReceiveCustomerRework,
		"First Grade Flour", reworkBatch, 60, day(6), expiryIn(day(11), 180), "Customer complaint, caked lumps"); err != nil {
		return err
	}
	if _, err := create(ledger.TypeProductReceiveIssue, ledger.ActivityIssueProdRework,
		"First Grade Flour", reworkBatch, 60, day(5), nil, "Re-sifting"); err != nil {
		return err
	}
	if _, err := create(ledger.TypeProductReceiveIssue, ledger.ActivityReceiveProdRework,
		"First Grade Flour", reworkBatch, 58, day(4), nil, "Re-sifted, 2 kg loss"); err != nil {
		return err
	}

	log.Info("seeded ledger history")
	return nil
}
