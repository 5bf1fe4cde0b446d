package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	pkgID := seedPackage(db)
	seedTiers(db, pkgID)
	seedGroupRules(db, pkgID)
	seedSeasonalRules(db, pkgID)
	seedTimeDiscounts(db, pkgID)
	seedDepartures(db, pkgID)
	seedAddons(db, pkgID)
	seedBlockedDates(db, pkgID)
	seedPromotions(db, pkgID)

	log.Println("Seeding completed successfully!")
}

func seedPackage(db *sql.DB) string {
	fmt.Println("Seeding Package...")
	var id string
	err := db.QueryRow(`
		SELECT id FROM packages WHERE name = 'Komodo Liveaboard 4D3N'
	`).Scan(&id)
	if err == nil {
		return id
	}
	err = db.QueryRow(`
		INSERT INTO packages (name, currency, use_custom_tiers, min_group_size, max_group_size)
		VALUES ('Komodo Liveaboard 4D3N', 'USD', false, 1, 16)
		RETURNING id;
	`).Scan(&id)
	if err != nil {
		log.Fatalf("Failed to seed package: %v", err)
	}
	return id
}

func seedTiers(db *sql.DB, pkgID string) {
	tiers := []struct {
		Type  string
		Label string
		Price int64
	}{
		{"adult", "Adult (12+)", 450_00},
		{"child", "Child (2-11)", 315_00},
		{"infant", "Infant (0-1)", 0},
		{"senior", "Senior (65+)", 405_00},
	}

	fmt.Println("Seeding Tiers...")
	for _, t := range tiers {
		_, err := db.Exec(`
			INSERT INTO pricing_tiers (package_id, tier_type, label, selling_price)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING;
		`, pkgID, t.Type, t.Label, t.Price)
		if err != nil {
			log.Printf("Failed to seed tier %s: %v", t.Type, err)
		}
	}
}

func seedGroupRules(db *sql.DB, pkgID string) {
	rules := []struct {
		Min   int
		Max   *int
		Kind  string
		Value int64
	}{
		{6, intp(9), "percentage", 500},
		{10, intp(16), "percentage", 1000},
	}

	fmt.Println("Seeding Group Rules...")
	for _, r := range rules {
		_, err := db.Exec(`
			INSERT INTO group_pricing_rules (package_id, min_size, max_size, adjust_kind, adjust_value)
			VALUES ($1, $2, $3, $4, $5);
		`, pkgID, r.Min, r.Max, r.Kind, r.Value)
		if err != nil {
			log.Printf("Failed to seed group rule %d-%v: %v", r.Min, r.Max, err)
		}
	}
}

func seedSeasonalRules(db *sql.DB, pkgID string) {
	fmt.Println("Seeding Seasonal Rules...")
	// High season surcharge over the July-August window, low season discount in February.
	seasons := []struct {
		Start string
		End   string
		Kind  string
		Value int64
	}{
		{"2026-07-01", "2026-08-31", "percentage", -1500},
		{"2026-02-01", "2026-02-28", "percentage", 1000},
	}
	for _, s := range seasons {
		_, err := db.Exec(`
			INSERT INTO seasonal_pricing_rules (package_id, start_date, end_date, adjust_kind, adjust_value)
			VALUES ($1, $2, $3, $4, $5);
		`, pkgID, s.Start, s.End, s.Kind, s.Value)
		if err != nil {
			log.Printf("Failed to seed seasonal rule %s: %v", s.Start, err)
		}
	}
}

func seedTimeDiscounts(db *sql.DB, pkgID string) {
	fmt.Println("Seeding Time Discounts...")
	discounts := []struct {
		Type      string
		Threshold int
		Value     int64
	}{
		{"early_bird", 60, 1000},
		{"last_minute", 7, 1500},
	}
	for _, d := range discounts {
		_, err := db.Exec(`
			INSERT INTO time_based_discounts (package_id, discount_type, threshold_days, adjust_kind, adjust_value)
			VALUES ($1, $2, $3, 'percentage', $4);
		`, pkgID, d.Type, d.Threshold, d.Value)
		if err != nil {
			log.Printf("Failed to seed time discount %s: %v", d.Type, err)
		}
	}
}

func seedDepartures(db *sql.DB, pkgID string) {
	fmt.Println("Seeding Departures...")
	_, err := db.Exec(`
		INSERT INTO departure_pricing (package_id, departure_date, tier_prices)
		VALUES ($1, '2026-12-28', '{"adult": 60000, "child": 42000}'::jsonb)
		ON CONFLICT (package_id, departure_date) DO UPDATE SET tier_prices = EXCLUDED.tier_prices;
	`, pkgID)
	if err != nil {
		log.Printf("Failed to seed departure: %v", err)
	}
}

func seedAddons(db *sql.DB, pkgID string) {
	addons := []struct {
		Name     string
		Pricing  string
		Price    int64
		MinQty   int
		MaxQty   *int
		Required bool
	}{
		{"National park entrance fee", "per_person", 25_00, 1, nil, true},
		{"Airport transfer", "per_group", 40_00, 0, intp(2), false},
		{"Dive equipment rental", "per_unit", 35_00, 0, intp(10), false},
	}

	fmt.Println("Seeding Addons...")
	for _, a := range addons {
		_, err := db.Exec(`
			INSERT INTO addons (package_id, name, pricing_type, unit_price, min_quantity, max_quantity, is_required)
			VALUES ($1, $2, $3, $4, $5, $6, $7);
		`, pkgID, a.Name, a.Pricing, a.Price, a.MinQty, a.MaxQty, a.Required)
		if err != nil {
			log.Printf("Failed to seed addon %s: %v", a.Name, err)
		}
	}
}

func seedBlockedDates(db *sql.DB, pkgID string) {
	fmt.Println("Seeding Blocked Dates...")
	_, err := db.Exec(`
		INSERT INTO blocked_date_ranges (package_id, start_date, end_date, reason)
		VALUES ($1, '2026-01-10', '2026-01-20', 'Annual vessel maintenance');
	`, pkgID)
	if err != nil {
		log.Printf("Failed to seed blocked range: %v", err)
	}
}

func seedPromotions(db *sql.DB, pkgID string) {
	fmt.Println("Seeding Promotions...")
	promos := []struct {
		Code     string
		Scoped   bool
		MinSpend int64
		Kind     string
		Value    int64
	}{
		{"WELCOME10", false, 0, "percentage", 1000},
		{"KOMODO50", true, 500_00, "fixed_amount", 50_00},
	}
	for _, p := range promos {
		var scope any
		if p.Scoped {
			scope = pkgID
		}
		_, err := db.Exec(`
			INSERT INTO promotions (code, package_id, min_spend, adjust_kind, adjust_value, valid_from, valid_to)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW() + INTERVAL '1 year')
			ON CONFLICT DO NOTHING;
		`, p.Code, scope, p.MinSpend, p.Kind, p.Value)
		if err != nil {
			log.Printf("Failed to seed promotion %s: %v", p.Code, err)
		}
	}
}

func intp(v int) *int { return &v }
