package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/prepmatch/mentor-booking/internal/db"
	"github.com/prepmatch/mentor-booking/internal/pricing"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedTierBounds(context.Background(), pool); err != nil {
		log.Fatalf("seed tier bounds: %v", err)
	}
	if err := seedMentors(context.Background(), pool, 50); err != nil {
		log.Fatalf("seed mentors: %v", err)
	}
	if err := seedCandidates(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed candidates: %v", err)
	}

	log.Println("seed complete")
}

type tierRange struct {
	tier pricing.Tier
	min  int
	max  int
}

var tierRanges = []tierRange{
	{pricing.TierBronze, 300, 800},
	{pricing.TierSilver, 500, 1500},
	{pricing.TierGold, 1200, 3000},
}

func seedTierBounds(ctx context.Context, pool *pgxpool.Pool) error {
	log.Println("seeding tier bounds")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, tr := range tierRanges {
		_, err := tx.Exec(ctx, `
			INSERT INTO tier_bounds (tier, min_rate, max_rate)
			VALUES ($1, $2, $3)
			ON CONFLICT (tier) DO UPDATE SET min_rate = $2, max_rate = $3
		`, tr.tier, tr.min, tr.max)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedMentors(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d mentors", count)

	headlines := []string{
		"Staff Engineer, ex-FAANG interviewer",
		"Engineering Manager, 500+ interviews conducted",
		"Senior SWE, system design specialist",
		"Principal Engineer, backend and distributed systems",
		"Tech Lead, behavioral and HR round coaching",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		tr := tierRanges[gofakeit.Number(0, len(tierRanges)-1)]
		rate := decimal.NewFromInt(int64(gofakeit.Number(tr.min, tr.max)))
		headline := headlines[gofakeit.Number(0, len(headlines)-1)]

		mentorID := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO mentors (id, name, email, headline, tier, session_rate, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		`, mentorID, gofakeit.Name(), gofakeit.Email(), headline, tr.tier, rate)
		if err != nil {
			return err
		}

		if err := seedWindows(ctx, tx, mentorID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("mentors seeded")
	return nil
}

// seedWindows gives each mentor evening hours on a random subset of
// weekdays plus a weekend morning block, mirroring how mentors on the
// platform actually set themselves up.
func seedWindows(ctx context.Context, tx pgx.Tx, mentorID uuid.UUID) error {
	for wd := time.Monday; wd <= time.Friday; wd++ {
		if gofakeit.Bool() {
			continue
		}
		if err := insertWindow(ctx, tx, mentorID, wd, 18*60, 21*60); err != nil {
			return err
		}
	}
	if gofakeit.Bool() {
		if err := insertWindow(ctx, tx, mentorID, time.Saturday, 10*60, 13*60); err != nil {
			return err
		}
	}
	return nil
}

func insertWindow(ctx context.Context, tx pgx.Tx, mentorID uuid.UUID, weekday time.Weekday, startMinute, endMinute int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO availability_windows (id, mentor_id, weekday, start_minute, end_minute, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, true, now(), now())
	`, uuid.New(), mentorID, int(weekday), startMinute, endMinute)
	return err
}

func seedCandidates(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d candidates", count)

	profiles := []string{
		"Backend SWE at a Series B startup",
		"Frontend engineer targeting senior roles",
		"New grad preparing for big tech loops",
		"SRE moving into platform engineering",
		"Data engineer switching to backend",
	}

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			profile := profiles[gofakeit.Number(0, len(profiles)-1)]
			_, err := tx.Exec(ctx, `
				INSERT INTO candidates (id, name, email, target_profile, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
			`, uuid.New(), gofakeit.Name(), gofakeit.Email(), profile)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("candidates seeded: %d/%d", end, count)
	}

	log.Println("candidates seeded")
	return nil
}
