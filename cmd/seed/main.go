package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"photoframe-saas/internal/config"
	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/model"
	pg "photoframe-saas/internal/infra/db/postgres"
)

// Seeds the minimum state a fresh database needs: the invoice counter row,
// the configured admin user, and a starter coupon for smoke testing.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx,
		`INSERT INTO invoice_counter (id, last_invoice_number) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;`,
	); err != nil {
		log.Fatalf("invoice counter: %v", err)
	}
	fmt.Println("invoice counter ready")

	if cfg.Admin.Email != "" {
		userRepo := pg.NewUserRepo(pool)
		if _, err := userRepo.FindByEmail(ctx, nil, cfg.Admin.Email); errors.Is(err, domain.ErrNotFound) {
			u := &model.User{
				ID:           uuid.NewString(),
				Email:        cfg.Admin.Email,
				IsAdmin:      true,
				RegisteredAt: time.Now(),
			}
			if err := userRepo.Save(ctx, nil, u); err != nil {
				log.Fatalf("seed admin: %v", err)
			}
			fmt.Printf("seeded admin: %s (id=%s)\n", u.Email, u.ID)
		} else if err != nil {
			log.Fatalf("lookup admin: %v", err)
		} else {
			fmt.Printf("admin %s already present\n", cfg.Admin.Email)
		}
	}

	couponRepo := pg.NewCouponRepo(pool)
	code := "WELCOME10"
	if _, err := couponRepo.FindByCode(ctx, nil, code); errors.Is(err, domain.ErrNotFound) {
		c := &model.Coupon{
			Code:      code,
			Type:      model.CouponTypePercent,
			Value:     10,
			IsActive:  true,
			CreatedAt: time.Now(),
		}
		if err := couponRepo.Save(ctx, nil, c); err != nil {
			log.Fatalf("seed coupon: %v", err)
		}
		fmt.Printf("seeded coupon: %s (10%% off, all plans)\n", code)
	} else if err != nil {
		log.Fatalf("lookup coupon: %v", err)
	} else {
		fmt.Printf("coupon %s already present\n", code)
	}

	fmt.Println("seeding complete")
}
