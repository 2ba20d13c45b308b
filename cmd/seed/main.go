package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"creator-ledger/internal/config"
	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/domain/ports/repository"
	pg "creator-ledger/internal/infra/db/postgres"
)

// defaultCatalog is the JPY plan set. Prices are in yen.
var defaultCatalog = []struct {
	ID    string
	Name  string
	Price int64
	Cycle model.BillingCycle
}{
	{"basic", "Basic", 980, model.BillingCycleMonthly},
	{"premium", "Premium", 1980, model.BillingCycleMonthly},
	{"premium_yearly", "Premium (yearly)", 19800, model.BillingCycleYearly},
}

func main() {
	var (
		cfgPath string
		dev     bool
		demo    bool
	)
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Insert the default plan catalog when the database has none",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(cfgPath, dev)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return seed(ctx, cfg, demo)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to YAML config file")
	cmd.Flags().BoolVar(&dev, "dev", false, "relaxed config validation")
	cmd.Flags().BoolVar(&demo, "demo", false, "also insert a demo creator, viewer and video")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg *config.Config, demo bool) error {
	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	planRepo := pg.NewPostgresPlanRepo(pool)

	// If plans already exist, do nothing
	plans, err := planRepo.ListActive(ctx, repository.NoTX)
	if err != nil {
		return fmt.Errorf("list plans: %w", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (%s, %d %s, %s)\n", p.ID, p.Name, p.Price, p.Currency, p.BillingCycle)
		}
	} else {
		for _, s := range defaultCatalog {
			p, err := model.NewSubscriptionPlan(s.ID, s.Name, s.Price, "JPY", s.Cycle, cfg.Payment.Provider)
			if err != nil {
				return fmt.Errorf("plan %q: %w", s.ID, err)
			}
			if err := planRepo.Save(ctx, repository.NoTX, p); err != nil {
				return fmt.Errorf("save plan %q: %w", s.ID, err)
			}
			fmt.Printf("seeded: %s (%s, %d JPY, %s)\n", p.ID, p.Name, p.Price, p.BillingCycle)
		}
		for _, s := range defaultCatalog {
			if _, ok := cfg.Payment.PriceRef(s.ID); !ok && cfg.Payment.Provider != "noop" {
				fmt.Printf("warning: payment.plans.%s.price_ref is not configured; checkout will fail for this plan\n", s.ID)
			}
		}
	}

	if !demo {
		return nil
	}
	users := pg.NewPostgresUserRepo(pool)
	videos := pg.NewPostgresVideoRepo(pool)
	creator := &model.User{ID: uuid.NewString(), Email: "creator@example.com"}
	viewer := &model.User{ID: uuid.NewString(), Email: "viewer@example.com"}
	for _, u := range []*model.User{creator, viewer} {
		if err := users.Save(ctx, repository.NoTX, u); err != nil {
			return fmt.Errorf("save user %s: %w", u.Email, err)
		}
	}
	videoID := uuid.NewString()
	if err := videos.Save(ctx, repository.NoTX, videoID, creator.ID); err != nil {
		return fmt.Errorf("save video: %w", err)
	}
	fmt.Printf("demo creator=%s viewer=%s video=%s\n", creator.ID, viewer.ID, videoID)
	return nil
}
