// cmd/seed creates (or resets) a staff admin and, with -demo, a small plant
// catalogue with opening stock.
// Usage: go run ./cmd/seed -username admin -password 'changeme' -demo
package main

import (
	"flag"
	"os"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/config"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/infra"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type demoProduct struct {
	name     string
	category string
	price    string
	unit     string
	quantity int
}

var demoCatalogue = []demoProduct{
	{"Monstera deliciosa", "tropical", "24.90", "piece", 35},
	{"Strelitzia nicolai", "tropical", "59.00", "piece", 8},
	{"Olea europaea 12L", "trees", "89.50", "piece", 12},
	{"Lavandula angustifolia", "perennials", "4.20", "piece", 140},
	{"Universal potting soil 50L", "substrates", "9.80", "bag", 60},
	{"Pink Floyd roses", "cut flowers", "1.35", "stem", 400},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	username := flag.String("username", "admin", "staff username")
	password := flag.String("password", "", "staff password (required)")
	name := flag.String("name", "Administrator", "display name")
	role := flag.String("role", "admin", "admin | manager")
	demo := flag.Bool("demo", false, "also seed the demo catalogue")
	flag.Parse()

	if len(*password) < 8 {
		log.Fatal().Msg("seed: -password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt")
	}
	user := model.StaffUser{
		Username:     *username,
		Name:         *name,
		PasswordHash: string(hash),
		Role:         *role,
		Active:       true,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "password_hash", "role", "active", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		log.Fatal().Err(err).Msg("seed: staff user")
	}
	log.Info().Str("username", *username).Str("role", *role).Msg("seed: staff user created or updated")

	if *demo {
		n, err := seedCatalogue(db, *username)
		if err != nil {
			log.Fatal().Err(err).Msg("seed: demo catalogue")
		}
		log.Info().Int("products", n).Msg("seed: demo catalogue ready")
	}
}

// seedCatalogue inserts the products that do not exist yet, each with an
// opening incoming movement so the log replays to the seeded quantity.
func seedCatalogue(db *gorm.DB, actor string) (int, error) {
	created := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, d := range demoCatalogue {
			var count int64
			if err := tx.Model(&model.Product{}).Where("name = ?", d.name).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			p := model.Product{
				Name:       d.name,
				Category:   d.category,
				Price:      decimal.RequireFromString(d.price),
				PriceUnit:  d.unit,
				TrackStock: true,
				Active:     true,
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			rec := model.NewStockRecord(p.ID)
			rec.Quantity = d.quantity
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
			mv := model.StockMovement{
				ProductID:         p.ID,
				Kind:              model.MovementIncoming,
				QuantityDelta:     d.quantity,
				RequestedQuantity: d.quantity,
				PreviousQuantity:  0,
				NewQuantity:       d.quantity,
				Reason:            "opening stock",
				CreatedBy:         actor,
			}
			if err := tx.Create(&mv).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	return created, err
}
