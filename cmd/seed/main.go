package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/blood-donation-coordination/internal/config"
	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/geo"
	"github.com/hackgods/blood-donation-coordination/internal/inventory"
	"github.com/hackgods/blood-donation-coordination/internal/logger"
)

type seedConfig struct {
	CenterLat  float64 `env:"SEED_CENTER_LAT" envDefault:"41.0082"`
	CenterLon  float64 `env:"SEED_CENTER_LON" envDefault:"28.9784"`
	RadiusKm   float64 `env:"SEED_RADIUS_KM" envDefault:"60"`
	Hospitals  int     `env:"SEED_HOSPITALS" envDefault:"20"`
	Donors     int     `env:"SEED_DONORS" envDefault:"2000"`
	StockUnits int     `env:"SEED_STOCK_UNITS" envDefault:"20"`
}

// rough share of each blood type in the donor population
var bloodTypeWeights = []float32{34, 6, 9, 2, 3, 1, 38, 7}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	var sc seedConfig
	if err := env.Parse(&sc); err != nil {
		log.Fatalf("seed config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, "console", "seed")
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.DBMaxConns)
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	s := &seeder{
		pool:   pool,
		faker:  gofakeit.New(0),
		center: domain.Point{Lat: sc.CenterLat, Lon: sc.CenterLon},
		radius: sc.RadiusKm,
		log:    zl,
	}

	hospitals, err := s.seedHospitals(ctx, sc.Hospitals, sc.StockUnits)
	if err != nil {
		zl.Fatal("seed hospitals", zap.Error(err))
	}
	if err := s.seedDonors(ctx, sc.Donors); err != nil {
		zl.Fatal("seed donors", zap.Error(err))
	}

	for _, id := range hospitals {
		zl.Info("hospital admin id", zap.String("hospital_id", id.String()))
	}
	zl.Info("seed complete", zap.Int("hospitals", len(hospitals)), zap.Int("donors", sc.Donors))
}

type seeder struct {
	pool   *pgxpool.Pool
	faker  *gofakeit.Faker
	center domain.Point
	radius float64
	log    *zap.Logger
}

// randomPoint picks a point uniformly inside the seeding radius.
func (s *seeder) randomPoint() domain.Point {
	const kmPerDegree = 111.32
	dist := s.radius * math.Sqrt(s.faker.Float64Range(0, 1))
	bearing := s.faker.Float64Range(0, 2*math.Pi)

	dLat := dist * math.Cos(bearing) / kmPerDegree
	dLon := dist * math.Sin(bearing) / (kmPerDegree * math.Cos(s.center.Lat*math.Pi/180))
	return domain.Point{Lat: s.center.Lat + dLat, Lon: s.center.Lon + dLon}
}

func (s *seeder) bloodType() domain.BloodType {
	var total float32
	for _, w := range bloodTypeWeights {
		total += w
	}
	r := s.faker.Float32Range(0, total)
	for i, w := range bloodTypeWeights {
		if r < w {
			return domain.BloodTypes[i]
		}
		r -= w
	}
	return domain.BloodTypeOPos
}

func (s *seeder) seedHospitals(ctx context.Context, count, stockUnits int) ([]uuid.UUID, error) {
	s.log.Info("seeding hospitals", zap.Int("count", count))

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stock := inventory.NewPgRepository()
	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		p := s.randomPoint()
		addr := s.faker.Address()

		var id uuid.UUID
		err := tx.QueryRow(ctx, `
			INSERT INTO hospitals (name, address, phone, contact_email, location)
			VALUES ($1, $2, $3, $4, `+geo.PointSQL(5, 6)+`)
			RETURNING id
		`, fmt.Sprintf("%s Hospital", s.faker.LastName()), addr.Address, s.faker.Phone(), s.faker.Email(), p.Lat, p.Lon).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert hospital: %w", err)
		}

		for _, bt := range domain.BloodTypes {
			units := s.faker.Number(0, stockUnits)
			if units == 0 {
				continue
			}
			if _, err := inventory.Adjust(ctx, stock, tx, id, bt, units, inventory.ReasonManual, nil); err != nil {
				return nil, fmt.Errorf("seed stock: %w", err)
			}
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.log.Info("hospitals seeded")
	return ids, nil
}

func (s *seeder) seedDonors(ctx context.Context, count int) error {
	s.log.Info("seeding donors", zap.Int("count", count))

	const batchSize = 500
	today := time.Now().UTC().Truncate(24 * time.Hour)

	for offset := 0; offset < count; offset += batchSize {
		end := min(offset+batchSize, count)

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			p := s.randomPoint()
			contact := domain.ContactEmail
			if s.faker.Number(1, 4) == 1 {
				contact = domain.ContactSMS
			}

			var lastDonation *time.Time
			if s.faker.Bool() {
				d := today.AddDate(0, 0, -s.faker.Number(1, 365))
				lastDonation = &d
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO donors (full_name, email, phone, blood_type, location,
				                    last_donation_date, alerts_opt_in, preferred_contact)
				VALUES ($1, $2, $3, $4, `+geo.PointSQL(5, 6)+`, $7, $8, $9)
			`, s.faker.Name(), s.faker.Email(), s.faker.Phone(), string(s.bloodType()),
				p.Lat, p.Lon, lastDonation, s.faker.Number(1, 10) > 1, string(contact))
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		s.log.Info("donors seeded", zap.Int("done", end), zap.Int("total", count))
	}

	s.log.Info("donors seeded")
	return nil
}
