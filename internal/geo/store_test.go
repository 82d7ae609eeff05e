package geo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/blood-donation-coordination/internal/domain"
)

func floatPtr(f float64) *float64 { return &f }

func TestDonorLocation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	donorID := uuid.New()

	mock.ExpectQuery("FROM donors").
		WithArgs(donorID).
		WillReturnRows(pgxmock.NewRows([]string{"lat", "lon"}).AddRow(floatPtr(52.52), floatPtr(13.405)))

	p, err := store.DonorLocation(context.Background(), donorID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.InDelta(t, 52.52, p.Lat, 1e-9)
	assert.InDelta(t, 13.405, p.Lon, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonorLocationWithoutPoint(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	donorID := uuid.New()

	mock.ExpectQuery("FROM donors").
		WithArgs(donorID).
		WillReturnRows(pgxmock.NewRows([]string{"lat", "lon"}).AddRow((*float64)(nil), (*float64)(nil)))

	p, err := store.DonorLocation(context.Background(), donorID)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestHospitalLocationNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	hospitalID := uuid.New()

	mock.ExpectQuery("FROM hospitals").
		WithArgs(hospitalID).
		WillReturnRows(pgxmock.NewRows([]string{"lat", "lon"}))

	_, err = store.HospitalLocation(context.Background(), hospitalID)
	assert.ErrorIs(t, err, ErrHospitalNotFound)
}

func TestSetDonorLocationRejectsOutOfRange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	err = NewStore(mock).SetDonorLocation(context.Background(), uuid.New(), domain.Point{Lat: 91, Lon: 0})
	assert.True(t, domain.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonorsWithin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	cutoff := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	email := "donor@example.com"
	donorID := uuid.New()

	q := DonorQuery{
		Center:             domain.Point{Lat: 40.0, Lon: -3.7},
		RadiusKm:           50,
		BloodType:          domain.BloodTypeONeg,
		LastDonationBefore: cutoff,
	}

	mock.ExpectQuery("ST_DWithin").
		WithArgs(40.0, -3.7, "O-", cutoff, 50000.0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "full_name", "email", "phone", "blood_type", "lat", "lon",
			"last_donation_date", "alerts_opt_in", "preferred_contact",
			"created_at", "updated_at", "distance_km",
		}).AddRow(
			donorID, "Ana Ruiz", &email, (*string)(nil), domain.BloodTypeONeg, floatPtr(40.05), floatPtr(-3.7),
			(*time.Time)(nil), true, domain.ContactEmail,
			now, now, 5.56,
		))

	donors, err := store.DonorsWithin(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, donors, 1)
	assert.Equal(t, donorID, donors[0].ID)
	assert.Equal(t, domain.BloodTypeONeg, donors[0].BloodType)
	assert.InDelta(t, 5.56, donors[0].DistanceKm, 1e-9)
	require.NotNil(t, donors[0].Location)
	assert.InDelta(t, 40.05, donors[0].Location.Lat, 1e-9)
	assert.Nil(t, donors[0].Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonorsWithinZeroRadius(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	donors, err := NewStore(mock).DonorsWithin(context.Background(), DonorQuery{BloodType: domain.BloodTypeAPos})
	require.NoError(t, err)
	assert.Empty(t, donors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointSQL(t *testing.T) {
	assert.Equal(t, "ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography", PointSQL(1, 2))
}

func TestDistanceKm(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT ST_Distance").
		WithArgs(41.0, 29.0, 41.1, 29.0).
		WillReturnRows(pgxmock.NewRows([]string{"st_distance"}).AddRow(11120.0))

	km, err := NewStore(mock).DistanceKm(context.Background(), domain.Point{Lat: 41.0, Lon: 29.0}, domain.Point{Lat: 41.1, Lon: 29.0})
	require.NoError(t, err)
	assert.InDelta(t, 11.12, km, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
