package profile

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/blood-donation-coordination/internal/db"
	"github.com/hackgods/blood-donation-coordination/internal/domain"
	"github.com/hackgods/blood-donation-coordination/internal/geo"
)

type fixture struct {
	repo      *memRepo
	locations *memLocations
	svc       *Service
	donor     domain.Actor
	hospital  domain.Actor
}

func newFixture() *fixture {
	repo := newMemRepo()
	locations := &memLocations{repo: repo}
	donorID, hospitalID := uuid.New(), uuid.New()
	email := "ayse@example.com"
	repo.donors[donorID] = &domain.Donor{
		ID:               donorID,
		FullName:         "Ayse Yilmaz",
		Email:            &email,
		BloodType:        domain.BloodTypeONeg,
		AlertsOptIn:      true,
		PreferredContact: domain.ContactEmail,
	}
	repo.hospitals[hospitalID] = &domain.Hospital{ID: hospitalID, Name: "City Hospital"}

	svc := NewService(repo, nil, &lockingTx{}, zap.NewNop())
	svc.locations = func(db.DBTX) Locations { return locations }

	return &fixture{
		repo:      repo,
		locations: locations,
		svc:       svc,
		donor:     domain.Actor{UserID: donorID, Role: domain.RoleDonor},
		hospital:  domain.Actor{UserID: hospitalID, Role: domain.RoleHospitalAdmin},
	}
}

func ptr[T any](v T) *T { return &v }

func TestUpdateDonorProfileMakesDonorFindable(t *testing.T) {
	f := newFixture()

	before, err := f.svc.DonorProfile(context.Background(), f.donor)
	require.NoError(t, err)
	assert.Nil(t, before.Location)

	got, err := f.svc.UpdateDonorProfile(context.Background(), f.donor, DonorPatch{
		Phone:            ptr(" +90 555 000 11 22 "),
		Location:         &domain.Point{Lat: 41.0, Lon: 29.0},
		PreferredContact: ptr(domain.ContactSMS),
	})
	require.NoError(t, err)
	require.NotNil(t, got.Location)
	assert.Equal(t, domain.Point{Lat: 41.0, Lon: 29.0}, *got.Location)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "+90 555 000 11 22", *got.Phone)
	assert.Equal(t, domain.ContactSMS, got.PreferredContact)
	assert.Equal(t, "Ayse Yilmaz", got.FullName)

	got, err = f.svc.UpdateDonorProfile(context.Background(), f.donor, DonorPatch{
		AlertsOptIn: ptr(false),
		Phone:       ptr(""),
	})
	require.NoError(t, err)
	assert.False(t, got.AlertsOptIn)
	assert.Nil(t, got.Phone)
	assert.NotNil(t, got.Location)
}

func TestUpdateDonorProfileValidation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name  string
		patch DonorPatch
	}{
		{name: "empty", patch: DonorPatch{}},
		{name: "blank name", patch: DonorPatch{FullName: ptr("   ")}},
		{name: "blood type", patch: DonorPatch{BloodType: ptr(domain.BloodType("C+"))}},
		{name: "contact", patch: DonorPatch{PreferredContact: ptr(domain.ContactChannel("pigeon"))}},
		{name: "latitude", patch: DonorPatch{Location: &domain.Point{Lat: 91, Lon: 0}}},
		{name: "nan", patch: DonorPatch{Location: &domain.Point{Lat: math.NaN(), Lon: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateDonorProfile(context.Background(), f.donor, tt.patch)
			assert.True(t, domain.IsValidation(err), err)
		})
	}
	assert.Nil(t, f.repo.donors[f.donor.UserID].Location)
}

func TestDonorProfileRoles(t *testing.T) {
	f := newFixture()

	_, err := f.svc.DonorProfile(context.Background(), f.hospital)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.UpdateDonorProfile(context.Background(), f.hospital, DonorPatch{AlertsOptIn: ptr(true)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.UpdateDonorProfile(context.Background(), domain.Actor{UserID: uuid.New(), Role: domain.RoleDonor}, DonorPatch{AlertsOptIn: ptr(true)})
	assert.ErrorIs(t, err, geo.ErrDonorNotFound)
}

func TestUpdateHospitalProfile(t *testing.T) {
	f := newFixture()

	got, err := f.svc.UpdateHospitalProfile(context.Background(), f.hospital, HospitalPatch{
		Name:     ptr(" City Hospital North "),
		Address:  ptr("1 Main St"),
		Location: &domain.Point{Lat: 41.1, Lon: 29.0},
	})
	require.NoError(t, err)
	assert.Equal(t, "City Hospital North", got.Name)
	require.NotNil(t, got.Address)
	require.NotNil(t, got.Location)
	assert.Equal(t, 41.1, got.Location.Lat)

	own, err := f.svc.HospitalProfile(context.Background(), f.hospital)
	require.NoError(t, err)
	assert.Equal(t, got.Name, own.Name)

	_, err = f.svc.UpdateHospitalProfile(context.Background(), f.hospital, HospitalPatch{})
	assert.True(t, domain.IsValidation(err))

	_, err = f.svc.UpdateHospitalProfile(context.Background(), f.hospital, HospitalPatch{Location: &domain.Point{Lat: 0, Lon: 200}})
	assert.True(t, domain.IsValidation(err))

	_, err = f.svc.UpdateHospitalProfile(context.Background(), f.donor, HospitalPatch{Name: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.HospitalProfile(context.Background(), f.donor)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestHospitalDistanceForDonor(t *testing.T) {
	f := newFixture()
	h := f.repo.hospitals[f.hospital.UserID]

	view, err := f.svc.Hospital(context.Background(), f.donor, h.ID)
	require.NoError(t, err)
	assert.Nil(t, view.DistanceKm)

	h.Location = &domain.Point{Lat: 41.1, Lon: 29.0}
	view, err = f.svc.Hospital(context.Background(), f.donor, h.ID)
	require.NoError(t, err)
	assert.Nil(t, view.DistanceKm)
	assert.Equal(t, 0, f.locations.distances)

	f.repo.donors[f.donor.UserID].Location = &domain.Point{Lat: 41.0, Lon: 29.0}
	view, err = f.svc.Hospital(context.Background(), f.donor, h.ID)
	require.NoError(t, err)
	require.NotNil(t, view.DistanceKm)
	assert.InDelta(t, 11.1, *view.DistanceKm, 1e-6)

	view, err = f.svc.Hospital(context.Background(), f.hospital, h.ID)
	require.NoError(t, err)
	assert.Nil(t, view.DistanceKm)

	_, err = f.svc.Hospital(context.Background(), f.donor, uuid.New())
	assert.ErrorIs(t, err, geo.ErrHospitalNotFound)
}

func TestSearchDonors(t *testing.T) {
	f := newFixture()
	f.repo.matches = []DonorMatch{{Donor: *f.repo.donors[f.donor.UserID]}}
	bt := domain.BloodTypeONeg

	got, err := f.svc.SearchDonors(context.Background(), f.hospital, SearchQuery{Text: "  ayse ", BloodType: &bt})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	require.NotNil(t, f.repo.lastSearch)
	assert.Equal(t, "ayse", f.repo.lastSearch.Text)
	assert.Equal(t, defaultSearchLimit, f.repo.lastSearch.Limit)
	assert.Nil(t, f.repo.lastSearch.Origin)

	f.repo.hospitals[f.hospital.UserID].Location = &domain.Point{Lat: 41.0, Lon: 29.0}
	_, err = f.svc.SearchDonors(context.Background(), f.hospital, SearchQuery{AlertsOptIn: ptr(true), MaxDistanceKm: ptr(30.0), Limit: 500})
	require.NoError(t, err)
	require.NotNil(t, f.repo.lastSearch.Origin)
	assert.Equal(t, 41.0, f.repo.lastSearch.Origin.Lat)
	assert.Equal(t, maxSearchLimit, f.repo.lastSearch.Limit)
	require.NotNil(t, f.repo.lastSearch.MaxDistanceKm)
}

func TestSearchDonorsValidation(t *testing.T) {
	f := newFixture()
	bad := domain.BloodType("Z")

	tests := []struct {
		name string
		q    SearchQuery
	}{
		{name: "no filters", q: SearchQuery{Text: "  "}},
		{name: "short text", q: SearchQuery{Text: "a"}},
		{name: "blood type", q: SearchQuery{BloodType: &bad}},
		{name: "negative radius", q: SearchQuery{MaxDistanceKm: ptr(-1.0)}},
		{name: "nan radius", q: SearchQuery{MaxDistanceKm: ptr(math.NaN())}},
		{name: "infinite radius", q: SearchQuery{MaxDistanceKm: ptr(math.Inf(1))}},
		{name: "radius without hospital point", q: SearchQuery{MaxDistanceKm: ptr(10.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SearchDonors(context.Background(), f.hospital, tt.q)
			assert.True(t, domain.IsValidation(err), err)
		})
	}
	assert.Nil(t, f.repo.lastSearch)

	_, err := f.svc.SearchDonors(context.Background(), f.donor, SearchQuery{Text: "ayse"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
