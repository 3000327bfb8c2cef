package property

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var propertyColumns = []string{
	"id", "code", "name", "address", "wifi_name", "wifi_password", "check_in_time", "check_out_time",
	"parking_instructions", "access_instructions", "emergency_contact", "house_rules", "amenities",
	"knowledge_base", "local_recommendations", "special_notes", "updated_at",
}

func TestPostgresRepository_GetByCode(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepositoryWithDB(mock)
	updated := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM properties WHERE code = \\$1").
		WithArgs("1434").
		WillReturnRows(pgxmock.NewRows(propertyColumns).AddRow(
			"prop-1", "1434", "Sunny Villa", "7593 Gathering Dr, Reunion, Kissimmee, FL 34747",
			"SunnyNet", "beach123", "4:00 PM", "10:00 AM", "", "", "Maria (407) 555-0101", "",
			[]string{"pool", "hot tub"}, "", "", "", updated,
		))

	p, err := repo.GetByCode(context.Background(), " 1434 ")
	require.NoError(t, err)
	assert.Equal(t, "Sunny Villa", p.Name)
	assert.Equal(t, []string{"pool", "hot tub"}, p.Amenities)
	assert.Equal(t, "Reunion Resort", p.Location.Resort)

	mock.ExpectQuery("FROM properties WHERE code = \\$1").WithArgs("9999").WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetByCode(context.Background(), "9999")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery("FROM properties WHERE id = \\$1").WithArgs("prop-x").WillReturnError(errors.New("boom"))
	_, err = repo.GetByID(context.Background(), "prop-x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Upsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepositoryWithDB(mock)
	p := &Property{ID: "prop-1", Code: "1434", Name: "Sunny Villa"}

	mock.ExpectExec("INSERT INTO properties").
		WithArgs("prop-1", "1434", "Sunny Villa", "", "", "", "", "", "", "", "", "", []string{}, "", "", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, repo.Upsert(context.Background(), p))

	assert.Error(t, repo.Upsert(context.Background(), &Property{Name: "no id"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

type countingDirectory struct {
	byCode map[string]*Property
	calls  int
}

func (d *countingDirectory) GetByCode(_ context.Context, code string) (*Property, error) {
	d.calls++
	if p, ok := d.byCode[code]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (d *countingDirectory) GetByID(_ context.Context, id string) (*Property, error) {
	d.calls++
	for _, p := range d.byCode {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func TestCachedDirectory_ReadThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	next := &countingDirectory{byCode: map[string]*Property{
		"1434": {ID: "prop-1", Code: "1434", Name: "Sunny Villa", Address: "Davenport, FL 33897"},
	}}
	dir := NewCachedDirectory(next, client, time.Minute, nil)
	ctx := context.Background()

	p, err := dir.GetByCode(ctx, "1434")
	require.NoError(t, err)
	assert.Equal(t, "Sunny Villa", p.Name)
	assert.True(t, mr.Exists("property:code:1434"))
	assert.True(t, mr.Exists("property:id:prop-1"))

	p, err = dir.GetByID(ctx, "prop-1")
	require.NoError(t, err)
	assert.Equal(t, "Davenport", p.Location.Area, "derived fields are rebuilt from cache")
	assert.Equal(t, 1, next.calls)

	_, err = dir.GetByCode(ctx, "0000")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists("property:code:0000"))

	require.NoError(t, dir.Invalidate(ctx, p))
	assert.False(t, mr.Exists("property:code:1434"))

	mr.FastForward(2 * time.Minute)
	_, err = dir.GetByCode(ctx, "1434")
	require.NoError(t, err)
	assert.Equal(t, 3, next.calls)
}

func TestCachedDirectory_RedisDownFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	next := &countingDirectory{byCode: map[string]*Property{"1434": {ID: "prop-1", Code: "1434", Name: "Sunny Villa"}}}
	dir := NewCachedDirectory(next, client, time.Minute, nil)

	p, err := dir.GetByCode(context.Background(), "1434")
	require.NoError(t, err)
	assert.Equal(t, "Sunny Villa", p.Name)
}

func TestDeriveLocationContext(t *testing.T) {
	loc := DeriveLocationContext("1234 Championsgate Blvd, Davenport, FL 33896")
	assert.Equal(t, "ChampionsGate", loc.Resort)
	d, ok := loc.DistanceTo("disney")
	require.True(t, ok)
	assert.Equal(t, 15, d.Minutes)
	assert.Contains(t, loc.Summary(), "ChampionsGate in Davenport")

	assert.False(t, DeriveLocationContext("1 Nowhere Rd, Boise, ID").Known())
	assert.Equal(t, "", LocationContext{}.Summary())
}

func TestTimezoneForAddress(t *testing.T) {
	assert.Equal(t, "America/New_York", TimezoneForAddress("7593 Gathering Dr, Kissimmee, FL 34747", "UTC"))
	assert.Equal(t, "America/Denver", TimezoneForAddress("12 Pine St, Aspen, CO 81611, USA", "UTC"))
	assert.Equal(t, "America/Los_Angeles", TimezoneForAddress("Palm Springs, CA", "UTC"))
	assert.Equal(t, "UTC", TimezoneForAddress("somewhere nice", "UTC"))
}

func TestProperty_Helpers(t *testing.T) {
	p := &Property{Amenities: []string{"Heated Pool", "Game room"}, EmergencyContact: " Maria 555-0101 "}
	assert.True(t, p.HasAmenity("pool"))
	assert.False(t, p.HasAmenity("gym"))
	assert.Equal(t, "For anything urgent, contact Maria 555-0101.", p.ContactLine())

	var nilProp *Property
	assert.False(t, nilProp.HasAmenity("pool"))
	assert.Equal(t, "", nilProp.ContactLine())
}
