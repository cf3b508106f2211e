package expense

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-tracker-api/internal/models"
	"expense-tracker-api/internal/storage"
	"expense-tracker-api/internal/storage/sqlite"
)

func newTestService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewService(store), store
}

func createOwner(t *testing.T, store *sqlite.Store, email string) uuid.UUID {
	t.Helper()
	user, err := store.CreateUser(context.Background(), models.User{
		ID:           uuid.New(),
		FullName:     "Service Test User",
		Email:        email,
		PasswordHash: []byte("digest"),
		PasswordSalt: []byte("salt"),
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	return user.ID
}

func validInput() Input {
	return Input{
		Amount:       42.75,
		CurrencyCode: "USD",
		Category:     models.CategoryLeisure,
		Description:  "Concert tickets",
	}
}

func TestCreateValidation(t *testing.T) {
	svc, store := newTestService(t)
	owner := createOwner(t, store, "owner@example.com")
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*Input)
	}{
		{"zero amount", func(in *Input) { in.Amount = 0 }},
		{"negative amount", func(in *Input) { in.Amount = -3.50 }},
		{"too many decimals", func(in *Input) { in.Amount = 10.555 }},
		{"short currency", func(in *Input) { in.CurrencyCode = "EU" }},
		{"non-letter currency", func(in *Input) { in.CurrencyCode = "U5D" }},
		{"multibyte currency", func(in *Input) { in.CurrencyCode = "か" }},
		{"unknown category", func(in *Input) { in.Category = models.Category(99) }},
		{"long description", func(in *Input) { in.Description = strings.Repeat("x", 501) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Create(ctx, owner, in)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateDefaultsAndNormalizes(t *testing.T) {
	svc, store := newTestService(t)
	owner := createOwner(t, store, "owner@example.com")
	now := time.Now().UTC().Truncate(time.Second)
	svc.now = func() time.Time { return now }

	in := validInput()
	in.CurrencyCode = "usd"
	created, err := svc.Create(context.Background(), owner, in)
	require.NoError(t, err)

	assert.Equal(t, "USD", created.CurrencyCode)
	assert.WithinDuration(t, now, created.IncurredAt, time.Second, "missing incurred-at defaults to the current instant")
	assert.Equal(t, owner, created.UserID)

	boundary := validInput()
	boundary.Description = strings.Repeat("y", 500)
	_, err = svc.Create(context.Background(), owner, boundary)
	require.NoError(t, err, "500-character description is within bounds")
}

func TestListPeriodFilters(t *testing.T) {
	svc, store := newTestService(t)
	owner := createOwner(t, store, "owner@example.com")
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	svc.now = func() time.Time { return now }

	seed := func(incurredAt time.Time) models.Expense {
		in := validInput()
		in.IncurredAt = &incurredAt
		created, err := svc.Create(ctx, owner, in)
		require.NoError(t, err)
		return created
	}
	recent := seed(now)
	tenDays := seed(now.AddDate(0, 0, -10))
	fortyDays := seed(now.AddDate(0, 0, -40))

	week, err := svc.List(ctx, owner, "week", nil, nil)
	require.NoError(t, err)
	require.Len(t, week, 1)
	assert.Equal(t, recent.ID, week[0].ID)

	month, err := svc.List(ctx, owner, "month", nil, nil)
	require.NoError(t, err)
	require.Len(t, month, 2)
	assert.Equal(t, recent.ID, month[0].ID)
	assert.Equal(t, tenDays.ID, month[1].ID)

	threeMonths, err := svc.List(ctx, owner, "3months", nil, nil)
	require.NoError(t, err)
	require.Len(t, threeMonths, 3)
	assert.Equal(t, fortyDays.ID, threeMonths[2].ID)

	all, err := svc.List(ctx, owner, "", nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	aliases := map[string]int{"pastweek": 1, "PastMonth": 2, "LAST3MONTHS": 3}
	for alias, want := range aliases {
		got, err := svc.List(ctx, owner, alias, nil, nil)
		require.NoError(t, err)
		assert.Len(t, got, want, "period alias %q", alias)
	}

	_, err = svc.List(ctx, owner, "decade", nil, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestListMonthWindowClampsAtMonthEnd(t *testing.T) {
	svc, store := newTestService(t)
	owner := createOwner(t, store, "owner@example.com")
	ctx := context.Background()
	now := time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	seed := func(incurredAt time.Time) models.Expense {
		in := validInput()
		in.IncurredAt = &incurredAt
		created, err := svc.Create(ctx, owner, in)
		require.NoError(t, err)
		return created
	}
	// One month before Mar 31 is Feb 28, not Mar 3.
	lastOfFeb := seed(time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC))
	seed(time.Date(2025, time.February, 27, 12, 0, 0, 0, time.UTC))
	endOfDec := seed(time.Date(2024, time.December, 31, 12, 0, 0, 0, time.UTC))

	month, err := svc.List(ctx, owner, "month", nil, nil)
	require.NoError(t, err)
	require.Len(t, month, 1)
	assert.Equal(t, lastOfFeb.ID, month[0].ID)

	threeMonths, err := svc.List(ctx, owner, "3months", nil, nil)
	require.NoError(t, err)
	require.Len(t, threeMonths, 3)
	assert.Equal(t, endOfDec.ID, threeMonths[2].ID)
}

func TestAddMonthsClamped(t *testing.T) {
	cases := []struct {
		name   string
		from   time.Time
		months int
		want   time.Time
	}{
		{"mid-month unchanged", time.Date(2025, time.March, 15, 9, 30, 0, 0, time.UTC), -1, time.Date(2025, time.February, 15, 9, 30, 0, 0, time.UTC)},
		{"clamps to february", time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), -1, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{"leap year february", time.Date(2024, time.March, 30, 0, 0, 0, 0, time.UTC), -1, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)},
		{"across year boundary", time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC), -3, time.Date(2024, time.October, 31, 0, 0, 0, 0, time.UTC)},
		{"clamps thirty-day month", time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC), -1, time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, addMonthsClamped(tc.from, tc.months))
		})
	}
}

func TestListExplicitRangeOverridesPeriod(t *testing.T) {
	svc, store := newTestService(t)
	owner := createOwner(t, store, "owner@example.com")
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	svc.now = func() time.Time { return now }

	seed := func(incurredAt time.Time) models.Expense {
		in := validInput()
		in.IncurredAt = &incurredAt
		created, err := svc.Create(ctx, owner, in)
		require.NoError(t, err)
		return created
	}
	seed(now)
	tenDays := seed(now.AddDate(0, 0, -10))
	seed(now.AddDate(0, 0, -40))

	start := now.AddDate(0, 0, -15)
	end := now.AddDate(0, 0, -5)

	// The explicit range replaces the period window; "week" would otherwise
	// exclude the 10-day-old record.
	got, err := svc.List(ctx, owner, "week", &start, &end)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tenDays.ID, got[0].ID)

	startOnly, err := svc.List(ctx, owner, "", &start, nil)
	require.NoError(t, err)
	assert.Len(t, startOnly, 2)

	endOnly, err := svc.List(ctx, owner, "", nil, &end)
	require.NoError(t, err)
	assert.Len(t, endOnly, 2)
}

func TestTenantIsolation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	alice := createOwner(t, store, "alice@example.com")
	bob := createOwner(t, store, "bob@example.com")

	created, err := svc.Create(ctx, alice, validInput())
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, created.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.Update(ctx, bob, created.ID, validInput())
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, svc.Delete(ctx, bob, created.ID), storage.ErrNotFound)

	mine, err := svc.List(ctx, bob, "", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, mine)

	still, err := svc.Get(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, still.ID)
}

func TestUpdateFullReplace(t *testing.T) {
	svc, store := newTestService(t)
	owner := createOwner(t, store, "owner@example.com")
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)
	require.Nil(t, created.UpdatedAt)

	incurredAt := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)
	replacement := Input{
		Amount:       99.99,
		CurrencyCode: "EUR",
		Category:     models.CategoryElectronics,
		Description:  "Replacement keyboard",
		IncurredAt:   &incurredAt,
	}
	updated, err := svc.Update(ctx, owner, created.ID, replacement)
	require.NoError(t, err)
	require.NotNil(t, updated.UpdatedAt)

	fetched, err := svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 99.99, fetched.Amount)
	assert.Equal(t, "EUR", fetched.CurrencyCode)
	assert.Equal(t, models.CategoryElectronics, fetched.Category)
	assert.Equal(t, "Replacement keyboard", fetched.Description)
	require.NotNil(t, fetched.UpdatedAt)
}

func TestDeleteIdempotentFailure(t *testing.T) {
	svc, store := newTestService(t)
	owner := createOwner(t, store, "owner@example.com")
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner, created.ID))

	_, err = svc.Get(ctx, owner, created.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, owner, created.ID), storage.ErrNotFound)
}
