package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/itemcatalog/pkg/config"
	"github.com/ghuser/itemcatalog/pkg/logger"
	itemdomain "github.com/ghuser/itemcatalog/services/item/domain"
	"github.com/ghuser/itemcatalog/services/item/domain/models"
)

var (
	mondayAfternoon = time.Date(2024, time.January, 8, 14, 0, 0, 0, time.UTC)
	saturdayNoon    = time.Date(2024, time.January, 13, 12, 0, 0, 0, time.UTC)
)

func testLogger() logger.Logger {
	return logger.New(&config.Config{LogLevel: "error"})
}

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

func mustItem(t *testing.T, price string, quantities ...int) *models.Item {
	t.Helper()
	specs := make([]models.VariationSpec, len(quantities))
	for i, q := range quantities {
		specs[i] = models.VariationSpec{Size: string(rune('A' + i)), Quantity: q}
	}
	item, err := models.NewItem("Seeded", "SEED-1", decimal.RequireFromString(price), specs)
	require.NoError(t, err)
	return item
}

func validInput() ItemInput {
	return ItemInput{
		Name:      "Hoodie",
		Reference: "HD-01",
		Price:     decimal.NewFromInt(100),
		Variations: []VariationInput{
			{Size: "M", Quantity: 4},
			{Size: "L", Quantity: 4},
		},
	}
}

func TestItemService_Create(t *testing.T) {
	repo := newMemRepo()
	svc := NewItemService(repo, nil, testLogger(), fixedClock(saturdayNoon))

	in := validInput()
	in.ID = uuid.New()
	got, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	assert.NotEqual(t, in.ID, got.ID, "caller-supplied id must be discarded")
	assert.NotEqual(t, uuid.Nil, got.ID)
	require.Len(t, got.Variations, 2)
	for _, v := range got.Variations {
		assert.NotEqual(t, uuid.Nil, v.ID)
		assert.Equal(t, got.ID, v.ItemID)
	}
	// 8 units on a Saturday earns the 10% tier.
	assert.True(t, decimal.NewFromInt(90).Equal(got.Price), "price = %s", got.Price)

	stored, ok := repo.snapshot(got.ID)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(100).Equal(stored.Price), "stored price must stay the list price")
	assert.Equal(t, []string{"item.created"}, repo.events())
}

func TestItemService_Create_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ItemInput)
		wantErr error
	}{
		{"empty name", func(in *ItemInput) { in.Name = "" }, itemdomain.ErrInvalidItemName},
		{"padded name", func(in *ItemInput) { in.Name = " Hoodie" }, itemdomain.ErrInvalidItemName},
		{"empty reference", func(in *ItemInput) { in.Reference = "" }, itemdomain.ErrInvalidItem},
		{"zero price", func(in *ItemInput) { in.Price = decimal.Zero }, itemdomain.ErrInvalidItem},
		{"negative quantity", func(in *ItemInput) { in.Variations[0].Quantity = -1 }, itemdomain.ErrInvalidItem},
		{"quantity beyond int32", func(in *ItemInput) { in.Variations[0].Quantity = 4294967301 }, itemdomain.ErrInvalidItem},
		{"sub-cent price", func(in *ItemInput) { in.Price = decimal.RequireFromString("10.005") }, itemdomain.ErrInvalidItem},
		{"price beyond column", func(in *ItemInput) { in.Price = decimal.RequireFromString("99999999999") }, itemdomain.ErrInvalidItem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			svc := NewItemService(repo, nil, testLogger())

			in := validInput()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.events(), "nothing may be persisted")
		})
	}
}

func TestItemService_Create_NoVariations(t *testing.T) {
	svc := NewItemService(newMemRepo(), nil, testLogger(), fixedClock(mondayAfternoon))

	in := validInput()
	in.Variations = nil
	got, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, got.Variations)
	assert.True(t, decimal.NewFromInt(50).Equal(got.Price), "price = %s", got.Price)
}

func TestItemService_Create_SaveError(t *testing.T) {
	repo := newMemRepo()
	repo.saveErr = errors.New("connection reset")
	svc := NewItemService(repo, nil, testLogger())

	_, err := svc.Create(context.Background(), validInput())
	assert.ErrorIs(t, err, repo.saveErr)
}

func TestItemService_List(t *testing.T) {
	a := mustItem(t, "10", 10, 5)
	b := mustItem(t, "20", 3, 4)
	c := mustItem(t, "30")
	svc := NewItemService(newMemRepo(a, b, c), nil, testLogger(), fixedClock(mondayAfternoon))

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Monday afternoon halves everything, which beats both stock tiers.
	want := map[uuid.UUID]string{a.ID: "5", b.ID: "10", c.ID: "15"}
	for _, it := range got {
		assert.True(t, decimal.RequireFromString(want[it.ID]).Equal(it.Price), "item %s price = %s", it.ID, it.Price)
	}
}

func TestItemService_List_OutsideDiscountWindow(t *testing.T) {
	a := mustItem(t, "10", 10, 5)
	b := mustItem(t, "20", 3, 4)
	c := mustItem(t, "30")
	svc := NewItemService(newMemRepo(a, b, c), nil, testLogger(), fixedClock(saturdayNoon))

	got, err := svc.List(context.Background())
	require.NoError(t, err)

	want := map[uuid.UUID]string{a.ID: "8", b.ID: "18", c.ID: "30"}
	for _, it := range got {
		assert.True(t, decimal.RequireFromString(want[it.ID]).Equal(it.Price), "item %s price = %s", it.ID, it.Price)
	}
}

func TestItemService_List_Empty(t *testing.T) {
	svc := NewItemService(newMemRepo(), nil, testLogger())

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestItemService_List_Error(t *testing.T) {
	repo := newMemRepo()
	repo.findErr = errors.New("timeout")
	svc := NewItemService(repo, nil, testLogger())

	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, repo.findErr)
}

func TestItemService_GetByID(t *testing.T) {
	item := mustItem(t, "40", 12)
	svc := NewItemService(newMemRepo(item), nil, testLogger(), fixedClock(saturdayNoon))

	got, err := svc.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.True(t, decimal.NewFromInt(32).Equal(got.Price), "price = %s", got.Price)
	assert.Len(t, got.Variations, 1)
}

func TestItemService_GetByID_NotFound(t *testing.T) {
	svc := NewItemService(newMemRepo(), newMemCache(), testLogger())

	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, itemdomain.ErrItemNotFound)
}

func TestItemService_GetByID_WarmsCache(t *testing.T) {
	item := mustItem(t, "40", 2)
	c := newMemCache()
	svc := NewItemService(newMemRepo(item), c, testLogger(), fixedClock(saturdayNoon))

	_, err := svc.GetByID(context.Background(), item.ID)
	require.NoError(t, err)

	cached, err := c.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(40).Equal(cached.Price), "cache must hold the list price")
}

func TestItemService_GetByID_DeleteDuringWarm(t *testing.T) {
	item := mustItem(t, "40", 2)
	c := newMemCache()
	c.hold = make(chan struct{})
	c.entered = make(chan struct{})
	svc := NewItemService(newMemRepo(item), c, testLogger(), fixedClock(saturdayNoon))
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.GetByID(ctx, item.ID)
		done <- err
	}()

	// The reader has loaded the item and is about to warm the cache.
	<-c.entered
	require.NoError(t, svc.Delete(ctx, item.ID))
	close(c.hold)
	require.NoError(t, <-done)

	c.hold = nil
	assert.False(t, c.has(item.ID), "warm must not outlive the eviction")
	_, err := svc.GetByID(ctx, item.ID)
	assert.ErrorIs(t, err, itemdomain.ErrItemNotFound)
}

func TestItemService_GetByID_UpdateDuringWarm(t *testing.T) {
	old := mustItem(t, "40", 2)
	c := newMemCache()
	c.hold = make(chan struct{})
	c.entered = make(chan struct{})
	svc := NewItemService(newMemRepo(old), c, testLogger(), fixedClock(saturdayNoon))
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.GetByID(ctx, old.ID)
		done <- err
	}()

	<-c.entered
	in := validInput()
	in.ID = old.ID
	require.NoError(t, svc.Update(ctx, in))
	close(c.hold)
	require.NoError(t, <-done)

	c.hold = nil
	got, err := svc.GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemName("Hoodie"), got.Name)
}

func TestItemService_GetByID_CacheHit(t *testing.T) {
	item := mustItem(t, "40", 12)
	c := newMemCache()
	c.put(item)

	// The repository is empty, so a hit must come from the cache and still be priced.
	svc := NewItemService(newMemRepo(), c, testLogger(), fixedClock(mondayAfternoon))

	got, err := svc.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Name, got.Name)
	assert.True(t, decimal.NewFromInt(20).Equal(got.Price), "price = %s", got.Price)
	require.Len(t, got.Variations, 1)
	assert.Equal(t, item.ID, got.Variations[0].ItemID)
}

func TestItemService_GetByID_CacheErrorFallsBack(t *testing.T) {
	item := mustItem(t, "40")
	c := newMemCache()
	c.getErr = errors.New("redis down")
	svc := NewItemService(newMemRepo(item), c, testLogger(), fixedClock(saturdayNoon))

	got, err := svc.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
}

func TestItemService_Update(t *testing.T) {
	old := mustItem(t, "40", 3, 3)
	repo := newMemRepo(old)
	c := newMemCache()
	c.put(old)
	svc := NewItemService(repo, c, testLogger())

	in := ItemInput{
		ID:         old.ID,
		Name:       "Renamed",
		Reference:  "NEW-REF",
		Price:      decimal.NewFromInt(55),
		Variations: []VariationInput{{Size: "XL", Quantity: 9}},
	}
	require.NoError(t, svc.Update(context.Background(), in))

	got, ok := repo.snapshot(old.ID)
	require.True(t, ok)
	assert.Equal(t, models.ItemName("Renamed"), got.Name)
	assert.Equal(t, models.Reference("NEW-REF"), got.Reference)
	assert.True(t, decimal.NewFromInt(55).Equal(got.Price))
	assert.Equal(t, old.CreatedAt, got.CreatedAt)
	require.Len(t, got.Variations, 1)
	assert.Equal(t, 9, got.Variations[0].Quantity)
	for _, v := range old.Variations {
		assert.NotEqual(t, v.ID, got.Variations[0].ID, "variation ids must be fresh")
	}

	assert.Equal(t, []string{
		"DeleteVariation", "DeleteVariation", "DeleteItem", "InsertItem", "InsertVariation", "Publish",
	}, repo.txSteps)
	assert.Equal(t, []string{"item.replaced"}, repo.events())
	assert.False(t, c.has(old.ID), "cache entry must be evicted after commit")
}

func TestItemService_Update_ClearsOmittedVariations(t *testing.T) {
	old := mustItem(t, "40", 3, 3)
	repo := newMemRepo(old)
	svc := NewItemService(repo, nil, testLogger())

	in := validInput()
	in.ID = old.ID
	in.Variations = nil
	require.NoError(t, svc.Update(context.Background(), in))

	got, ok := repo.snapshot(old.ID)
	require.True(t, ok)
	assert.Empty(t, got.Variations)
}

func TestItemService_Update_NotFound(t *testing.T) {
	repo := newMemRepo()
	svc := NewItemService(repo, nil, testLogger())

	in := validInput()
	in.ID = uuid.New()
	err := svc.Update(context.Background(), in)
	assert.ErrorIs(t, err, itemdomain.ErrItemNotFound)
	assert.Zero(t, repo.txCount, "no transaction may start for a missing item")
}

func TestItemService_Update_Invalid(t *testing.T) {
	old := mustItem(t, "40", 1)
	repo := newMemRepo(old)
	svc := NewItemService(repo, nil, testLogger())

	in := validInput()
	in.ID = old.ID
	in.Price = decimal.Zero
	err := svc.Update(context.Background(), in)
	assert.ErrorIs(t, err, itemdomain.ErrInvalidItem)
	assert.Zero(t, repo.txCount)
}

func TestItemService_Update_RollsBack(t *testing.T) {
	steps := []string{"DeleteVariation", "DeleteItem", "InsertItem", "InsertVariation", "Publish"}
	for _, step := range steps {
		t.Run(step, func(t *testing.T) {
			old := mustItem(t, "40", 2, 5)
			repo := newMemRepo(old)
			repo.failStep = step
			repo.failErr = errors.New("injected " + step + " failure")
			c := newMemCache()
			c.put(old)
			svc := NewItemService(repo, c, testLogger())

			in := validInput()
			in.ID = old.ID
			err := svc.Update(context.Background(), in)
			require.ErrorIs(t, err, repo.failErr)

			got, ok := repo.snapshot(old.ID)
			require.True(t, ok, "old aggregate must survive")
			assert.Equal(t, old.Name, got.Name)
			assert.True(t, old.Price.Equal(got.Price))
			assert.ElementsMatch(t, old.Variations, got.Variations)
			assert.Empty(t, repo.events())
			assert.True(t, c.has(old.ID), "cache is only evicted after commit")
		})
	}
}

func TestItemService_Delete(t *testing.T) {
	item := mustItem(t, "40", 1, 2)
	repo := newMemRepo(item)
	c := newMemCache()
	c.put(item)
	svc := NewItemService(repo, c, testLogger())

	require.NoError(t, svc.Delete(context.Background(), item.ID))

	_, ok := repo.snapshot(item.ID)
	assert.False(t, ok)
	assert.Empty(t, repo.variations)
	assert.Equal(t, []string{"item.deleted"}, repo.events())
	assert.False(t, c.has(item.ID))
}

func TestItemService_Delete_NotFound(t *testing.T) {
	repo := newMemRepo()
	svc := NewItemService(repo, nil, testLogger())

	err := svc.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, itemdomain.ErrItemNotFound)
	assert.Empty(t, repo.events())
}

func TestItemService_Delete_Error(t *testing.T) {
	item := mustItem(t, "40")
	repo := newMemRepo(item)
	repo.delErr = errors.New("deadlock detected")
	svc := NewItemService(repo, nil, testLogger())

	err := svc.Delete(context.Background(), item.ID)
	assert.ErrorIs(t, err, repo.delErr)
	_, ok := repo.snapshot(item.ID)
	assert.True(t, ok)
}

func TestWithLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	svc := NewItemService(newMemRepo(), nil, testLogger(), WithLocation(loc))
	assert.Equal(t, loc, svc.now().Location())

	svc = NewItemService(newMemRepo(), nil, testLogger(), WithLocation(nil))
	assert.False(t, svc.now().IsZero())
}

func TestWithLocation_OptionOrder(t *testing.T) {
	// Sunday 22:00 UTC is Monday 14:00 in UTC+16, inside the calendar window.
	sunday := time.Date(2024, time.January, 7, 22, 0, 0, 0, time.UTC)
	loc := time.FixedZone("UTC+16", 16*60*60)
	item := mustItem(t, "40")

	orders := map[string][]Option{
		"clock first":    {fixedClock(sunday), WithLocation(loc)},
		"location first": {WithLocation(loc), fixedClock(sunday)},
	}
	for name, opts := range orders {
		t.Run(name, func(t *testing.T) {
			svc := NewItemService(newMemRepo(item), nil, testLogger(), opts...)

			now := svc.now()
			assert.True(t, sunday.Equal(now))
			assert.Equal(t, loc, now.Location())

			got, err := svc.GetByID(context.Background(), item.ID)
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(20).Equal(got.Price), "price = %s", got.Price)
		})
	}
}
