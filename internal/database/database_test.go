package database

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"steam-dealbot/internal/models"
	"steam-dealbot/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := Open(DriverFile, filepath.Join(dir, "users"))
	require.NoError(t, err)
	sqliteStore, err := Open(DriverSQLite, filepath.Join(dir, "bot.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		fileStore.Close()
		sqliteStore.Close()
	})
	return map[string]Store{DriverFile: fileStore, DriverSQLite: sqliteStore}
}

func sampleRecord(id int64) *models.UserRecord {
	rec := models.NewUserRecord(id)
	rec.Username = "someone"
	rec.Configs.MaxPrice = decimal.RequireFromString("7.5")
	rec.ExcludeList = []models.ExcludeEntry{{GameID: "app/10", Price: decimal.RequireFromString("1.99")}}
	rec.SetCache([]models.Game{{
		ID:            "app/10",
		Name:          "Counter-Strike",
		OriginalPrice: decimal.RequireFromString("9.99"),
		Price:         decimal.RequireFromString("1.99"),
		Cut:           80,
		Link:          "https://store.steampowered.com/app/10/",
	}})
	return rec
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			rec := sampleRecord(42)
			require.NoError(t, store.Save(ctx, rec))

			got, err := store.Load(ctx, 42)
			require.NoError(t, err)
			assert.Equal(t, int64(42), got.TelegramID)
			assert.Equal(t, "someone", got.Username)
			assert.True(t, got.Configs.MaxPrice.Equal(decimal.RequireFromString("7.5")))
			require.Len(t, got.ExcludeList, 1)
			assert.Equal(t, "app/10", got.ExcludeList[0].GameID)
			require.Len(t, got.Cache, 1)
			assert.Equal(t, 80, got.Cache[0].Cut)
			assert.True(t, got.Cache[0].Price.Equal(decimal.RequireFromString("1.99")))
		})
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			rec := sampleRecord(7)
			require.NoError(t, store.Save(ctx, rec))

			rec.Username = "other"
			rec.SetCache(nil)
			require.NoError(t, store.Save(ctx, rec))

			got, err := store.Load(ctx, 7)
			require.NoError(t, err)
			assert.Equal(t, "other", got.Username)
			assert.Empty(t, got.Cache)
			assert.NotNil(t, got.Cache)
		})
	}
}

func TestStoreLoadMissing(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load(ctx, 999)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.True(t, IsMissing(err))
		})
	}
}

func TestStoreIDsSorted(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []int64{30, 10, 20} {
				require.NoError(t, store.Save(ctx, models.NewUserRecord(id)))
			}

			ids, err := store.IDs(ctx)
			require.NoError(t, err)
			assert.Equal(t, []int64{10, 20, 30}, ids)
		})
	}
}

func TestFileStoreIgnoresForeignFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "123"), 0o755))
	require.NoError(t, store.Save(ctx, models.NewUserRecord(5)))

	ids, err := store.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, ids)
}

func TestFileStoreCorruptRecord(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "77"), []byte("{not json"), 0o644))

	_, err = store.Load(ctx, 77)
	assert.ErrorIs(t, err, ErrCorruptRecord)
	assert.True(t, IsMissing(err))
}

func TestDecodeFillsDefaults(t *testing.T) {
	rec, err := decodeRecord([]byte(`{"telegram_id": 3, "username": "abc", "configs": {"min_discount": 90}}`))
	require.NoError(t, err)

	assert.Equal(t, 90, rec.Configs.MinDiscount)
	assert.Equal(t, models.DefaultLowPriceMinDiscount, rec.Configs.LowPriceMinDiscount)
	assert.True(t, rec.Configs.MaxPrice.Equal(models.DefaultMaxPrice))
	assert.NotNil(t, rec.ExcludeList)
	assert.NotNil(t, rec.Cache)
}

func TestUsersGetRepairsOutOfRangeConfigs(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	users := NewUsers(store, logger.NewWithWriter("debug", &buf))

	data := `{"telegram_id": 5, "username": "abc", "configs": {"max_price": "-1", "min_discount": 500, "low_price_min_discount": 20}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "5"), []byte(data), 0o644))

	rec, found, err := users.Get(ctx, 5)
	require.NoError(t, err)
	require.True(t, found)

	assert.True(t, rec.Configs.MaxPrice.Equal(models.DefaultMaxPrice))
	assert.Equal(t, models.DefaultMinDiscount, rec.Configs.MinDiscount)
	assert.Equal(t, 20, rec.Configs.LowPriceMinDiscount)
	assert.Equal(t, "abc", rec.Username)
	assert.NoError(t, rec.Configs.Validate())
	assert.Contains(t, buf.String(), "min_discount")
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("redis", t.TempDir())
	assert.Error(t, err)
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open(DriverFile, "")
	assert.Error(t, err)
	_, err = Open(DriverSQLite, "")
	assert.Error(t, err)
}

func TestUsersGetOrInit(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	users := NewUsers(store, logger.Nop())

	rec, err := users.GetOrInit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultUsername, rec.Username)

	_, found, err := users.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found, "GetOrInit must not save")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "2"), []byte("garbage"), 0o644))
	rec, err = users.GetOrInit(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.TelegramID)
	assert.Equal(t, models.DefaultMinDiscount, rec.Configs.MinDiscount)
}

func TestUsersUpdate(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	users := NewUsers(store, logger.Nop())

	_, err = users.Update(ctx, 9, func(rec *models.UserRecord) error {
		rec.Username = "updated"
		return nil
	})
	require.NoError(t, err)

	rec, found, err := users.Get(ctx, 9)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "updated", rec.Username)

	_, err = users.Update(ctx, 9, func(rec *models.UserRecord) error {
		rec.Username = "never"
		return models.ErrInvalidValue
	})
	assert.ErrorIs(t, err, models.ErrInvalidValue)

	rec, _, err = users.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "updated", rec.Username)
}

func TestUsersLockSerializesUpdates(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	users := NewUsers(store, logger.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := users.Update(ctx, 1, func(rec *models.UserRecord) error {
				rec.Configs.MinDiscount++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, found, err := users.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.DefaultMinDiscount+20, rec.Configs.MinDiscount)
}
