package cart

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionID = "test-session"

func product(id string, price int64) domain.Product {
	return domain.Product{ID: id, Title: "Product " + id, Price: price, Stock: 50}
}

func setupStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	kv := storage.NewMemoryStore()
	return NewStore(kv, sessionID), kv
}

// failingKV fails every call with err
type failingKV struct {
	err error
}

func (f failingKV) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingKV) Set(context.Context, string, []byte) error   { return f.err }
func (f failingKV) Delete(context.Context, string) error        { return f.err }

func TestLoad_Empty(t *testing.T) {
	store, _ := setupStore(t)

	items, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestAdd_NewItemAppended(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, product("1", 1000), 2)
	require.NoError(t, err)
	items, err := store.Add(ctx, product("2", 2000), 1)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ProductID)
	assert.Equal(t, "2", items[1].ProductID)
	assert.Equal(t, int64(2000), items[1].Product.Price)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, items, loaded)
}

func TestAdd_SameProductAccumulates(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, product("1", 1000), 2)
	require.NoError(t, err)
	items, err := store.Add(ctx, product("1", 1000), 1)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestAdd_AccumulationEqualsSingleAdd(t *testing.T) {
	ctx := context.Background()

	twice, _ := setupStore(t)
	_, err := twice.Add(ctx, product("1", 1000), 4)
	require.NoError(t, err)
	_, err = twice.Add(ctx, product("1", 1000), 3)
	require.NoError(t, err)

	once, _ := setupStore(t)
	_, err = once.Add(ctx, product("1", 1000), 7)
	require.NoError(t, err)

	a, err := twice.Load(ctx)
	require.NoError(t, err)
	b, err := once.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestAdd_KeepsPositionOfExistingItem(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, _ = store.Add(ctx, product("1", 100), 1)
	_, _ = store.Add(ctx, product("2", 200), 1)
	items, err := store.Add(ctx, product("1", 100), 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, productIDs(items))
	assert.Equal(t, 6, items[0].Quantity)
}

func TestAdd_RejectsNonPositiveQuantity(t *testing.T) {
	store, kv := setupStore(t)

	_, err := store.Add(context.Background(), product("1", 1000), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = store.Add(context.Background(), product("1", 1000), -3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = store.Add(context.Background(), domain.Product{}, 1)
	assert.ErrorIs(t, err, ErrInvalidProduct)

	assert.False(t, kv.Exists(storage.SessionKey(sessionID, storage.RecordCart)))
}

func TestAdd_DoesNotBoundAgainstStock(t *testing.T) {
	store, _ := setupStore(t)
	p := product("1", 100)
	p.Stock = 2

	items, err := store.Add(context.Background(), p, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, items[0].Quantity)
}

func TestQuantityLimit(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	p := product("1", 1000)

	_, err := store.Add(ctx, p, 1)
	require.NoError(t, err)

	_, err = store.SetQuantity(ctx, "1", 18446744073709552)
	assert.ErrorIs(t, err, ErrQuantityLimit)

	_, err = store.Add(ctx, p, MaxQuantity)
	assert.ErrorIs(t, err, ErrQuantityLimit)

	_, err = store.Add(ctx, product("2", 10), MaxQuantity+1)
	assert.ErrorIs(t, err, ErrQuantityLimit)

	items, err := store.SetQuantity(ctx, "1", MaxQuantity)
	require.NoError(t, err)
	assert.Equal(t, MaxQuantity, items[0].Quantity)

	items, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(MaxQuantity*1000), domain.TotalAmount(items))
}

func TestSetQuantity_OverwritesInPlace(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, _ = store.Add(ctx, product("1", 100), 1)
	_, _ = store.Add(ctx, product("2", 200), 1)
	items, err := store.SetQuantity(ctx, "1", 9)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, productIDs(items))
	assert.Equal(t, 9, items[0].Quantity)
}

func TestSetQuantity_ZeroRemovesItem(t *testing.T) {
	store, kv := setupStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, product("1", 1000), 2)
	require.NoError(t, err)

	items, err := store.SetQuantity(ctx, "1", 0)
	require.NoError(t, err)
	assert.Empty(t, items)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
	// Removing the last item persists an empty list; only Clear drops the key
	assert.True(t, kv.Exists(storage.SessionKey(sessionID, storage.RecordCart)))
}

func TestSetQuantity_NegativeRemovesItem(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, _ = store.Add(ctx, product("1", 1000), 2)
	_, _ = store.Add(ctx, product("2", 1000), 2)

	items, err := store.SetQuantity(ctx, "1", -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, productIDs(items))
}

func TestSetQuantity_AbsentProductIsNoop(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	_, _ = store.Add(ctx, product("1", 1000), 2)

	items, err := store.SetQuantity(ctx, "missing", 4)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestRemove(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, _ = store.Add(ctx, product("1", 100), 1)
	_, _ = store.Add(ctx, product("2", 200), 1)
	_, _ = store.Add(ctx, product("3", 300), 1)

	items, err := store.Remove(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, productIDs(items))

	items, err = store.Remove(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, productIDs(items))
}

func TestClear_RemovesStorageKey(t *testing.T) {
	store, kv := setupStore(t)
	ctx := context.Background()
	key := storage.SessionKey(sessionID, storage.RecordCart)

	_, err := store.Add(ctx, product("1", 1000), 2)
	require.NoError(t, err)
	require.True(t, kv.Exists(key))

	require.NoError(t, store.Clear(ctx))
	assert.False(t, kv.Exists(key))

	items, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLoad_MalformedSnapshot(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `{{{`},
		{name: "object instead of list", raw: `{"productId":"1"}`},
		{name: "missing product id", raw: `[{"quantity":1}]`},
		{name: "zero quantity", raw: `[{"productId":"1","quantity":0}]`},
		{name: "quantity above limit", raw: `[{"productId":"1","quantity":18446744073709552}]`},
		{name: "duplicate product", raw: `[{"productId":"1","quantity":1},{"productId":"1","quantity":2}]`},
		{name: "mismatched snapshot", raw: `[{"productId":"1","product":{"id":"2"},"quantity":1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, kv := setupStore(t)
			ctx := context.Background()
			require.NoError(t, kv.Set(ctx, storage.SessionKey(sessionID, storage.RecordCart), []byte(tt.raw)))

			_, err := store.Load(ctx)
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)

			// mutations refuse to overwrite a corrupt record
			_, err = store.Add(ctx, product("9", 1), 1)
			require.ErrorAs(t, err, &decodeErr)

			// Clear is the reset path
			require.NoError(t, store.Clear(ctx))
			items, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestLoad_NullSnapshotIsEmpty(t *testing.T) {
	store, kv := setupStore(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.SessionKey(sessionID, storage.RecordCart), []byte(`null`)))

	items, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStore_StorageErrors(t *testing.T) {
	boom := errors.New("storage down")
	store := NewStore(failingKV{err: boom}, sessionID)
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, boom)

	_, err = store.Add(ctx, product("1", 1), 1)
	assert.ErrorIs(t, err, boom)

	err = store.Clear(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	kv := storage.NewMemoryStore()
	ctx := context.Background()

	_, err := NewStore(kv, "a").Add(ctx, product("1", 100), 1)
	require.NoError(t, err)

	items, err := NewStore(kv, "b").Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStore_RandomOperationsKeepSnapshotWellFormed(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for step := 0; step < 500; step++ {
		id := strconv.Itoa(rng.Intn(6))
		var err error
		switch rng.Intn(3) {
		case 0:
			_, err = store.Add(ctx, product(id, int64(rng.Intn(5000))), rng.Intn(10)+1)
		case 1:
			_, err = store.SetQuantity(ctx, id, rng.Intn(8)-3)
		case 2:
			_, err = store.Remove(ctx, id)
		}
		if errors.Is(err, ErrQuantityLimit) {
			continue
		}
		require.NoError(t, err)

		items, err := store.Load(ctx)
		require.NoError(t, err, "step %d", step)

		seen := map[string]bool{}
		for _, item := range items {
			assert.False(t, seen[item.ProductID], "duplicate %s at step %d", item.ProductID, step)
			assert.GreaterOrEqual(t, item.Quantity, 1, "step %d", step)
			assert.LessOrEqual(t, item.Quantity, MaxQuantity, "step %d", step)
			seen[item.ProductID] = true
		}
	}
}

func productIDs(items []domain.CartLineItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	return ids
}
