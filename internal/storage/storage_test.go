package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cre-pipeline/internal/models"
)

func sampleCollection(n int) []models.Property {
	properties := make([]models.Property, 0, n)
	for i := 0; i < n; i++ {
		properties = append(properties, models.Property{
			ID:         models.NewID(),
			Address:    "123 Newbury St",
			City:       "Boston",
			State:      "MA",
			Zip:        "02116",
			AssetClass: models.AssetClassRetail,
			Sqft:       4500,
			Units:      3,
			YearBuilt:  1910,
			Status:     models.StatusDiscover,
			History: []models.StatusHistory{
				{Status: models.StatusDiscover, Note: "Imported"},
			},
			Financials: models.DetailedFinancials{
				GrossPotentialRent: 380000,
				VacancyRate:        5,
				PropertyTax:        48000,
				PurchasePrice:      4500000,
			},
			Loan:        models.DefaultLoan(),
			Assumptions: models.DefaultAssumptions(),
		})
	}
	return properties
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(Options{Dir: t.TempDir()})
	require.NoError(t, err)

	for _, n := range []int{0, 1, 5} {
		collection := sampleCollection(n)
		require.NoError(t, store.Save(collection))

		loaded, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, collection, loaded)
	}
}

func TestFileStore_LoadMissingDocumentIsEmpty(t *testing.T) {
	store, err := NewFileStore(Options{Dir: t.TempDir()})
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestFileStore_SaveReplacesWithoutLeavingTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(Options{Dir: dir})
	require.NoError(t, err)

	require.NoError(t, store.Save(sampleCollection(3)))
	require.NoError(t, store.Save(sampleCollection(1)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DBFileName, entries[0].Name())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestFileStore_FailedSaveKeepsPreviousDocument(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("directory permissions do not bind root")
	}

	dir := t.TempDir()
	store, err := NewFileStore(Options{Dir: dir})
	require.NoError(t, err)

	original := sampleCollection(3)
	require.NoError(t, store.Save(original))

	// A read-only directory makes the temp-file creation fail before the
	// document is touched
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	err = store.Save(sampleCollection(1))
	require.Error(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, original, loaded)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DBFileName, entries[0].Name())
}

func TestFileStore_Reauthorize(t *testing.T) {
	first := t.TempDir()
	second := filepath.Join(t.TempDir(), "granted")

	store, err := NewFileStore(Options{Dir: first})
	require.NoError(t, err)
	require.NoError(t, store.Save(sampleCollection(2)))

	require.NoError(t, store.Reauthorize(second))
	assert.Equal(t, second, store.Dir())

	// New directory starts from its own (empty) document
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

type stubBackend struct {
	collection []models.Property
	loadErr    error
	saveErr    error
	saves      int
}

func (s *stubBackend) Load() ([]models.Property, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.collection, nil
}

func (s *stubBackend) Save(properties []models.Property) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.collection = properties
	return nil
}

func TestDual_PrefersPrimary(t *testing.T) {
	primary := &stubBackend{collection: sampleCollection(2)}
	fallback := &stubBackend{}
	dual := NewDual(primary, fallback)

	loaded, err := dual.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	require.NoError(t, dual.Save(sampleCollection(3)))
	assert.Equal(t, 1, primary.saves)
	assert.Equal(t, 0, fallback.saves)
}

func TestDual_SaveFallsBackInsteadOfDroppingWrite(t *testing.T) {
	primary := &stubBackend{saveErr: errors.New("disk gone")}
	fallback := &stubBackend{}
	dual := NewDual(primary, fallback)

	require.NoError(t, dual.Save(sampleCollection(2)))
	assert.Equal(t, 1, fallback.saves)
	assert.Len(t, fallback.collection, 2)
}

func TestDual_SurfacesErrorOnlyWhenBothFail(t *testing.T) {
	primary := &stubBackend{loadErr: errors.New("primary down"), saveErr: errors.New("primary down")}
	fallback := &stubBackend{loadErr: errors.New("fallback down"), saveErr: errors.New("fallback down")}
	dual := NewDual(primary, fallback)

	_, err := dual.Load()
	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "load", persistErr.Op)

	err = dual.Save(sampleCollection(1))
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "save", persistErr.Op)
}

func TestDual_NilPrimaryUsesFallback(t *testing.T) {
	fallback := &stubBackend{}
	dual := NewDual(nil, fallback)

	require.NoError(t, dual.Save(sampleCollection(1)))
	loaded, err := dual.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestKVStore_RoundTrip(t *testing.T) {
	store, err := NewKVStore(filepath.Join(t.TempDir(), "fallback.db"))
	require.NoError(t, err)
	defer store.Close()

	for _, n := range []int{0, 1, 4} {
		collection := sampleCollection(n)
		require.NoError(t, store.Save(collection))

		loaded, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, collection, loaded)
	}
}

func TestKVStore_LoadMissingRowIsEmpty(t *testing.T) {
	store, err := NewKVStore(filepath.Join(t.TempDir(), "fallback.db"))
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
