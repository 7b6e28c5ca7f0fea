package dictionary

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "commands.db")
	store, err := OpenSQLiteStore(path, "en-US")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Add(CommandDefinition{
		ID:          "navigate_back",
		Locale:      "en-US",
		PrimaryText: "go back",
		Synonyms:    []string{"back", "previous screen"},
		Description: "Navigate to the previous screen",
		Category:    "navigation",
		Priority:    10,
	}))

	def, ok := store.LookupExact("GO BACK", "en-US")
	require.True(t, ok)
	assert.Equal(t, "navigate_back", def.ID)
	assert.Equal(t, []string{"back", "previous screen"}, def.Synonyms)
	assert.Equal(t, "navigation", def.Category)
	assert.Equal(t, 10, def.Priority)
	assert.True(t, def.IsFallbackLocale)

	def, ok = store.LookupExact("previous screen", "en-US")
	require.True(t, ok)
	assert.Equal(t, "navigate_back", def.ID)
}

func TestSQLiteStoreFuzzyRanking(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Add(CommandDefinition{ID: "low", Locale: "en-US", PrimaryText: "tap here", Priority: 1}))
	require.NoError(t, store.Add(CommandDefinition{ID: "high", Locale: "en-US", PrimaryText: "tap herd", Priority: 9}))

	// Equal distance, higher priority wins
	def, ok := store.LookupFuzzy("tap hero", "en-US", 2)
	require.True(t, ok)
	assert.Equal(t, "high", def.ID)

	_, ok = store.LookupFuzzy("unrelated phrase", "en-US", 2)
	assert.False(t, ok)
}

func TestSQLiteStoreDuplicateRejected(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Add(CommandDefinition{ID: "x", Locale: "en-US", PrimaryText: "one"}))
	err := store.Add(CommandDefinition{ID: "x", Locale: "en-US", PrimaryText: "two"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateDefinition)

	// Same id, different locale is a distinct definition
	assert.NoError(t, store.Add(CommandDefinition{ID: "x", Locale: "es-ES", PrimaryText: "uno"}))
}

func TestSQLiteStoreInsertionOrderSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.db")

	store, err := OpenSQLiteStore(path, "en-US")
	require.NoError(t, err)
	require.NoError(t, store.Add(CommandDefinition{ID: "first", Locale: "en-US", PrimaryText: "map hero", Priority: 9}))
	require.NoError(t, store.Add(CommandDefinition{ID: "second", Locale: "en-US", PrimaryText: "nap hero", Priority: 9}))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteStore(path, "en-US")
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	// Tie on distance and priority resolves by original insertion order
	def, ok := reopened.LookupFuzzy("gap hero", "en-US", 2)
	require.True(t, ok)
	assert.Equal(t, "first", def.ID)

	// Insertion counter resumes past existing rows
	require.NoError(t, reopened.Add(CommandDefinition{ID: "third", Locale: "en-US", PrimaryText: "lap hero", Priority: 9}))
	def, ok = reopened.LookupFuzzy("gap hero", "en-US", 2)
	require.True(t, ok)
	assert.Equal(t, "first", def.ID)
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	_, err := OpenSQLiteStore("  ", "en-US")
	assert.Error(t, err)
}
