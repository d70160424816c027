package backup_test

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glucolog/internal/backup"
	"glucolog/internal/models"
	"glucolog/internal/testutil"
)

// denyPrefixFs refuses directory creation under one subtree, simulating a
// location the platform has locked down.
type denyPrefixFs struct {
	afero.Fs
	prefix string
}

func (d denyPrefixFs) MkdirAll(path string, perm os.FileMode) error {
	if strings.HasPrefix(path, d.prefix) {
		return fs.ErrPermission
	}
	return d.Fs.MkdirAll(path, perm)
}

func newWriter(fs afero.Fs, index backup.ManagedIndex, store *models.ReadingStore) *backup.Writer {
	return backup.NewWriter(fs, index, store, testutil.TestConfig("/base"), &testutil.MockLogger{}, &testutil.MockMetrics{})
}

func seededStore(t *testing.T, n int) *models.ReadingStore {
	t.Helper()
	store := models.NewReadingStore()
	for i := 0; i < n; i++ {
		seedReading(t, store, float64(80+i), testTime().Add(time.Duration(i)*time.Minute))
	}
	return store
}

func TestWriter_PrefersManagedIndex(t *testing.T) {
	fs := afero.NewMemMapFs()
	index := testutil.NewMockManagedIndex()
	store := seededStore(t, 2)

	res, err := newWriter(fs, index, store).WriteBackup()
	require.NoError(t, err)
	assert.Equal(t, models.OriginManagedIndex, res.Origin)
	assert.True(t, res.Handle.Indirect())

	data, err := index.Open(res.Handle.Ref)
	require.NoError(t, err)
	snapshot, hadExplicit, err := backup.Decode(data)
	require.NoError(t, err)
	assert.True(t, hadExplicit)
	assert.Len(t, snapshot.Records, 2)
}

func TestWriter_CleansUpStaleManagedEntries(t *testing.T) {
	fs := afero.NewMemMapFs()
	index := testutil.NewMockManagedIndex()
	index.Put("glucolog_backup.json", []byte("{}"), testTime())
	index.Put("glucolog_backup.json", []byte("{}"), testTime())

	res, err := newWriter(fs, index, seededStore(t, 1)).WriteBackup()
	require.NoError(t, err)

	refs := index.Refs()
	require.Len(t, refs, 1)
	assert.Equal(t, res.Handle.Ref, refs[0])
}

func TestWriter_FallsBackToPrivateExternal(t *testing.T) {
	fs := afero.NewMemMapFs()
	index := testutil.NewMockManagedIndex()
	index.QueryErr = errors.New("provider unavailable")

	res, err := newWriter(fs, index, seededStore(t, 1)).WriteBackup()
	require.NoError(t, err)
	assert.Equal(t, models.OriginPrivateExternal, res.Origin)
	assert.Equal(t, "/base/external/GlucologBackup/glucolog_backup.json", res.Handle.Path)

	exists, err := afero.Exists(fs, res.Handle.Path)
	require.NoError(t, err)
	assert.True(t, exists)
	tmpLeft, err := afero.Exists(fs, res.Handle.Path+".tmp")
	require.NoError(t, err)
	assert.False(t, tmpLeft)
}

func TestWriter_FallsBackToCacheWhenExternalUnwritable(t *testing.T) {
	fsys := denyPrefixFs{Fs: afero.NewMemMapFs(), prefix: "/base/external"}
	index := testutil.NewMockManagedIndex()
	index.QueryErr = errors.New("provider unavailable")

	res, err := newWriter(fsys, index, seededStore(t, 1)).WriteBackup()
	require.NoError(t, err)
	assert.Equal(t, models.OriginCache, res.Origin)
	assert.Equal(t, "/base/cache/GlucologBackup/glucolog_backup.json", res.Handle.Path)
}

func TestWriter_BackupRoundTripsThroughDiscoveryAndRanking(t *testing.T) {
	fs := afero.NewMemMapFs()
	index := testutil.NewMockManagedIndex()
	store := seededStore(t, 3)

	res, err := newWriter(fs, index, store).WriteBackup()
	require.NoError(t, err)

	candidates := newLocator(fs, index).Discover()
	require.NotEmpty(t, candidates)

	best, denied := backup.NewRanker(fs, index, &testutil.MockLogger{}).Rank(candidates)
	require.NotNil(t, best)
	assert.Nil(t, denied)
	assert.Equal(t, res.Handle, best.Handle)
	assert.True(t, best.HadExplicit)
	assert.Equal(t, 3, best.RecordCount)
}

func TestWriter_EmptyStoreStillWrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	index := testutil.NewMockManagedIndex()

	res, err := newWriter(fs, index, models.NewReadingStore()).WriteBackup()
	require.NoError(t, err)

	data, err := index.Open(res.Handle.Ref)
	require.NoError(t, err)
	snapshot, _, err := backup.Decode(data)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Records)
}
