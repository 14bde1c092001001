package bookshop

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFileStore(FileStoreOptions{Dir: dir})
	require.NoError(t, err)
	return fs, dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFileStoreMissingFilesAreEmpty(t *testing.T) {
	fs, _ := newTestFileStore(t)

	books, err := fs.LoadBooks()
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)

	sales, err := fs.LoadSales()
	require.NoError(t, err)
	assert.Empty(t, sales)

	users, err := fs.LoadUsers()
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestFileStoreWritesRecordLines(t *testing.T) {
	fs, dir := newTestFileStore(t)
	b := dune()
	b.DateAdded = testNow

	require.NoError(t, fs.SaveBooks([]Book{b}))
	require.NoError(t, fs.SaveUsers([]User{{Username: "admin", Secret: "admin123", Role: RoleAdmin}}))

	assert.Equal(t, "B1|Dune|Herbert|SciFi|12.5|5|Fri Mar 14 10:30:00 2025\n", readFile(t, filepath.Join(dir, "books.txt")))
	assert.Equal(t, "admin|admin123|admin\n", readFile(t, filepath.Join(dir, "users.txt")))
}

func TestFileStoreSkipsEmptyLines(t *testing.T) {
	fs, dir := newTestFileStore(t)
	content := "\nB1|Dune|Herbert|SciFi|12.5|5|Fri Mar 14 10:30:00 2025\r\n\n" +
		"B2|Foundation|Asimov|SciFi|9.99|3|Fri Mar 14 10:30:00 2025\n\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "books.txt"), []byte(content), 0o644))

	books, err := fs.LoadBooks()
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "B1", books[0].ID)
	assert.True(t, books[0].DateAdded.Equal(testNow), "carriage return is stripped")
	assert.Equal(t, "B2", books[1].ID)
}

func TestFileStoreMalformedLine(t *testing.T) {
	fs, dir := newTestFileStore(t)
	content := "B1|Dune|Herbert|SciFi|12.5|5|Fri Mar 14 10:30:00 2025\nB2|broken\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "books.txt"), []byte(content), 0o644))

	_, err := fs.LoadBooks()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "books.txt: line 2")
}

func TestFileStoreCustomFileNames(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(t.TempDir(), "people.db.txt")
	fs, err := NewFileStore(FileStoreOptions{Dir: filepath.Join(dir, "data"), BooksFile: "inventory.txt", UsersFile: abs})
	require.NoError(t, err)

	require.NoError(t, fs.SaveBooks([]Book{dune()}))
	require.NoError(t, fs.SaveUsers(DefaultUsers()))

	assert.FileExists(t, filepath.Join(dir, "data", "inventory.txt"))
	assert.FileExists(t, abs)
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	fs, dir := newTestFileStore(t)
	require.NoError(t, fs.SaveBooks([]Book{dune()}))
	require.NoError(t, fs.WithTx(func(tx Store) error {
		return tx.SaveSales([]Sale{{SaleID: "S1", BookID: "B1", Quantity: 1, TotalAmount: price("1"), Date: testNow, CustomerName: "A"}})
	}))

	temps, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, temps)
}

func TestFileStoreTxStagesUntilCommit(t *testing.T) {
	fs, dir := newTestFileStore(t)
	b := dune()
	b.DateAdded = testNow
	require.NoError(t, fs.SaveBooks([]Book{b}))
	before := readFile(t, filepath.Join(dir, "books.txt"))

	err := fs.WithTx(func(tx Store) error {
		sold := b
		sold.Quantity = 2
		require.NoError(t, tx.SaveBooks([]Book{sold}))

		// The view reads its own staged write, the files do not change yet.
		staged, err := tx.LoadBooks()
		require.NoError(t, err)
		assert.Equal(t, 2, staged[0].Quantity)
		assert.Equal(t, before, readFile(t, filepath.Join(dir, "books.txt")))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, before, readFile(t, filepath.Join(dir, "books.txt")))
	_, statErr := os.Stat(filepath.Join(dir, "sales.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStoreTxRestoresFilesWhenASwapFails(t *testing.T) {
	fs, dir := newTestFileStore(t)
	b := dune()
	b.DateAdded = testNow
	require.NoError(t, fs.SaveBooks([]Book{b}))
	require.NoError(t, fs.SaveSales([]Sale{{SaleID: "S1", BookID: "B1", BookTitle: "Dune", Quantity: 1, TotalAmount: price("12.5"), Date: testNow, CustomerName: "Alice"}}))
	booksBefore := readFile(t, filepath.Join(dir, "books.txt"))
	salesBefore := readFile(t, filepath.Join(dir, "sales.txt"))

	// GIVEN: moving the staged sales file into place fails
	salesPath := filepath.Join(dir, "sales.txt")
	renameFile = func(from, to string) error {
		if to == salesPath && strings.HasSuffix(from, ".tmp") {
			return errBoom
		}
		return os.Rename(from, to)
	}
	t.Cleanup(func() { renameFile = os.Rename })

	// WHEN: a sale commits books first, then sales
	err := fs.WithTx(func(tx Store) error {
		sold := b
		sold.Quantity = 4
		if err := tx.SaveBooks([]Book{sold}); err != nil {
			return err
		}
		return tx.SaveSales(nil)
	})

	// THEN: the books file already swapped in is rolled back too
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, booksBefore, readFile(t, filepath.Join(dir, "books.txt")))
	assert.Equal(t, salesBefore, readFile(t, salesPath))

	leftovers, err := filepath.Glob(filepath.Join(dir, ".*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileStoreTxRemovesNewFileWhenASwapFails(t *testing.T) {
	fs, dir := newTestFileStore(t)
	salesPath := filepath.Join(dir, "sales.txt")
	renameFile = func(from, to string) error {
		if to == salesPath {
			return errBoom
		}
		return os.Rename(from, to)
	}
	t.Cleanup(func() { renameFile = os.Rename })

	err := fs.WithTx(func(tx Store) error {
		if err := tx.SaveBooks([]Book{dune()}); err != nil {
			return err
		}
		return tx.SaveSales(nil)
	})

	require.ErrorIs(t, err, errBoom)
	assert.NoFileExists(t, filepath.Join(dir, "books.txt"))
	assert.NoFileExists(t, salesPath)
}
