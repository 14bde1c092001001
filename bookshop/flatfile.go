package bookshop

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Default file names of the flat-file store.
const (
	DefaultBooksFile = "books.txt"
	DefaultSalesFile = "sales.txt"
	DefaultUsersFile = "users.txt"
)

// FileStoreOptions locates the three record files. Relative file names
// resolve against Dir.
type FileStoreOptions struct {
	Dir       string
	BooksFile string
	SalesFile string
	UsersFile string
}

// FileStore persists each collection to its own pipe-delimited text file.
// Every save rewrites the whole file through a temp file and a rename.
type FileStore struct {
	booksPath string
	salesPath string
	usersPath string
}

// NewFileStore creates the data directory if needed. The record files
// themselves are created on first save.
func NewFileStore(opts FileStoreOptions) (*FileStore, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	resolve := func(name, def string) string {
		if name == "" {
			name = def
		}
		if filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(dir, name)
	}
	return &FileStore{
		booksPath: resolve(opts.BooksFile, DefaultBooksFile),
		salesPath: resolve(opts.SalesFile, DefaultSalesFile),
		usersPath: resolve(opts.UsersFile, DefaultUsersFile),
	}, nil
}

func (f *FileStore) LoadBooks() ([]Book, error) { return readRecordFile(f.booksPath, DecodeBook) }
func (f *FileStore) LoadSales() ([]Sale, error) { return readRecordFile(f.salesPath, DecodeSale) }
func (f *FileStore) LoadUsers() ([]User, error) { return readRecordFile(f.usersPath, DecodeUser) }

func (f *FileStore) SaveBooks(books []Book) error {
	return writeFileAtomic(f.booksPath, encodeRecords(books, EncodeBook))
}

func (f *FileStore) SaveSales(sales []Sale) error {
	return writeFileAtomic(f.salesPath, encodeRecords(sales, EncodeSale))
}

func (f *FileStore) SaveUsers(users []User) error {
	return writeFileAtomic(f.usersPath, encodeRecords(users, EncodeUser))
}

// WithTx stages every save made through the view in memory. When fn succeeds
// all staged files are written to temp files first and then swapped in one
// by one, the originals moved aside. A failed swap restores every original.
func (f *FileStore) WithTx(fn func(tx Store) error) error {
	view := &fileTxView{parent: f, staged: make(map[string][]byte)}
	if err := fn(view); err != nil {
		return err
	}
	return view.commit()
}

func (f *FileStore) Close() error { return nil }

type fileTxView struct {
	parent *FileStore
	staged map[string][]byte
	order  []string
}

func (v *fileTxView) stage(path string, data []byte) {
	if _, ok := v.staged[path]; !ok {
		v.order = append(v.order, path)
	}
	v.staged[path] = data
}

func (v *fileTxView) LoadBooks() ([]Book, error) {
	if data, ok := v.staged[v.parent.booksPath]; ok {
		return readRecords(bytes.NewReader(data), DecodeBook)
	}
	return v.parent.LoadBooks()
}

func (v *fileTxView) LoadSales() ([]Sale, error) {
	if data, ok := v.staged[v.parent.salesPath]; ok {
		return readRecords(bytes.NewReader(data), DecodeSale)
	}
	return v.parent.LoadSales()
}

func (v *fileTxView) LoadUsers() ([]User, error) {
	if data, ok := v.staged[v.parent.usersPath]; ok {
		return readRecords(bytes.NewReader(data), DecodeUser)
	}
	return v.parent.LoadUsers()
}

func (v *fileTxView) SaveBooks(books []Book) error {
	v.stage(v.parent.booksPath, encodeRecords(books, EncodeBook))
	return nil
}

func (v *fileTxView) SaveSales(sales []Sale) error {
	v.stage(v.parent.salesPath, encodeRecords(sales, EncodeSale))
	return nil
}

func (v *fileTxView) SaveUsers(users []User) error {
	v.stage(v.parent.usersPath, encodeRecords(users, EncodeUser))
	return nil
}

func (v *fileTxView) WithTx(fn func(tx Store) error) error { return fn(v) }
func (v *fileTxView) Close() error                         { return nil }

func (v *fileTxView) commit() error {
	swaps := make([]*fileSwap, 0, len(v.order))
	for _, path := range v.order {
		tmp, err := writeTemp(path, v.staged[path])
		if err != nil {
			for _, s := range swaps {
				os.Remove(s.tmp)
			}
			return err
		}
		swaps = append(swaps, &fileSwap{path: path, tmp: tmp})
	}
	for i, s := range swaps {
		if err := s.apply(); err != nil {
			for j := i; j >= 0; j-- {
				swaps[j].undo()
			}
			for _, rest := range swaps[i+1:] {
				os.Remove(rest.tmp)
			}
			return err
		}
	}
	for _, s := range swaps {
		if s.backup != "" {
			os.Remove(s.backup)
		}
	}
	return nil
}

// renameFile is os.Rename; tests replace it to fail a swap.
var renameFile = os.Rename

// fileSwap replaces path with tmp, keeping the original aside until the
// whole commit has succeeded.
type fileSwap struct {
	path    string
	tmp     string
	backup  string
	applied bool
}

func (s *fileSwap) apply() error {
	_, err := os.Stat(s.path)
	switch {
	case err == nil:
		backup := strings.TrimSuffix(s.tmp, ".tmp") + ".bak"
		if err := renameFile(s.path, backup); err != nil {
			return fmt.Errorf("back up %s: %w", filepath.Base(s.path), err)
		}
		s.backup = backup
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat %s: %w", filepath.Base(s.path), err)
	}
	if err := renameFile(s.tmp, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(s.path), err)
	}
	s.applied = true
	return nil
}

// undo puts the original back, or removes a file that did not exist before.
func (s *fileSwap) undo() {
	if !s.applied {
		os.Remove(s.tmp)
	}
	switch {
	case s.backup != "":
		os.Rename(s.backup, s.path)
	case s.applied:
		os.Remove(s.path)
	}
}

// ---------------------------------------------------------------------------
// Record file helpers
// ---------------------------------------------------------------------------

// readRecordFile decodes every non-empty line of path. A missing file is an
// empty collection.
func readRecordFile[T any](path string, decode func(string) (T, error)) ([]T, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	records, err := readRecords(file, decode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return records, nil
}

func readRecords[T any](r io.Reader, decode func(string) (T, error)) ([]T, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	records := []T{}
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		rec, err := decode(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func encodeRecords[T any](records []T, encode func(T) string) []byte {
	var buf bytes.Buffer
	for _, r := range records {
		buf.WriteString(encode(r))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := writeTemp(path, data)
	if err != nil {
		return err
	}
	if err := renameFile(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeTemp writes data next to path and returns the temp file name.
func writeTemp(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", filepath.Base(path), err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	return name, nil
}
