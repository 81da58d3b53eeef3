// Package importer reads bank statement exports and records their lines as
// ledger transactions against one account.
package importer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
)

// Line is one row of a bank statement. Amount is signed from the account
// holder's view: deposits are positive, withdrawals negative.
type Line struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Reference   string // bank-derived, not necessarily unique within a file
	Kind        string // the bank's own type column, if any
}

// Parser converts one statement format into lines.
type Parser interface {
	Parse(r io.Reader) ([]Line, error)
	Format() string
}

// Registry resolves statement formats, case-insensitively, to parsers.
type Registry map[string]Parser

// NewRegistry returns a registry holding parsers. Panics when two parsers
// claim the same format.
func NewRegistry(parsers ...Parser) Registry {
	r := make(Registry, len(parsers))
	for _, p := range parsers {
		key := strings.ToLower(p.Format())
		if _, dup := r[key]; dup {
			panic("duplicate parser format: " + key)
		}
		r[key] = p
	}
	return r
}

// DefaultRegistry holds every built-in parser.
func DefaultRegistry() Registry {
	return NewRegistry(&ChaseParser{}, &SimpleParser{})
}

// Lookup returns the parser for format.
func (r Registry) Lookup(format string) (Parser, error) {
	if p, ok := r[strings.ToLower(format)]; ok {
		return p, nil
	}
	return nil, model.Invalid("format", "unknown statement format %q (have %s)", format, strings.Join(r.Formats(), ", "))
}

// Formats lists the registered format names in order.
func (r Registry) Formats() []string {
	return slices.Sorted(maps.Keys(r))
}

const (
	// Dir is the project subdirectory scanned for statement files.
	Dir          = "import"
	processedDir = "import/processed"
)

// FileInfo describes a statement file waiting in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Scan returns the CSV files in <root>/import/, sorted by name. A missing
// directory yields no files.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, Dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	dstDir := filepath.Join(root, processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}
	src := filepath.Join(root, Dir, fileName)
	if err := os.Rename(src, filepath.Join(dstDir, fileName)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
