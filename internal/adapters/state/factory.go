package state

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// Backend names accepted by NewResultStore.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// NewResultStore creates a ResultStore for backend at path. An empty backend
// is inferred from path: a ".db" suffix selects SQLite, anything else a JSON
// directory.
func NewResultStore(backend, path string) (core.ResultStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, core.ErrValidation(core.CodeInvalidConfig, "result store path is empty")
	}
	if backend == "" {
		backend = BackendJSON
		if filepath.Ext(path) == ".db" {
			backend = BackendSQLite
		}
	}

	switch strings.ToLower(backend) {
	case BackendSQLite:
		return NewSQLiteResultStore(path)
	case BackendJSON:
		return NewJSONResultStore(path)
	default:
		return nil, core.ErrValidation(core.CodeInvalidConfig,
			fmt.Sprintf("unknown result store backend %q", backend))
	}
}
