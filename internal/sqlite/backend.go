// Package sqlite implements the SQLite container for geostyle: core
// bookkeeping tables, the relationship catalog and mapping tables, and the
// feature style extension built on them.
package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/geostyle/pkg/types"
)

var _ types.Container = (*Backend)(nil)

// Backend implements the Container interface over a single SQLite database.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	logger   *logrus.Logger
	log      *logrus.Entry

	relations *relationCatalog
	styles    *featureStyleExtension
}

// NewBackend creates a new backend instance. The backend is not attached;
// call Attach with a Config to open it.
func NewBackend() *Backend {
	logger := logrus.New()
	return &Backend{
		logger: logger,
		log:    logger.WithField("component", "geostyle"),
	}
}

// SetLogger replaces the logger. Attach still applies Config.LogLevel to it.
func (b *Backend) SetLogger(logger *logrus.Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
	b.log = logger.WithField("component", "geostyle")
}

// Attach opens the database described by config and creates the core
// tables if they do not exist. Returns ErrAlreadyAttached if already
// attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	config = config.WithDefaults()

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return types.ErrLogLevelUnknown
	}
	b.logger.SetLevel(level)

	db, err := sql.Open("sqlite", dataSourceName(config))
	if err != nil {
		return fmt.Errorf("opening container: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("opening container: %w", err)
	}

	for _, ddl := range coreDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating core tables: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.relations = newRelationCatalog(b)
	b.styles = newFeatureStyleExtension(b, b.relations)
	b.attached = true

	b.log.WithFields(logrus.Fields{
		"path":      config.Path,
		"in_memory": config.InMemory,
	}).Debug("attached container")
	return nil
}

// Detach closes the database. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.relations = nil
	b.styles = nil
	b.log.Debug("detached container")
	return nil
}

// Relations returns the relationship catalog.
func (b *Backend) Relations() (types.RelationCatalog, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrContainerDetached
	}
	return b.relations, nil
}

// FeatureStyles returns the feature style extension.
func (b *Backend) FeatureStyles() (types.FeatureStyleExtension, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrContainerDetached
	}
	return b.styles, nil
}

// TableStyles returns a style handle for featureTable. Each call returns a
// new handle with its own cache.
func (b *Backend) TableStyles(featureTable string) (types.TableStyles, error) {
	b.mu.RLock()
	styles := b.styles
	attached := b.attached
	b.mu.RUnlock()

	if !attached {
		return nil, types.ErrContainerDetached
	}
	return styles.TableStyles(featureTable)
}

// conn returns the open database or ErrContainerDetached.
func (b *Backend) conn() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrContainerDetached
	}
	return b.db, nil
}

// entry returns the logger entry every component logs through.
func (b *Backend) entry() *logrus.Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.log
}

// withTx runs fn in a transaction. With a single pooled connection fn must
// only use tx.
func (b *Backend) withTx(fn func(tx *sql.Tx) error) error {
	db, err := b.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// dataSourceName builds the modernc DSN. In-memory containers get a unique
// shared-cache name so every pooled connection sees the same database while
// separate containers stay isolated.
func dataSourceName(config types.Config) string {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", config.BusyTimeout.Milliseconds()))

	if config.InMemory {
		params.Set("mode", "memory")
		params.Set("cache", "shared")
		return "file:" + uuid.NewString() + "?" + params.Encode()
	}
	return "file:" + config.Path + "?" + params.Encode()
}
