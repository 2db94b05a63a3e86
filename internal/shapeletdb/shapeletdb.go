// Package shapeletdb persists shapelet models and fit results in sqlite.
//
// A model is a named MultiShapeletFunction stored as its JSON serialization;
// a fit records the coefficients recovered for a model against pixel data.
// The schema is managed by embedded golang-migrate migrations (see
// migrate.go), which run automatically on Open.
package shapeletdb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/shapelet.report/internal/shapelet"
)

// ErrNotFound reports a lookup of a model or fit ID with no matching row.
var ErrNotFound = errors.New("shapeletdb: not found")

type ModelDB struct {
	*sql.DB
	path string
}

// Open opens (creating if necessary) the model database at path and applies
// any pending schema migrations.
func Open(path string) (*ModelDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	mdb := &ModelDB{DB: db, path: path}
	if err := mdb.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return mdb, nil
}

// Path returns the filesystem path the database was opened with.
func (db *ModelDB) Path() string { return db.path }

// Model is a persisted shapelet model record.
type Model struct {
	ModelID    string          `json:"model_id"`
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"definition"`
	CreatedAt  int64           `json:"created_at"`
}

// Function deserializes the model definition.
func (m *Model) Function() (*shapelet.MultiShapeletFunction, error) {
	var f shapelet.MultiShapeletFunction
	if err := json.Unmarshal(m.Definition, &f); err != nil {
		return nil, fmt.Errorf("shapeletdb: decode model %s: %w", m.ModelID, err)
	}
	return &f, nil
}

// Fit is a persisted fit result for a model.
type Fit struct {
	FitID        string    `json:"fit_id"`
	ModelID      string    `json:"model_id"`
	Order        int       `json:"basis_order"`
	NumPixels    int       `json:"num_pixels"`
	ChiSquared   float64   `json:"chi_squared"`
	Coefficients []float64 `json:"coefficients"`
	CreatedAt    int64     `json:"created_at"`
}

// InsertModel persists a model. If ModelID is empty, a UUID is generated.
func (db *ModelDB) InsertModel(m *Model) error {
	if m.ModelID == "" {
		m.ModelID = uuid.New().String()
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().UnixNano()
	}
	_, err := db.Exec(
		`INSERT INTO models (model_id, name, definition, created_at) VALUES (?, ?, ?, ?)`,
		m.ModelID, m.Name, string(m.Definition), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("shapeletdb: insert model: %w", err)
	}
	return nil
}

// SaveFunction serializes a multi-shapelet function and stores it under the
// given name, returning the stored record.
func (db *ModelDB) SaveFunction(name string, f *shapelet.MultiShapeletFunction) (*Model, error) {
	definition, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("shapeletdb: encode model: %w", err)
	}
	m := &Model{Name: name, Definition: definition}
	if err := db.InsertModel(m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetModel returns the model with the given ID, or ErrNotFound.
func (db *ModelDB) GetModel(modelID string) (*Model, error) {
	var m Model
	var definition string
	err := db.QueryRow(
		`SELECT model_id, name, definition, created_at FROM models WHERE model_id = ?`, modelID,
	).Scan(&m.ModelID, &m.Name, &definition, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: model %s", ErrNotFound, modelID)
	}
	if err != nil {
		return nil, fmt.Errorf("shapeletdb: get model: %w", err)
	}
	m.Definition = json.RawMessage(definition)
	return &m, nil
}

// ListModels returns the most recently created models, newest first.
func (db *ModelDB) ListModels(limit int) ([]*Model, error) {
	rows, err := db.Query(
		`SELECT model_id, name, definition, created_at FROM models ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("shapeletdb: list models: %w", err)
	}
	defer rows.Close()

	var models []*Model
	for rows.Next() {
		var m Model
		var definition string
		if err := rows.Scan(&m.ModelID, &m.Name, &definition, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("shapeletdb: scan model row: %w", err)
		}
		m.Definition = json.RawMessage(definition)
		models = append(models, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// DeleteModel removes a model and its fits. Deleting an unknown ID returns
// ErrNotFound.
func (db *ModelDB) DeleteModel(modelID string) error {
	if _, err := db.Exec(`DELETE FROM fits WHERE model_id = ?`, modelID); err != nil {
		return fmt.Errorf("shapeletdb: delete fits: %w", err)
	}
	res, err := db.Exec(`DELETE FROM models WHERE model_id = ?`, modelID)
	if err != nil {
		return fmt.Errorf("shapeletdb: delete model: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: model %s", ErrNotFound, modelID)
	}
	return nil
}

// InsertFit persists a fit result. If FitID is empty, a UUID is generated.
func (db *ModelDB) InsertFit(f *Fit) error {
	if f.FitID == "" {
		f.FitID = uuid.New().String()
	}
	if f.CreatedAt == 0 {
		f.CreatedAt = time.Now().UnixNano()
	}
	coefficients, err := json.Marshal(f.Coefficients)
	if err != nil {
		return fmt.Errorf("shapeletdb: encode coefficients: %w", err)
	}
	_, err = db.Exec(
		`INSERT INTO fits (fit_id, model_id, basis_order, num_pixels, chi_squared, coefficients, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.FitID, f.ModelID, f.Order, f.NumPixels, f.ChiSquared, string(coefficients), f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("shapeletdb: insert fit: %w", err)
	}
	return nil
}

// ListFits returns all fits for a model, newest first.
func (db *ModelDB) ListFits(modelID string) ([]*Fit, error) {
	rows, err := db.Query(
		`SELECT fit_id, model_id, basis_order, num_pixels, chi_squared, coefficients, created_at
		 FROM fits WHERE model_id = ? ORDER BY created_at DESC`, modelID,
	)
	if err != nil {
		return nil, fmt.Errorf("shapeletdb: list fits: %w", err)
	}
	defer rows.Close()

	var fits []*Fit
	for rows.Next() {
		var f Fit
		var coefficients string
		if err := rows.Scan(&f.FitID, &f.ModelID, &f.Order, &f.NumPixels, &f.ChiSquared, &coefficients, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("shapeletdb: scan fit row: %w", err)
		}
		if err := json.Unmarshal([]byte(coefficients), &f.Coefficients); err != nil {
			return nil, fmt.Errorf("shapeletdb: decode coefficients: %w", err)
		}
		fits = append(fits, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fits, nil
}
