package shapeletdb

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/shapelet.report/internal/geom"
	"github.com/banshee-data/shapelet.report/internal/shapelet"
)

func openTestDB(t *testing.T) *ModelDB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "models.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testFunction(t *testing.T) *shapelet.MultiShapeletFunction {
	t.Helper()
	f, err := shapelet.NewShapeletFunction(2, shapelet.Hermite, []float64{3, 0.5, -0.2, 0.1, 0, 0.3})
	if err != nil {
		t.Fatalf("NewShapeletFunction: %v", err)
	}
	f.SetEllipse(geom.NewEllipse(geom.Axes{A: 2, B: 1.5, Theta: 0.3}, geom.Point{X: 0.5, Y: -0.5}))
	return shapelet.NewMultiShapeletFunction([]*shapelet.ShapeletFunction{f})
}

func TestModelRoundTrip(t *testing.T) {
	db := openTestDB(t)
	f := testFunction(t)

	stored, err := db.SaveFunction("psf-model", f)
	if err != nil {
		t.Fatalf("SaveFunction: %v", err)
	}
	if stored.ModelID == "" {
		t.Fatal("SaveFunction did not assign a model ID")
	}
	if stored.CreatedAt == 0 {
		t.Error("SaveFunction did not assign a creation time")
	}

	got, err := db.GetModel(stored.ModelID)
	if err != nil {
		t.Fatalf("GetModel: %v", err)
	}
	if got.Name != "psf-model" {
		t.Errorf("Name = %q, want %q", got.Name, "psf-model")
	}

	decoded, err := got.Function()
	if err != nil {
		t.Fatalf("Function: %v", err)
	}
	if len(decoded.Elements()) != 1 {
		t.Fatalf("decoded elements = %d, want 1", len(decoded.Elements()))
	}
	want := f.Elements()[0]
	el := decoded.Elements()[0]
	if el.Order() != want.Order() || el.BasisType() != want.BasisType() {
		t.Errorf("decoded order/basis = %d/%v, want %d/%v", el.Order(), el.BasisType(), want.Order(), want.BasisType())
	}
	if diff := cmp.Diff(want.Coefficients(), el.Coefficients()); diff != "" {
		t.Errorf("coefficients mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Ellipse(), el.Ellipse()); diff != "" {
		t.Errorf("ellipse mismatch (-want +got):\n%s", diff)
	}
}

func TestGetModelNotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetModel("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetModel error = %v, want ErrNotFound", err)
	}
}

func TestListModelsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	f := testFunction(t)
	definition, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal function: %v", err)
	}
	for i, name := range []string{"first", "second", "third"} {
		m := &Model{Name: name, Definition: definition, CreatedAt: int64(i + 1)}
		if err := db.InsertModel(m); err != nil {
			t.Fatalf("InsertModel(%s): %v", name, err)
		}
	}

	models, err := db.ListModels(2)
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("len(models) = %d, want 2", len(models))
	}
	if models[0].Name != "third" || models[1].Name != "second" {
		t.Errorf("order = [%s, %s], want [third, second]", models[0].Name, models[1].Name)
	}
}

func TestDeleteModel(t *testing.T) {
	db := openTestDB(t)
	stored, err := db.SaveFunction("doomed", testFunction(t))
	if err != nil {
		t.Fatalf("SaveFunction: %v", err)
	}
	if err := db.InsertFit(&Fit{ModelID: stored.ModelID, Order: 2, NumPixels: 50, Coefficients: []float64{1, 2, 3}}); err != nil {
		t.Fatalf("InsertFit: %v", err)
	}

	if err := db.DeleteModel(stored.ModelID); err != nil {
		t.Fatalf("DeleteModel: %v", err)
	}
	if _, err := db.GetModel(stored.ModelID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetModel after delete = %v, want ErrNotFound", err)
	}
	fits, err := db.ListFits(stored.ModelID)
	if err != nil {
		t.Fatalf("ListFits: %v", err)
	}
	if len(fits) != 0 {
		t.Errorf("fits survive model deletion: %d", len(fits))
	}

	if err := db.DeleteModel(stored.ModelID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteModel twice = %v, want ErrNotFound", err)
	}
}

func TestFitRoundTrip(t *testing.T) {
	db := openTestDB(t)
	stored, err := db.SaveFunction("fitted", testFunction(t))
	if err != nil {
		t.Fatalf("SaveFunction: %v", err)
	}

	fit := &Fit{
		ModelID:      stored.ModelID,
		Order:        4,
		NumPixels:    190,
		ChiSquared:   12.75,
		Coefficients: []float64{3.0, 0.1, -0.2},
	}
	if err := db.InsertFit(fit); err != nil {
		t.Fatalf("InsertFit: %v", err)
	}
	if fit.FitID == "" {
		t.Fatal("InsertFit did not assign a fit ID")
	}

	fits, err := db.ListFits(stored.ModelID)
	if err != nil {
		t.Fatalf("ListFits: %v", err)
	}
	if len(fits) != 1 {
		t.Fatalf("len(fits) = %d, want 1", len(fits))
	}
	if diff := cmp.Diff(fit, fits[0]); diff != "" {
		t.Errorf("fit mismatch (-want +got):\n%s", diff)
	}
}

// Migrations roll back and re-apply cleanly.
func TestMigrateDownUp(t *testing.T) {
	db := openTestDB(t)
	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion: %v", err)
	}
	if dirty {
		t.Fatal("fresh database is dirty")
	}
	if version == 0 {
		t.Fatal("Open did not apply migrations")
	}

	if err := db.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown: %v", err)
	}
	downVersion, _, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion after down: %v", err)
	}
	if downVersion != version-1 {
		t.Errorf("version after down = %d, want %d", downVersion, version-1)
	}

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	upVersion, _, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion after up: %v", err)
	}
	if upVersion != version {
		t.Errorf("version after up = %d, want %d", upVersion, version)
	}

	// MigrateUp with nothing pending is a no-op.
	if err := db.MigrateUp(); err != nil {
		t.Errorf("MigrateUp at latest = %v", err)
	}
}

func TestOpenRecordsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

// The admin SQL surface must label its source with the file the store was
// actually opened from, not a fixed name.
func TestAdminRoutesLabelDatabasePath(t *testing.T) {
	db := openTestDB(t)
	mux := http.NewServeMux()
	db.AttachAdminRoutes(mux)

	req := httptest.NewRequest("GET", "/debug/tailsql/", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("tailsql page status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), db.Path()) {
		t.Errorf("tailsql page does not mention the database path %q", db.Path())
	}
}
