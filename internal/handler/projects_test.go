package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"circuitmap/internal/domain"
	"circuitmap/internal/store"
)

type projectsFixture struct {
	store   *store.Store
	mux     *http.ServeMux
	changes []int64
}

func newProjectsFixture() *projectsFixture {
	f := &projectsFixture{store: store.New(), mux: http.NewServeMux()}
	h := NewProjectsHandler(f.store, func(id int64) { f.changes = append(f.changes, id) }, discardLogger())
	f.mux.HandleFunc("GET /v1/projects", h.ListProjects)
	f.mux.HandleFunc("POST /v1/projects", h.CreateProject)
	f.mux.HandleFunc("GET /v1/projects/{id}", h.GetProject)
	f.mux.HandleFunc("PATCH /v1/projects/{id}", h.RenameProject)
	f.mux.HandleFunc("DELETE /v1/projects/{id}", h.DeleteProject)
	f.mux.HandleFunc("GET /v1/projects/{id}/geojson", h.GetProjectGeoJSON)
	return f
}

func (f *projectsFixture) do(method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndListProjects(t *testing.T) {
	f := newProjectsFixture()

	rec := f.do(http.MethodPost, "/v1/projects", `{"label":"  tour  "}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var p domain.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.ID == nil || p.Label != "tour" {
		t.Fatalf("created = %+v", p)
	}

	f.store.CreateProject("alpha")
	rec = f.do(http.MethodGet, "/v1/projects", "")
	var list ProjectsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if list.Count != 2 || len(list.Projects) != 2 {
		t.Fatalf("list = %+v", list)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	f := newProjectsFixture()
	for _, body := range []string{`{`, `{"label":"   "}`, `{}`} {
		if rec := f.do(http.MethodPost, "/v1/projects", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("POST %s status = %d, want 400", body, rec.Code)
		}
	}
}

func TestGetProjectETag(t *testing.T) {
	f := newProjectsFixture()
	p := f.store.CreateProject("tour")
	path := "/v1/projects/" + itoa(*p.ID)

	rec := f.do(http.MethodGet, path, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	if rec := f.do(http.MethodGet, path, "", "If-None-Match", etag); rec.Code != http.StatusNotModified {
		t.Fatalf("conditional GET status = %d, want 304", rec.Code)
	}

	if _, err := f.store.AddCircuit(*p.ID, domain.Circuit{
		Geometry: domain.NewLineString(domain.Position{1, 1}, domain.Position{2, 2}),
	}); err != nil {
		t.Fatalf("AddCircuit: %v", err)
	}
	rec = f.do(http.MethodGet, path, "", "If-None-Match", etag)
	if rec.Code != http.StatusOK || rec.Header().Get("ETag") == etag {
		t.Fatalf("changed project status = %d etag = %s", rec.Code, rec.Header().Get("ETag"))
	}
}

func TestGetProjectErrors(t *testing.T) {
	f := newProjectsFixture()
	tests := []struct {
		path string
		want int
	}{
		{"/v1/projects/abc", http.StatusBadRequest},
		{"/v1/projects/42", http.StatusNotFound},
		{"/v1/projects/42/geojson", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := f.do(http.MethodGet, tt.path, ""); rec.Code != tt.want {
			t.Fatalf("GET %s status = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestRenameAndDeleteProject(t *testing.T) {
	f := newProjectsFixture()
	p := f.store.CreateProject("old")
	path := "/v1/projects/" + itoa(*p.ID)

	if rec := f.do(http.MethodPatch, path, `{"label":"new"}`); rec.Code != http.StatusOK {
		t.Fatalf("PATCH status = %d, want 200", rec.Code)
	}
	if got, _ := f.store.Get(*p.ID); got.Label != "new" {
		t.Fatalf("label = %q, want new", got.Label)
	}

	if rec := f.do(http.MethodDelete, path, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", rec.Code)
	}
	if rec := f.do(http.MethodDelete, path, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second DELETE status = %d, want 404", rec.Code)
	}
	if len(f.changes) != 2 {
		t.Fatalf("changes = %v, want 2 notifications", f.changes)
	}
}

func TestGetProjectGeoJSON(t *testing.T) {
	f := newProjectsFixture()
	p := f.store.CreateProject("tour")
	if _, err := f.store.AddCircuit(*p.ID, domain.Circuit{
		Label:    "loop",
		Geometry: domain.NewLineString(domain.Position{2, 48}, domain.Position{3, 49}),
	}); err != nil {
		t.Fatalf("AddCircuit: %v", err)
	}
	if _, err := f.store.AddMarker(*p.ID, domain.Marker{Point: domain.NewPoint(domain.Position{2.5, 48.5})}); err != nil {
		t.Fatalf("AddMarker: %v", err)
	}

	rec := f.do(http.MethodGet, "/v1/projects/"+itoa(*p.ID)+"/geojson", "")
	if ct := rec.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &fc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 2 {
		t.Fatalf("collection = %+v", fc)
	}
	if fc.Features[0].Geometry.Type != "LineString" || fc.Features[1].Geometry.Type != "Point" {
		t.Fatalf("geometry types = %s, %s", fc.Features[0].Geometry.Type, fc.Features[1].Geometry.Type)
	}
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
