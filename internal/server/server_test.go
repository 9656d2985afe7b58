package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/sectionvault/internal/apperr"
	"github.com/voyagen/sectionvault/internal/config"
	"github.com/voyagen/sectionvault/internal/defaults"
	"github.com/voyagen/sectionvault/internal/editor"
	"github.com/voyagen/sectionvault/internal/fetcher"
	"github.com/voyagen/sectionvault/internal/models"
	"github.com/voyagen/sectionvault/internal/service"
	"github.com/voyagen/sectionvault/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	p := defaults.MustLoad()
	rec := service.NewReconciler(p, store.NewMemory(), service.Options{})
	sessions := service.NewSessions(rec, p, editor.NewMemoryStore(), fetcher.NewClient("SectionVault-Test/1.0", 5*time.Second))
	return New(rec, sessions, &config.Config{ServerPort: "0"})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthDocsAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = do(t, srv, http.MethodGet, "/api/docs", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "swagger-ui")

	rr = do(t, srv, http.MethodGet, "/api/docs/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "openapi: 3.0.3")

	rr = do(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "sectionvault_http_requests_total")
}

func TestCollections(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/collections/home", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[service.Result](t, rr)
	assert.Equal(t, models.CollectionHome, res.Collection)
	assert.Equal(t, "home-main", res.Groups[0].ID)

	rr = do(t, srv, http.MethodGet, "/api/collections/sidebar", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	apiErr := decode[APIError](t, rr)
	assert.Equal(t, apperr.CodeNotFound, apiErr.Code)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	rr = do(t, srv, http.MethodPut, "/api/collections/custom", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodPut, "/api/collections/custom", []models.Group{
		{ID: "g1", Name: "A", Author: "x", Sections: []models.Section{{ID: "s1"}}},
		{ID: "g1", Name: "B", Author: "x", Sections: []models.Section{{ID: "s2"}}},
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apperr.CodeIdentityCollision, decode[APIError](t, rr).Code)

	rr = do(t, srv, http.MethodPut, "/api/collections/custom", `[{"name":"Mine","author":"admin","sections":[{"id":"m1","cardFormat":"huge"}]}]`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apperr.CodeValidation, decode[APIError](t, rr).Code)

	rr = do(t, srv, http.MethodPut, "/api/collections/custom", `[{"name":"Mine","author":"admin","sections":[{"id":"m1","name":"Picks","flattenSeries":true}]}]`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	saved := decode[service.Result](t, rr)
	assert.Equal(t, int64(1), saved.Revision)

	rr = do(t, srv, http.MethodGet, "/api/collections/custom", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"flattenSeries":true`)

	rr = do(t, srv, http.MethodPost, "/api/collections/custom/preview", `[{"name":"Mine","author":"admin","sections":[{"id":"m1","deleted":true},{"id":"m2","name":"Later"}]}]`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	preview := decode[[]models.Group](t, rr)
	require.Len(t, preview, 1)
	require.Len(t, preview[0].Sections, 1)
	assert.Equal(t, "m2", preview[0].Sections[0].ID)

	rr = do(t, srv, http.MethodGet, "/api/collections", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	infos := decode[[]store.CollectionInfo](t, rr)
	require.Len(t, infos, 4)
	assert.Equal(t, int64(1), infos[3].Revision)

	rr = do(t, srv, http.MethodDelete, "/api/collections/custom", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, srv, http.MethodDelete, "/api/collections/custom", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionFlow(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte("name: Anime\nsections:\n  - id: anime-1\n    name: Seasonal Anime\n"))
	}))
	defer upstream.Close()

	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/sessions", map[string]string{"operator": "alice"})
	require.Equal(t, http.StatusCreated, rr.Code)
	sess := decode[editor.Session](t, rr)
	assert.Equal(t, "alice", sess.Operator)
	base := "/api/sessions/" + sess.ID + "/collections/custom"

	rr = do(t, srv, http.MethodPost, base+"/groups", map[string]string{"name": "Weekend"})
	require.Equal(t, http.StatusCreated, rr.Code)
	group := decode[models.Group](t, rr)
	assert.Equal(t, "alice", group.Author)

	rr = do(t, srv, http.MethodPost, base+"/groups", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodPost, base+"/groups/"+group.ID+"/sections", map[string]any{"name": "Friday", "cardFormat": "portrait"})
	require.Equal(t, http.StatusCreated, rr.Code)
	sec := decode[models.Section](t, rr)
	require.NotEmpty(t, sec.ID)

	rr = do(t, srv, http.MethodPatch, base+"/sections/"+sec.ID, map[string]any{"hidden": true})
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decode[models.Section](t, rr)
	assert.True(t, *updated.Hidden)
	assert.Equal(t, "Friday", *updated.Name)

	rr = do(t, srv, http.MethodPatch, base+"/groups/Weekend", map[string]string{"name": "Weekend Picks"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Weekend Picks", decode[models.Group](t, rr).Name)

	rr = do(t, srv, http.MethodPost, base+"/import", map[string]string{"url": upstream.URL + "/anime.yaml", "author": "community"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	imported := decode[[]models.Group](t, rr)
	require.Len(t, imported, 1)
	assert.Equal(t, "community", imported[0].Author)

	rr = do(t, srv, http.MethodPost, base+"/import", map[string]string{"url": "not a url", "author": "community"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodDelete, base+"/groups/Anime", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, srv, http.MethodDelete, base+"/sections/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/sessions/"+sess.ID+"/save", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	results := decode[[]service.Result](t, rr)
	assert.Len(t, results, len(models.Collections))

	rr = do(t, srv, http.MethodGet, "/api/collections/custom", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	custom := decode[service.Result](t, rr)
	require.Len(t, custom.Groups, 1)
	assert.Equal(t, "Weekend Picks", custom.Groups[0].Name)
	assert.Equal(t, "Friday", *custom.Groups[0].Sections[0].Name)

	rr = do(t, srv, http.MethodGet, "/api/sessions/"+sess.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	reloaded := decode[editor.Session](t, rr)
	assert.Len(t, reloaded.Tree(models.CollectionCustom), 1)

	rr = do(t, srv, http.MethodDelete, "/api/sessions/"+sess.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, srv, http.MethodGet, "/api/sessions/"+sess.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReplaceTree(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	sess := decode[editor.Session](t, rr)

	rr = do(t, srv, http.MethodPut, "/api/sessions/"+sess.ID+"/collections/seasonal", `[]`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))

	rr = do(t, srv, http.MethodPut, "/api/sessions/nope/collections/seasonal", `[]`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
