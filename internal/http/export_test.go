package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/csvexport/internal/blobstore"
	"github.com/mrlokans/csvexport/internal/csvbuild"
	"github.com/mrlokans/csvexport/internal/delivery"
	"github.com/mrlokans/csvexport/internal/exporters"
)

type exportFixture struct {
	router *gin.Engine
	blobs  *blobstore.Store
	orch   *exporters.Orchestrator
}

func newExportFixture(t *testing.T, merge OptionsMerger) *exportFixture {
	t.Helper()
	blobs := blobstore.New(BlobPrefix)
	orch := exporters.NewOrchestrator(csvbuild.NewBuilder(), delivery.NewTrigger())
	router := NewRouter(RouterConfig{
		Orchestrator:    orch,
		Blobs:           blobs,
		Loading:         exporters.NewLoadingFlag("csv-loading"),
		MergeOptions:    merge,
		DefaultFilename: "download.csv",
	})
	return &exportFixture{router: router, blobs: blobs, orch: orch}
}

func (f *exportFixture) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func TestExport_InlineDownload(t *testing.T) {
	f := newExportFixture(t, nil)

	w := f.do("POST", "/api/export", `{
		"data": [{"a": 1, "b": "x"}, {"a": 2, "b": "y,z"}],
		"options": {"header": true},
		"filename": "people.csv"
	}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "a,b\r\n1,x\r\n2,\"y,z\"\r\n", w.Body.String())
	assert.Equal(t, "text/csv;charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=people.csv", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "csv-loading", w.Header().Get(LoadingClassHeader))

	// The object URL does not outlive the request.
	assert.Equal(t, 0, f.blobs.Len())

	payload, ok := f.orch.Payload()
	assert.True(t, ok)
	assert.Equal(t, w.Body.String(), payload)
}

func TestExport_DefaultFilename(t *testing.T) {
	f := newExportFixture(t, nil)

	w := f.do("POST", "/api/export", `{"data": [["1"]]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "download.csv")
}

func TestExport_AppliesConfiguredDefaults(t *testing.T) {
	f := newExportFixture(t, func(o csvbuild.Overrides) csvbuild.Options {
		return o.Apply(csvbuild.Options{FieldSep: "semicolon", DecimalSep: ","})
	})

	w := f.do("POST", "/api/export", `{"data": [[1.5, "a"]]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1,5;a\r\n", w.Body.String())
}

func TestExport_RequestFlagsOverrideConfiguredDefaults(t *testing.T) {
	f := newExportFixture(t, func(o csvbuild.Overrides) csvbuild.Options {
		return o.Apply(csvbuild.Options{Header: true, QuoteStrings: true, AddByteOrderMarker: true})
	})

	t.Run("defaults apply when absent", func(t *testing.T) {
		w := f.do("POST", "/api/export", `{"data": [{"a": 1}]}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "\ufeff\"a\"\r\n\"1\"\r\n", w.Body.String())
	})

	t.Run("explicit false wins", func(t *testing.T) {
		w := f.do("POST", "/api/export", `{
			"data": [{"a": 1}],
			"options": {"header": false, "quoteStrings": false, "addByteOrderMarker": false}
		}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1\r\n", w.Body.String())
	})
}

func TestExport_KeepsRequestKeyOrder(t *testing.T) {
	f := newExportFixture(t, nil)

	w := f.do("POST", "/api/export", `{"data": [{"zeta": 1, "alpha": 2, "mid": 3}], "options": {"header": true}}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "zeta,alpha,mid\r\n1,2,3\r\n", w.Body.String())
}

func TestExport_LinkDelivery(t *testing.T) {
	f := newExportFixture(t, nil)

	w := f.do("POST", "/api/export", `{"data": [["a"]], "filename": "one.csv", "delivery": "link"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var link LinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.True(t, strings.HasPrefix(link.URL, BlobPrefix))
	assert.Equal(t, "one.csv", link.Filename)
	assert.Equal(t, 3, link.Size)

	w = f.do("GET", link.URL, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a\r\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "one.csv")

	w = f.do("GET", link.URL, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExport_Declined(t *testing.T) {
	f := newExportFixture(t, nil)

	w := f.do("POST", "/api/export", `{"data": false}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ExportResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, exporters.StatusSkipped, resp.Status)
	assert.Equal(t, exporters.MessageSkipped, resp.Message)
}

func TestExport_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantBody string
	}{
		{"malformed json", `{"data": [`, http.StatusBadRequest, "invalid request body"},
		{"data is an object", `{"data": {"a": 1}}`, http.StatusUnprocessableEntity, CodeInvalidData},
		{"mixed record shapes", `{"data": [{"a": 1}, [1]]}`, http.StatusUnprocessableEntity, CodeInvalidData},
		{"nested value", `{"data": [{"a": {"b": 1}}]}`, http.StatusUnprocessableEntity, CodeInvalidData},
		{"separator equals delimiter", `{"data": [["a"]], "options": {"fieldSep": ";", "txtDelim": ";"}}`, http.StatusBadRequest, CodeInvalidOptions},
		{"unknown charset", `{"data": [["a"]], "options": {"charset": "klingon"}}`, http.StatusBadRequest, CodeInvalidOptions},
		{"unknown delivery", `{"data": [["a"]], "delivery": "carrier-pigeon"}`, http.StatusBadRequest, "unknown delivery mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExportFixture(t, nil)

			w := f.do("POST", "/api/export", tt.body)

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.Equal(t, 0, f.blobs.Len())
		})
	}
}

func TestExport_LoadingStatus(t *testing.T) {
	f := newExportFixture(t, nil)

	w := f.do("GET", "/api/exports/loading", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"loading": false, "class": ""}`, w.Body.String())
}

func TestDownload_UnknownBlob(t *testing.T) {
	f := newExportFixture(t, nil)

	w := f.do("GET", BlobPrefix+"does-not-exist", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResponseDocument_ClickRequiresAttachedHandle(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	doc := newResponseDocument(c, blobstore.New(BlobPrefix), "")

	err := doc.Click(context.Background(), &delivery.Handle{Href: BlobPrefix + "x"})

	assert.ErrorIs(t, err, errHandleDetached)
	assert.False(t, c.Writer.Written())
}
