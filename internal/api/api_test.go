package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/xuri/excelize/v2"

	"designlookup/internal/lookup"
	"designlookup/internal/model"
	workspace "designlookup/internal/service/store"
	"designlookup/internal/store"
)

type testClient struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func newTestClient(t *testing.T, opts ...func(*Options)) *testClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logs, err := store.New(filepath.Join(t.TempDir(), "designlookup.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = logs.Close() })

	o := Options{
		Engine:     lookup.NewEngine(lookup.Options{}),
		Workspaces: workspace.NewMemoryStore(0),
		Logs:       logs,
		Cookies:    sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!")),
		ExportDir:  t.TempDir(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	h := NewHandler(o)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))

	return &testClient{t: t, router: r}
}

func (tc *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	tc.t.Helper()
	for _, ck := range tc.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	tc.router.ServeHTTP(w, req)
	if cks := w.Result().Cookies(); len(cks) > 0 {
		tc.cookies = cks
	}
	return w
}

func (tc *testClient) upload(kind, filename string, body []byte) *httptest.ResponseRecorder {
	tc.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		tc.t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(body); err != nil {
		tc.t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		tc.t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload/"+kind, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return tc.do(req)
}

func (tc *testClient) search(query string) *httptest.ResponseRecorder {
	tc.t.Helper()
	body, _ := json.Marshal(SearchRequest{Query: query})
	req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

func workbookBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
	}
	return v
}

func TestUploadSearchExportFlow(t *testing.T) {
	tc := newTestClient(t)

	w := tc.upload("designs", "designs.xlsx", workbookBytes(t, [][]interface{}{
		{"  design name ", "Width"},
		{" rose-01 ", 140},
		{"tulip", 150},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("upload designs: %d body=%s", w.Code, w.Body.String())
	}
	up := decode[UploadResponse](t, w)
	if !up.Dataset.HasKey || up.Dataset.Rows != 2 || up.Dataset.Columns[0] != model.KeyColumn {
		t.Fatalf("unexpected upload response: %+v", up)
	}
	if up.Preview[0][0] != "ROSE-01" {
		t.Fatalf("key not normalized: %#v", up.Preview[0])
	}
	if len(tc.cookies) == 0 {
		t.Fatalf("session cookie not set")
	}

	w = tc.upload("yarns", "yarns.xlsx", workbookBytes(t, [][]interface{}{
		{"Design Name", "Yarn"},
		{"ROSE-01", "cotton"},
		{"rose-01", "silk"},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("upload yarns: %d body=%s", w.Code, w.Body.String())
	}

	w = tc.search("rose")
	if w.Code != http.StatusOK {
		t.Fatalf("search: %d body=%s", w.Code, w.Body.String())
	}
	res := decode[SearchResponse](t, w)
	if res.Kind != model.ResultBoth {
		t.Fatalf("kind=%s, want both", res.Kind)
	}
	if res.Counts.CombinedRows != 2 || res.Counts.DesignMatches != 1 || res.Counts.YarnMatches != 2 {
		t.Fatalf("unexpected counts: %+v", res.Counts)
	}

	w = tc.do(httptest.NewRequest(http.MethodPost, "/api/export", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d body=%s", w.Code, w.Body.String())
	}
	exp := decode[map[string]any](t, w)
	url, _ := exp["downloadUrl"].(string)
	if !strings.HasPrefix(url, "/api/export/download/") {
		t.Fatalf("unexpected downloadUrl: %v", exp)
	}

	w = tc.do(httptest.NewRequest(http.MethodGet, url, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("download: %d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("content-type=%s", w.Header().Get("Content-Type"))
	}
	wb, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open exported workbook: %v", err)
	}
	defer wb.Close()
	if wb.GetSheetList()[0] != "Combined" {
		t.Fatalf("sheets=%v", wb.GetSheetList())
	}

	// 下载链接只能用一次
	w = tc.do(httptest.NewRequest(http.MethodGet, url, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("second download: %d, want 404", w.Code)
	}

	w = tc.do(httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	st := decode[StatusResponse](t, w)
	if !st.Ready || st.Session.Designs == nil || st.Session.Yarns == nil {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.Activity == nil || st.Activity.Uploads != 2 || st.Activity.Searches != 1 {
		t.Fatalf("unexpected activity: %+v", st.Activity)
	}
	if st.Lookup.SuggestionLimit != lookup.DefaultSuggestionLimit || st.Lookup.MissingKey != lookup.MissingKeyExclude {
		t.Fatalf("unexpected lookup options: %+v", st.Lookup)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	tc := newTestClient(t)

	w := tc.search("   ")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
	if got := decode[map[string]string](t, w)["error"]; got != "请输入设计名称" {
		t.Fatalf("error=%q", got)
	}
}

func TestSearch_NoDatasetsIsNoMatch(t *testing.T) {
	tc := newTestClient(t)

	w := tc.search("abc")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	res := decode[SearchResponse](t, w)
	if res.Kind != model.ResultNoMatch || len(res.Suggestions) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	// 无匹配时没有可导出的数据
	w = tc.do(httptest.NewRequest(http.MethodPost, "/api/export", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("export status=%d, want 409", w.Code)
	}
}

func TestUpload_MalformedKeepsPreviousDataset(t *testing.T) {
	tc := newTestClient(t)

	w := tc.upload("designs", "designs.xlsx", workbookBytes(t, [][]interface{}{
		{"Design Name"},
		{"ABC123"},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("upload: %d body=%s", w.Code, w.Body.String())
	}

	w = tc.upload("designs", "broken.xlsx", []byte("not a workbook"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed upload status=%d, want 400", w.Code)
	}
	if msg := decode[map[string]string](t, w)["error"]; !strings.HasPrefix(msg, "读取文件失败: ") {
		t.Fatalf("error=%q", msg)
	}

	w = tc.search("AB")
	res := decode[SearchResponse](t, w)
	if res.Kind != model.ResultDesignOnly || res.Counts.DesignMatches != 1 {
		t.Fatalf("previous dataset should be kept: %+v", res)
	}

	w = tc.search("XYZ")
	res = decode[SearchResponse](t, w)
	if res.Kind != model.ResultNoMatch || len(res.Suggestions) != 0 {
		t.Fatalf("unexpected no-match result: %+v", res)
	}
}

func TestUpload_UnknownKindAndMissingFile(t *testing.T) {
	tc := newTestClient(t)

	w := tc.upload("fabrics", "a.xlsx", []byte("x"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind status=%d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload/designs", strings.NewReader(""))
	w = tc.do(req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing file status=%d", w.Code)
	}
}

func TestExport_BeforeSearch(t *testing.T) {
	tc := newTestClient(t)

	w := tc.do(httptest.NewRequest(http.MethodPost, "/api/export", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d, want 409", w.Code)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	a := newTestClient(t)
	w := a.upload("designs", "d.xlsx", workbookBytes(t, [][]interface{}{{"Design Name"}, {"ONLY-A"}}))
	if w.Code != http.StatusOK {
		t.Fatalf("upload: %d", w.Code)
	}

	// 同一个 router，另一个没有 cookie 的客户端
	b := &testClient{t: t, router: a.router}
	res := decode[SearchResponse](t, b.search("ONLY"))
	if res.Kind != model.ResultNoMatch {
		t.Fatalf("other session should not see designs: %+v", res)
	}

	res = decode[SearchResponse](t, a.search("ONLY"))
	if res.Kind != model.ResultDesignOnly {
		t.Fatalf("own session should see designs: %+v", res)
	}
}

func TestUpload_TooLarge(t *testing.T) {
	tc := newTestClient(t, func(o *Options) { o.MaxUpload = 1024 })

	// 小的 csv 在上限之内
	w := tc.upload("designs", "designs.csv", []byte("Design Name,Width\nROSE-01,140\n"))
	if w.Code != http.StatusOK {
		t.Fatalf("small upload: %d body=%s", w.Code, w.Body.String())
	}

	big := append([]byte("Design Name\n"), bytes.Repeat([]byte("TULIP-0000\n"), 64<<10/11)...)
	w = tc.upload("designs", "big.csv", big)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized upload status=%d, want 413 body=%s", w.Code, w.Body.String())
	}
	if got := decode[map[string]string](t, w)["error"]; got != "文件过大" {
		t.Fatalf("error=%q", got)
	}

	res := decode[SearchResponse](t, tc.search("rose"))
	if res.Kind != model.ResultDesignOnly || res.Counts.DesignMatches != 1 {
		t.Fatalf("previous dataset should survive the rejected upload: %+v", res)
	}
	if res = decode[SearchResponse](t, tc.search("tulip")); res.Kind != model.ResultNoMatch {
		t.Fatalf("oversized dataset must not be stored: %+v", res)
	}
}

func TestResetSession(t *testing.T) {
	tc := newTestClient(t)
	w := tc.upload("designs", "d.xlsx", workbookBytes(t, [][]interface{}{{"Design Name"}, {"ABC"}}))
	if w.Code != http.StatusOK {
		t.Fatalf("upload: %d", w.Code)
	}
	if res := decode[SearchResponse](t, tc.search("abc")); res.Kind != model.ResultDesignOnly {
		t.Fatalf("search before reset: %+v", res)
	}
	oldCookies := tc.cookies

	w = tc.do(httptest.NewRequest(http.MethodDelete, "/api/session", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("reset status=%d", w.Code)
	}

	// 继续使用重置前的 cookie，会话数据和活动记录都应已清空
	tc.cookies = oldCookies

	st := decode[StatusResponse](t, tc.do(httptest.NewRequest(http.MethodGet, "/api/status", nil)))
	if st.Ready || st.Session.Designs != nil {
		t.Fatalf("workspace should be empty after reset: %+v", st.Session)
	}
	if st.Activity == nil || st.Activity.Uploads != 0 || st.Activity.Searches != 0 {
		t.Fatalf("activity log should be empty after reset: %+v", st.Activity)
	}

	res := decode[SearchResponse](t, tc.search("abc"))
	if res.Kind != model.ResultNoMatch {
		t.Fatalf("search after reset: kind=%s, want no_match", res.Kind)
	}
	w = tc.do(httptest.NewRequest(http.MethodPost, "/api/export", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("export after reset status=%d, want 409", w.Code)
	}
}

func TestBuildExportContentDisposition(t *testing.T) {
	t.Parallel()

	got := buildExportContentDisposition("ROSE 01")
	want := "attachment; filename=\"design-lookup-ROSE_01.xlsx\"; filename*=UTF-8''design-lookup-ROSE%2001.xlsx"
	if got != want {
		t.Fatalf("content-disposition mismatch:\n got: %s\nwant: %s", got, want)
	}
}
