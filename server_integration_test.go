package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"invscan/config"
	"invscan/container"
	"invscan/pkg/inventory"
	"invscan/pkg/ocr"
	"invscan/pkg/queue"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	setupRoutes(r)
	return r
}

func TestHealthz(t *testing.T) {
	resp := performRequest(newRouter(), http.MethodGet, "/healthz", nil, "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestInterpretFragments(t *testing.T) {
	body, _ := json.Marshal(map[string]any{
		"fragments": []inventory.Fragment{
			inventory.NewFragment("65", 0, 0, 20, 20, 0.95),
			inventory.NewFragment("Starmetal", 25, 0, 120, 20, 0.9),
			inventory.NewFragment("WRAVING 52", 0, 40, 120, 60, 0.8),
			inventory.NewFragment("WKAVNG 160", 0, 80, 120, 100, 0.8),
			inventory.NewFragment("999", 0, 120, 20, 140, 0.1),
		},
	})
	resp := performRequest(newRouter(), http.MethodPost, "/interpret", bytes.NewReader(body), "", "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out struct {
		Items  map[string]int    `json:"items"`
		Export map[string]int    `json:"export"`
		Match  []inventory.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Equal(t, map[string]int{"Starmetal Ore": 65, "Weaving Materials": 212}, out.Items)
	require.Equal(t, 65, out.Export[inventory.ItemID("Starmetal Ore")])
	require.Len(t, out.Match, 3)
}

func TestInterpretText(t *testing.T) {
	body := []byte(`{"text":"Iron Ingot 40  Timber 12"}`)
	resp := performRequest(newRouter(), http.MethodPost, "/interpret", bytes.NewReader(body), "", "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out struct {
		Items map[string]int `json:"items"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Equal(t, 40, out.Items["Iron Ingot"])
	require.NotContains(t, out.Items, "Iron Ore")
	require.Equal(t, 12, out.Items["Timber"])
}

func TestInterpretPartialOptionsKeepDefaults(t *testing.T) {
	fragments := []inventory.Fragment{
		inventory.NewFragment("Orichalcum", 100, 100, 200, 120, 0.9),
		inventory.NewFragment("Tier", 400, 300, 440, 320, 0.9),
		inventory.NewFragment("36", 150, 150, 170, 170, 0.9),
		inventory.NewFragment("Timber", 0, 400, 60, 420, 0.25),
		inventory.NewFragment("7", 70, 400, 80, 420, 0.25),
	}
	tests := []struct {
		name    string
		options string
		want    map[string]int
	}{
		{name: "no options", want: map[string]int{"Orichalcum Ore": 36}},
		{name: "only min_confidence", options: `{"min_confidence":0.2}`, want: map[string]int{"Orichalcum Ore": 36, "Timber": 7}},
		{name: "only max_distance", options: `{"max_distance":10}`, want: map[string]int{}},
		{name: "null options", options: `null`, want: map[string]int{"Orichalcum Ore": 36}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := map[string]any{"fragments": fragments}
			if tc.options != "" {
				req["options"] = json.RawMessage(tc.options)
			}
			body, _ := json.Marshal(req)
			resp := performRequest(newRouter(), http.MethodPost, "/interpret", bytes.NewReader(body), "", "application/json")
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

			var out struct {
				Items map[string]int `json:"items"`
			}
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
			require.Equal(t, tc.want, out.Items)
		})
	}
}

func TestInterpretRejectsEmpty(t *testing.T) {
	resp := performRequest(newRouter(), http.MethodPost, "/interpret", bytes.NewReader([]byte(`{}`)), "", "application/json")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	r := newRouter()
	for _, path := range []string{"/me", "/scans", "/inventory", "/inventory/export", "/inventory/crafting"} {
		resp := performRequest(r, http.MethodGet, path, nil, "", "")
		require.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}
	resp := performRequest(r, http.MethodGet, "/me", nil, "not-a-jwt", "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	t.Setenv("UPLOAD_BASE", t.TempDir())
	t.Setenv("REDIS_ADDR", "")
	var err error
	cfg, err = config.Load()
	require.NoError(t, err)
	jwtSecret = []byte(cfg.JWTSecret)
	initDB()

	// the recognizer is faked so the flow does not depend on a tesseract install
	scanner := &ocr.Scanner{
		Recognizer: ocr.RecognizerFunc(func(ctx context.Context, img []byte) ([]inventory.Fragment, error) {
			return []inventory.Fragment{
				inventory.NewFragment("65", 0, 0, 20, 20, 0.95),
				inventory.NewFragment("Starmetal", 25, 0, 120, 20, 0.9),
				inventory.NewFragment("Timber", 0, 40, 60, 60, 0.9),
				inventory.NewFragment("9", 70, 40, 80, 60, 0.9),
			}, nil
		}),
		Table:   inventory.DefaultTable(),
		Options: cfg.InterpretOptions(),
	}
	app = &container.Container{
		Config:  cfg,
		Table:   scanner.Table,
		Scanner: scanner,
		Store:   st,
		Job:     &queue.Job{Scanner: scanner, Store: st, Timeout: cfg.ScanTimeout},
	}
	return newRouter()
}

func pngBytes(t *testing.T, seed uint8) []byte {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	img.Pix[0] = seed
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	// 1. Register user
	regBody, _ := json.Marshal(map[string]string{"username": "miner1", "password": "pass123"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 2. Login
	loginBody, _ := json.Marshal(map[string]string{"username": "miner1", "password": "pass123"})
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(loginBody), "", "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	require.NotEmpty(t, token)

	// 3. Upload screenshot, scanned inline without Redis
	upload := func(data []byte) *httptest.ResponseRecorder {
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		w, _ := mw.CreateFormFile("file", "shed.png")
		_, _ = w.Write(data)
		_ = mw.Close()
		return performRequest(r, http.MethodPost, "/scans", buf, token, mw.FormDataContentType())
	}
	shot := pngBytes(t, uint8(os.Getpid()))
	resp = upload(shot)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var up struct {
		Duplicate bool     `json:"duplicate"`
		Scan      scanView `json:"scan"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &up))
	require.Equal(t, "done", up.Scan.Status)
	require.Equal(t, 65, up.Scan.Items["Starmetal Ore"])

	// 4. Same file again is answered from the stored scan
	resp = upload(shot)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &up))
	require.True(t, up.Duplicate)

	// 5. Non-image upload is rejected
	resp = upload([]byte("SOME CONTENT"))
	require.Equal(t, http.StatusUnsupportedMediaType, resp.Code)

	// 6. Scan detail, list and inventory views
	resp = performRequest(r, http.MethodGet, "/scans/"+up.Scan.ID, nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	resp = performRequest(r, http.MethodGet, "/scans", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	resp = performRequest(r, http.MethodGet, "/inventory", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "Starmetal Ore")
	resp = performRequest(r, http.MethodGet, "/inventory/export", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	resp = performRequest(r, http.MethodGet, "/inventory/crafting", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "Starmetal Ingot")
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	var err error
	cfg, err = config.Load()
	require.NoError(t, err)
	initDB()
}
