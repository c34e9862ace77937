package devicesim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type env struct {
	Response        json.RawMessage `json:"response"`
	ResponseMessage string          `json:"responseMessage"`
}

func newTestSim(t *testing.T, batchIDs ...string) (*Server, *httptest.Server) {
	t.Helper()
	sim := NewServer(slog.New(slog.DiscardHandler), batchIDs...)
	srv := httptest.NewServer(sim.Handler())
	t.Cleanup(srv.Close)
	sim.SetBaseURL(srv.URL)
	return sim, srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) env {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var e env
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return e
}

func register(t *testing.T, base, name, email, password string) (access string) {
	t.Helper()
	resp := postJSON(t, base+"/api/v1/auth/register", map[string]string{
		"name": name, "email": email, "password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status=%d", resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"accessToken"`
	}
	e := decodeEnvelope(t, resp)
	if err := json.Unmarshal(e.Response, &body); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if body.AccessToken == "" {
		t.Fatal("register issued no access token")
	}
	return body.AccessToken
}

func TestRegisterThenLogin(t *testing.T) {
	_, srv := newTestSim(t)
	register(t, srv.URL, "Dana", "dana@example.com", "hunter2")

	resp := postJSON(t, srv.URL+"/api/v1/auth/log-in", map[string]string{
		"email": "dana@example.com", "password": "hunter2",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d", resp.StatusCode)
	}
	e := decodeEnvelope(t, resp)
	if e.ResponseMessage != "logged in" {
		t.Fatalf("responseMessage=%q", e.ResponseMessage)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, srv := newTestSim(t)
	register(t, srv.URL, "Dana", "dana@example.com", "hunter2")

	resp := postJSON(t, srv.URL+"/api/v1/auth/log-in", map[string]string{
		"email": "dana@example.com", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", resp.StatusCode)
	}
	e := decodeEnvelope(t, resp)
	if e.ResponseMessage == "" {
		t.Fatal("rejection should carry a message")
	}
}

func TestDuplicateRegisterConflicts(t *testing.T) {
	_, srv := newTestSim(t)
	register(t, srv.URL, "Dana", "dana@example.com", "hunter2")

	resp := postJSON(t, srv.URL+"/api/v1/auth/register", map[string]string{
		"name": "Dana", "email": "dana@example.com", "password": "other",
	})
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status=%d want 409", resp.StatusCode)
	}
}

func TestGuardedRoutesRejectMissingToken(t *testing.T) {
	_, srv := newTestSim(t)
	resp, err := http.Get(srv.URL + "/api/v1/system/get-all-controllers/?email=x@example.com")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", resp.StatusCode)
	}
}

func TestActivateThenList(t *testing.T) {
	_, srv := newTestSim(t, "BATCH-0001")
	access := register(t, srv.URL, "Dana", "dana@example.com", "hunter2")

	body, _ := json.Marshal(map[string]any{
		"ownerEmail":     "dana@example.com",
		"controllerName": "Greenhouse",
		"isActivated":    true,
	})
	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/v1/system/update-controller/BATCH-0001", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate status=%d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	listReq, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/system/get-all-controllers/?email=dana%40example.com", nil)
	listReq.Header.Set("Authorization", "Bearer "+access)
	listResp, err := http.DefaultClient.Do(listReq)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	e := decodeEnvelope(t, listResp)
	var out struct {
		Systems []struct {
			ControllerName   string `json:"controllerName"`
			CircuitEndpoint1 string `json:"circuitEndPoint_1"`
		} `json:"systems"`
	}
	if err := json.Unmarshal(e.Response, &out); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(out.Systems) != 1 {
		t.Fatalf("systems=%d want 1", len(out.Systems))
	}
	if out.Systems[0].ControllerName != "Greenhouse" {
		t.Fatalf("name=%q", out.Systems[0].ControllerName)
	}
	if want := srv.URL + "/device/circuit/1"; out.Systems[0].CircuitEndpoint1 != want {
		t.Fatalf("endpoint=%q want %q", out.Systems[0].CircuitEndpoint1, want)
	}
}

func TestCircuitWriteUpdatesRawRelay(t *testing.T) {
	sim, srv := newTestSim(t)

	body := bytes.NewReader([]byte(`{"relay3": 1}`))
	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/device/circuit/3", body)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if raws := sim.RawRelays(); !raws[2] {
		t.Fatalf("raw relays=%v, relay3 should be set", raws)
	}
}

func TestRelaysRecordUsesIntegers(t *testing.T) {
	sim, srv := newTestSim(t)
	sim.SetRawRelay(2, true)

	resp, err := http.Get(srv.URL + "/device/relays.json")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	var rec map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := 1; i <= 4; i++ {
		if _, ok := rec[fmt.Sprintf("relay%d", i)]; !ok {
			t.Fatalf("record %v missing relay%d", rec, i)
		}
	}
	if rec["relay2"] != 1 || rec["relay1"] != 0 {
		t.Fatalf("record=%v", rec)
	}
}

func TestCircuitWriteRejectsBadValues(t *testing.T) {
	_, srv := newTestSim(t)
	for _, tc := range []struct {
		path, body string
	}{
		{"/device/circuit/9", `{"relay9": 1}`},
		{"/device/circuit/1", `{"relay2": 1}`},
		{"/device/circuit/1", `{"relay1": 7}`},
		{"/device/circuit/1", `not json`},
	} {
		req, _ := http.NewRequest(http.MethodPatch, srv.URL+tc.path, bytes.NewReader([]byte(tc.body)))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("PATCH %s: %v", tc.path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s %s: status=%d want 400", tc.path, tc.body, resp.StatusCode)
		}
	}
}
