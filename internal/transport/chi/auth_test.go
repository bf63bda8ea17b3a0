package chi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func postJSON(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	return env
}

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)

	resp := postJSON(t, f.server.URL+"/auth/register", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "longenough",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env["status"] != "success" {
		t.Errorf("expected success envelope, got %v", env)
	}
	data := env["data"].(map[string]any)
	if data["username"] != "alice" || data["user_id"] == "" {
		t.Errorf("unexpected payload %v", data)
	}
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	cases := []map[string]string{
		{"email": "a@e.com", "password": "longenough"},               // no username
		{"username": "a", "email": "bad", "password": "longenough"},  // bad email
		{"username": "a", "email": "a@e.com", "password": "short"},   // short password
	}
	for i, body := range cases {
		resp := postJSON(t, f.server.URL+"/auth/register", body, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d", i, resp.StatusCode)
		}
		if env := decodeEnvelope(t, resp); env["status"] != "error" || env["message"] == "" {
			t.Errorf("case %d: expected error envelope, got %v", i, env)
		}
	}
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t)
	body := map[string]string{"username": "alice", "email": "a@e.com", "password": "longenough"}

	postJSON(t, f.server.URL+"/auth/register", body, nil)
	resp := postJSON(t, f.server.URL+"/auth/register", body, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	postJSON(t, f.server.URL+"/auth/register", map[string]string{
		"username": "alice", "email": "a@e.com", "password": "longenough",
	}, nil)

	resp := postJSON(t, f.server.URL+"/auth/login", map[string]string{
		"username": "alice", "password": "longenough",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	data := decodeEnvelope(t, resp)["data"].(map[string]any)
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("expected a token")
	}

	userID, err := parseToken(testSecret, token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if userID != "uid-alice" {
		t.Errorf("expected subject uid-alice, got %q", userID)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	postJSON(t, f.server.URL+"/auth/register", map[string]string{
		"username": "alice", "email": "a@e.com", "password": "longenough",
	}, nil)

	resp := postJSON(t, f.server.URL+"/auth/login", map[string]string{
		"username": "alice", "password": "wrongwrong",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLogin_UnknownUserSameResponse(t *testing.T) {
	f := newFixture(t)

	resp := postJSON(t, f.server.URL+"/auth/login", map[string]string{
		"username": "ghost", "password": "whatever",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown user, got %d", resp.StatusCode)
	}
	if env := decodeEnvelope(t, resp); env["message"] != "invalid credentials" {
		t.Errorf("unknown user must look like a wrong password, got %v", env["message"])
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/movies/recommendations")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRequireAuth_BadScheme(t *testing.T) {
	f := newFixture(t)

	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/movies/recommendations", nil)
	req.Header.Set("Authorization", "Basic abc")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	f := newFixture(t)

	token, _, err := issueToken(testSecret, "u1", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/movies/recommendations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %d", resp.StatusCode)
	}
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	f := newFixture(t)

	token, _, err := issueToken([]byte("other-secret"), "u1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/movies/recommendations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for forged token, got %d", resp.StatusCode)
	}
}
