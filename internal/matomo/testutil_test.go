package matomo

import (
	"net/url"
	"strings"
	"testing"

	"github.com/edgee-ai/matomo-component/internal/model"
)

var baseSettings = model.Dict{
	{Key: "site_id", Value: "5"},
	{Key: "endpoint_url", Value: "https://matomo.test"},
}

func withToken(d model.Dict) model.Dict {
	out := append(model.Dict{}, d...)
	return append(out, model.Pair{Key: "authentication_token", Value: "secret-token"})
}

func fullContext() model.Context {
	return model.Context{
		Client: model.Client{
			IP:             "203.0.113.7",
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64)",
			UserAgentModel: "Pixel 8",
			Locale:         "fr-FR",
			Timezone:       "Europe/Paris",
			ScreenWidth:    1920,
			ScreenHeight:   1080,
			OSName:         "Linux",
			OSVersion:      "6.1",
			CountryCode:    "FR",
			Region:         "Ile-de-France",
			City:           "Paris",
		},
		Session: model.Session{
			SessionID:    "s-1",
			SessionStart: true,
			SessionCount: 3,
			FirstSeen:    1700000000,
			LastSeen:     1700000500,
		},
		Campaign: model.Campaign{
			Name: "spring_sale",
			Term: "running shoes",
		},
	}
}

// queryOf 는 GET 요청 URL 의 query 를 파싱한다.
func queryOf(t *testing.T, req model.Request) url.Values {
	t.Helper()
	u, err := url.Parse(req.URL)
	if err != nil {
		t.Fatalf("parse url %q: %v", req.URL, err)
	}
	return u.Query()
}

// paramsOf 는 transport 와 상관없이 인코딩된 파라미터를 돌려준다.
func paramsOf(t *testing.T, req model.Request) url.Values {
	t.Helper()
	if req.Body != "" {
		v, err := url.ParseQuery(req.Body)
		if err != nil {
			t.Fatalf("parse body %q: %v", req.Body, err)
		}
		return v
	}
	return queryOf(t, req)
}

func cvarsOf(t *testing.T, v url.Values) map[string]string {
	t.Helper()
	raw := v.Get(KeyCustomVars)
	if raw == "" {
		return nil
	}
	pairs, err := DecodeCustomVars(raw)
	if err != nil {
		t.Fatalf("decode _cvar %q: %v", raw, err)
	}
	out := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		out[kv[0]] = kv[1]
	}
	return out
}

func assertParam(t *testing.T, v url.Values, key, want string) {
	t.Helper()
	if !v.Has(key) {
		t.Fatalf("expected %s=%q, key missing (params: %s)", key, want, v.Encode())
	}
	if got := v.Get(key); got != want {
		t.Fatalf("expected %s=%q, got %q", key, want, got)
	}
}

func assertAbsent(t *testing.T, v url.Values, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if v.Has(k) {
			t.Fatalf("expected %s to be absent, got %q", k, v.Get(k))
		}
	}
}

func mustContain(t *testing.T, s, sub string) {
	t.Helper()
	if !strings.Contains(s, sub) {
		t.Fatalf("expected %q to contain %q", s, sub)
	}
}
