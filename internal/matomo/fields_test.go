package matomo

import (
	"testing"

	"github.com/edgee-ai/matomo-component/internal/model"

	json "github.com/goccy/go-json"
)

func TestMapPageAllFields(t *testing.T) {
	p := Params{}
	cv := NewCustomVars()
	MapPage(p, model.PageData{
		Title:      "Homepage",
		URL:        "https://example.com",
		Referrer:   "https://google.com",
		Search:     "shoes",
		Name:       "home",
		Path:       "/",
		Category:   "landing",
		Properties: model.Dict{{Key: "author", Value: "jane"}},
		Keywords:   []string{"a", "b", "c"},
	}, cv)

	want := map[string]string{
		KeyActionName: "Homepage",
		KeyURL:        "https://example.com",
		KeyReferrer:   "https://google.com",
		KeySearch:     "shoes",
		KeyEventName:  "home",
		KeyEventValue: "/",
		KeyEventCat:   "landing",
	}
	for k, v := range want {
		if p[k] != v {
			t.Fatalf("expected %s=%q, got %q", k, v, p[k])
		}
	}
	if v, _ := cv.Get("page_author"); v != "jane" {
		t.Fatalf("expected page_author=jane, got %q", v)
	}
	if v, _ := cv.Get("page_keywords"); v != "a,b,c" {
		t.Fatalf("expected page_keywords=a,b,c, got %q", v)
	}
}

func TestMapPageOmitsBlankFields(t *testing.T) {
	p := Params{}
	cv := NewCustomVars()
	MapPage(p, model.PageData{Title: "  ", URL: "", Search: "\t"}, cv)

	if len(p) != 0 {
		t.Fatalf("expected no params, got %v", p)
	}
	if _, ok := cv.Get("page_keywords"); ok {
		t.Fatalf("expected no page_keywords for empty keyword list")
	}
}

func TestMapTrackDefaultsAndOverrides(t *testing.T) {
	p := Params{}
	cv := NewCustomVars()
	MapTrack(p, model.TrackData{Name: "Clicked"}, cv)
	if p[KeyEventAct] != "Clicked" || p[KeyEventCat] != "track" {
		t.Fatalf("expected e_a=Clicked e_c=track, got %v", p)
	}

	p = Params{}
	cv = NewCustomVars()
	MapTrack(p, model.TrackData{
		Name: "Clicked",
		Properties: model.Dict{
			{Key: "category", Value: "X"},
			{Key: "label", Value: "Y"},
			{Key: "value", Value: "Z"},
			{Key: "color", Value: "red"},
		},
	}, cv)

	if p[KeyEventCat] != "X" || p[KeyEventName] != "Y" || p[KeyEventValue] != "Z" {
		t.Fatalf("expected e_c=X e_n=Y e_v=Z, got %v", p)
	}
	for _, k := range []string{"track_category", "track_label", "track_value"} {
		if _, ok := cv.Get(k); ok {
			t.Fatalf("expected %s not to be in overflow", k)
		}
	}
	if v, _ := cv.Get("track_color"); v != "red" {
		t.Fatalf("expected track_color=red, got %q", v)
	}
}

func TestMapTrackBlankOverrideKeepsDefault(t *testing.T) {
	p := Params{}
	MapTrack(p, model.TrackData{
		Name:       "Clicked",
		Properties: model.Dict{{Key: "category", Value: " "}, {Key: "label", Value: ""}},
	}, NewCustomVars())

	if p[KeyEventCat] != "track" {
		t.Fatalf("expected default e_c, got %q", p[KeyEventCat])
	}
	if _, ok := p[KeyEventName]; ok {
		t.Fatalf("expected e_n to be absent")
	}
}

func TestMapTrackDuplicateKeysLastWins(t *testing.T) {
	p := Params{}
	cv := NewCustomVars()
	MapTrack(p, model.TrackData{
		Name: "x",
		Properties: model.Dict{
			{Key: "category", Value: "first"},
			{Key: "category", Value: "second"},
			{Key: "k", Value: "1"},
			{Key: "k", Value: "2"},
		},
	}, cv)
	if p[KeyEventCat] != "second" {
		t.Fatalf("expected e_c=second, got %q", p[KeyEventCat])
	}
	if v, _ := cv.Get("track_k"); v != "2" {
		t.Fatalf("expected track_k=2, got %q", v)
	}
}

func TestMapTrackProducts(t *testing.T) {
	p := Params{}
	MapTrack(p, model.TrackData{
		Name: "purchase",
		Products: []model.Dict{
			{
				{Key: "sku", Value: "SKU-1"},
				{Key: "name", Value: "Shoe"},
				{Key: "category", Value: "footwear"},
				{Key: "price", Value: "59.9"},
				{Key: "quantity", Value: "2"},
			},
			{
				{Key: "sku", Value: "SKU-2"},
				{Key: "price", Value: "abc"},
				{Key: "quantity", Value: "many"},
			},
		},
	}, NewCustomVars())

	raw, ok := p[KeyEcomItems]
	if !ok {
		t.Fatalf("expected ec_items")
	}
	var items [][]any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("decode ec_items %q: %v", raw, err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0]
	if first[0] != "SKU-1" || first[1] != "Shoe" || first[2] != "footwear" {
		t.Fatalf("unexpected first item %v", first)
	}
	if first[3].(float64) != 59.9 || first[4].(float64) != 2 {
		t.Fatalf("unexpected price/quantity %v", first)
	}
	second := items[1]
	if second[1] != "" || second[2] != "" {
		t.Fatalf("expected missing name/category to be empty strings, got %v", second)
	}
	if second[3].(float64) != 0 || second[4].(float64) != 1 {
		t.Fatalf("expected price=0 quantity=1 defaults, got %v", second)
	}
}

func TestParsePriceRejectsNonFinite(t *testing.T) {
	for _, s := range []string{"NaN", "Inf", "-Inf", ""} {
		if got := parsePrice(s); got != 0 {
			t.Fatalf("parsePrice(%q): expected 0, got %v", s, got)
		}
	}
	if got := parseQuantity("99999999999"); got != 1 {
		t.Fatalf("expected out-of-range quantity to default to 1, got %d", got)
	}
}

func TestMapUser(t *testing.T) {
	p := Params{}
	cv := NewCustomVars()
	MapUser(p, model.UserData{
		UserID:      "test-user",
		AnonymousID: "anon",
		Properties:  model.Dict{{Key: "plan", Value: "pro"}},
	}, cv)
	if p[KeyUserID] != "test-user" {
		t.Fatalf("expected uid=test-user, got %q", p[KeyUserID])
	}
	if _, ok := p[KeyClientID]; ok {
		t.Fatalf("expected no cid when user_id is set")
	}
	if v, _ := cv.Get("user_plan"); v != "pro" {
		t.Fatalf("expected user_plan=pro, got %q", v)
	}
}

func TestMapUserFallbackClientID(t *testing.T) {
	tests := []struct {
		anon string
		want string
	}{
		{"abc123", "616263313233"},
		{"0123456789abcdef", "3031323334353637"},
		{"", ""},
	}
	for _, tt := range tests {
		p := Params{}
		MapUser(p, model.UserData{UserID: "  ", AnonymousID: tt.anon}, NewCustomVars())
		if _, ok := p[KeyUserID]; ok {
			t.Fatalf("expected no uid for blank user_id")
		}
		got, ok := p[KeyClientID]
		if tt.want == "" {
			if ok {
				t.Fatalf("expected no cid for empty anonymous id, got %q", got)
			}
			continue
		}
		if got != tt.want {
			t.Fatalf("cid for %q: expected %q, got %q", tt.anon, tt.want, got)
		}
	}
}

func TestMapClientLocationGate(t *testing.T) {
	c := fullContext().Client

	p := Params{}
	cv := NewCustomVars()
	MapClient(p, c, cv, true)
	if p[KeyCountry] != "fr" || p[KeyRegion] != "Ile-de-France" || p[KeyCity] != "Paris" {
		t.Fatalf("expected location in flat params, got %v", p)
	}
	for _, k := range []string{"client_country", "client_region", "client_city"} {
		if _, ok := cv.Get(k); ok {
			t.Fatalf("expected %s not in overflow when exposed", k)
		}
	}

	p = Params{}
	cv = NewCustomVars()
	MapClient(p, c, cv, false)
	for _, k := range []string{KeyCountry, KeyRegion, KeyCity} {
		if _, ok := p[k]; ok {
			t.Fatalf("expected %s absent from flat params when gated", k)
		}
	}
	if v, _ := cv.Get("client_country"); v != "fr" {
		t.Fatalf("expected client_country=fr, got %q", v)
	}
	if v, _ := cv.Get("client_city"); v != "Paris" {
		t.Fatalf("expected client_city=Paris, got %q", v)
	}
}

func TestMapClientBasics(t *testing.T) {
	p := Params{}
	cv := NewCustomVars()
	MapClient(p, fullContext().Client, cv, false)

	want := map[string]string{
		KeyUserAgent:  "Mozilla/5.0 (X11; Linux x86_64)",
		KeyLang:       "fr-FR",
		KeyTimezone:   "Europe/Paris",
		KeyResolution: "1920x1080",
		KeyOS:         "Linux",
		KeyOSVersion:  "6.1",
	}
	for k, v := range want {
		if p[k] != v {
			t.Fatalf("expected %s=%q, got %q", k, v, p[k])
		}
	}
	if v, _ := cv.Get("client_model"); v != "Pixel 8" {
		t.Fatalf("expected client_model=Pixel 8, got %q", v)
	}

	p = Params{}
	cv = NewCustomVars()
	MapClient(p, model.Client{}, cv, false)
	if _, ok := cv.Get("client_model"); ok {
		t.Fatalf("expected no client_model for blank model")
	}
	if p[KeyResolution] != "0x0" {
		t.Fatalf("expected res=0x0, got %q", p[KeyResolution])
	}
}

func TestMapSession(t *testing.T) {
	p := Params{}
	cv := NewCustomVars()
	MapSession(p, fullContext().Session, cv)
	if p[KeyNewVisit] != "1" || p[KeySessionCount] != "3" {
		t.Fatalf("unexpected session params %v", p)
	}
	if _, ok := p["session_first_seen"]; ok {
		t.Fatalf("session_first_seen must never be a flat param")
	}
	if v, _ := cv.Get("session_first_seen"); v != "1700000000" {
		t.Fatalf("expected session_first_seen in overflow, got %q", v)
	}
	if v, _ := cv.Get("session_last_seen"); v != "1700000500" {
		t.Fatalf("expected session_last_seen in overflow, got %q", v)
	}

	p = Params{}
	cv = NewCustomVars()
	MapSession(p, model.Session{SessionStart: false, FirstSeen: 0, LastSeen: -1}, cv)
	if cv.Len() != 0 {
		t.Fatalf("expected unknown session timestamps to stay out of overflow, got %d entries", cv.Len())
	}
	if _, ok := cv.Get("session_first_seen"); ok {
		t.Fatalf("expected session_first_seen absent for zero timestamp")
	}
	if _, ok := p[KeyNewVisit]; ok {
		t.Fatalf("expected new_visit to be omitted, got %q", p[KeyNewVisit])
	}
	if p[KeySessionCount] != "0" {
		t.Fatalf("expected session_count=0, got %q", p[KeySessionCount])
	}
}

func TestMapCampaign(t *testing.T) {
	p := Params{}
	MapCampaign(p, model.Campaign{Name: "spring", Term: "", Source: "newsletter"})
	if p[KeyCampaignName] != "spring" {
		t.Fatalf("expected _rcn=spring, got %q", p[KeyCampaignName])
	}
	if _, ok := p[KeyCampaignKeyword]; ok {
		t.Fatalf("expected _rck absent")
	}
}

func TestEcomItemsWireFormat(t *testing.T) {
	p := Params{}
	MapTrack(p, model.TrackData{
		Name: "purchase",
		Products: []model.Dict{
			{{Key: "sku", Value: "s"}, {Key: "price", Value: "10"}},
			{{Key: "sku", Value: "a&b"}, {Key: "price", Value: "12.5"}, {Key: "quantity", Value: "3"}},
		},
	}, NewCustomVars())

	want := `[["s","","",10.0,1],["a&b","","",12.5,3]]`
	if p[KeyEcomItems] != want {
		t.Fatalf("expected ec_items %s, got %s", want, p[KeyEcomItems])
	}
}

func TestParseNumbersRejectSurroundingSpace(t *testing.T) {
	if got := parseQuantity(" 2"); got != 1 {
		t.Fatalf("expected padded quantity to default to 1, got %d", got)
	}
	if got := parseQuantity("2"); got != 2 {
		t.Fatalf("expected quantity 2, got %d", got)
	}
	if got := parsePrice("9.5 "); got != 0 {
		t.Fatalf("expected padded price to default to 0, got %v", got)
	}
}
