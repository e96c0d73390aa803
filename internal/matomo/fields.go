package matomo

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/edgee-ai/matomo-component/internal/model"

	json "github.com/goccy/go-json"
)

// overflow(_cvar) 키 접두사.
const (
	prefixPage   = "page_"
	prefixTrack  = "track_"
	prefixUser   = "user_"
	prefixClient = "client_"

	defaultTrackCategory = "track"
	cidLength            = 16
)

// ====================================================================
// Field Mapper (event variant 별)
// ====================================================================

// MapPage
//
// 페이지뷰 필드를 Matomo 파라미터로 옮긴다.
//   - title → action_name, url, referrer → urlref, search
//   - name → e_n, path → e_v, category → e_c
//   - properties → page_<key>, keywords → page_keywords (콤마 join)
func MapPage(p Params, page model.PageData, cv *CustomVars) {
	p.setNonEmpty(KeyActionName, page.Title)
	p.setNonEmpty(KeyURL, page.URL)
	p.setNonEmpty(KeyReferrer, page.Referrer)
	p.setNonEmpty(KeySearch, page.Search)
	p.setNonEmpty(KeyEventName, page.Name)
	p.setNonEmpty(KeyEventValue, page.Path)
	p.setNonEmpty(KeyEventCat, page.Category)

	for _, kv := range page.Properties {
		cv.Set(prefixPage+kv.Key, kv.Value)
	}
	if len(page.Keywords) > 0 {
		cv.Set(prefixPage+"keywords", strings.Join(page.Keywords, ","))
	}
}

// MapTrack
//
// 커스텀 이벤트. e_a = name, e_c 기본값은 "track".
// properties 중 category / label / value 는 각각 e_c / e_n / e_v 로 승격되고
// 나머지는 track_<key> 로 _cvar 에 들어간다.
// 승격 키의 값이 비어 있으면 무시한다 (기본 e_c 유지).
func MapTrack(p Params, track model.TrackData, cv *CustomVars) {
	p.setNonEmpty(KeyEventAct, track.Name)
	p[KeyEventCat] = defaultTrackCategory

	for _, kv := range track.Properties {
		switch kv.Key {
		case "category":
			p.setNonEmpty(KeyEventCat, kv.Value)
		case "label":
			p.setNonEmpty(KeyEventName, kv.Value)
		case "value":
			p.setNonEmpty(KeyEventValue, kv.Value)
		default:
			cv.Set(prefixTrack+kv.Key, kv.Value)
		}
	}

	if len(track.Products) > 0 {
		if items, err := encodeEcomItems(track.Products); err == nil {
			p[KeyEcomItems] = items
		}
	}
}

// MapUser
//
// user_id 가 있으면 uid, 없으면 anonymous_id 바이트의 hex 앞 16자를 cid 로 쓴다.
// Matomo 는 1st-party ID 가 없을 때 cid 가 필요하다.
func MapUser(p Params, user model.UserData, cv *CustomVars) {
	if strings.TrimSpace(user.UserID) != "" {
		p[KeyUserID] = user.UserID
	} else {
		p.setNonEmpty(KeyClientID, fallbackClientID(user.AnonymousID))
	}
	for _, kv := range user.Properties {
		cv.Set(prefixUser+kv.Key, kv.Value)
	}
}

func fallbackClientID(anonymousID string) string {
	h := hex.EncodeToString([]byte(anonymousID))
	if len(h) > cidLength {
		h = h[:cidLength]
	}
	return h
}

// encodeEcomItems
//
// 상품 목록을 [sku, name, category, price, quantity] 배열의 JSON 배열로 만든다.
// price / quantity 파싱 실패는 오류가 아니다. 각각 0.0 / 1 로 대체한다.
func encodeEcomItems(products []model.Dict) (string, error) {
	items := make([][]any, 0, len(products))
	for _, prod := range products {
		m := prod.Map()
		items = append(items, []any{
			m["sku"],
			m["name"],
			m["category"],
			price(parsePrice(m["price"])),
			parseQuantity(m["quantity"]),
		})
	}
	b, err := json.MarshalNoEscape(items)
	if err != nil {
		return "", fmt.Errorf("encode ec_items: %w", err)
	}
	return string(b), nil
}

// price 는 정수값이어도 소수점을 유지해서 직렬화한다 (10 → 10.0).
type price float64

func (p price) MarshalJSON() ([]byte, error) {
	b := strconv.AppendFloat(nil, float64(p), 'f', -1, 64)
	if !bytes.ContainsAny(b, ".") {
		b = append(b, '.', '0')
	}
	return b, nil
}

// parsePrice / parseQuantity 는 공백을 허용하지 않는다 (" 2" 는 파싱 실패 → 기본값).
func parsePrice(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0.0
	}
	return f
}

func parseQuantity(s string) int {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 1
	}
	return int(n)
}

// ====================================================================
// Shared Context Mapper (이벤트 종류와 무관하게 항상 실행)
// ====================================================================

// MapClient
//
// 브라우저/디바이스 정보를 옮긴다.
// exposeLocation 은 개인정보 정책 스위치다.
//   - true : country(소문자) / region / city 를 평탄 파라미터로
//   - false: client_country / client_region / client_city 로 _cvar 에 우회
func MapClient(p Params, c model.Client, cv *CustomVars, exposeLocation bool) {
	p.setNonEmpty(KeyUserAgent, c.UserAgent)
	p.setNonEmpty(KeyLang, c.Locale)
	p.setNonEmpty(KeyTimezone, c.Timezone)
	p.setNonEmpty(KeyResolution, fmt.Sprintf("%dx%d", c.ScreenWidth, c.ScreenHeight))
	p.setNonEmpty(KeyOS, c.OSName)
	p.setNonEmpty(KeyOSVersion, c.OSVersion)

	if strings.TrimSpace(c.UserAgentModel) != "" {
		cv.Set(prefixClient+"model", c.UserAgentModel)
	}

	country := strings.ToLower(c.CountryCode)
	if exposeLocation {
		p.setNonEmpty(KeyCountry, country)
		p.setNonEmpty(KeyRegion, c.Region)
		p.setNonEmpty(KeyCity, c.City)
		return
	}
	cv.Set(prefixClient+"country", country)
	cv.Set(prefixClient+"region", c.Region)
	cv.Set(prefixClient+"city", c.City)
}

// MapSession
//
// first_seen / last_seen 은 평탄 파라미터에는 절대 나오지 않고 _cvar 로만 간다.
// 0 이하는 "모름" 이므로 싣지 않는다.
func MapSession(p Params, s model.Session, cv *CustomVars) {
	if s.SessionStart {
		p[KeyNewVisit] = "1"
	}
	p[KeySessionCount] = strconv.Itoa(s.SessionCount)
	if s.FirstSeen > 0 {
		cv.Set("session_first_seen", strconv.FormatInt(s.FirstSeen, 10))
	}
	if s.LastSeen > 0 {
		cv.Set("session_last_seen", strconv.FormatInt(s.LastSeen, 10))
	}
}

// MapCampaign
//
// name → _rcn, term → _rck. source / medium / content 는 Matomo 로 보내지 않는다.
func MapCampaign(p Params, c model.Campaign) {
	p.setNonEmpty(KeyCampaignName, c.Name)
	p.setNonEmpty(KeyCampaignKeyword, c.Term)
}
