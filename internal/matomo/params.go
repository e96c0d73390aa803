package matomo

import "strings"

// Matomo tracking API 파라미터 이름.
const (
	KeySiteID     = "idsite"
	KeyRecord     = "rec"
	KeyAPIVersion = "apiv"
	KeyRand       = "rand"
	KeyTokenAuth  = "token_auth"
	KeyCustomVars = "_cvar"
	KeyEcomItems  = "ec_items"

	KeyActionName = "action_name"
	KeyURL        = "url"
	KeyReferrer   = "urlref"
	KeySearch     = "search"
	KeyEventName  = "e_n"
	KeyEventValue = "e_v"
	KeyEventCat   = "e_c"
	KeyEventAct   = "e_a"

	KeyUserID   = "uid"
	KeyClientID = "cid"

	KeyUserAgent  = "ua"
	KeyLang       = "lang"
	KeyTimezone   = "timezone"
	KeyResolution = "res"
	KeyOS         = "os"
	KeyOSVersion  = "os_version"
	KeyCountry    = "country"
	KeyRegion     = "region"
	KeyCity       = "city"

	KeyNewVisit     = "new_visit"
	KeySessionCount = "session_count"

	KeyCampaignName    = "_rcn"
	KeyCampaignKeyword = "_rck"
)

// Params 는 평탄 파라미터 매핑 (wire 이름 → 값).
type Params map[string]string

// setNonEmpty 는 trim 후 비어 있지 않을 때만 원본 값을 넣는다.
// 빈 값은 빈 문자열로 인코딩하지 않고 키 자체를 생략한다.
func (p Params) setNonEmpty(key, value string) {
	if strings.TrimSpace(value) != "" {
		p[key] = value
	}
}
