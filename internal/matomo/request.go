package matomo

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/edgee-ai/matomo-component/internal/config"
	"github.com/edgee-ai/matomo-component/internal/model"
)

const (
	trackerPath      = "/matomo.php"
	defaultUserAgent = "matomo-component"
	formContentType  = "application/x-www-form-urlencoded"
)

// Assemble
//
// 평탄 파라미터(_cvar 포함)와 설정으로 최종 요청 명세를 만든다.
//
//  1. 설정 검증 (site_id / endpoint_url 없으면 즉시 설정 오류, 부분 요청은 만들지 않음)
//  2. idsite / rec / apiv / rand / token_auth 주입
//  3. application/x-www-form-urlencoded 인코딩 (공백 → '+', 키 정렬)
//  4. transport 에 따라 GET query 또는 POST form body
//
// rand 는 진짜 난수가 아니라 이벤트 시각(ms)이다. 캐시 무효화 용도.
func Assemble(p Params, s config.Settings, timestampMillis int64) (model.Request, error) {
	if err := s.Validate(); err != nil {
		return model.Request{}, err
	}

	values := make(url.Values, len(p)+5)
	for k, v := range p {
		values.Set(k, v)
	}
	values.Set(KeySiteID, s.SiteID)
	values.Set(KeyRecord, "1")
	values.Set(KeyAPIVersion, "1")
	values.Set(KeyRand, strconv.FormatInt(timestampMillis, 10))
	if s.TokenAuth != "" {
		values.Set(KeyTokenAuth, s.TokenAuth)
	}

	encoded := values.Encode()
	target := strings.TrimRight(s.EndpointURL, "/") + trackerPath

	if s.Mode() == config.TransportForm {
		ua := p[KeyUserAgent]
		if ua == "" {
			ua = defaultUserAgent
		}
		return model.Request{
			Method: http.MethodPost,
			URL:    target,
			Headers: []model.Header{
				{Name: "User-Agent", Value: ua},
				{Name: "Accept", Value: "*/*"},
				{Name: "Content-Type", Value: formContentType},
			},
			ForwardClientHeaders: false,
			Body:                 encoded,
		}, nil
	}

	return model.Request{
		Method:               http.MethodGet,
		URL:                  target + "?" + encoded,
		Headers:              []model.Header{},
		ForwardClientHeaders: true,
		Body:                 "",
	}, nil
}
