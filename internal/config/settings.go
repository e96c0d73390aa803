package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/edgee-ai/matomo-component/internal/model"
)

// 호스트가 넘기는 settings Dict 의 키.
const (
	KeySiteID      = "site_id"
	KeyEndpointURL = "endpoint_url"
	KeyAuthToken   = "authentication_token"
	KeyTransport   = "transport"
)

// Transport 는 요청 인코딩 방식.
type Transport string

const (
	// TransportQuery: GET <endpoint>/matomo.php?<query>, 클라이언트 헤더 포워딩.
	TransportQuery Transport = "query"
	// TransportForm: POST form body, 고정 헤더, 포워딩 없음.
	TransportForm Transport = "form"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Error 는 설정 오류. errors.Is(err, ErrInvalidSettings) 로 판별한다.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid setting %s: %s", e.Key, e.Reason)
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalidSettings
}

// Settings
// ------------------------------------------------------------
// 변환 코어가 받는, 이미 검증된 불변 설정 값.
// TokenAuth 유무가 위치 정보(country/region/city) 노출 여부를 결정한다.
type Settings struct {
	SiteID      string
	EndpointURL string
	TokenAuth   string
	Transport   Transport
}

// ExposeLocation 은 위치 정보를 평탄 파라미터로 바로 내보내도 되는지.
// 토큰이 없으면 _cvar 로 우회해야 한다.
func (s Settings) ExposeLocation() bool {
	return s.TokenAuth != ""
}

// Mode 는 실제로 쓸 transport. 비어 있으면 query.
func (s Settings) Mode() Transport {
	if s.Transport == "" {
		return TransportQuery
	}
	return s.Transport
}

// Validate 는 필수 값(site_id, endpoint_url)과 transport 를 검사한다.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.SiteID) == "" {
		return &Error{Key: KeySiteID, Reason: "required"}
	}
	if strings.TrimSpace(s.EndpointURL) == "" {
		return &Error{Key: KeyEndpointURL, Reason: "required"}
	}
	u, err := url.Parse(s.EndpointURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &Error{Key: KeyEndpointURL, Reason: fmt.Sprintf("not an absolute URL: %q", s.EndpointURL)}
	}
	switch s.Transport {
	case "", TransportQuery, TransportForm:
	default:
		return &Error{Key: KeyTransport, Reason: fmt.Sprintf("unknown transport %q", s.Transport)}
	}
	return nil
}

// ParseSettings
//
// 호스트의 opaque settings Dict 에서 Settings 를 뽑아 검증한다.
//   - site_id, endpoint_url: 필수
//   - authentication_token: 선택 (공백뿐이면 없는 것으로 본다)
//   - transport: 선택, 기본 query
func ParseSettings(d model.Dict) (Settings, error) {
	s := Settings{Transport: TransportQuery}
	if v, ok := d.Get(KeySiteID); ok {
		s.SiteID = strings.TrimSpace(v)
	}
	if v, ok := d.Get(KeyEndpointURL); ok {
		s.EndpointURL = strings.TrimSpace(v)
	}
	if v, ok := d.Get(KeyAuthToken); ok && strings.TrimSpace(v) != "" {
		s.TokenAuth = v
	}
	if v, ok := d.Get(KeyTransport); ok && strings.TrimSpace(v) != "" {
		s.Transport = Transport(strings.ToLower(strings.TrimSpace(v)))
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
