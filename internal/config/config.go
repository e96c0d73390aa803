// internal/config/config.go
package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/edgee-ai/matomo-component/internal/model"
)

// Config
//
// 서비스 실행 시 필요한 모든 환경 변수 값을 보관하는 구조체.
// 모든 값은 프로세스 시작 시점에 Load() 에 의해 초기화되며,
// 이후에는 변경되지 않는 불변(read-only) 설정들이다.
type Config struct {

	// ---------------------------
	// Matomo 설정
	// ---------------------------
	// 그대로 ParseSettings 로 넘겨서 검증한다 (SettingsDict 참고).

	SiteID      string // Matomo idsite
	EndpointURL string // Matomo 서버 base URL (예: https://matomo.example.com)
	TokenAuth   string // token_auth. 비어 있으면 위치 정보는 _cvar 로 우회된다
	Transport   string // query | form

	// ---------------------------
	// 서버 식별자 / 네트워크
	// ---------------------------

	ServiceName string   // 로그 service 필드
	InstanceID  string   // 프로세스 고유 ID (호스트명 기반, 실패 시 랜덤 hex)
	HTTPAddr    string   // HTTP 서버 bind 주소 (예: ":8080")
	CORSOrigins []string // 허용 Origin 목록, 비어 있으면 "*"

	// ---------------------------
	// 요청 처리 파라미터
	// ---------------------------

	MaxBodySize int64  // 단일 HTTP 요청 body 최대 크기 (바이트)
	GeoIPDBPath string // GeoLite2-City.mmdb 경로, 비어 있으면 위치 보강 안 함

	// ---------------------------
	// Forward (Matomo 로 실제 전송)
	// ---------------------------
	// 비활성화 상태면 서버는 요청 명세만 응답으로 돌려준다.
	// 재시도는 하지 않는다. 전달 보장은 호스트 책임.

	ForwardEnabled bool
	ForwardWorkers int
	ForwardQueue   int
	ForwardTimeout time.Duration

	// ---------------------------
	// 로깅
	// ---------------------------

	LogLevel   string
	LogPretty  bool
	LogSampleN uint32
}

// Load
//
// 환경 변수 기반으로 Config 값을 초기화한다.
// 필수 env 가 비어있으면 즉시 프로세스를 종료(fail-fast).
func Load() Config {
	return Config{
		SiteID:      must("MATOMO_SITE_ID"),
		EndpointURL: must("MATOMO_ENDPOINT_URL"),
		TokenAuth:   os.Getenv("MATOMO_TOKEN_AUTH"),
		Transport:   orDefault("MATOMO_TRANSPORT", string(TransportQuery)),

		ServiceName: orDefault("SERVICE_NAME", "matomo-component"),
		InstanceID:  fallbackInstanceID(),
		HTTPAddr:    must("HTTP_ADDR"),
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),

		MaxBodySize: intOr64("MAX_BODY_SIZE", 64*1024),
		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		ForwardEnabled: boolOr("FORWARD_ENABLED", false),
		ForwardWorkers: intOr("FORWARD_WORKERS", 4),
		ForwardQueue:   intOr("FORWARD_QUEUE", 1024),
		ForwardTimeout: durOr("FORWARD_TIMEOUT", 5*time.Second),

		LogLevel:   orDefault("LOG_LEVEL", "info"),
		LogPretty:  boolOr("LOG_PRETTY", false),
		LogSampleN: uint32(intOr("LOG_SAMPLE_N", 0)),
	}
}

// SettingsDict 는 Matomo 설정을 호스트가 넘기는 것과 같은 형태(Dict)로 만든다.
// 토큰이 비어 있으면 키 자체를 넣지 않는다.
func (c Config) SettingsDict() model.Dict {
	d := model.Dict{
		{Key: KeySiteID, Value: c.SiteID},
		{Key: KeyEndpointURL, Value: c.EndpointURL},
		{Key: KeyTransport, Value: c.Transport},
	}
	if c.TokenAuth != "" {
		d = append(d, model.Pair{Key: KeyAuthToken, Value: c.TokenAuth})
	}
	return d
}

// must / intOr / intOr64 / boolOr / durOr
//
// 공통 패턴.
// 필수 환경변수가 없으면 즉시 로그 출력 후 종료(fail-fast).
// 선택 값은 비어 있으면 기본값, 형식이 잘못되면 역시 종료한다.
func must(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("missing required env: %s", key)
	}
	return v
}

func orDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int env %s=%q: %v", key, v, err)
	}
	return n
}

func intOr64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("invalid int64 env %s=%q: %v", key, v, err)
	}
	return n
}

func boolOr(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatalf("invalid bool env %s=%q: %v", key, v, err)
	}
	return b
}

func durOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration env %s=%q: %v", key, v, err)
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// fallbackInstanceID
//
// 이 서버 인스턴스를 식별하는 고유 값.
//   - 기본: hostname
//   - fallback: 12자리 랜덤 hex
func fallbackInstanceID() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	var b [6]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
