// Package enrich 는 변환 전에 호스트 쪽에서 Client 문맥의 빈 칸을 채운다.
// 호출자가 준 값은 절대 덮어쓰지 않는다.
package enrich

import (
	"net"
	"strings"

	"github.com/edgee-ai/matomo-component/internal/model"

	"github.com/mileusna/useragent"
)

// Location 은 IP 로 찾은 위치.
type Location struct {
	CountryCode string
	Region      string
	City        string
}

// Locator 는 IP → 위치 조회. GeoIP 가 기본 구현이다.
type Locator interface {
	Locate(ip net.IP) (Location, error)
}

// Client
//
// c 의 사본을 돌려준다.
//   - os_name / os_version / user_agent_model 이 비어 있으면 User-Agent 파싱 결과로 채움
//   - country / region / city 가 모두 비어 있고 geo 가 있으면 IP 조회 결과로 채움
//
// ip 가 비어 있으면 c.IP 를 쓴다. 조회 실패는 조용히 무시한다.
func Client(c model.Client, ip string, geo Locator) model.Client {
	out := c

	if strings.TrimSpace(c.UserAgent) != "" {
		ua := useragent.Parse(c.UserAgent)
		if blank(out.OSName) {
			out.OSName = ua.OS
		}
		if blank(out.OSVersion) {
			out.OSVersion = ua.OSVersion
		}
		if blank(out.UserAgentModel) {
			out.UserAgentModel = ua.Device
		}
	}

	if geo == nil || !(blank(c.CountryCode) && blank(c.Region) && blank(c.City)) {
		return out
	}
	if ip == "" {
		ip = c.IP
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return out
	}
	loc, err := geo.Locate(parsed)
	if err != nil {
		return out
	}
	out.CountryCode = loc.CountryCode
	out.Region = loc.Region
	out.City = loc.City
	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
