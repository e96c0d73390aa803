package server

import (
	"net"
	"net/http"
	"strings"
)

// ------------------------------------------------------------
// Client IP
//
// 이벤트에 client.ip 가 없을 때 수집 요청에서 사용자 IP 를 추정한다.
// 이 값은 Matomo 로 넘기는 X-Forwarded-For 와 GeoIP 조회에 쓰인다.
// 서비스는 보통 LB / CDN 뒤에 있으므로 RemoteAddr 는 마지막 수단이다.
// ------------------------------------------------------------

// isPublicIP 는 private / loopback / link-local 이 아니면 true.
func isPublicIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() {
		return false
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return false
	}
	return true
}

func parseIP(s string) net.IP {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return net.ParseIP(s)
}

// stripPort 는 "ip:port" / "[v6]:port" 에서 포트를 떼어낸다. 포트가 없으면 그대로.
func stripPort(s string) string {
	s = strings.TrimSpace(s)
	if host, _, err := net.SplitHostPort(s); err == nil {
		return host
	}
	// "2404:6800::200e:44321" 처럼 대괄호 없는 v6+port
	if parseIP(s) == nil {
		if i := strings.LastIndex(s, ":"); i != -1 {
			return s[:i]
		}
	}
	return s
}

// clientIP
//
// 우선순위:
//  1. X-Forwarded-For 의 첫 번째 public IP
//  2. X-Real-IP
//  3. CloudFront-Viewer-Address (포트 제거)
//  4. RemoteAddr
//
// public IP 를 찾지 못하면 빈 문자열.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := parseIP(part); isPublicIP(ip) {
				return ip.String()
			}
		}
	}

	if ip := parseIP(r.Header.Get("X-Real-IP")); isPublicIP(ip) {
		return ip.String()
	}

	if cf := r.Header.Get("CloudFront-Viewer-Address"); cf != "" {
		if ip := parseIP(stripPort(cf)); isPublicIP(ip) {
			return ip.String()
		}
	}

	if ip := parseIP(stripPort(r.RemoteAddr)); isPublicIP(ip) {
		return ip.String()
	}
	return ""
}
