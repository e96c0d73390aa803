package model

// Context 는 이벤트 종류와 무관하게 항상 함께 전달되는 공통 문맥.
type Context struct {
	Client   Client   `json:"client"`
	Session  Session  `json:"session"`
	Campaign Campaign `json:"campaign"`
}

// Client
// ------------------------------------------------------------
// 브라우저/디바이스 정보.
// CountryCode / Region / City 는 개인정보 성격이 있어서
// 인증 토큰 유무에 따라 노출 방식이 달라진다 (matomo.MapClient 참고).
type Client struct {
	IP             string `json:"ip"`
	UserAgent      string `json:"user_agent"`
	UserAgentModel string `json:"user_agent_model"`
	Locale         string `json:"locale"`
	Timezone       string `json:"timezone"`
	ScreenWidth    int    `json:"screen_width"`
	ScreenHeight   int    `json:"screen_height"`
	OSName         string `json:"os_name"`
	OSVersion      string `json:"os_version"`
	CountryCode    string `json:"country_code"`
	Region         string `json:"region"`
	City           string `json:"city"`
}

type Session struct {
	SessionID    string `json:"session_id"`
	SessionStart bool   `json:"session_start"`
	SessionCount int    `json:"session_count"`
	FirstSeen    int64  `json:"first_seen"` // epoch seconds
	LastSeen     int64  `json:"last_seen"`  // epoch seconds
}

type Campaign struct {
	Name    string `json:"name"`
	Source  string `json:"source"`
	Medium  string `json:"medium"`
	Term    string `json:"term"`
	Content string `json:"content"`
}
