package model

// Header 는 순서가 의미 있는 HTTP 헤더 한 줄.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Request
// ------------------------------------------------------------
// 변환 결과로 만들어지는 outbound 요청 명세.
// 실제 전송은 하지 않으며 forward 패키지나 호스트가 실행한다.
//
// ForwardClientHeaders 가 true 이면 실행하는 쪽이 원 요청자의
// 헤더(User-Agent 등)를 추가로 붙여야 한다.
type Request struct {
	Method               string   `json:"method"`
	URL                  string   `json:"url"`
	Headers              []Header `json:"headers"`
	ForwardClientHeaders bool     `json:"forward_client_headers"`
	Body                 string   `json:"body"`
}
