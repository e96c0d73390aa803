package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/edgee-ai/matomo-component/internal/model"
)

// Metrics 는 서버 상태를 나타내는 카운터 모음이다.
type Metrics struct {
	// ======================
	// HTTP 레벨 지표
	// ======================

	// HTTPRequestsTotal
	// - /v1/* 수집 엔드포인트로 들어온 모든 요청 수 (성공/실패 무관).
	HTTPRequestsTotal int64

	// HTTPRequestsRejectedBodyTooLargeTotal
	// - MaxBodySize 초과로 413 을 돌려준 요청 수.
	HTTPRequestsRejectedBodyTooLargeTotal int64

	// HTTPRequestsRejectedBadInputTotal
	// - JSON 파싱 실패, gzip 오류 등으로 400 을 돌려준 요청 수.
	HTTPRequestsRejectedBadInputTotal int64

	// ======================
	// 변환 지표
	// ======================

	// EventsPageTotal / EventsTrackTotal / EventsUserTotal
	// - Matomo 요청으로 변환에 성공한 이벤트 수 (종류별).
	EventsPageTotal  int64
	EventsTrackTotal int64
	EventsUserTotal  int64

	// EventsContractErrorsTotal
	// - 엔드포인트와 이벤트 variant 가 맞지 않아 422 로 거절된 수.
	// - 이 값이 오르면 호스트 쪽 라우팅이 잘못된 것이다.
	EventsContractErrorsTotal int64

	// EventsConfigErrorsTotal
	// - settings 오류로 변환하지 못한 수. 0 이 아니면 배포 설정을 확인해야 한다.
	EventsConfigErrorsTotal int64

	// ======================
	// Forward 지표
	// ======================

	// ForwardEnqueuedTotal
	// - forward 큐에 정상적으로 들어간 요청 수.
	ForwardEnqueuedTotal int64

	// ForwardQueueFullTotal
	// - 큐가 가득 차서 503 으로 버린 수. 재시도는 호스트 책임.
	ForwardQueueFullTotal int64

	// ForwardSentTotal
	// - Matomo 가 2xx 로 응답한 수.
	ForwardSentTotal int64

	// ForwardErrorsTotal
	// - 네트워크 오류 또는 non-2xx 응답 수. 재시도하지 않는다.
	ForwardErrorsTotal int64
}

func New() *Metrics {
	return &Metrics{}
}

// IncTransformed 는 종류별 변환 성공 카운터를 올린다.
func (m *Metrics) IncTransformed(t model.EventType) {
	switch t {
	case model.EventPage:
		atomic.AddInt64(&m.EventsPageTotal, 1)
	case model.EventTrack:
		atomic.AddInt64(&m.EventsTrackTotal, 1)
	case model.EventUser:
		atomic.AddInt64(&m.EventsUserTotal, 1)
	}
}

func (m *Metrics) String() string {
	var sb strings.Builder
	sb.Grow(512)

	fmt.Fprintf(&sb, "http_requests_total=%d\n", atomic.LoadInt64(&m.HTTPRequestsTotal))
	fmt.Fprintf(&sb, "http_requests_rejected_body_too_large_total=%d\n", atomic.LoadInt64(&m.HTTPRequestsRejectedBodyTooLargeTotal))
	fmt.Fprintf(&sb, "http_requests_rejected_bad_input_total=%d\n", atomic.LoadInt64(&m.HTTPRequestsRejectedBadInputTotal))

	fmt.Fprintf(&sb, "events_transformed_total{type=\"page\"}=%d\n", atomic.LoadInt64(&m.EventsPageTotal))
	fmt.Fprintf(&sb, "events_transformed_total{type=\"track\"}=%d\n", atomic.LoadInt64(&m.EventsTrackTotal))
	fmt.Fprintf(&sb, "events_transformed_total{type=\"user\"}=%d\n", atomic.LoadInt64(&m.EventsUserTotal))
	fmt.Fprintf(&sb, "events_contract_errors_total=%d\n", atomic.LoadInt64(&m.EventsContractErrorsTotal))
	fmt.Fprintf(&sb, "events_config_errors_total=%d\n", atomic.LoadInt64(&m.EventsConfigErrorsTotal))

	fmt.Fprintf(&sb, "forward_enqueued_total=%d\n", atomic.LoadInt64(&m.ForwardEnqueuedTotal))
	fmt.Fprintf(&sb, "forward_queue_full_total=%d\n", atomic.LoadInt64(&m.ForwardQueueFullTotal))
	fmt.Fprintf(&sb, "forward_sent_total=%d\n", atomic.LoadInt64(&m.ForwardSentTotal))
	fmt.Fprintf(&sb, "forward_errors_total=%d\n", atomic.LoadInt64(&m.ForwardErrorsTotal))

	return sb.String()
}
