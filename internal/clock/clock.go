// internal/clock/clock.go
package clock

import (
	"sync/atomic"
	"time"
)

//
// clock.go
// ------------------------------------------------------------
// 현재 시각(UTC epoch milliseconds)을 캐싱하는 모듈.
//
// 수집 엔드포인트는 timestamp 가 빠진 이벤트마다 시각을 채워 넣는데,
// 그 값은 Matomo rand(cache-busting) 용도라 정밀할 필요가 없다.
// 따라서 10ms ticker 로 캐싱하고 매 요청 time.Now() 호출을 피한다.
// ------------------------------------------------------------

const tick = 10 * time.Millisecond

var unixMilli atomic.Int64

func init() {
	// 최초 seed
	update()

	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		for range ticker.C {
			update()
		}
	}()
}

func update() {
	unixMilli.Store(time.Now().UnixMilli())
}

// UnixMilli returns current UTC epoch milliseconds (cached, ~10ms precision).
func UnixMilli() int64 {
	return unixMilli.Load()
}
