package pool

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// ---------------------------------------------------------------
// Pool 구성 목적
//
// 수집 엔드포인트는 요청마다 body 읽기와 (선택적으로) gzip 해제를 한다.
// 아래 Pool 들은 매 요청 할당을 줄여 GC 부담을 낮추기 위한 것이다.
// ---------------------------------------------------------------

var (
	// BodyPool:
	//   - 요청 body 를 임시로 담는 버퍼
	//   - 초기 용량 4KB (대부분의 이벤트 JSON 은 여기에 들어간다)
	BodyPool = sync.Pool{
		New: func() any {
			return bytes.NewBuffer(make([]byte, 0, 4*1024))
		},
	}

	// GzipReaderPool:
	//   - Content-Encoding: gzip 요청 해제용 reader
	//   - 사용 전 반드시 Reset(src) 할 것
	GzipReaderPool = sync.Pool{
		New: func() any { return new(gzip.Reader) },
	}
)

// PutBody:
//   - maxCap(보통 MaxBodySize*2)보다 크면 풀에 돌려주지 않고 GC 에 맡긴다.
func PutBody(buf *bytes.Buffer, maxCap int64) {
	if int64(buf.Cap()) <= maxCap {
		buf.Reset()
		BodyPool.Put(buf)
	}
}

// PutGzipReader 는 reader 를 닫고 풀에 반환한다.
func PutGzipReader(zr *gzip.Reader) {
	_ = zr.Close()
	GzipReaderPool.Put(zr)
}
