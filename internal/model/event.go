// internal/model/event.go
package model

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// EventType
// ------------------------------------------------------------
// 이벤트 종류 판별자(discriminant).
// Data 필드에 실제로 들어있는 variant 와 반드시 일치해야 한다.
type EventType string

const (
	EventPage  EventType = "page"
	EventTrack EventType = "track"
	EventUser  EventType = "user"
)

// Data
// ------------------------------------------------------------
// Page / Track / User 세 가지 payload 의 합 타입(sum type).
// 외부 패키지에서 새로운 variant 를 만들 수 없도록 unexported marker 로 봉인한다.
// 소비하는 쪽은 type switch 로 세 경우를 모두 처리한다.
type Data interface {
	eventType() EventType
}

// PageData 는 페이지뷰 이벤트 payload.
type PageData struct {
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Referrer   string   `json:"referrer"`
	Search     string   `json:"search"`
	Name       string   `json:"name"`
	Path       string   `json:"path"`
	Category   string   `json:"category"`
	Properties Dict     `json:"properties"`
	Keywords   []string `json:"keywords"`
}

// TrackData 는 커스텀 이벤트 payload.
// Properties 의 category / label / value 키는 Matomo 이벤트 필드로 승격된다.
type TrackData struct {
	Name       string `json:"name"`
	Properties Dict   `json:"properties"`
	Products   []Dict `json:"products"`
}

// UserData 는 사용자 식별 이벤트 payload.
type UserData struct {
	UserID      string `json:"user_id"`
	AnonymousID string `json:"anonymous_id"`
	EdgeeID     string `json:"edgee_id"`
	Properties  Dict   `json:"properties"`
}

func (PageData) eventType() EventType  { return EventPage }
func (TrackData) eventType() EventType { return EventTrack }
func (UserData) eventType() EventType  { return EventUser }

// Event
// ------------------------------------------------------------
// 변환 파이프라인의 입력 단위.
// 호출자가 만들어 한 번 소비하고 버리는 request-scoped 불변 값이다.
//
// TimestampMillis 는 Matomo rand 파라미터(cache-busting 용)로 그대로 쓰인다.
type Event struct {
	UUID            string    `json:"uuid"`
	TimestampMillis int64     `json:"timestamp_millis"`
	Type            EventType `json:"type"`
	Data            Data      `json:"-"`
	Context         Context   `json:"context"`
}

var ErrUnknownEventType = errors.New("unknown event type")

// Kind 는 Data 에 실제로 들어있는 variant 의 종류를 돌려준다.
// Data 가 비어 있으면 빈 문자열.
// nil 포인터 variant 도 "없음" 으로 본다.
func (e Event) Kind() EventType {
	switch d := e.Data.(type) {
	case PageData, TrackData, UserData:
		return d.eventType()
	case *PageData:
		if d != nil {
			return EventPage
		}
	case *TrackData:
		if d != nil {
			return EventTrack
		}
	case *UserData:
		if d != nil {
			return EventUser
		}
	}
	return ""
}

// Validate 는 판별자(Type)와 Data variant 가 일치하는지만 검사한다.
// 비즈니스 의미 검증은 하지 않는다.
func (e Event) Validate() error {
	switch e.Type {
	case EventPage, EventTrack, EventUser:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}
	k := e.Kind()
	if k == "" {
		return fmt.Errorf("event %q has no data", e.Type)
	}
	if k != e.Type {
		return fmt.Errorf("event type %q carries %s data", e.Type, k)
	}
	return nil
}

// wireEvent 는 JSON 입출력용 평탄한 표현.
// data 는 type 을 먼저 읽은 뒤에 해당 variant 로 디코딩한다.
type wireEvent struct {
	UUID            string          `json:"uuid"`
	TimestampMillis int64           `json:"timestamp_millis"`
	Type            EventType       `json:"type"`
	Data            json.RawMessage `json:"data"`
	Context         Context         `json:"context"`
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	var data Data
	switch w.Type {
	case EventPage:
		var p PageData
		if err := decodeData(w.Data, &p); err != nil {
			return fmt.Errorf("page data: %w", err)
		}
		data = p
	case EventTrack:
		var t TrackData
		if err := decodeData(w.Data, &t); err != nil {
			return fmt.Errorf("track data: %w", err)
		}
		data = t
	case EventUser:
		var u UserData
		if err := decodeData(w.Data, &u); err != nil {
			return fmt.Errorf("user data: %w", err)
		}
		data = u
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, w.Type)
	}

	*e = Event{
		UUID:            w.UUID,
		TimestampMillis: w.TimestampMillis,
		Type:            w.Type,
		Data:            data,
		Context:         w.Context,
	}
	return nil
}

func (e Event) MarshalJSON() ([]byte, error) {
	var raw json.RawMessage
	if e.Data != nil {
		b, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(wireEvent{
		UUID:            e.UUID,
		TimestampMillis: e.TimestampMillis,
		Type:            e.Type,
		Data:            raw,
		Context:         e.Context,
	})
}

// data 가 비어 있으면 zero value 로 둔다.
func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
