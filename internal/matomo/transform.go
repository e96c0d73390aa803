// Package matomo 는 분석 이벤트를 Matomo tracking API 요청 하나로 바꾸는 순수 변환이다.
//
// 세 단계가 순서대로 실행된다.
//   - Field Mapper: 이벤트 variant + 공통 문맥 → 평탄 파라미터
//   - Overflow Encoder: 부가 속성 → _cvar (최대 5개)
//   - Request Assembler: 인증/고정 파라미터 주입 후 GET 또는 POST 명세 생성
//
// 상태를 갖지 않으므로 여러 goroutine 에서 동기화 없이 호출해도 된다.
package matomo

import (
	"fmt"

	"github.com/edgee-ai/matomo-component/internal/config"
	"github.com/edgee-ai/matomo-component/internal/model"
)

// Page / Track / User
//
// 호스트 entry point. 이벤트 variant 가 맞지 않으면 ContractError,
// settings 가 잘못되면 config.Error 를 돌려준다. 어느 경우든 요청은 만들지 않는다.
func Page(ev model.Event, settings model.Dict) (model.Request, error) {
	return handle(model.EventPage, ev, settings)
}

func Track(ev model.Event, settings model.Dict) (model.Request, error) {
	return handle(model.EventTrack, ev, settings)
}

func User(ev model.Event, settings model.Dict) (model.Request, error) {
	return handle(model.EventUser, ev, settings)
}

func handle(want model.EventType, ev model.Event, settings model.Dict) (model.Request, error) {
	if got := ev.Kind(); got != want {
		return model.Request{}, &ContractError{Expected: want, Got: got}
	}
	s, err := config.ParseSettings(settings)
	if err != nil {
		return model.Request{}, fmt.Errorf("%s: %w", want, err)
	}
	return Transform(ev, s)
}

// Transform
//
// 이미 검증된 Settings 로 이벤트 하나를 변환한다.
// 설정 검사가 가장 먼저 실행되므로, 설정 오류 시 매핑 작업은 하지 않는다.
// 그 다음 ev.Validate 로 Type 과 Data 가 맞는지 본다 (불일치 → ContractError).
func Transform(ev model.Event, s config.Settings) (model.Request, error) {
	if err := s.Validate(); err != nil {
		return model.Request{}, err
	}

	// 판별자(Type)와 Data variant 가 어긋나거나 Data 가 없으면 계약 위반.
	if err := ev.Validate(); err != nil {
		return model.Request{}, &ContractError{Expected: ev.Type, Got: ev.Kind()}
	}

	p := make(Params, 32)
	cv := NewCustomVars()

	switch d := ev.Data.(type) {
	case model.PageData:
		MapPage(p, d, cv)
	case model.TrackData:
		MapTrack(p, d, cv)
	case model.UserData:
		MapUser(p, d, cv)
	case *model.PageData:
		MapPage(p, *d, cv)
	case *model.TrackData:
		MapTrack(p, *d, cv)
	case *model.UserData:
		MapUser(p, *d, cv)
	}

	MapClient(p, ev.Context.Client, cv, s.ExposeLocation())
	MapSession(p, ev.Context.Session, cv)
	MapCampaign(p, ev.Context.Campaign)

	if encoded, ok := cv.Encode(); ok {
		p[KeyCustomVars] = encoded
	}

	return Assemble(p, s, ev.TimestampMillis)
}
