package matomo

import (
	"errors"
	"fmt"

	"github.com/edgee-ai/matomo-component/internal/model"
)

// ErrUnexpectedData 는 입력 계약 위반(호출한 entry point 와 이벤트 variant 불일치).
var ErrUnexpectedData = errors.New("unexpected event data")

type ContractError struct {
	Expected model.EventType
	Got      model.EventType
}

func (e *ContractError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("expected %s data, got none", e.Expected)
	}
	return fmt.Sprintf("expected %s data, got %s data", e.Expected, e.Got)
}

func (e *ContractError) Is(target error) bool {
	return target == ErrUnexpectedData
}
