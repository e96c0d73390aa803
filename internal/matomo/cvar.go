package matomo

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// MaxCustomVars 는 Matomo custom variable 슬롯 수.
const MaxCustomVars = 5

// CustomVars
// ------------------------------------------------------------
// _cvar 로 직렬화될 부가 속성 모음 (overflow channel).
//
//   - 삽입 순서를 기억한다. 같은 키를 다시 넣으면 값만 바뀌고 위치는 유지된다.
//   - 빈 값도 일단 받아두고, Encode 시점에 걸러낸다.
//   - 순서가 고정이므로 어떤 5개가 살아남는지는 항상 같다.
type CustomVars struct {
	keys []string
	vals map[string]string
}

// NewCustomVars 는 빈 bag 을 만든다.
func NewCustomVars() *CustomVars {
	return &CustomVars{vals: make(map[string]string)}
}

// Set
//
// 새 키는 끝에 붙고, 이미 있는 키는 값만 바뀐다 (last-write-wins, 위치 유지).
func (c *CustomVars) Set(key, value string) {
	if _, ok := c.vals[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.vals[key] = value
}

// Get 은 Encode 전 원본 값을 돌려준다 (빈 값 포함).
func (c *CustomVars) Get(key string) (string, bool) {
	v, ok := c.vals[key]
	return v, ok
}

func (c *CustomVars) Len() int {
	return len(c.keys)
}

// Retained 는 Encode 에 실제로 실리는 항목들 (빈 값 제거 후 앞에서 최대 5개).
func (c *CustomVars) Retained() [][2]string {
	out := make([][2]string, 0, MaxCustomVars)
	for _, k := range c.keys {
		v := c.vals[k]
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, [2]string{k, v})
		if len(out) == MaxCustomVars {
			break
		}
	}
	return out
}

// Encode
//
// {"1":["key","value"], ..., "5":[...]} 형태의 JSON 문자열을 만든다.
// 살아남은 항목이 없으면 ok=false 이고, 호출자는 _cvar 키를 아예 넣지 않는다.
func (c *CustomVars) Encode() (string, bool) {
	kept := c.Retained()
	if len(kept) == 0 {
		return "", false
	}
	slots := make(map[string][2]string, len(kept))
	for i, kv := range kept {
		slots[strconv.Itoa(i+1)] = kv
	}
	// map[string] 키는 정렬되어 직렬화되므로 출력은 결정적이다.
	// MarshalNoEscape: & < > 를 \u0026 등으로 바꾸지 않는다.
	b, err := json.MarshalNoEscape(slots)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// DecodeCustomVars 는 _cvar 문자열을 슬롯 번호 순서의 (key, value) 목록으로 되돌린다.
func DecodeCustomVars(s string) ([][2]string, error) {
	var slots map[string][2]string
	if err := json.Unmarshal([]byte(s), &slots); err != nil {
		return nil, fmt.Errorf("decode _cvar: %w", err)
	}
	idx := make([]int, 0, len(slots))
	for k := range slots {
		n, err := strconv.Atoi(k)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("decode _cvar: invalid slot %q", k)
		}
		idx = append(idx, n)
	}
	sort.Ints(idx)
	out := make([][2]string, 0, len(idx))
	for _, n := range idx {
		out = append(out, slots[strconv.Itoa(n)])
	}
	return out, nil
}
