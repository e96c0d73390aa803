package model

import (
	"bytes"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// Pair 는 Dict 의 한 항목.
type Pair struct {
	Key   string
	Value string
}

// Dict
// ------------------------------------------------------------
// 순서가 보존되는 key → value 목록.
// 같은 키가 여러 번 나올 수 있으며, 소비하는 쪽은 last-write-wins 로 해석한다.
//
// JSON 표현:
//   - [["k","v"], ...]  순서 보존 (기본)
//   - {"k":"v", ...}    객체 입력도 받되 키 정렬 순서로 고정한다
type Dict []Pair

// Get 은 key 의 마지막 값을 돌려준다.
func (d Dict) Get(key string) (string, bool) {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].Key == key {
			return d[i].Value, true
		}
	}
	return "", false
}

// Map 은 last-write-wins 로 접은 map 을 만든다.
func (d Dict) Map() map[string]string {
	m := make(map[string]string, len(d))
	for _, p := range d {
		m[p.Key] = p.Value
	}
	return m
}

func (d Dict) MarshalJSON() ([]byte, error) {
	out := make([][2]string, len(d))
	for i, p := range d {
		out[i] = [2]string{p.Key, p.Value}
	}
	return json.Marshal(out)
}

func (d *Dict) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*d = nil
		return nil
	}

	if b[0] == '{' {
		var m map[string]string
		if err := json.Unmarshal(b, &m); err != nil {
			return err
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Dict, 0, len(keys))
		for _, k := range keys {
			out = append(out, Pair{Key: k, Value: m[k]})
		}
		*d = out
		return nil
	}

	var pairs [][]string
	if err := json.Unmarshal(b, &pairs); err != nil {
		return err
	}
	out := make(Dict, 0, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return fmt.Errorf("dict entry %d: expected [key, value], got %d elements", i, len(p))
		}
		out = append(out, Pair{Key: p[0], Value: p[1]})
	}
	*d = out
	return nil
}
