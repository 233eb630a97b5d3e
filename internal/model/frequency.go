package model

import (
	"fmt"
	"strings"
)

// FrequencyCode 拜访频次代码
// 频次只作为描述性元数据随计划记录，具体日期由所选星期决定
type FrequencyCode string

const (
	FrequencyF1  FrequencyCode = "F1"  // 每月 1 次
	FrequencyF2  FrequencyCode = "F2"  // 每月 2 次
	FrequencyF4  FrequencyCode = "F4"  // 每周 1 次
	FrequencyF8  FrequencyCode = "F8"  // 每周 2 次
	FrequencyF12 FrequencyCode = "F12" // 每周 3 次
)

// visitsPerMonth 各频次对应的月均拜访次数
var visitsPerMonth = map[FrequencyCode]int{
	FrequencyF1:  1,
	FrequencyF2:  2,
	FrequencyF4:  4,
	FrequencyF8:  8,
	FrequencyF12: 12,
}

// ParseFrequency 解析频次代码，忽略首尾空白与大小写；无法识别时返回错误，不做默认回退
func ParseFrequency(s string) (FrequencyCode, error) {
	code := FrequencyCode(strings.ToUpper(strings.TrimSpace(s)))
	if !code.IsValid() {
		return "", fmt.Errorf("unrecognized frequency code: %q", s)
	}
	return code, nil
}

// IsValid 是否为可识别的频次代码
func (f FrequencyCode) IsValid() bool {
	_, ok := visitsPerMonth[f]
	return ok
}

// VisitsPerMonth 月均拜访次数，未知代码返回 0
func (f FrequencyCode) VisitsPerMonth() int {
	return visitsPerMonth[f]
}

// FrequencyCodes 全部频次代码（模板说明与校验提示使用）
func FrequencyCodes() []FrequencyCode {
	return []FrequencyCode{FrequencyF1, FrequencyF2, FrequencyF4, FrequencyF8, FrequencyF12}
}
