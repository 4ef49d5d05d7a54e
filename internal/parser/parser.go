package parser

import (
	"regexp"
	"strconv"
	"strings"

	"CareAlert/internal/models"
)

// Result 从求助文本解析出的结构化字段
type Result struct {
	PatientName       string `json:"patientName"`
	ActualNurseCount  int    `json:"actualNurseCount"`
	SelectedPatientID string `json:"selectedPatientId"`
}

// 求助文本格式：[CRITICAL ]HELP- Patient: <姓名> - Nurses: <人数> - PatientID: <编号>
// 关键字大小写敏感
var helpPattern = regexp.MustCompile(`^(?:CRITICAL )?HELP- Patient: (.+?) - Nurses: (\d+) - PatientID: ([A-Za-z0-9]+)$`)

// Parse 解析求助文本。不匹配时返回 ok=false，从不报错，调用方必须先检查。
// 纯函数，无副作用。
func Parse(text string) (Result, bool) {
	m := helpPattern.FindStringSubmatch(text)
	if m == nil {
		return Result{}, false
	}

	count, err := strconv.Atoi(m[2])
	if err != nil {
		// \d+ 已保证是数字，仅在溢出时可能走到这里
		return Result{}, false
	}

	return Result{
		PatientName:       m[1],
		ActualNurseCount:  count,
		SelectedPatientID: m[3],
	}, true
}

// PriorityFromText 按文本约定推导优先级：
// CRITICAL 开头且含 HELP 为紧急，HELP 开头为急迫，其余为普通求助
func PriorityFromText(text string) string {
	switch {
	case strings.HasPrefix(text, "CRITICAL") && strings.Contains(text, "HELP"):
		return models.PriorityEmergency
	case strings.HasPrefix(text, "HELP"):
		return models.PriorityUrgent
	default:
		return models.PriorityHelp
	}
}
