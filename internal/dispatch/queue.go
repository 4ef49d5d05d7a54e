package dispatch

import (
	"sort"

	"CareAlert/internal/models"
)

// alertLess 队列排序规则：优先级降序，同级按提交时间升序（先到先服务）
func alertLess(a, b *models.Alert) bool {
	if c := models.ComparePriority(a.Priority, b.Priority); c != 0 {
		return c > 0
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// sortQueue 每次变更后重排，保证队头始终是下一条应晋升的警报
func sortQueue(queue []*models.Alert) {
	sort.SliceStable(queue, func(i, j int) bool {
		return alertLess(queue[i], queue[j])
	})
}
