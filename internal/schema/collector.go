package schema

import (
	"strconv"

	"github.com/IkNhayatk/RoutinInspection-backend/pkg/logger"
)

// maxDepth 递归深度上限，防御恶意深嵌套 JSON
const maxDepth = 64

// CollectItems 深度优先遍历表单 JSON 树，收集所有有效的 ItemId。
// 保持首次出现顺序并去重；无效的 ItemId 记警告后跳过，不中断遍历。
// element 是 json.Unmarshal 到 interface{} 得到的任意值
func CollectItems(element interface{}) []int {
	items := make([]int, 0, 16)
	seen := make(map[int]struct{})
	collect(element, &items, seen, 0)
	return items
}

func collect(element interface{}, items *[]int, seen map[int]struct{}, depth int) {
	if depth > maxDepth {
		logger.Warnf("form schema nesting exceeds depth limit %d, ignoring deeper elements", maxDepth)
		return
	}

	switch node := element.(type) {
	case map[string]interface{}:
		// ElmentType 是前端约定的字段名（历史拼写，属于线上格式的一部分）
		if node["ElmentType"] == "Item" {
			if raw, ok := node["ItemId"]; ok {
				if id, ok := parseItemID(raw); ok {
					if _, dup := seen[id]; !dup {
						seen[id] = struct{}{}
						*items = append(*items, id)
					}
				} else {
					logger.Warnf("skipping invalid or non-integer ItemId: %v", raw)
				}
			}
		}

		// Elements 可能是数组，也可能是单个对象
		if sub, ok := node["Elements"]; ok {
			collect(sub, items, seen, depth+1)
		}

	case []interface{}:
		for _, sub := range node {
			collect(sub, items, seen, depth+1)
		}
	}
	// 标量不含 ItemId，忽略
}

// parseItemID 把 JSON 中的 ItemId 解释为非负整数。
// JSON 数字解码为 float64，前端偶尔也会传字符串
func parseItemID(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case float64:
		id := int(v)
		if float64(id) != v || id < 0 {
			return 0, false
		}
		return id, true
	case string:
		id, err := strconv.Atoi(v)
		if err != nil || id < 0 {
			return 0, false
		}
		return id, true
	case int:
		if v < 0 {
			return 0, false
		}
		return v, true
	}
	return 0, false
}
