package schema

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/IkNhayatk/RoutinInspection-backend/pkg/config"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/logger"
)

func initTestLogger(t *testing.T) {
	t.Helper()
	if err := logger.Init(&config.LoggingConfig{Level: "error", Output: "console"}); err != nil {
		t.Fatalf("初始化日志失败: %v", err)
	}
}

func mustParseJSON(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("解析测试 JSON 失败: %v", err)
	}
	return v
}

func TestCollectItems(t *testing.T) {
	initTestLogger(t)

	tests := []struct {
		name string
		json string
		want []int
	}{
		{
			name: "扁平的项目列表",
			json: `{"Elements": [
				{"ElmentType": "Item", "ItemId": 3},
				{"ElmentType": "Item", "ItemId": 1},
				{"ElmentType": "Item", "ItemId": 2}
			]}`,
			want: []int{3, 1, 2},
		},
		{
			name: "嵌套分组保持首次出现顺序",
			json: `{"Elements": [
				{"ElmentType": "Group", "Elements": [
					{"ElmentType": "Item", "ItemId": 5},
					{"ElmentType": "Group", "Elements": [
						{"ElmentType": "Item", "ItemId": 2}
					]}
				]},
				{"ElmentType": "Item", "ItemId": 7}
			]}`,
			want: []int{5, 2, 7},
		},
		{
			name: "重复的 ItemId 只取第一次",
			json: `{"Elements": [
				{"ElmentType": "Item", "ItemId": 4},
				{"ElmentType": "Item", "ItemId": 4},
				{"ElmentType": "Item", "ItemId": 6},
				{"ElmentType": "Item", "ItemId": 4}
			]}`,
			want: []int{4, 6},
		},
		{
			name: "Elements 是单个对象而不是数组",
			json: `{"Elements": {"ElmentType": "Item", "ItemId": 9}}`,
			want: []int{9},
		},
		{
			name: "字符串形式的 ItemId 也能解析",
			json: `{"Elements": [{"ElmentType": "Item", "ItemId": "12"}]}`,
			want: []int{12},
		},
		{
			name: "非整数的 ItemId 跳过不中断",
			json: `{"Elements": [
				{"ElmentType": "Item", "ItemId": "abc"},
				{"ElmentType": "Item", "ItemId": 2.5},
				{"ElmentType": "Item", "ItemId": 8}
			]}`,
			want: []int{8},
		},
		{
			name: "负数 ItemId 跳过",
			json: `{"Elements": [
				{"ElmentType": "Item", "ItemId": -1},
				{"ElmentType": "Item", "ItemId": 3}
			]}`,
			want: []int{3},
		},
		{
			name: "缺少 ItemId 的 Item 跳过",
			json: `{"Elements": [
				{"ElmentType": "Item"},
				{"ElmentType": "Item", "ItemId": 1}
			]}`,
			want: []int{1},
		},
		{
			name: "非 Item 节点忽略",
			json: `{"Elements": [
				{"ElmentType": "Label", "ItemId": 99},
				{"ElmentType": "Item", "ItemId": 1}
			]}`,
			want: []int{1},
		},
		{
			name: "顶层就是数组",
			json: `[{"ElmentType": "Item", "ItemId": 2}, {"ElmentType": "Item", "ItemId": 1}]`,
			want: []int{2, 1},
		},
		{
			name: "标量输入返回空",
			json: `"just a string"`,
			want: []int{},
		},
		{
			name: "空对象返回空",
			json: `{}`,
			want: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CollectItems(mustParseJSON(t, tt.json))
			if len(got) != len(tt.want) {
				t.Fatalf("CollectItems() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("CollectItems() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestCollectItemsDepthLimit(t *testing.T) {
	initTestLogger(t)

	// 构造超过深度上限的嵌套，深处的项目被忽略，浅处的保留
	deep := `{"ElmentType": "Item", "ItemId": 100}`
	for i := 0; i < maxDepth+10; i++ {
		deep = `{"Elements": ` + deep + `}`
	}
	shallow := `{"Elements": [{"ElmentType": "Item", "ItemId": 1}, ` + deep + `]}`

	got := CollectItems(mustParseJSON(t, shallow))
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("深嵌套输入应只收集浅层项目, got %v", got)
	}
}

func TestParseItemID(t *testing.T) {
	tests := []struct {
		name   string
		raw    interface{}
		want   int
		wantOK bool
	}{
		{"JSON 数字", float64(7), 7, true},
		{"整数零", float64(0), 0, true},
		{"带小数的数字拒绝", float64(2.5), 0, false},
		{"负数拒绝", float64(-3), 0, false},
		{"数字字符串", "15", 15, true},
		{"带空格的字符串拒绝", " 15 ", 0, false},
		{"非数字字符串拒绝", "abc", 0, false},
		{"负数字符串拒绝", "-1", 0, false},
		{"nil 拒绝", nil, 0, false},
		{"布尔拒绝", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseItemID(tt.raw)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("parseItemID(%v) = (%d, %v), want (%d, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCollectItemsLargeForm(t *testing.T) {
	initTestLogger(t)

	// 大表单：连续编号的项目全部收集且顺序正确
	var sb strings.Builder
	sb.WriteString(`{"Elements": [`)
	for i := 1; i <= 200; i++ {
		if i > 1 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"ElmentType": "Item", "ItemId": `)
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(`}`)
	}
	sb.WriteString(`]}`)

	got := CollectItems(mustParseJSON(t, sb.String()))
	if len(got) != 200 {
		t.Fatalf("期望收集 200 个项目, got %d", len(got))
	}
	for i, id := range got {
		if id != i+1 {
			t.Fatalf("顺序错误: got[%d] = %d", i, id)
		}
	}
}
