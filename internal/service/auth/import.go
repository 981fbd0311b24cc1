package auth

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/model"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/logger"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/metrics"
)

// CSV 模板的列布局，顺序固定
const (
	colUserName = 0
	colUserID   = 1
	colDept     = 18
	colPosition = 20
	colPriority = 22

	expectedColumns = 23
)

// ImportResult 批量导入的汇总结果
type ImportResult struct {
	Imported []string `json:"imported"` // 成功导入的工号
	Errors   []string `json:"errors"`   // 逐行的失败原因
}

// BulkImportUsers 从 CSV 批量建号。
// 只开放给优先级 1 和 2 的操作者，且只能导入同部门前三码、级别 1/2 的用户；
// 密码统一为工号后六位。单行失败记入结果，不中断整批
func (s *AuthService) BulkImportUsers(operator *model.SysUser, r io.Reader) (*ImportResult, error) {
	if operator.PriorityLevel > 2 {
		return nil, fmt.Errorf("%w: bulk import is limited to priority levels 1 and 2", ErrForbidden)
	}
	operatorPrefix := deptPrefix(operator.Department)

	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1 // 行尾列数不齐的文件也要尽量处理

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("missing header row: %w", err)
	}
	if len(header) < expectedColumns {
		return nil, fmt.Errorf("invalid file format: expected %d columns, got %d", expectedColumns, len(header))
	}

	result := &ImportResult{Imported: []string{}, Errors: []string{}}
	rowNumber := 1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rowNumber++
			result.Errors = append(result.Errors, fmt.Sprintf("第%d行：解析失败: %v", rowNumber, err))
			continue
		}
		rowNumber++

		if len(row) < expectedColumns {
			result.Errors = append(result.Errors, fmt.Sprintf("第%d行：栏位数量不足", rowNumber))
			continue
		}

		userName := strings.TrimSpace(row[colUserName])
		userID := strings.TrimSpace(row[colUserID])
		department := strings.TrimSpace(row[colDept])
		position := strings.TrimSpace(row[colPosition])

		if userName == "" || userID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("第%d行：巡检人姓名和 ID 不能为空", rowNumber))
			continue
		}

		priority := 1
		if raw := strings.TrimSpace(row[colPriority]); raw != "" {
			priority, err = strconv.Atoi(raw)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("第%d行：优先级别 %q 不是整数", rowNumber, raw))
				continue
			}
		}
		if priority != 1 && priority != 2 {
			result.Errors = append(result.Errors, fmt.Sprintf("第%d行：只能导入优先级别 1 和 2 的用户，实际为 %d", rowNumber, priority))
			continue
		}

		if deptPrefix(department) != operatorPrefix {
			result.Errors = append(result.Errors,
				fmt.Sprintf("第%d行：只能导入部门前三码与您相同(%s)的用户", rowNumber, operatorPrefix))
			continue
		}

		_, err = s.Register(&model.RegisterRequest{
			UserName:      userName,
			UserID:        userID,
			Password:      DefaultPassword(userID),
			PriorityLevel: priority,
			Position:      position,
			Department:    department,
		})
		if err != nil {
			if errors.Is(err, ErrUserExists) {
				result.Errors = append(result.Errors, fmt.Sprintf("第%d行：用户 %s 已存在", rowNumber, userID))
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("第%d行：创建失败: %v", rowNumber, err))
			}
			continue
		}

		result.Imported = append(result.Imported, userID)
	}

	metrics.BulkImportedUsers.Add(float64(len(result.Imported)))
	logger.Infof("bulk import by %s: %d imported, %d errors",
		operator.UserID, len(result.Imported), len(result.Errors))
	return result, nil
}

// stripBOM 剥掉 Excel 导出常见的 UTF-8 BOM
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, _ := io.ReadFull(r, buf)
	if n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
