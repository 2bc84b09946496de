package report

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"go-lms/internal/common/models"
	"go-lms/internal/features/group"
	"go-lms/internal/features/progress"
	"go-lms/internal/features/user"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReportService interface {
	GroupProgressWorkbook(ctx context.Context, groupID primitive.ObjectID) ([]byte, string, error)
}

type ReportServiceImpl struct {
	Groups   group.GroupService
	Users    user.UserRepository
	Progress progress.ProgressService
}

func NewReportService(groups group.GroupService, users user.UserRepository, progressService progress.ProgressService) ReportService {
	return &ReportServiceImpl{
		Groups:   groups,
		Users:    users,
		Progress: progressService,
	}
}

// GroupProgressWorkbook renders one row per group member with their
// progression state.
func (s *ReportServiceImpl) GroupProgressWorkbook(ctx context.Context, groupID primitive.ObjectID) ([]byte, string, error) {
	g, err := s.Groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, "", err
	}

	members, err := s.Users.FindByIDs(ctx, g.Members)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Progress"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Student", "Email", "Role", "Highest Module", "Modules Passed", "Final Quiz"}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, member := range members {
		snapshot, err := s.Progress.GetSnapshot(ctx, member.ID)
		if err != nil {
			return nil, "", err
		}

		row := []any{
			member.Name,
			member.Email,
			member.Role,
			progress.HighestUnlocked(snapshot),
			passedModules(snapshot),
			finalQuizCell(member, snapshot),
		}
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 22)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("group-%s-progress.xlsx", groupID.Hex())
	return buf.Bytes(), filename, nil
}

func passedModules(s *progress.Snapshot) string {
	passed := 0
	for _, m := range s.UnlockedModules {
		if sc, found := s.ScoreFor(m); found && sc.Percentage >= progress.PassingThreshold {
			passed++
		}
	}
	return strconv.Itoa(passed) + "/" + strconv.Itoa(len(s.UnlockedModules))
}

func finalQuizCell(member models.User, s *progress.Snapshot) string {
	if member.Role != models.RoleStudent {
		return "n/a"
	}
	if s.FinalQuizPassed {
		return "passed"
	}
	return "not passed"
}
