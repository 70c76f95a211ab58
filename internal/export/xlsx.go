package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/courseforge/site/internal/curriculum"
)

const (
	overviewSheet = "Overview"
	scheduleSheet = "Schedule"
)

var scheduleHeader = []any{"Week", "Module", "Key Topics", "Activities", "Resources"}

// XLSX writes c as a workbook with an Overview sheet and one Schedule row per
// week.
func XLSX(w io.Writer, c curriculum.ParsedCurriculum) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", overviewSheet); err != nil {
		return fmt.Errorf("naming overview sheet: %w", err)
	}
	if _, err := f.NewSheet(scheduleSheet); err != nil {
		return fmt.Errorf("creating schedule sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return fmt.Errorf("creating wrap style: %w", err)
	}

	overview := [][]any{
		{"Title", c.Title},
		{"Description", c.Description},
		{"Duration", c.Duration},
		{"Time Commitment", c.TimeCommitment},
		{"Level", c.Level},
		{"Learning Objectives", strings.Join(c.Objectives, "\n")},
		{"Capstone Project", c.CapstoneProject},
	}
	for i, row := range overview {
		if err := setRow(f, overviewSheet, i+1, row); err != nil {
			return err
		}
	}
	last := fmt.Sprintf("A%d", len(overview))
	if err := f.SetCellStyle(overviewSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("styling overview: %w", err)
	}
	if err := f.SetCellStyle(overviewSheet, "B1", fmt.Sprintf("B%d", len(overview)), wrap); err != nil {
		return fmt.Errorf("styling overview: %w", err)
	}
	_ = f.SetColWidth(overviewSheet, "A", "A", 22)
	_ = f.SetColWidth(overviewSheet, "B", "B", 80)

	if err := setRow(f, scheduleSheet, 1, scheduleHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(scheduleSheet, "A1", "E1", bold); err != nil {
		return fmt.Errorf("styling schedule header: %w", err)
	}
	for i, wk := range c.Weeks {
		row := []any{
			wk.WeekNumber,
			wk.ModuleTitle,
			strings.Join(wk.KeyTopics, "\n"),
			strings.Join(wk.Activities, "\n"),
			strings.Join(wk.Resources, "\n"),
		}
		if err := setRow(f, scheduleSheet, i+2, row); err != nil {
			return err
		}
	}
	if len(c.Weeks) > 0 {
		if err := f.SetCellStyle(scheduleSheet, "B2", fmt.Sprintf("E%d", len(c.Weeks)+1), wrap); err != nil {
			return fmt.Errorf("styling schedule: %w", err)
		}
	}
	_ = f.SetColWidth(scheduleSheet, "A", "A", 8)
	_ = f.SetColWidth(scheduleSheet, "B", "E", 40)

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}
