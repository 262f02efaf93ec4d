package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/buyergroup-cli/internal/model"
)

// XLSXExporter writes the report as a workbook: a summary sheet, one row
// per member, and the phase timings.
type XLSXExporter struct {
	path string
}

// NewXLSX creates an exporter that writes the workbook to path.
func NewXLSX(path string) *XLSXExporter {
	return &XLSXExporter{path: path}
}

// Export writes the workbook, overwriting any existing file at the path.
func (e *XLSXExporter) Export(_ context.Context, report *model.Report) error {
	f := xlsx.NewFile()

	if err := writeSummarySheet(f, report); err != nil {
		return err
	}
	if err := writeMembersSheet(f, report); err != nil {
		return err
	}
	if err := writePhasesSheet(f, report); err != nil {
		return err
	}

	if err := f.Save(e.path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	zap.L().Info("export: workbook written",
		zap.String("path", e.path),
		zap.Int("members", report.BuyerGroup.TotalMembers),
	)
	return nil
}

func writeSummarySheet(f *xlsx.File, report *model.Report) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	bold := boldStyle()
	addRow := func(label string, value any) {
		row := sheet.AddRow()
		lc := row.AddCell()
		lc.Value = label
		lc.SetStyle(bold)
		vc := row.AddCell()
		switch v := value.(type) {
		case string:
			vc.Value = v
		case int:
			vc.SetInt(v)
		case int64:
			vc.SetInt64(v)
		case float64:
			vc.SetFloatWithFormat(v, "0.0000")
		default:
			vc.Value = fmt.Sprint(v)
		}
	}

	g := report.BuyerGroup
	addRow("Company", report.Target.CompanyName)
	addRow("Aliases", strings.Join(report.Target.Aliases, ", "))
	addRow("Profile", report.ProfileName)
	addRow("Run ID", report.RunID)
	addRow("Members", g.TotalMembers)
	addRow("Overall confidence", g.OverallConfidence)
	addRow("Strategy", string(g.Dynamics.Strategy))
	addRow("Priority", string(g.Dynamics.Priority))
	addRow("Risk level", string(g.Dynamics.RiskLevel))
	addRow("Cohesion", g.Dynamics.Cohesion)
	addRow("Decision complexity", g.Dynamics.DecisionComplexity)
	addRow("Departments", g.Dynamics.Departments)
	addRow("Search credits", report.CreditsUsed.Search)
	addRow("Collect credits", report.CreditsUsed.Collect)
	addRow("Estimated USD", report.EstimatedUSD)
	addRow("Processing ms", report.ProcessingMS)
	addRow("Warnings", strings.Join(report.Warnings, "; "))
	if report.DryRun {
		addRow("Dry run", "yes")
	}
	return nil
}

var memberHeaders = []string{
	"Role", "Name", "Title", "Department", "Score", "Confidence",
	"Influence", "Decision Power", "Email", "LinkedIn", "Rationale",
}

func writeMembersSheet(f *xlsx.File, report *model.Report) error {
	sheet, err := f.AddSheet("Buyer Group")
	if err != nil {
		return eris.Wrap(err, "export: add members sheet")
	}

	bold := boldStyle()
	header := sheet.AddRow()
	for _, h := range memberHeaders {
		cell := header.AddCell()
		cell.Value = h
		cell.SetStyle(bold)
	}

	for _, m := range report.BuyerGroup.Members() {
		row := sheet.AddRow()
		row.AddCell().Value = string(m.Role)
		row.AddCell().Value = m.FullName
		row.AddCell().Value = m.Title
		row.AddCell().Value = m.Department
		row.AddCell().SetFloatWithFormat(m.Score, "0.00")
		row.AddCell().SetFloatWithFormat(m.Confidence, "0.00")
		row.AddCell().SetFloatWithFormat(m.InfluenceScore, "0.0")
		row.AddCell().SetFloatWithFormat(m.DecisionPower, "0.00")
		row.AddCell().Value = m.Email
		row.AddCell().Value = m.LinkedInURL
		row.AddCell().Value = strings.Join(m.Rationale, "; ")
	}
	return nil
}

func writePhasesSheet(f *xlsx.File, report *model.Report) error {
	sheet, err := f.AddSheet("Phases")
	if err != nil {
		return eris.Wrap(err, "export: add phases sheet")
	}

	bold := boldStyle()
	header := sheet.AddRow()
	for _, h := range []string{"Phase", "Status", "Duration (ms)", "Error"} {
		cell := header.AddCell()
		cell.Value = h
		cell.SetStyle(bold)
	}

	for _, p := range report.Phases {
		row := sheet.AddRow()
		row.AddCell().Value = p.Name
		row.AddCell().Value = string(p.Status)
		row.AddCell().SetInt64(p.Duration)
		row.AddCell().Value = p.Error
	}
	return nil
}

func boldStyle() *xlsx.Style {
	style := xlsx.NewStyle()
	style.Font.Bold = true
	style.ApplyFont = true
	return style
}
