package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"rigcheck/services/checklist"
)

func (r *Renderer) drawHeader(pdf *fpdf.Fpdf, c checklist.Checklist) {
	title := "Vehicle and driver inspection checklist"
	if c.Variant == checklist.VariantReduced {
		title = "Vehicle inspection checklist (reduced)"
	}

	pdf.SetFont(fontBody, "B", 15)
	pdf.SetTextColor(20, 20, 20)
	pdf.CellFormat(contentWidth, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(1)
}

func (r *Renderer) drawInfoCard(pdf *fpdf.Fpdf, c checklist.Checklist) {
	top := pdf.GetY()
	pdf.SetDrawColor(120, 120, 120)
	pdf.Rect(pageMargin, top, contentWidth, infoCardH, "D")

	colW := contentWidth / 2
	labelW := 34.0
	rowH := 6.0

	left := []struct{ label, value string }{
		{"Driver", c.DriverName},
		{"Truck plate", c.TruckPlate},
		{"Trailer plate", c.TrailerPlate},
		{"Inspection date", c.InspectionDate.Format("02.01.2006")},
	}

	y := top + 2
	for _, row := range left {
		pdf.SetXY(pageMargin+2, y)
		pdf.SetFont(fontBody, "B", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(labelW, rowH, row.label, "", 0, "L", false, 0, "")
		pdf.SetFont(fontBody, "", 9)
		pdf.SetTextColor(20, 20, 20)
		pdf.CellFormat(colW-labelW-4, rowH, truncateToWidth(pdf, row.value, colW-labelW-4), "", 0, "L", false, 0, "")
		y += rowH
	}

	expiries := []struct {
		label string
		value checklist.MonthYear
	}{
		{"Tachograph", c.TachographExpiry},
		{"Inspection", c.InspectionExpiry},
		{"Insurance", c.InsuranceExpiry},
		{"ADR", c.ADRExpiry},
	}

	y = top + 2
	for _, row := range expiries {
		pdf.SetXY(pageMargin+colW+2, y)
		pdf.SetFont(fontBody, "B", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(labelW, rowH, row.label, "", 0, "L", false, 0, "")
		pdf.SetFont(fontBody, "", 9)
		text := row.value.String()
		if text == "" {
			text = "-"
			pdf.SetTextColor(120, 120, 120)
		} else if row.value.ExpiredAt(c.InspectionDate) {
			// Info card expiries use the first-of-month rule.
			pdf.SetTextColor(190, 30, 30)
		} else {
			pdf.SetTextColor(30, 140, 50)
		}
		pdf.CellFormat(colW-labelW-4, rowH, text, "", 0, "L", false, 0, "")
		y += rowH
	}

	r.drawRemarks(pdf, c.Remarks, top+4*rowH+3)
	pdf.SetY(top + infoCardH + 3)
}

func (r *Renderer) drawRemarks(pdf *fpdf.Fpdf, remarks string, top float64) {
	boxW := contentWidth - 4
	pdf.SetDrawColor(170, 170, 170)
	pdf.Rect(pageMargin+2, top, boxW, remarksBoxH-4, "D")

	pdf.SetXY(pageMargin+3, top+1)
	pdf.SetFont(fontBody, "B", 8)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(boxW-2, 4, "Remarks", "", 1, "L", false, 0, "")

	if remarks == "" {
		return
	}

	innerW := boxW - 4
	innerH := remarksBoxH - 10
	size, lineH, lines := fitRemarks(pdf, remarks, innerW, innerH)

	pdf.SetFont(fontBody, "", size)
	pdf.SetTextColor(20, 20, 20)
	y := top + 5.5
	for _, line := range lines {
		pdf.SetXY(pageMargin+4, y)
		pdf.CellFormat(innerW, lineH, line, "", 0, "L", false, 0, "")
		y += lineH
	}
}

func (r *Renderer) drawEquipment(pdf *fpdf.Fpdf, c checklist.Checklist) {
	pdf.SetFont(fontBody, "B", 11)
	pdf.SetTextColor(20, 20, 20)
	pdf.CellFormat(contentWidth, 7, "Equipment", "", 1, "L", false, 0, "")

	items := c.Equipment
	colW := contentWidth / 2
	rowH := 5.6
	perCol := (len(items) + 1) / 2
	top := pdf.GetY()

	for i, item := range items {
		col := i / max(perCol, 1)
		row := i % max(perCol, 1)
		x := pageMargin + float64(col)*colW
		y := top + float64(row)*rowH
		r.drawEquipmentItem(pdf, item, c, x, y, colW, rowH)
	}

	rows := perCol
	if len(items) == 0 {
		rows = 0
	}
	pdf.SetY(top + float64(rows)*rowH + 3)
}

func (r *Renderer) drawEquipmentItem(pdf *fpdf.Fpdf, item checklist.CheckItem, c checklist.Checklist, x, y, colW, rowH float64) {
	cursor := x

	if item.Icon != "" {
		if data := r.assetBytes("icons/" + item.Icon + ".png"); data != nil {
			name := "icon-" + item.Icon
			pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
			pdf.ImageOptions(name, cursor, y+0.6, 4, 4, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
	}
	cursor += 5

	pass := itemPass(item, c.InspectionDate)
	pdf.SetFont("ZapfDingbats", "", 9)
	glyph := glyphFail
	if pass {
		glyph = glyphPass
		pdf.SetTextColor(30, 140, 50)
	} else {
		pdf.SetTextColor(190, 30, 30)
	}
	pdf.SetXY(cursor, y)
	pdf.CellFormat(5, rowH, glyph, "", 0, "C", false, 0, "")
	cursor += 5.5

	expiryText := ""
	expiryW := 0.0
	if !item.Expiry.IsZero() {
		expiryText = item.Expiry.String()
		pdf.SetFont(fontBody, "", 8)
		expiryW = pdf.GetStringWidth(expiryText) + 2
	}

	nameW := x + colW - cursor - expiryW - 2
	pdf.SetFont(fontBody, "", 9)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetXY(cursor, y)
	pdf.CellFormat(nameW, rowH, truncateToWidth(pdf, item.Name, nameW), "", 0, "L", false, 0, "")

	if expiryText != "" {
		pdf.SetFont(fontBody, "", 8)
		if expiredEndOfMonth(item.Expiry, c.InspectionDate) {
			pdf.SetTextColor(190, 30, 30)
		} else {
			pdf.SetTextColor(30, 140, 50)
		}
		pdf.SetXY(cursor+nameW, y)
		pdf.CellFormat(expiryW, rowH, expiryText, "", 0, "R", false, 0, "")
	}
}

func (r *Renderer) drawLoadingBoxes(pdf *fpdf.Fpdf, c checklist.Checklist) {
	top := pdf.GetY()
	boxW := (contentWidth - 4) / 2

	r.drawLoadingBox(pdf, "Before loading", c.BeforeLoading, pageMargin, top, boxW)
	r.drawLoadingBox(pdf, "After loading", c.AfterLoading, pageMargin+boxW+4, top, boxW)

	pdf.SetY(top + loadingBoxH + 3)
}

func (r *Renderer) drawLoadingBox(pdf *fpdf.Fpdf, title string, lines []checklist.LoadingLine, x, y, w float64) {
	pdf.SetDrawColor(120, 120, 120)
	pdf.Rect(x, y, w, loadingBoxH, "D")

	pdf.SetXY(x+2, y+1)
	pdf.SetFont(fontBody, "B", 9)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(w-4, 5, title, "", 1, "L", false, 0, "")

	rowH := 4.6
	lineY := y + 6.5
	for _, line := range lines {
		if lineY+rowH > y+loadingBoxH-1 {
			break
		}
		pdf.SetFont("ZapfDingbats", "", 8)
		glyph := glyphFail
		if line.OK {
			glyph = glyphPass
			pdf.SetTextColor(30, 140, 50)
		} else {
			pdf.SetTextColor(190, 30, 30)
		}
		pdf.SetXY(x+2, lineY)
		pdf.CellFormat(4, rowH, glyph, "", 0, "C", false, 0, "")

		pdf.SetFont(fontBody, "", 8.5)
		pdf.SetTextColor(20, 20, 20)
		pdf.SetXY(x+7, lineY)
		pdf.CellFormat(w-9, rowH, truncateToWidth(pdf, line.Name, w-9), "", 0, "L", false, 0, "")
		lineY += rowH
	}
}

func (r *Renderer) drawSignatures(pdf *fpdf.Fpdf, c checklist.Checklist) {
	top := pdf.GetY()
	slotW := (contentWidth - 10) / 2

	r.drawSignatureSlot(pdf, "Driver", c.DriverName, c.DriverSignature, "sig-driver", pageMargin, top, slotW, 0, 0, 0)

	red, green, blue := parseHexColor(r.cfg.Inspectors.Color(c.InspectorName))
	r.drawSignatureSlot(pdf, "Inspector", c.InspectorName, c.InspectorSignature, "sig-inspector", pageMargin+slotW+10, top, slotW, red, green, blue)

	pdf.SetY(top + signatureRowH)
}

func (r *Renderer) drawSignatureSlot(pdf *fpdf.Fpdf, role, name string, sig []byte, imgName string, x, y, w float64, red, green, blue int) {
	if len(sig) > 0 {
		pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(sig))
		pdf.ImageOptions(imgName, x+4, y+2, w-8, 16, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	} else {
		pdf.SetDrawColor(90, 90, 90)
		pdf.Line(x+4, y+18, x+w-4, y+18)
	}

	pdf.SetXY(x, y+19)
	pdf.SetFont(fontBody, "", 9)
	pdf.SetTextColor(red, green, blue)
	label := role
	if name != "" {
		label = fmt.Sprintf("%s: %s", role, name)
	}
	pdf.CellFormat(w, 5, truncateToWidth(pdf, label, w), "", 0, "C", false, 0, "")
	pdf.SetTextColor(20, 20, 20)
}

func (r *Renderer) drawWatermark(pdf *fpdf.Fpdf) {
	data := r.assetBytes("watermark.png")
	if data == nil {
		return
	}

	pdf.RegisterImageOptionsReader("watermark", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
	pdf.SetAlpha(0.12, "Normal")
	w := 120.0
	pdf.ImageOptions("watermark", (pageWidth-w)/2, 95, w, 0, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.SetAlpha(1.0, "Normal")
}
