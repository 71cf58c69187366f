package report

import (
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"

	"rigcheck/services/checklist"
)

func testPDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont(fontBody, "", 10)
	return pdf
}

func TestTruncateToWidth(t *testing.T) {
	pdf := testPDF()

	short := "OK"
	if got := truncateToWidth(pdf, short, 50); got != short {
		t.Fatalf("short text modified: %q", got)
	}

	long := strings.Repeat("very long equipment name ", 10)
	got := truncateToWidth(pdf, long, 40)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncated text missing ellipsis: %q", got)
	}
	if pdf.GetStringWidth(got) > 40 {
		t.Fatalf("truncated text still too wide: %.2f", pdf.GetStringWidth(got))
	}
}

func TestFitRemarksShrinksThenCompresses(t *testing.T) {
	pdf := testPDF()

	size, lineH, lines := fitRemarks(pdf, "short remark", 180, remarksBoxH)
	if size != remarksBaseSize {
		t.Fatalf("short remark shrunk to %.1f", size)
	}
	if len(lines) == 0 || lineH <= 0 {
		t.Fatalf("unexpected layout: %d lines at %.2f", len(lines), lineH)
	}

	huge := strings.Repeat("the cargo door latch needs adjustment before the next trip ", 40)
	size, lineH, lines = fitRemarks(pdf, huge, 180, remarksBoxH)
	if size != remarksFloorSize {
		t.Fatalf("huge remark rendered at %.1f, want floor %.1f", size, remarksFloorSize)
	}
	// At the floor, spacing is compressed so every line still lands inside.
	if float64(len(lines))*lineH > remarksBoxH+0.01 {
		t.Fatalf("lines overflow box: %d * %.3f > %.1f", len(lines), lineH, remarksBoxH)
	}
}

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in      string
		r, g, b int
	}{
		{"#1a6b2f", 26, 107, 47},
		{"FF0000", 255, 0, 0},
		{"#bogus!", 0, 0, 0},
		{"", 0, 0, 0},
	}
	for _, tc := range cases {
		r, g, b := parseHexColor(tc.in)
		if r != tc.r || g != tc.g || b != tc.b {
			t.Errorf("parseHexColor(%q) = (%d,%d,%d), want (%d,%d,%d)", tc.in, r, g, b, tc.r, tc.g, tc.b)
		}
	}
}

func TestItemPass(t *testing.T) {
	inspection := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		item checklist.CheckItem
		pass bool
	}{
		{"checked, no expiry", checklist.CheckItem{Name: "Triangle", Checked: true}, true},
		{"unchecked", checklist.CheckItem{Name: "Triangle"}, false},
		{"checked, expires same month", checklist.CheckItem{Name: "Extinguisher", Checked: true, Expiry: checklist.MonthYear{Month: 3, Year: 2026}}, true},
		{"checked, expired last month", checklist.CheckItem{Name: "Extinguisher", Checked: true, Expiry: checklist.MonthYear{Month: 2, Year: 2026}}, false},
		{"unchecked with future expiry", checklist.CheckItem{Name: "Kit", Expiry: checklist.MonthYear{Month: 12, Year: 2026}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := itemPass(tc.item, inspection); got != tc.pass {
				t.Fatalf("itemPass = %v, want %v", got, tc.pass)
			}
		})
	}
}

func TestExpiredEndOfMonthBoundary(t *testing.T) {
	expiry := checklist.MonthYear{Month: 3, Year: 2026}

	lastDay := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	if expiredEndOfMonth(expiry, lastDay) {
		t.Fatal("still valid on the last day of the expiry month")
	}

	dayAfter := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	if !expiredEndOfMonth(expiry, dayAfter) {
		t.Fatal("expired on the first day after the expiry month")
	}
}
