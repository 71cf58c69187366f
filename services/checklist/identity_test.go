package checklist

import (
	"testing"
	"time"
)

func baseChecklist() Checklist {
	return Checklist{
		Variant:          VariantFull,
		DriverName:       "J. Kowalski",
		TruckPlate:       "WX 12345",
		TrailerPlate:     "WX 98765",
		InspectorName:    "M. Wisniewski",
		InspectionDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		TachographExpiry: MonthYear{Month: 6, Year: 2026},
		Remarks:          "left mirror cracked",
		Equipment: []CheckItem{
			{Name: "Fire extinguisher", Checked: true, Expiry: MonthYear{Month: 12, Year: 2026}},
			{Name: "Warning triangle", Checked: true},
		},
		BeforeLoading: []LoadingLine{{Name: "Floor swept", OK: true}},
		Photos: []PhotoRef{
			{URL: "https://photos.test/a.jpg", Name: "a.jpg", ContentType: "image/jpeg"},
			{URL: "https://photos.test/b.jpg", Name: "b.jpg", ContentType: "image/jpeg"},
		},
	}
}

func TestFingerprintIsStable(t *testing.T) {
	a, err := Fingerprint(baseChecklist())
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	b, err := Fingerprint(baseChecklist())
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if a != b {
		t.Fatalf("fingerprints differ: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("fingerprint length = %d, want 64", len(a))
	}
}

func TestFingerprintChangesOnLeafEdit(t *testing.T) {
	base, err := Fingerprint(baseChecklist())
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}

	cases := []struct {
		name string
		edit func(*Checklist)
	}{
		{"driver name", func(c *Checklist) { c.DriverName = "A. Nowak" }},
		{"equipment checkbox", func(c *Checklist) { c.Equipment[1].Checked = false }},
		{"expiry month", func(c *Checklist) { c.Equipment[0].Expiry.Month = 11 }},
		{"remarks", func(c *Checklist) { c.Remarks = "" }},
		{"variant", func(c *Checklist) { c.Variant = VariantReduced }},
		{"photo url", func(c *Checklist) { c.Photos[0].URL = "https://photos.test/c.jpg" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := baseChecklist()
			tc.edit(&c)
			got, err := Fingerprint(c)
			if err != nil {
				t.Fatalf("Fingerprint: %v", err)
			}
			if got == base {
				t.Fatal("fingerprint unchanged after edit")
			}
		})
	}
}

func TestFingerprintPhotoOrderMatters(t *testing.T) {
	a := baseChecklist()
	b := baseChecklist()
	b.Photos[0], b.Photos[1] = b.Photos[1], b.Photos[0]

	fa, err := Fingerprint(a)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fb, err := Fingerprint(b)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fa == fb {
		t.Fatal("photo order should change the fingerprint")
	}
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	a, err := canonicalJSON(map[string]any{"b": 2, "a": 1, "c": map[string]any{"z": 0, "y": 9}})
	if err != nil {
		t.Fatalf("canonicalJSON: %v", err)
	}
	if want := `{"a":1,"b":2,"c":{"y":9,"z":0}}`; string(a) != want {
		t.Fatalf("canonical = %s, want %s", a, want)
	}
}

func TestFingerprintIncludesSignatureBytes(t *testing.T) {
	// Two submissions that differ only in whether a signature was drawn are
	// different checklists.
	a := baseChecklist()
	b := baseChecklist()
	b.DriverSignature = []byte{0x89, 0x50, 0x4e, 0x47}

	fa, _ := Fingerprint(a)
	fb, _ := Fingerprint(b)
	if fa == fb {
		t.Fatal("signature presence should change the fingerprint")
	}
}
