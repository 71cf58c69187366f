package artifacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	gos3 "rigcheck/pkg/s3"
	"rigcheck/services/checklist"
)

type memRecords struct {
	rows      map[string]*Record // keyed by fingerprint
	insertErr error
}

func newMemRecords() *memRecords {
	return &memRecords{rows: map[string]*Record{}}
}

func (m *memRecords) FindByHash(_ context.Context, hash string) (*Record, error) {
	rec, ok := m.rows[hash]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *memRecords) FindByID(_ context.Context, id uuid.UUID) (*Record, error) {
	for _, rec := range m.rows {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRecords) List(_ context.Context, checklistType string) ([]Record, error) {
	var out []Record
	for _, rec := range m.rows {
		if checklistType != "" && rec.ChecklistType != checklistType {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (m *memRecords) Insert(_ context.Context, rec *Record) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.rows[rec.ChecklistHash]; ok {
		return errors.New("duplicate fingerprint")
	}
	cp := *rec
	m.rows[rec.ChecklistHash] = &cp
	return nil
}

func (m *memRecords) UpdateByHash(_ context.Context, hash string, expiresAt time.Time, meta datatypes.JSONMap, emailSent bool) error {
	rec, ok := m.rows[hash]
	if !ok {
		return errors.New("not found")
	}
	rec.ExpiresAt = expiresAt
	rec.Meta = meta
	if emailSent {
		rec.EmailSent = true
	}
	return nil
}

func (m *memRecords) MarkEmailSent(_ context.Context, hash string) error {
	rec, ok := m.rows[hash]
	if !ok {
		return errors.New("not found")
	}
	rec.EmailSent = true
	return nil
}

func (m *memRecords) ExpiredBefore(_ context.Context, cutoff time.Time, limit int) ([]Record, error) {
	var out []Record
	for _, rec := range m.rows {
		if rec.ExpiresAt.Before(cutoff) {
			out = append(out, *rec)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memRecords) DeleteByIDs(_ context.Context, ids []uuid.UUID) (int64, error) {
	var deleted int64
	for _, id := range ids {
		for hash, rec := range m.rows {
			if rec.ID == id {
				delete(m.rows, hash)
				deleted++
			}
		}
	}
	return deleted, nil
}

type memBlobs struct {
	objects map[string][]byte
	puts    int
	signErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}}
}

func (m *memBlobs) Put(_ context.Context, key string, data []byte, opts gos3.PutOptions) error {
	if opts.FailIfExists {
		if _, ok := m.objects[key]; ok {
			return errors.New("precondition failed")
		}
	}
	m.objects[key] = append([]byte(nil), data...)
	m.puts++
	return nil
}

func (m *memBlobs) Head(_ context.Context, key string) error {
	if _, ok := m.objects[key]; !ok {
		return errors.New("no such key")
	}
	return nil
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (m *memBlobs) Remove(_ context.Context, keys []string) error {
	for _, key := range keys {
		delete(m.objects, key)
	}
	return nil
}

func (m *memBlobs) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if m.signErr != nil {
		return "", m.signErr
	}
	return "https://blobs.test/" + key, nil
}

func testStore(t *testing.T, records Records, blobs Blobs, now time.Time) *Store {
	t.Helper()
	store, err := New(Config{
		Records: records,
		Blobs:   blobs,
		Logger:  zerolog.Nop(),
		Now:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func testFingerprint(seed byte) string {
	return strings.Repeat(fmt.Sprintf("%02x", seed), 32)
}

func TestStoreArchiveInsertsOnce(t *testing.T) {
	records := newMemRecords()
	blobs := newMemBlobs()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := testStore(t, records, blobs, now)

	in := StoreInput{
		ChecklistType: checklist.VariantFull,
		Fingerprint:   testFingerprint(0xab),
		Archive:       []byte("zip-bytes"),
		Meta:          Meta{DriverName: "J. Kowalski", TruckPlate: "WX 12345"},
	}

	res, err := store.StoreArchive(context.Background(), in)
	if err != nil {
		t.Fatalf("StoreArchive: %v", err)
	}
	if res.Deduplicated {
		t.Fatal("first store reported as deduplicated")
	}
	if got, want := res.Record.FilePath, "full/"+in.Fingerprint+".zip"; got != want {
		t.Fatalf("file path = %q, want %q", got, want)
	}
	if res.Record.DownloadURL == "" {
		t.Fatal("expected a download link")
	}
	if got, want := res.Record.ExpiresAt, now.Add(RetentionPeriod); !got.Equal(want) {
		t.Fatalf("expires at %v, want %v", got, want)
	}
	if blobs.puts != 1 {
		t.Fatalf("puts = %d, want 1", blobs.puts)
	}
}

func TestStoreArchiveDeduplicates(t *testing.T) {
	records := newMemRecords()
	blobs := newMemBlobs()
	first := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := testStore(t, records, blobs, first)

	in := StoreInput{
		ChecklistType: checklist.VariantReduced,
		Fingerprint:   testFingerprint(0x01),
		Archive:       []byte("zip-bytes"),
		Meta:          Meta{DriverName: "A. Nowak"},
	}
	if _, err := store.StoreArchive(context.Background(), in); err != nil {
		t.Fatalf("first store: %v", err)
	}

	later := first.Add(48 * time.Hour)
	store2 := testStore(t, records, blobs, later)

	in.Meta = Meta{TruckPlate: "GD 5678"}
	in.EmailSent = true
	res, err := store2.StoreArchive(context.Background(), in)
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	if !res.Deduplicated {
		t.Fatal("repeat store not reported as deduplicated")
	}
	if blobs.puts != 1 {
		t.Fatalf("puts = %d, want 1 (no re-upload)", blobs.puts)
	}
	if got, want := res.Record.ExpiresAt, later.Add(RetentionPeriod); !got.Equal(want) {
		t.Fatalf("retention not extended: %v, want %v", got, want)
	}

	rec := records.rows[in.Fingerprint]
	meta := MetaFromJSONMap(rec.Meta)
	if meta.DriverName != "A. Nowak" || meta.TruckPlate != "GD 5678" {
		t.Fatalf("meta not merged: %+v", meta)
	}
	if !rec.EmailSent {
		t.Fatal("email flag not set")
	}
}

func TestStoreArchiveEmailFlagIsMonotonic(t *testing.T) {
	records := newMemRecords()
	blobs := newMemBlobs()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := testStore(t, records, blobs, now)

	in := StoreInput{
		ChecklistType: checklist.VariantFull,
		Fingerprint:   testFingerprint(0x02),
		Archive:       []byte("zip-bytes"),
		EmailSent:     true,
	}
	if _, err := store.StoreArchive(context.Background(), in); err != nil {
		t.Fatalf("first store: %v", err)
	}

	in.EmailSent = false
	res, err := store.StoreArchive(context.Background(), in)
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	if !res.Record.EmailSent {
		t.Fatal("email flag flipped back to false")
	}
}

func TestMarkNotified(t *testing.T) {
	records := newMemRecords()
	blobs := newMemBlobs()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := testStore(t, records, blobs, now)

	in := StoreInput{
		ChecklistType: checklist.VariantFull,
		Fingerprint:   testFingerprint(0x0c),
		Archive:       []byte("zip-bytes"),
	}
	if _, err := store.StoreArchive(context.Background(), in); err != nil {
		t.Fatalf("StoreArchive: %v", err)
	}

	if err := store.MarkNotified(context.Background(), in.Fingerprint); err != nil {
		t.Fatalf("MarkNotified: %v", err)
	}
	rec := records.rows[in.Fingerprint]
	if !rec.EmailSent {
		t.Fatal("email flag not persisted")
	}
	if got, want := rec.ExpiresAt, now.Add(RetentionPeriod); !got.Equal(want) {
		t.Fatalf("retention changed by MarkNotified: %v, want %v", got, want)
	}

	// Already-flagged records are a no-op.
	if err := store.MarkNotified(context.Background(), in.Fingerprint); err != nil {
		t.Fatalf("repeat MarkNotified: %v", err)
	}

	// A later dedupe store keeps the flag set.
	res, err := store.StoreArchive(context.Background(), in)
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	if !res.Record.EmailSent {
		t.Fatal("dedupe store lost the email flag")
	}

	if err := store.MarkNotified(context.Background(), testFingerprint(0x0d)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreArchiveCompensatesFailedInsert(t *testing.T) {
	records := newMemRecords()
	records.insertErr = errors.New("db down")
	blobs := newMemBlobs()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := testStore(t, records, blobs, now)

	in := StoreInput{
		ChecklistType: checklist.VariantFull,
		Fingerprint:   testFingerprint(0x03),
		Archive:       []byte("zip-bytes"),
	}
	if _, err := store.StoreArchive(context.Background(), in); err == nil {
		t.Fatal("expected error from failed insert")
	}
	if len(blobs.objects) != 0 {
		t.Fatalf("orphaned blob left behind: %v", blobs.objects)
	}
}

func TestStoreArchiveSurvivesLinkFailure(t *testing.T) {
	records := newMemRecords()
	blobs := newMemBlobs()
	blobs.signErr = errors.New("presign unavailable")
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := testStore(t, records, blobs, now)

	res, err := store.StoreArchive(context.Background(), StoreInput{
		ChecklistType: checklist.VariantFull,
		Fingerprint:   testFingerprint(0x04),
		Archive:       []byte("zip-bytes"),
	})
	if err != nil {
		t.Fatalf("StoreArchive: %v", err)
	}
	if res.Record.DownloadURL != "" {
		t.Fatalf("expected empty link, got %q", res.Record.DownloadURL)
	}
}

func TestStoreArchiveRejectsBadInput(t *testing.T) {
	records := newMemRecords()
	blobs := newMemBlobs()
	store := testStore(t, records, blobs, time.Now())

	cases := []struct {
		name string
		in   StoreInput
	}{
		{"unknown type", StoreInput{ChecklistType: "weekly", Fingerprint: testFingerprint(0x05), Archive: []byte("x")}},
		{"empty fingerprint", StoreInput{ChecklistType: checklist.VariantFull, Archive: []byte("x")}},
		{"short fingerprint", StoreInput{ChecklistType: checklist.VariantFull, Fingerprint: "abcd", Archive: []byte("x")}},
		{"non-hex fingerprint", StoreInput{ChecklistType: checklist.VariantFull, Fingerprint: strings.Repeat("zz", 32), Archive: []byte("x")}},
		{"empty archive", StoreInput{ChecklistType: checklist.VariantFull, Fingerprint: testFingerprint(0x06)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.StoreArchive(context.Background(), tc.in)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
			if blobs.puts != 0 {
				t.Fatalf("blob written despite invalid input")
			}
		})
	}
}

func TestLinkFallsBackToLegacyPath(t *testing.T) {
	records := newMemRecords()
	blobs := newMemBlobs()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := testStore(t, records, blobs, now)

	hash := testFingerprint(0x07)
	// Row written by an older deployment: canonical path recorded, but the
	// object lives under the legacy prefix.
	records.rows[hash] = &Record{
		ID:            uuid.New(),
		ChecklistType: string(checklist.VariantReduced),
		ChecklistHash: hash,
		FilePath:      "reduced/" + hash + ".zip",
		ExpiresAt:     now.Add(time.Hour),
	}
	blobs.objects["short/"+hash+".zip"] = []byte("zip-bytes")

	link, err := store.Link(context.Background(), hash)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if want := "https://blobs.test/short/" + hash + ".zip"; link != want {
		t.Fatalf("link = %q, want %q", link, want)
	}
}

func TestLinkUnknownHash(t *testing.T) {
	store := testStore(t, newMemRecords(), newMemBlobs(), time.Now())
	if _, err := store.Link(context.Background(), testFingerprint(0x08)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteRemovesRowAndBlob(t *testing.T) {
	records := newMemRecords()
	blobs := newMemBlobs()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := testStore(t, records, blobs, now)

	res, err := store.StoreArchive(context.Background(), StoreInput{
		ChecklistType: checklist.VariantFull,
		Fingerprint:   testFingerprint(0x09),
		Archive:       []byte("zip-bytes"),
	})
	if err != nil {
		t.Fatalf("StoreArchive: %v", err)
	}

	if err := store.Delete(context.Background(), res.Record.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(records.rows) != 0 {
		t.Fatal("record still present")
	}
	if len(blobs.objects) != 0 {
		t.Fatal("blob still present")
	}

	if err := store.Delete(context.Background(), res.Record.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestSweepRemovesExpiredOnly(t *testing.T) {
	records := newMemRecords()
	blobs := newMemBlobs()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := testStore(t, records, blobs, now)

	expired := testFingerprint(0x0a)
	live := testFingerprint(0x0b)
	records.rows[expired] = &Record{
		ID:            uuid.New(),
		ChecklistType: string(checklist.VariantFull),
		ChecklistHash: expired,
		FilePath:      "full/" + expired + ".zip",
		ExpiresAt:     now.Add(-time.Hour),
	}
	records.rows[live] = &Record{
		ID:            uuid.New(),
		ChecklistType: string(checklist.VariantFull),
		ChecklistHash: live,
		FilePath:      "full/" + live + ".zip",
		ExpiresAt:     now.Add(time.Hour),
	}
	blobs.objects["full/"+expired+".zip"] = []byte("old")
	blobs.objects["full/"+live+".zip"] = []byte("new")

	res, err := store.Sweep(context.Background(), 0)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.RowsDeleted != 1 {
		t.Fatalf("rows deleted = %d, want 1", res.RowsDeleted)
	}
	if res.FilesAttempted != 1 {
		t.Fatalf("files attempted = %d, want 1", res.FilesAttempted)
	}
	if _, ok := records.rows[live]; !ok {
		t.Fatal("live record removed")
	}
	if _, ok := blobs.objects["full/"+live+".zip"]; !ok {
		t.Fatal("live blob removed")
	}
	if _, ok := records.rows[expired]; ok {
		t.Fatal("expired record kept")
	}
}

func TestSweepEmptyTable(t *testing.T) {
	store := testStore(t, newMemRecords(), newMemBlobs(), time.Now())
	res, err := store.Sweep(context.Background(), 10)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.RowsDeleted != 0 || res.FilesAttempted != 0 {
		t.Fatalf("unexpected sweep result: %+v", res)
	}
}
