package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"rigcheck/services/checklist"
)

const (
	photosPrefix     = "photos"
	manifestFileName = "manifest.yaml"
	deflateLevel     = 6
)

// BuildConfig configures archive creation for one export.
type BuildConfig struct {
	// Report is the rendered PDF; it is always present in the archive.
	Report     []byte
	ReportName string
	Photos     []checklist.PhotoRef
	// Signer optionally signs the embedded manifest. Nil skips signing.
	Signer     *Signer
	HTTPClient *http.Client
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Build packages the report and its photos into a single deflate-compressed
// zip. Photos are fetched one at a time; a failed fetch is logged and skipped
// without aborting the rest of the archive.
func Build(ctx context.Context, cfg BuildConfig) ([]byte, error) {
	if len(cfg.Report) == 0 {
		return nil, errors.New("report bytes are required")
	}
	if cfg.ReportName == "" {
		cfg.ReportName = "report.pdf"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, deflateLevel)
	})

	now := cfg.Now().UTC()
	entries := make([]ManifestEntry, 0, len(cfg.Photos)+1)

	if err := writeEntry(zw, cfg.ReportName, cfg.Report, now, &entries); err != nil {
		return nil, fmt.Errorf("write report entry: %w", err)
	}

	for i, photo := range cfg.Photos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := fetchPhoto(ctx, cfg.HTTPClient, photo.URL)
		if err != nil {
			cfg.Logger.Warn().Err(err).Str("photo", photo.Name).Str("url", photo.URL).Msg("photo fetch failed, skipping")
			continue
		}

		name := fmt.Sprintf("%s/%02d_%s", photosPrefix, i+1, SanitizeName(photoFileName(photo)))
		if err := writeEntry(zw, name, data, now, &entries); err != nil {
			return nil, fmt.Errorf("write photo entry %q: %w", name, err)
		}
	}

	manifest := Manifest{
		Version:   "1",
		CreatedAt: now.Truncate(time.Second),
		Entries:   entries,
	}
	if cfg.Signer != nil {
		manifest.Signer = cfg.Signer.Recipient()
		manifest.SigningPublicKey = cfg.Signer.PublicKeyBase64()
		payload, err := manifest.SigningBytes()
		if err != nil {
			return nil, fmt.Errorf("marshal manifest for signing: %w", err)
		}
		sig, err := cfg.Signer.Sign(payload)
		if err != nil {
			return nil, fmt.Errorf("sign manifest: %w", err)
		}
		manifest.Signature = sig
	}

	manifestBytes, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	header := &zip.FileHeader{Name: manifestFileName, Method: zip.Deflate, Modified: now}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return nil, fmt.Errorf("write manifest header: %w", err)
	}
	if _, err := w.Write(manifestBytes); err != nil {
		return nil, fmt.Errorf("write manifest body: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

func writeEntry(zw *zip.Writer, name string, data []byte, now time.Time, entries *[]ManifestEntry) error {
	header := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: now}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}

	sum := sha256.Sum256(data)
	*entries = append(*entries, ManifestEntry{
		Path:   name,
		Size:   int64(len(data)),
		SHA256: hex.EncodeToString(sum[:]),
	})
	return nil
}

func fetchPhoto(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("empty photo url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func photoFileName(photo checklist.PhotoRef) string {
	if photo.Name != "" {
		return photo.Name
	}
	if base := path.Base(photo.URL); base != "." && base != "/" {
		return base
	}
	return "photo"
}

// SanitizeName replaces every character outside [A-Za-z0-9._-] with an
// underscore so original photo names are safe as archive entry names.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, ch := range name {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch == '.' || ch == '_' || ch == '-':
			b.WriteRune(ch)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
