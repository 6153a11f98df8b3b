package media

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/crypto/blake2b"

	"storefront/internal/domain"
)

var allowedTypes = []string{"image/jpeg", "image/png"}

type Options struct {
	Root     string // e.g. "public/uploads"; also the prefix of returned paths
	MaxBytes int64  // 0 means no cap
	Sniff    bool   // also check the bytes, not only the declared type
}

// Store writes uploaded images under a fixed root. It keeps no state between
// calls and knows nothing about which products reference which files.
type Store struct {
	root     string
	maxBytes int64
	sniff    bool
	now      func() time.Time
}

func NewStore(opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Root) == "" {
		return nil, fmt.Errorf("media root is required")
	}
	s := &Store{
		root:     filepath.ToSlash(filepath.Clean(opts.Root)),
		maxBytes: opts.MaxBytes,
		sniff:    opts.Sniff,
		now:      time.Now,
	}
	if err := s.EnsureRoot(); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureRoot creates the storage root if it does not exist yet.
func (s *Store) EnsureRoot() error {
	if err := os.MkdirAll(filepath.FromSlash(s.root), 0o755); err != nil {
		return fmt.Errorf("create media root: %w", err)
	}
	return nil
}

func (s *Store) Root() string { return s.root }

// Accept validates u and writes it as <field>-<unix millis><ext>. Nothing is
// written when validation fails. Two uploads on the same field within the
// same millisecond share a name and the later one wins.
func (s *Store) Accept(ctx context.Context, u domain.Upload) (domain.Asset, error) {
	if !allowed(u.MimeType) {
		return domain.Asset{}, domain.ErrUnsupportedMediaType
	}
	if s.maxBytes > 0 && u.Size > s.maxBytes {
		return domain.Asset{}, domain.ErrAssetTooLarge
	}
	if u.Content == nil {
		return domain.Asset{}, fmt.Errorf("upload %q has no content", u.FieldName)
	}

	src := u.Content
	if s.maxBytes > 0 {
		src = io.LimitReader(src, s.maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("read upload: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return domain.Asset{}, domain.ErrAssetTooLarge
	}
	if s.sniff && !allowed(mimetype.Detect(data).String()) {
		return domain.Asset{}, domain.ErrUnsupportedMediaType
	}
	if err := ctx.Err(); err != nil {
		return domain.Asset{}, err
	}

	name := s.filename(u.FieldName, u.OriginalName)
	if err := os.WriteFile(filepath.Join(filepath.FromSlash(s.root), name), data, 0o644); err != nil {
		return domain.Asset{}, fmt.Errorf("write asset: %w", err)
	}

	sum := blake2b.Sum256(data)
	return domain.Asset{
		Path:     path.Join(s.root, name),
		MimeType: u.MimeType,
		Size:     int64(len(data)),
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}

// Remove deletes an asset previously returned by Accept. Paths outside the
// root are refused; a file that is already gone is not an error.
func (s *Store) Remove(p string) error {
	if p == "" {
		return nil
	}
	clean := path.Clean(filepath.ToSlash(p))
	if path.Dir(clean) != s.root {
		return fmt.Errorf("refusing to remove %q outside %q", p, s.root)
	}
	if err := os.Remove(filepath.FromSlash(clean)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove asset: %w", err)
	}
	return nil
}

func (s *Store) filename(field, original string) string {
	ext := filepath.Ext(path.Base(filepath.ToSlash(original)))
	if ext != "" {
		ext = "." + keepSafe(ext[1:])
	}
	return fmt.Sprintf("%s-%d%s", safeField(field), s.now().UnixMilli(), ext)
}

func allowed(mt string) bool {
	for _, a := range allowedTypes {
		if mt == a {
			return true
		}
	}
	return false
}

// safeField keeps the field name usable as a filename prefix.
func safeField(field string) string {
	if field = keepSafe(field); field == "" {
		return "file"
	}
	return field
}

func keepSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return -1
	}, s)
}
