package domain

import "io"

type Product struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Email   string `db:"email" json:"email"`
	Store   string `db:"store" json:"store"`
	Picture string `db:"picture" json:"picture"` // relative asset path or ""
}

// Upload is a binary payload received with a create/update request.
type Upload struct {
	FieldName    string
	OriginalName string
	MimeType     string // as declared by the client
	Size         int64
	Content      io.Reader
}

// Asset describes a payload after it has been written to storage.
type Asset struct {
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"` // blake2b-256, hex
}
