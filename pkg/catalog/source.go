package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	shared "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg"
	apperrors "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/errors"
)

//go:embed data/default_catalog.jsonc
var defaultDocument []byte

// DefaultDocument returns the catalog document compiled into the binary.
func DefaultDocument() []byte {
	return append([]byte(nil), defaultDocument...)
}

// Source yields the serialized catalog document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// EmbeddedSource serves the compiled-in default catalog.
type EmbeddedSource struct{}

func (EmbeddedSource) Fetch(ctx context.Context) ([]byte, error) {
	return DefaultDocument(), nil
}

func (EmbeddedSource) String() string { return "embedded" }

// FileSource reads a JSON or JSONC document from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, apperrors.ErrCatalogSource.WithMessage(fmt.Sprintf("reading %s", s.Path)).WithCause(err)
	}
	return data, nil
}

func (s FileSource) String() string { return "file://" + s.Path }

// BlobSource reads the document from an object store bucket.
type BlobSource struct {
	Store  shared.BlobStore
	Bucket string
	Object string
}

func (s BlobSource) Fetch(ctx context.Context) ([]byte, error) {
	data, err := s.Store.Read(ctx, s.Bucket, s.Object)
	if err != nil {
		return nil, apperrors.WrapRetryable(err, apperrors.CodeCatalogSource, "reading "+s.String())
	}
	return data, nil
}

func (s BlobSource) String() string { return "gs://" + s.Bucket + "/" + s.Object }

// DocumentSource reads the document from a document database.
type DocumentSource struct {
	Store      shared.CatalogDocumentStore
	Collection string
	ID         string
}

func (s DocumentSource) Fetch(ctx context.Context) ([]byte, error) {
	data, err := s.Store.GetCatalogDocument(ctx, s.Collection, s.ID)
	if err != nil {
		return nil, apperrors.WrapRetryable(err, apperrors.CodeCatalogSource, "reading "+s.String())
	}
	return data, nil
}

func (s DocumentSource) String() string { return "firestore://" + s.Collection + "/" + s.ID }

// SourceKind identifies where a catalog document lives.
type SourceKind string

const (
	SourceEmbedded SourceKind = "embedded"
	SourceFile     SourceKind = "file"
	SourceBlob     SourceKind = "gs"
	SourceDocument SourceKind = "firestore"
)

// SourceURI is a parsed catalog location. Location is the file path,
// bucket or collection; Name is the object or document id.
type SourceURI struct {
	Kind     SourceKind
	Location string
	Name     string
}

// ParseSourceURI accepts "", "embedded", a bare path, "file://path",
// "gs://bucket/object" and "firestore://collection/doc".
func ParseSourceURI(raw string) (SourceURI, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == string(SourceEmbedded) {
		return SourceURI{Kind: SourceEmbedded}, nil
	}
	if !strings.Contains(raw, "://") {
		return SourceURI{Kind: SourceFile, Location: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return SourceURI{}, apperrors.ErrCatalogSource.WithMessage("invalid catalog source " + raw).WithCause(err)
	}

	switch SourceKind(u.Scheme) {
	case SourceFile:
		return SourceURI{Kind: SourceFile, Location: u.Host + u.Path}, nil
	case SourceBlob, SourceDocument:
		name := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || name == "" {
			return SourceURI{}, apperrors.ErrCatalogSource.WithMessage(fmt.Sprintf("catalog source %s needs both a %s and a name", raw, locationLabel(SourceKind(u.Scheme))))
		}
		return SourceURI{Kind: SourceKind(u.Scheme), Location: u.Host, Name: name}, nil
	default:
		return SourceURI{}, apperrors.ErrCatalogSource.WithMessage("unsupported catalog source scheme " + u.Scheme)
	}
}

func locationLabel(k SourceKind) string {
	if k == SourceDocument {
		return "collection"
	}
	return "bucket"
}

func (u SourceURI) String() string {
	switch u.Kind {
	case SourceFile:
		return "file://" + u.Location
	case SourceBlob, SourceDocument:
		return string(u.Kind) + "://" + u.Location + "/" + u.Name
	default:
		return string(SourceEmbedded)
	}
}
