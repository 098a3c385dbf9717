package database

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/firestore"

	apperrors "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/errors"
)

// DocumentField holds the serialized catalog when it is stored as text.
const DocumentField = "document"

// CatalogStore reads catalog documents from Firestore.
type CatalogStore struct {
	Client *firestore.Client
}

func NewCatalogStore(client *firestore.Client) *CatalogStore {
	return &CatalogStore{Client: client}
}

// GetCatalogDocument returns the catalog stored at collection/id. A
// string "document" field is returned verbatim (JSON or JSONC); otherwise
// the document's fields are the catalog itself and are re-encoded as JSON.
func (s *CatalogStore) GetCatalogDocument(ctx context.Context, collection, id string) ([]byte, error) {
	snap, err := s.Client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, apperrors.ErrStorageError.WithCause(err).WithMetadata("document", collection+"/"+id)
	}
	return DocumentBytes(snap.Data())
}

// PutCatalogDocument stores raw as the text "document" field of collection/id.
func (s *CatalogStore) PutCatalogDocument(ctx context.Context, collection, id string, raw []byte) error {
	_, err := s.Client.Collection(collection).Doc(id).Set(ctx, map[string]interface{}{
		DocumentField: string(raw),
		"updated_at":  firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return apperrors.ErrStorageError.WithCause(err).WithMetadata("document", collection+"/"+id)
	}
	return nil
}

// DocumentBytes extracts the serialized catalog from Firestore document data.
func DocumentBytes(data map[string]interface{}) ([]byte, error) {
	if data == nil {
		return nil, apperrors.New(apperrors.CodeStorageError, "catalog document is empty")
	}
	if raw, ok := data[DocumentField]; ok {
		text, isString := raw.(string)
		if !isString {
			return nil, apperrors.New(apperrors.CodeStorageError, fmt.Sprintf("field %q must be a string, got %T", DocumentField, raw))
		}
		return []byte(text), nil
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageError, "re-encoding catalog document")
	}
	return out, nil
}
