package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/poke-max/job-analyzer/internal/gcp"
	"github.com/poke-max/job-analyzer/internal/models"
)

const imagePrefix = "job"

// PersistError marks a storage or document-store failure that happened
// after a successful classification.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// StoreConfig holds the persistence gateway settings.
type StoreConfig struct {
	Collection string
	Folder     string
	BucketName string
}

// Store commits classified records: the normalized image to Cloud Storage
// and the extraction record to Firestore. Each work item maps to exactly
// one document, so a single upsert suffices; no transactions are needed.
type Store struct {
	fs     *firestore.Client
	bucket *storage.BucketHandle
	config StoreConfig
}

// NewStore builds the persistence gateway on top of existing clients.
func NewStore(fs *firestore.Client, storageClient *storage.Client, config StoreConfig) *Store {
	if config.Collection == "" {
		config.Collection = "jobs"
	}
	if config.Folder == "" {
		config.Folder = "jobs"
	}
	return &Store{
		fs:     fs,
		bucket: storageClient.Bucket(config.BucketName),
		config: config,
	}
}

// SaveJob uploads the image (when present), upserts the record, and returns
// the record stamped with the public image URL and the document id.
func (s *Store) SaveJob(ctx context.Context, imageWebP []byte, rec *models.ExtractionRecord) (*models.ExtractionRecord, error) {
	out := *rec

	if len(imageWebP) > 0 {
		objectName := ObjectName(s.config.Folder, imagePrefix, time.Now())
		url, err := gcp.UploadPublic(ctx, s.bucket, objectName, "image/webp", imageWebP)
		if err != nil {
			return nil, &PersistError{Op: "storage upload", Err: err}
		}
		out.ImageURL = url
		log.Printf("[store] Uploaded image to %s", objectName)
	}

	docID := DeriveDocID(out.City, out.Position, time.Now())
	data := recordFields(&out)
	// Server-side clock for both stamps; client clocks are not trusted.
	data["createdAt"] = firestore.ServerTimestamp
	data["updatedAt"] = firestore.ServerTimestamp

	if _, err := s.fs.Collection(s.config.Collection).Doc(docID).Set(ctx, data); err != nil {
		return nil, &PersistError{Op: "firestore set", Err: err}
	}
	out.DocumentID = docID
	log.Printf("[store] Upserted document %s in collection %s", docID, s.config.Collection)

	return &out, nil
}

// UpdateJob updates an existing document. With merge the given fields are
// combined with the stored ones; otherwise the document is overwritten.
func (s *Store) UpdateJob(ctx context.Context, docID string, fields map[string]any, merge bool) error {
	fields["updatedAt"] = firestore.ServerTimestamp
	doc := s.fs.Collection(s.config.Collection).Doc(docID)

	var err error
	if merge {
		_, err = doc.Set(ctx, fields, firestore.MergeAll)
	} else {
		_, err = doc.Set(ctx, fields)
	}
	if err != nil {
		return &PersistError{Op: "firestore update", Err: err}
	}
	return nil
}

// GetJob fetches one document by id. A missing document returns (nil, nil).
func (s *Store) GetJob(ctx context.Context, docID string) (map[string]any, error) {
	snap, err := s.fs.Collection(s.config.Collection).Doc(docID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistError{Op: "firestore get", Err: err}
	}
	return snap.Data(), nil
}

// DeleteJob removes one document by id.
func (s *Store) DeleteJob(ctx context.Context, docID string) error {
	if _, err := s.fs.Collection(s.config.Collection).Doc(docID).Delete(ctx); err != nil {
		return &PersistError{Op: "firestore delete", Err: err}
	}
	return nil
}

// QueryFilter is one Firestore field filter, e.g. {"city", "==", "Asuncion"}.
type QueryFilter struct {
	Field string
	Op    string
	Value any
}

// QueryJobs runs a filtered query and returns the matching documents with
// their ids injected under "id".
func (s *Store) QueryJobs(ctx context.Context, filters []QueryFilter, orderBy string, limit int) ([]map[string]any, error) {
	q := s.fs.Collection(s.config.Collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, f.Op, f.Value)
	}
	if orderBy != "" {
		q = q.OrderBy(orderBy, firestore.Asc)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var results []map[string]any
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, &PersistError{Op: "firestore query", Err: err}
		}
		data := snap.Data()
		data["id"] = snap.Ref.ID
		results = append(results, data)
	}
	return results, nil
}

// DeleteImage removes an uploaded object by its path inside the bucket.
func (s *Store) DeleteImage(ctx context.Context, objectPath string) (bool, error) {
	return gcp.DeleteObject(ctx, s.bucket, objectPath)
}

// ObjectName builds the storage path for an uploaded image. The millisecond
// timestamp keeps names unique without any coordination.
func ObjectName(folder, prefix string, t time.Time) string {
	return fmt.Sprintf("%s/%s_%d.webp", folder, prefix, t.UnixMilli())
}

// DeriveDocID builds a best-effort human-legible document id from the city
// and position fields plus a second-resolution timestamp. Two records with
// identical city/position landing in the same second collide and the later
// one overwrites the earlier; accepted limitation of the scheme.
func DeriveDocID(city, position string, t time.Time) string {
	if city == "" {
		city = "unknown"
	}
	if position == "" {
		position = "job"
	}
	city = strings.ReplaceAll(strings.ToLower(city), " ", "_")
	position = strings.ReplaceAll(strings.ToLower(position), " ", "_")
	return fmt.Sprintf("%s_%s_%s", position, city, t.Format("20060102_150405"))
}

// recordFields flattens a record into the document field map, skipping the
// in-memory-only parse diagnostics.
func recordFields(rec *models.ExtractionRecord) map[string]any {
	data := map[string]any{
		"source":  rec.Source,
		"isJobAd": rec.IsJobAd,
	}
	if !rec.IsJobAd {
		data["reason"] = rec.Reason
		return data
	}

	data["position"] = rec.Position
	data["title"] = rec.Title
	data["description"] = rec.Description
	data["city"] = rec.City
	data["address"] = rec.Address
	data["company"] = rec.Company
	data["vacancyCount"] = rec.VacancyCount
	data["requirements"] = rec.Requirements
	data["salaryRange"] = rec.SalaryRange
	data["phone"] = rec.Phone
	data["email"] = rec.Email
	data["website"] = rec.Website
	data["workingHours"] = rec.WorkingHours
	if rec.ImageURL != "" {
		data["imageUrl"] = rec.ImageURL
	}
	return data
}
