// Package storage is the object store used for résumé files.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

const resumeObjectPrefix = "resumes"

// ObjectStore uploads, resolves and removes objects by key.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, data io.Reader, contentType string) error
	PublicURL(objectName string) string
	Delete(ctx context.Context, objectName string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// ResumePrefix is the key prefix of every object stored for one application.
func ResumePrefix(applicantID, applicationID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s", resumeObjectPrefix, applicantID, applicationID)
}

// ResumeObjectName derives the résumé key from the applicant and application ids,
// keeping the extension of the uploaded file.
func ResumeObjectName(applicantID, applicationID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".pdf"
	}
	return ResumePrefix(applicantID, applicationID) + ext
}
