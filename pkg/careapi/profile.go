package careapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/carematch360/portal/pkg/gateway"
)

// documents holds the calls shared by patient and provider profiles.
type documents struct {
	caller
	root string
}

func (d documents) Create(ctx context.Context, payload any) (*gateway.Response, error) {
	return d.do(ctx, http.MethodPost, d.root, nil, payload)
}

// Me returns the caller's own profile.
func (d documents) Me(ctx context.Context) (*gateway.Response, error) {
	return d.do(ctx, http.MethodGet, d.root+"/me", nil, nil)
}

func (d documents) Update(ctx context.Context, payload any) (*gateway.Response, error) {
	return d.do(ctx, http.MethodPut, d.root, nil, payload)
}

func (d documents) ByID(ctx context.Context, id string) (*gateway.Response, error) {
	return d.do(ctx, http.MethodGet, d.root+seg(id), nil, nil)
}

// Delete removes the caller's own profile.
func (d documents) Delete(ctx context.Context) (*gateway.Response, error) {
	return d.do(ctx, http.MethodDelete, d.root, nil, nil)
}

func (d documents) Documents(ctx context.Context) (*gateway.Response, error) {
	return d.do(ctx, http.MethodGet, d.root+"/documents", nil, nil)
}

func (d documents) DeleteDocument(ctx context.Context, docID string) (*gateway.Response, error) {
	return d.do(ctx, http.MethodDelete, d.root+"/documents"+seg(docID), nil, nil)
}

// Upload is a document to attach to a profile.
type Upload struct {
	// Filename is sent as the part's filename.
	Filename string
	// Content is read fully before the request is sent, so a retry after a
	// token refresh resends the same bytes.
	Content io.Reader
	// Fields are extra form fields sent alongside the file.
	Fields map[string]string
}

// UploadDocument posts u as multipart/form-data under the "file" field.
func (d documents) UploadDocument(ctx context.Context, u Upload) (*gateway.Response, error) {
	body, contentType, err := encodeMultipart(u)
	if err != nil {
		return nil, err
	}
	req, err := gateway.NewRequest(d.target, http.MethodPost, d.root+"/documents", body)
	if err != nil {
		return nil, err
	}
	return d.d.Dispatch(ctx, req.WithHeader("Content-Type", contentType))
}

func encodeMultipart(u Upload) ([]byte, string, error) {
	if u.Content == nil {
		return nil, "", fmt.Errorf("upload %q has no content", u.Filename)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range u.Fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write field %q: %w", k, err)
		}
	}
	part, err := mw.CreateFormFile("file", u.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, u.Content); err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// PatientsAPI manages patient profiles on the profile backend.
type PatientsAPI struct{ documents }

// ProvidersAPI manages provider profiles on the profile backend.
type ProvidersAPI struct{ documents }

// Search finds providers matching the given criteria.
func (p *ProvidersAPI) Search(ctx context.Context, criteria any) (*gateway.Response, error) {
	return p.do(ctx, http.MethodPost, p.root+"/search", nil, criteria)
}

// FilesAPI reads stored documents from the profile backend.
type FilesAPI struct{ c caller }

// Info returns a file's metadata without its content.
func (f *FilesAPI) Info(ctx context.Context, encodedKey string) (*gateway.Response, error) {
	return f.c.do(ctx, http.MethodGet, "/files/info"+seg(encodedKey), nil, nil)
}

// Download returns the raw file content.
func (f *FilesAPI) Download(ctx context.Context, encodedKey string) (*gateway.Response, error) {
	return f.c.do(ctx, http.MethodGet, "/files/download"+seg(encodedKey), nil, nil)
}

// EncodeFileKey encodes a storage key the way the profile backend expects
// it in file URLs: base64url without padding.
func EncodeFileKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// ViewURL turns a download URL into its inline preview counterpart.
func ViewURL(fileURL string) string {
	return strings.Replace(fileURL, "/download/", "/view/", 1)
}
