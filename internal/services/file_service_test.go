package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"testing"

	"ecotrack/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadFolders(t *testing.T) {
	store := &fakeImageStore{}
	env := newTestEnv(t, func(d *Dependencies) { d.Images = store })
	ctx := context.Background()

	result, err := env.sc.FileService.Upload(ctx, "u1", UploadProof, &multipart.FileHeader{Filename: "id.pdf"})
	require.NoError(t, err)
	assert.Contains(t, result.PublicID, utils.FolderOrganizerProofs)

	_, err = env.sc.FileService.Upload(ctx, "u1", "", &multipart.FileHeader{Filename: "bin.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []string{utils.FolderOrganizerProofs, utils.FolderActivityImages}, store.uploads)
}

func TestUploadRejections(t *testing.T) {
	env := newTestEnv(t, func(d *Dependencies) { d.Images = &fakeImageStore{} })
	ctx := context.Background()

	tests := []struct {
		name     string
		kind     UploadKind
		filename string
	}{
		{"unknown kind", "avatar", "a.png"},
		{"traversal", UploadActivity, "../etc/passwd.png"},
		{"no extension", UploadActivity, "photo"},
		{"empty name", UploadActivity, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.sc.FileService.Upload(ctx, "u1", tt.kind, &multipart.FileHeader{Filename: tt.filename})
			requireCode(t, err, http.StatusBadRequest, "")
		})
	}
}

func TestUploadStoreErrors(t *testing.T) {
	ctx := context.Background()
	header := &multipart.FileHeader{Filename: "a.png"}

	env := newTestEnv(t)
	_, err := env.sc.FileService.Upload(ctx, "u1", UploadActivity, header)
	requireCode(t, err, http.StatusServiceUnavailable, "")

	env = newTestEnv(t, func(d *Dependencies) {
		d.Images = &fakeImageStore{err: fmt.Errorf("wrap: %w", utils.ErrFileTooLarge)}
	})
	_, err = env.sc.FileService.Upload(ctx, "u1", UploadActivity, header)
	requireCode(t, err, http.StatusBadRequest, "")

	env = newTestEnv(t, func(d *Dependencies) { d.Images = &fakeImageStore{err: fmt.Errorf("cloud down")} })
	_, err = env.sc.FileService.Upload(ctx, "u1", UploadActivity, header)
	requireCode(t, err, http.StatusServiceUnavailable, "")
}
