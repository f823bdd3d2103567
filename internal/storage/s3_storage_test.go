package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFileSize(t *testing.T) {
	assert.NoError(t, ValidateFileSize(10*1024*1024, 100))
	assert.ErrorIs(t, ValidateFileSize(101*1024*1024, 100), ErrFileTooLarge)
	assert.ErrorIs(t, ValidateFileSize(0, 100), ErrFileTooLarge)
}

func TestValidateContentTypeAndExtension(t *testing.T) {
	assert.NoError(t, ValidateContentType("video/mp4", []string{"video/mp4"}))
	assert.ErrorIs(t, ValidateContentType("image/png", []string{"video/mp4"}), ErrContentTypeBlocked)

	assert.NoError(t, ValidateExtension("Lecture.MP4", []string{".mp4"}))
	assert.ErrorIs(t, ValidateExtension("lecture.avi", []string{".mp4"}), ErrExtensionBlocked)
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("courses/3/videos", "Intro.MP4")
	assert.True(t, strings.HasPrefix(key, "courses/3/videos/"))
	assert.True(t, strings.HasSuffix(key, ".mp4"))
}
