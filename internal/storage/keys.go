package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

var (
	ErrUnknownBucket  = errors.New("unknown upload bucket")
	ErrObjectNotFound = errors.New("object not found")
)

// Upload buckets accepted from clients.
const (
	BucketArticleBanners       = "article_banners"
	BucketArticleContentImages = "article_content_images"
	BucketBookCovers           = "book_covers"
	BucketUserAvatars          = "user_avatars"
)

var uploadBuckets = map[string]bool{
	BucketArticleBanners:       true,
	BucketArticleContentImages: true,
	BucketBookCovers:           true,
	BucketUserAvatars:          true,
}

func ValidBucket(b string) bool { return uploadBuckets[b] }

// ObjectKey names an upload as <bucket>/<unix-nanos><ext>. Only the
// extension of the client's file name survives.
func ObjectKey(bucket, filename string, now time.Time) (string, error) {
	if !ValidBucket(bucket) {
		return "", fmt.Errorf("%w: %q", ErrUnknownBucket, bucket)
	}
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 || strings.ContainsAny(ext, " ?#%") {
		ext = ""
	}
	return fmt.Sprintf("%s/%d%s", bucket, now.UnixNano(), ext), nil
}

// BucketOf returns the upload bucket a key belongs to, or "" for keys outside
// every upload bucket.
func BucketOf(key string) string {
	b, rest, ok := strings.Cut(key, "/")
	if !ok || rest == "" || !ValidBucket(b) || strings.Contains(rest, "..") {
		return ""
	}
	return b
}
