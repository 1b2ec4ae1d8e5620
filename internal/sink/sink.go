/**
 * Artifact persistence.
 *
 * Confirmed arbitrage ads are written to the filesystem under a path
 * derived from the MD5 of the landing-page URL, so re-encounters of the
 * same ad collapse into one directory. Last write wins.
 */

package sink

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/errors"
	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
)

const (
	imageFileName = "image.png"
	infoFileName  = "info.txt"
)

// Artifact is one confirmed ad ready for persistence.
type Artifact struct {
	Serial string
	Region string
	URL    string
	Text   string
	Image  image.Image
}

// Sink writes ad artifacts under a root directory, one subtree per
// device serial and schedule region.
type Sink struct {
	root   string
	index  *MatchIndex
	logger *logging.Logger
}

// NewSink creates a filesystem sink rooted at root. index may be nil.
func NewSink(root string, index *MatchIndex, logger *logging.Logger) *Sink {
	return &Sink{root: root, index: index, logger: logger.Child("sink")}
}

// HashURL returns the hex MD5 digest of the URL, the deduplication key
// for stored artifacts.
func HashURL(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Dir returns the directory an artifact for the URL would occupy.
func (s *Sink) Dir(serial, region, url string) string {
	return filepath.Join(s.root, serial, region, HashURL(url))
}

// Store persists the artifact's creative and metadata. Storing the same
// URL twice overwrites the previous artifact in place.
func (s *Sink) Store(artifact Artifact) (string, error) {
	if artifact.URL == "" {
		return "", errors.NewStorageFailedError(artifact.Serial, fmt.Errorf("artifact URL is empty"))
	}
	if artifact.Image == nil {
		return "", errors.NewStorageFailedError(artifact.Serial, fmt.Errorf("artifact image is nil"))
	}

	dir := s.Dir(artifact.Serial, artifact.Region, artifact.URL)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.NewStorageFailedError(artifact.Serial, err)
	}

	imagePath := filepath.Join(dir, imageFileName)
	f, err := os.Create(imagePath)
	if err != nil {
		return "", errors.NewStorageFailedError(artifact.Serial, err)
	}
	if err := png.Encode(f, artifact.Image); err != nil {
		f.Close()
		return "", errors.NewStorageFailedError(artifact.Serial, err)
	}
	if err := f.Close(); err != nil {
		return "", errors.NewStorageFailedError(artifact.Serial, err)
	}

	info := fmt.Sprintf("url: %s\ntext: %s", artifact.URL, artifact.Text)
	if err := os.WriteFile(filepath.Join(dir, infoFileName), []byte(info), 0o644); err != nil {
		return "", errors.NewStorageFailedError(artifact.Serial, err)
	}

	s.logger.Info("artifact stored", "dir", dir, "url", artifact.URL)
	if s.index != nil {
		s.index.Record(artifact)
	}
	return dir, nil
}
