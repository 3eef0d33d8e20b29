package speech

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/filestore"
)

// MaxAudioBytes caps clips sent inline to the transcription service.
const MaxAudioBytes = 20 << 20

// Loader reads clips from local files or from object storage.
type Loader struct {
	store  filestore.Store // nil when object storage is not configured
	bucket string
}

// NewLoader returns a Loader. store may be nil.
func NewLoader(store filestore.Store, defaultBucket string) *Loader {
	return &Loader{store: store, bucket: defaultBucket}
}

// Load reads the clip at ref, which is either a local path or an
// "s3://bucket/key" reference.
func (l *Loader) Load(ctx context.Context, ref string) (Audio, error) {
	if filestore.IsRef(ref) {
		return l.loadObject(ctx, ref)
	}
	return loadFile(ref)
}

func (l *Loader) loadObject(ctx context.Context, ref string) (Audio, error) {
	if l.store == nil {
		return Audio{}, errs.New(errs.ErrKindInvalidInput, "object storage is not configured")
	}
	r, err := filestore.ParseRef(ref, l.bucket)
	if err != nil {
		return Audio{}, errs.Wrap(errs.ErrKindInvalidInput, "invalid clip reference", err)
	}

	info, err := l.store.StatObject(ctx, r.Bucket, r.Key)
	if err != nil {
		return Audio{}, err
	}
	if info.Size > MaxAudioBytes {
		return Audio{}, errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("clip %s is %d bytes, over the %d byte limit", r, info.Size, MaxAudioBytes))
	}

	obj, err := l.store.GetObject(ctx, r.Bucket, r.Key)
	if err != nil {
		return Audio{}, err
	}
	defer obj.Close()

	data, err := readLimited(obj)
	if err != nil {
		return Audio{}, err
	}

	mimeType := info.ContentType
	if !strings.HasPrefix(mimeType, "audio/") {
		mimeType = DetectMIME(r.Key, data)
	}
	return Audio{Data: data, MIMEType: mimeType}, nil
}

func loadFile(path string) (Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Audio{}, errs.Wrap(errs.ErrKindNotFound, "audio file not found", err)
		}
		return Audio{}, errs.Wrap(errs.ErrKindInvalidInput, "cannot open audio file", err)
	}
	defer f.Close()

	data, err := readLimited(f)
	if err != nil {
		return Audio{}, err
	}
	return Audio{Data: data, MIMEType: DetectMIME(path, data)}, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAudioBytes+1))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to read audio", err)
	}
	if len(data) > MaxAudioBytes {
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("audio clip exceeds %d bytes", MaxAudioBytes))
	}
	return data, nil
}

var audioExt = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mp3",
	".aiff": "audio/aiff",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".webm": "audio/webm",
}

// DetectMIME picks the audio MIME type from the file extension, falling back
// to content sniffing and finally to audio/wav.
func DetectMIME(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := audioExt[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); strings.HasPrefix(t, "audio/") {
		return t
	}
	if t := http.DetectContentType(data); strings.HasPrefix(t, "audio/") {
		return t
	}
	return "audio/wav"
}
