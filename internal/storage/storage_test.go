package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseBlob(t *testing.T, b Blob) {
	t.Helper()
	ctx := context.Background()

	_, err := b.Read(ctx, "maps")
	require.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, b.Write(ctx, "maps", []byte(`["Ascent"]`)))
	require.NoError(t, b.Write(ctx, "maps", []byte(`["Ascent","Bind"]`)))

	got, err := b.Read(ctx, "maps")
	require.NoError(t, err)
	assert.Equal(t, `["Ascent","Bind"]`, string(got))
}

func TestMemory(t *testing.T) {
	exerciseBlob(t, NewMemory())
}

func TestDir(t *testing.T) {
	d, err := OpenDir(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	exerciseBlob(t, d)
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "blobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	exerciseBlob(t, s)
}

type fakeObjects struct {
	objects map[string][]byte
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3(t *testing.T) {
	fake := &fakeObjects{objects: map[string][]byte{}}
	exerciseBlob(t, &S3{client: fake, bucket: "b", prefix: "matchbot"})
	assert.Contains(t, fake.objects, "matchbot/maps.json")
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var maps []string
	found, err := LoadJSON(ctx, m, "maps", &maps)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, maps)

	require.NoError(t, SaveJSON(ctx, m, "riot id cache", map[string]string{"1": "Martige#NA1"}))
	_, err = m.Read(ctx, "riot-id-cache")
	require.NoError(t, err, "keys are slugged")

	m.FailWrites = errors.New("disk full")
	err = SaveJSON(ctx, m, "maps", []string{"Ascent"})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "riot-ids", Key("riot-ids"))
	assert.Equal(t, "riot-ids", Key("Riot IDs"))
	assert.Equal(t, "maps", Key("maps"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), Config{Driver: "floppy"})
	assert.Error(t, err)
}
