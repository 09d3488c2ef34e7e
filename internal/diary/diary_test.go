package diary

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sofetch/internal/types"
)

func entry(url, body string) types.Entry {
	return types.Entry{
		Req: types.Request{Input: url},
		Res: types.Response{Body: body, Options: types.ResponseOptions{Status: 200}},
	}
}

func readRaw(t *testing.T, path string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	return doc
}

func TestOpen_MissingFileIsCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "diary.json")

	d, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, 0, d.Len())
	assert.FileExists(t, path)
	assert.Equal(t, []any{}, readRaw(t, path)["entries"])
}

func TestOpen_CorruptFileIsReset(t *testing.T) {
	for name, content := range map[string]string{
		"not json":        "{{{",
		"missing entries": `{"other": 1}`,
		"wrong shape":     `{"entries": "nope"}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "diary.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			d, err := Open(path)
			require.NoError(t, err)
			assert.Equal(t, 0, d.Len())
			assert.Equal(t, []any{}, readRaw(t, path)["entries"])
		})
	}
}

func TestOpen_ResolvesRelativePath(t *testing.T) {
	t.Chdir(t.TempDir())

	d, err := Open("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(d.Path()))
	assert.Equal(t, "diary.json", filepath.Base(d.Path()))
	assert.FileExists(t, DefaultPath)
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diary.json")
	d, err := Open(path)
	require.NoError(t, err)

	want := []types.Entry{
		entry("http://x/a", "hi"),
		{
			Req: types.Request{
				Input: "http://x/b",
				Options: types.RequestOptions{
					Method:  types.Exactly("POST"),
					Headers: types.Headers{"Content-Type": "application/json"},
					Body:    `{"q":1}`,
				},
			},
			Res: types.Response{
				Body:     "/w==",
				Encoding: types.EncodingBase64,
				Options: types.ResponseOptions{
					Headers:    types.Headers{"X-Req": "2"},
					Status:     201,
					StatusText: "Created",
				},
			},
		},
	}
	for _, e := range want {
		require.NoError(t, d.Append(e))
	}

	reloaded, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, want, reloaded.Entries())
}

func TestLoad_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diary.json")
	raw := `{"entries":[{"req":{"input":"http://x/a","options":{"method":"*","headers":{"Content-Type":"text/plain"}}},"res":{"body":"hi","options":{"status":200,"headers":{"X-A":"b"}}}}]}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	d, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, 1, d.Len())

	e := d.Entries()[0]
	assert.True(t, e.Method().IsAny())
	assert.Equal(t, types.Exactly("text/plain"), e.ContentType())
	assert.Equal(t, "hi", e.Res.Body)
	assert.Equal(t, 200, e.Res.Options.Status)
}

func TestFindMatch_FirstWins(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "diary.json"))
	require.NoError(t, err)
	require.NoError(t, d.Append(entry("http://x/a", "first")))
	require.NoError(t, d.Append(entry("http://x/a", "second")))

	e, ok := d.FindMatch(types.Candidate{Method: "GET", URL: "http://x/a"})
	require.True(t, ok)
	assert.Equal(t, "first", e.Res.Body)

	_, ok = d.FindMatch(types.Candidate{Method: "GET", URL: "http://x/b"})
	assert.False(t, ok)
}

func TestEntries_ReturnsCopies(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "diary.json"))
	require.NoError(t, err)
	e := entry("http://x/a", "hi")
	e.Res.Options.Headers = types.Headers{"X-A": "1"}
	require.NoError(t, d.Append(e))

	d.Entries()[0].Res.Options.Headers["X-A"] = "changed"

	got, ok := d.FindMatch(types.Candidate{Method: "GET", URL: "http://x/a"})
	require.True(t, ok)
	assert.Equal(t, "1", got.Res.Options.Headers["X-A"])
}

func TestAppend_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diary.json")
	d, err := Open(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Append(entry(fmt.Sprintf("http://x/%d", i), "")))
		}()
	}
	wg.Wait()

	reloaded, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 20, reloaded.Len())
}

func TestAppend_PersistFailureKeepsEntry(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub")
	d, err := Open(filepath.Join(dir, "diary.json"))
	require.NoError(t, err)

	// Replace the directory with a plain file so the rewrite cannot happen.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, nil, 0o644))

	err = d.Append(entry("http://x/a", "hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist diary")

	_, ok := d.FindMatch(types.Candidate{Method: "GET", URL: "http://x/a"})
	assert.True(t, ok)
}

func TestPersist_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(filepath.Join(dir, "diary.json"))
	require.NoError(t, err)
	require.NoError(t, d.Append(entry("http://x/a", "hi")))
	require.NoError(t, d.Persist())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "diary.json", files[0].Name())
}
