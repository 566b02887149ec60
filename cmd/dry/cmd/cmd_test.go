package cmd

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleJava = `public class PriceCalc {
    public int add(int a, int b) {
        int sum = a + b;
        return sum;
    }
}
`

func embeddingTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sum := md5.Sum([]byte(req.Code))
		vec := make([]float32, 4)
		for i := range vec {
			v := binary.BigEndian.Uint32(sum[i*4 : i*4+4])
			vec[i] = float32(math.Sin(float64(v)))
		}
		json.NewEncoder(w).Encode(vec)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newSampleRepo(t *testing.T, embedURL string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "PriceCalc.java"), []byte(sampleJava), 0o644))
	// Identical add() methods in differently named classes blend to a
	// FUNCTION similarity of about 0.78, so the threshold is set below it.
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "dryconfig.json"),
		[]byte(`{"embeddingSource":"`+embedURL+`","threshold":0.7}`),
		0o644,
	))
	return root
}

func TestInitCmdReportsAddedFile(t *testing.T) {
	srv := embeddingTestServer(t)
	root := newSampleRepo(t, srv.URL)

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"init", root})

	require.NoError(t, cmd.Execute())

	var result struct{ Added, Changed, Deleted, Unchanged int }
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	require.Equal(t, 1, result.Added)
}

func TestInitThenDupesCmdFindsDuplicateReport(t *testing.T) {
	srv := embeddingTestServer(t)
	root := newSampleRepo(t, srv.URL)
	require.NoError(t, os.WriteFile(filepath.Join(root, "TotalCalc.java"), []byte(
		`public class TotalCalc {
    public int add(int a, int b) {
        int sum = a + b;
        return sum;
    }
}
`), 0o644))

	initCmd := NewRootCmd()
	initCmd.SetOut(&bytes.Buffer{})
	initCmd.SetArgs([]string{"init", root})
	require.NoError(t, initCmd.Execute())

	dupesCmd := NewRootCmd()
	buf := &bytes.Buffer{}
	dupesCmd.SetOut(buf)
	dupesCmd.SetArgs([]string{"dupes", root})
	require.NoError(t, dupesCmd.Execute())

	var artifact struct {
		Duplicates []struct {
			ShortID string `json:"shortId"`
		} `json:"duplicates"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &artifact))
	require.NotEmpty(t, artifact.Duplicates)
}

func TestRootCmdHasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"init", "update", "dupes", "clean", "watch"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, sub.Name())
	}
}
