package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "lon...", truncate("longerstring", 6))
	assert.Equal(t, "lo", truncate("longerstring", 2))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1})

	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestHashPasswordCmd(t *testing.T) {
	orig := bcryptGenerate
	bcryptGenerate = func(p []byte, cost int) ([]byte, error) {
		return []byte("hashed-value"), nil
	}
	defer func() { bcryptGenerate = orig }()

	out, err := execute(t, "hash-password", "secret")
	require.NoError(t, err)
	assert.Equal(t, "hashed-value", strings.TrimSpace(out))
}

func TestHashPasswordRequiresArg(t *testing.T) {
	_, err := execute(t, "hash-password")
	assert.Error(t, err)
}

func TestConsistencyCmd(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		wantErr bool
		want    string
	}{
		{
			name:   "consistent",
			body:   `{"consistent":true,"balance_mismatches":[],"broken_transfers":[],"checked_at":"2026-01-01T00:00:00Z"}`,
			status: http.StatusOK,
			want:   "PASSED",
		},
		{
			name:    "mismatch",
			body:    `{"consistent":false,"balance_mismatches":[{"account_id":"acc-1","recorded":{"amount":"10.00"},"computed":{"amount":"9.00"}}],"broken_transfers":["xfer-1"],"checked_at":"2026-01-01T00:00:00Z"}`,
			status:  http.StatusOK,
			wantErr: true,
			want:    "broken transfer: xfer-1",
		},
		{
			name:    "forbidden",
			body:    `{"error":"insufficient permissions"}`,
			status:  http.StatusForbidden,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				assert.Equal(t, "/api/v1/admin/ledger/consistency", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out, err := execute(t, "ledger", "consistency", "--url", srv.URL, "--token", "tok")

			assert.Equal(t, "Bearer tok", gotAuth)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestReconcileCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total_accounts":4,"reconciled_accounts":4,"discrepancies":[]}`))
	}))
	defer srv.Close()

	out, err := execute(t, "ledger", "reconcile", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "4/4 accounts reconciled")
}
