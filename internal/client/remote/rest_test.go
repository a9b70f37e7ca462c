package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avlasov/paperdock/internal/client/models"
	"github.com/avlasov/paperdock/internal/common"
)

func TestFetchChanged_DecodesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/changes/", r.URL.Path)
		assert.Equal(t, "abc", r.URL.Query().Get("since"))
		_, _ = w.Write([]byte(`{"results":[{"id":1},{"id":2}],"deleted":[3],"cursor":"next"}`))
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "secret")
	cs, err := c.FetchChanged(context.Background(), models.EntityDocument, "abc")
	require.NoError(t, err)
	assert.Len(t, cs.Changed, 2)
	assert.Equal(t, []int64{3}, cs.DeletedIDs)
	assert.Equal(t, "next", cs.NextCursor)
}

func TestUpdate_ConflictCarriesServerCopy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"id":5,"title":"server wins"}`))
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "")
	_, err := c.Update(context.Background(), models.EntityDocument, 5, json.RawMessage(`{"title":"local"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConflict))

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.JSONEq(t, `{"id":5,"title":"server wins"}`, string(conflict.Server))
}

func TestDelete_MapsStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, common.ErrNotFound},
		{"server error", http.StatusBadGateway, common.ErrUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			c := NewRESTClient(srv.URL, "")
			err := c.Delete(context.Background(), models.EntityTag, 9)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want))
		})
	}
}

func TestCreate_SendsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id":10}`))
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "tok123")
	body, err := c.Create(context.Background(), models.EntityTag, json.RawMessage(`{"name":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "Token tok123", gotAuth)
	assert.JSONEq(t, `{"id":10}`, string(body))
}

func TestNetworkFailure_IsUnavailable(t *testing.T) {
	c := NewRESTClient("http://127.0.0.1:1", "")
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnavailable))
}
