package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avlasov/paperdock/internal/client/models"
)

func int64ptr(v int64) *int64 { return &v }

func TestToCachedDocument_StampsSyncMetadata(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	r := models.RemoteDocument{
		ID:               42,
		Title:            "Invoice march",
		CorrespondentID:  int64ptr(7),
		TagIDs:           []int64{1, 2, 3},
		Created:          now.Add(-48 * time.Hour),
		Added:            now.Add(-47 * time.Hour),
		Modified:         now.Add(-time.Hour),
		OriginalFileName: "scan_0042.pdf",
	}

	c := ToCachedDocument(r, now)

	assert.Equal(t, int64(42), c.ID)
	assert.Equal(t, now.UnixMilli(), c.LastSyncedAt)
	assert.False(t, c.IsDeleted)
	assert.Equal(t, "[1,2,3]", c.TagIDs)
	require.NotNil(t, c.CorrespondentID)
	assert.Equal(t, int64(7), *c.CorrespondentID)
	assert.Nil(t, c.DocumentTypeID, "fields absent from the remote stay defaulted")
}

func TestDocumentRoundTrip_PreservesCommonFields(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	r := models.RemoteDocument{
		ID:               9,
		Title:            "Receipt",
		CorrespondentID:  int64ptr(3),
		DocumentTypeID:   int64ptr(5),
		TagIDs:           []int64{11, 12},
		Created:          time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Added:            time.Date(2025, 1, 2, 4, 0, 0, 0, time.UTC),
		Modified:         time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		OriginalFileName: "receipt.jpg",
	}

	d := DocumentToDomain(ToCachedDocument(r, now))

	assert.Equal(t, r.ID, d.ID)
	assert.Equal(t, r.Title, d.Title)
	assert.Equal(t, r.CorrespondentID, d.CorrespondentID)
	assert.Equal(t, r.DocumentTypeID, d.DocumentTypeID)
	assert.Equal(t, r.TagIDs, d.TagIDs)
	assert.Equal(t, r.Created, d.Created)
	assert.Equal(t, r.Added, d.Added)
	assert.Equal(t, r.Modified, d.Modified)
	assert.Equal(t, r.OriginalFileName, d.OriginalFileName)
}

func TestDecodeTagIDs_MalformedPayloadDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []int64
	}{
		{"valid", "[4,5]", []int64{4, 5}},
		{"empty string", "", []int64{}},
		{"garbage", "{not json", []int64{}},
		{"wrong type", `{"a":1}`, []int64{}},
		{"null", "null", []int64{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DecodeTagIDs(tc.raw))
		})
	}
}

func TestDocumentToDomain_MalformedTagsDoNotAbortRecord(t *testing.T) {
	c := models.CachedDocument{
		ID:     77,
		Title:  "Damaged row",
		TagIDs: "!!broken!!",
	}

	d := DocumentToDomain(c)

	assert.Equal(t, int64(77), d.ID)
	assert.Equal(t, "Damaged row", d.Title)
	assert.Equal(t, []int64{}, d.TagIDs, "rest of the record must map normally")
}

func TestCatalogRoundTrips(t *testing.T) {
	now := time.Now()

	tag := models.RemoteTag{ID: 1, Name: "inbox", Color: "#ff0000", IsInboxTag: true}
	gotTag := TagToDomain(ToCachedTag(tag, now))
	assert.Equal(t, models.Tag{ID: 1, Name: "inbox", Color: "#ff0000", IsInboxTag: true}, gotTag)

	corr := models.RemoteCorrespondent{ID: 2, Name: "City Utilities"}
	gotCorr := CorrespondentToDomain(ToCachedCorrespondent(corr, now))
	assert.Equal(t, models.Correspondent{ID: 2, Name: "City Utilities"}, gotCorr)

	dt := models.RemoteDocumentType{ID: 3, Name: "invoice"}
	gotDt := DocumentTypeToDomain(ToCachedDocumentType(dt, now))
	assert.Equal(t, models.DocumentType{ID: 3, Name: "invoice"}, gotDt)
}

func TestEncodeTagIDs_NilEncodesAsEmptyList(t *testing.T) {
	assert.Equal(t, "[]", EncodeTagIDs(nil))
	assert.Equal(t, "[]", EncodeTagIDs([]int64{}))
}
