package skill

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingDocument() *Document {
	return &Document{
		JobID:      uuid.New(),
		AppName:    "Settings",
		ScriptName: "Settings walkthrough",
		StepCount:  3,
		Status:     DocumentPending,
	}
}

func TestMySQLStore_Create(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	t.Run("successfully create document", func(t *testing.T) {
		doc := pendingDocument()
		err := store.Create(ctx, doc)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, doc.ID)
		assert.Equal(t, DocumentPending, doc.Status)
	})

	t.Run("missing job id returns error", func(t *testing.T) {
		doc := pendingDocument()
		doc.JobID = uuid.Nil
		err := store.Create(ctx, doc)
		assert.ErrorIs(t, err, ErrInvalidJobID)
	})

	t.Run("missing script name returns error", func(t *testing.T) {
		doc := pendingDocument()
		doc.ScriptName = ""
		err := store.Create(ctx, doc)
		assert.ErrorIs(t, err, ErrInvalidScriptName)
	})

	t.Run("stored document requires a storage path", func(t *testing.T) {
		doc := pendingDocument()
		doc.Status = DocumentStored
		err := store.Create(ctx, doc)
		assert.ErrorIs(t, err, ErrInvalidStoragePath)
	})
}

func TestMySQLStore_GetByID(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	t.Run("retrieve existing document", func(t *testing.T) {
		doc := pendingDocument()
		require.NoError(t, store.Create(ctx, doc))

		retrieved, err := store.GetByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, doc.ID, retrieved.ID)
		assert.Equal(t, doc.ScriptName, retrieved.ScriptName)
	})

	t.Run("non-existent document returns error", func(t *testing.T) {
		_, err := store.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})
}

func TestMySQLStore_ListByJob(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	jobID := uuid.New()
	first := pendingDocument()
	first.JobID = jobID
	second := pendingDocument()
	second.JobID = jobID
	second.ScriptName = "Settings via Privacy"
	other := pendingDocument()

	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))
	require.NoError(t, store.Create(ctx, other))

	docs, err := store.ListByJob(ctx, jobID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, first.ID, docs[0].ID)
	assert.Equal(t, second.ID, docs[1].ID)
}

func TestMySQLStore_Update(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	t.Run("mark document stored", func(t *testing.T) {
		doc := pendingDocument()
		require.NoError(t, store.Create(ctx, doc))

		err := store.Update(ctx, doc.ID,
			SetStoragePath("skills/settings/walkthrough.md"),
			SetStatus(DocumentStored),
		)
		require.NoError(t, err)

		retrieved, err := store.GetByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, DocumentStored, retrieved.Status)
		assert.Equal(t, "skills/settings/walkthrough.md", retrieved.StoragePath)
	})

	t.Run("record failure with message", func(t *testing.T) {
		doc := pendingDocument()
		require.NoError(t, store.Create(ctx, doc))

		err := store.Update(ctx, doc.ID,
			SetStatus(DocumentFailed),
			SetErrorMessage("upload rejected"),
		)
		require.NoError(t, err)

		retrieved, err := store.GetByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, DocumentFailed, retrieved.Status)
		require.NotNil(t, retrieved.ErrorMessage)
		assert.Equal(t, "upload rejected", *retrieved.ErrorMessage)
	})

	t.Run("invalid status returns error", func(t *testing.T) {
		doc := pendingDocument()
		require.NoError(t, store.Create(ctx, doc))

		err := store.Update(ctx, doc.ID, SetStatus(DocumentStatus("archived")))
		assert.ErrorIs(t, err, ErrInvalidDocumentStatus)
	})

	t.Run("description annotation", func(t *testing.T) {
		doc := pendingDocument()
		require.NoError(t, store.Create(ctx, doc))

		err := store.Update(ctx, doc.ID, SetDescription("Opens Settings and drills into General."))
		require.NoError(t, err)

		retrieved, err := store.GetByID(ctx, doc.ID)
		require.NoError(t, err)
		require.NotNil(t, retrieved.Description)
		assert.Contains(t, *retrieved.Description, "General")
	})
}

func TestMySQLStore_Delete(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	t.Run("delete existing document", func(t *testing.T) {
		doc := pendingDocument()
		require.NoError(t, store.Create(ctx, doc))
		require.NoError(t, store.Delete(ctx, doc.ID))

		_, err := store.GetByID(ctx, doc.ID)
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})

	t.Run("delete non-existent document returns error", func(t *testing.T) {
		err := store.Delete(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})
}

func TestNewDocument(t *testing.T) {
	bundle := sampleBundle()
	doc := NewDocument(uuid.New(), bundle, bundle.Scripts[0])

	assert.Equal(t, "Settings", doc.AppName)
	assert.Equal(t, "Settings walkthrough", doc.ScriptName)
	assert.Equal(t, 2, doc.StepCount)
	assert.Equal(t, 2, doc.LandmarkCount)
	assert.Equal(t, DocumentPending, doc.Status)
}
