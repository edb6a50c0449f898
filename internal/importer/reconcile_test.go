package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/lumora/api/lead-insights-service/internal/model"
)

var reconcileNow = time.Date(2025, time.June, 18, 10, 0, 0, 0, time.UTC)

func parseRows(t *testing.T, csv string) []Row {
	t.Helper()
	rows, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return rows
}

func TestReconcile_NewRowsCreated(t *testing.T) {
	rows := parseRows(t, "Lead ID,Name,Phone,Source,Date Added\nL1,Alice,555-1111,Instagram,2025-01-01\nL2,Bob,555-2222,tiktok,2025-01-02\n")

	res := Reconcile(rows, nil, Options{WorkspaceID: "ws-1", Now: reconcileNow})

	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Updated)
	require.Len(t, res.Leads, 2)

	assert.Equal(t, "L1", res.Leads[0].ID)
	assert.Equal(t, "ws-1", res.Leads[0].WorkspaceID)
	assert.Equal(t, model.SourceInstagram, res.Leads[0].Source)
	// Source spellings normalize to the canonical token.
	assert.Equal(t, model.SourceTikTok, res.Leads[1].Source)
}

func TestReconcile_ReimportWithUpdateFlagIsIdempotent(t *testing.T) {
	csv := "Lead ID,Name,Phone\nL1,Alice,555-1111\nL2,Bob,555-2222\nL3,Cara,555-3333\n"
	rows := parseRows(t, csv)

	first := Reconcile(rows, nil, Options{WorkspaceID: "ws-1", TreatDuplicateIDsAsUpdates: true, Now: reconcileNow})
	assert.Equal(t, 3, first.Created)

	existing := map[string]bool{}
	for _, l := range first.Leads {
		existing[l.ID] = true
	}

	second := Reconcile(rows, existing, Options{WorkspaceID: "ws-1", TreatDuplicateIDsAsUpdates: true, Now: reconcileNow})
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 3, second.Updated)
	for i, l := range second.Leads {
		assert.Equal(t, first.Leads[i].ID, l.ID)
		assert.Equal(t, OutcomeUpdated, second.Outcomes[i])
	}
}

func TestReconcile_IDCollisionWithoutUpdateFlagMintsFreshIDs(t *testing.T) {
	rows := parseRows(t, "Lead ID,Name\nL1,Alice\nL2,Bob\n")
	existing := map[string]bool{"L1": true, "L2": true}

	res := Reconcile(rows, existing, Options{WorkspaceID: "ws-1", Now: reconcileNow})

	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Updated)
	seen := map[string]bool{}
	for _, l := range res.Leads {
		assert.False(t, existing[l.ID], "fresh ID %q must not collide with an existing record", l.ID)
		assert.False(t, seen[l.ID], "fresh IDs must be unique within the batch")
		seen[l.ID] = true
	}
}

func TestReconcile_RepeatedIDWithinBatchUpdatesFirstOccurrence(t *testing.T) {
	rows := parseRows(t, "Lead ID,Name\nL1,Alice\nL1,Alice Revised\n")

	res := Reconcile(rows, nil, Options{WorkspaceID: "ws-1", TreatDuplicateIDsAsUpdates: true, Now: reconcileNow})

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, "L1", res.Leads[0].ID)
	assert.Equal(t, "L1", res.Leads[1].ID)
}

func TestReconcile_MissingLeadIDSynthesized(t *testing.T) {
	rows := parseRows(t, "Name,Phone\nAlice,555-1111\nBob,555-2222\n")

	res := Reconcile(rows, nil, Options{WorkspaceID: "ws-1", Now: reconcileNow})

	require.Len(t, res.Leads, 2)
	assert.Equal(t, "import-1750240800000-0000", res.Leads[0].ID)
	assert.Equal(t, "import-1750240800000-0001", res.Leads[1].ID)
}

func TestReconcile_CombinedContactColumnSplit(t *testing.T) {
	rows := parseRows(t, "Name,Contact\nAlice,555-1111 | alice@example.com\nBob,555-2222\n")

	res := Reconcile(rows, nil, Options{WorkspaceID: "ws-1", Now: reconcileNow})

	assert.Equal(t, "555-1111", res.Leads[0].Phone)
	assert.Equal(t, "alice@example.com", res.Leads[0].Email)
	assert.Equal(t, "555-2222", res.Leads[1].Phone)
	assert.Empty(t, res.Leads[1].Email)
}

func TestReconcile_RowWithoutContactInfoStillImported(t *testing.T) {
	rows := parseRows(t, "Name,Date Added\nWalk-in,2025-03-01\n")

	res := Reconcile(rows, nil, Options{WorkspaceID: "ws-1", Now: reconcileNow})

	require.Len(t, res.Leads, 1)
	assert.Equal(t, 1, res.Created)
	assert.Empty(t, res.Leads[0].Phone)
	assert.Empty(t, res.Leads[0].Email)
	assert.Equal(t, "Walk-in", res.Leads[0].Name)
}

func TestReconcile_SourceOverrideReplacesRowValue(t *testing.T) {
	rows := parseRows(t, "Name,Source\nAlice,Instagram\nBob,\n")

	res := Reconcile(rows, nil, Options{WorkspaceID: "ws-1", SourceOverride: "Facebook", Now: reconcileNow})

	assert.Equal(t, model.SourceFacebook, res.Leads[0].Source)
	assert.Equal(t, model.SourceFacebook, res.Leads[1].Source)
}

func TestReconcile_UnknownEnumValuesCollapseToEmpty(t *testing.T) {
	rows := parseRows(t, "Name,Source,First Call Status\nAlice,Carrier Pigeon,Shouting\n")

	res := Reconcile(rows, nil, Options{WorkspaceID: "ws-1", Now: reconcileNow})

	assert.Empty(t, string(res.Leads[0].Source))
	assert.Empty(t, string(res.Leads[0].FirstCallStatus))
}
