package service

import (
	"encoding/json"
	"testing"
	"time"

	sifdomain "github.com/facturapro/facturapro/internal/sif/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService() sifdomain.Service {
	return NewService(Params{Log: zap.NewNop()})
}

func payloadFor(number int64, total float64) map[string]any {
	return map[string]any{
		"series":     "2024",
		"number":     number,
		"customerId": "CUST-001",
		"total":      total,
	}
}

func buildChain(t *testing.T, svc sifdomain.Service, totals []float64) []sifdomain.Record {
	t.Helper()
	base := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	previous := sifdomain.GenesisHash
	records := make([]sifdomain.Record, 0, len(totals))
	for i, total := range totals {
		date := base.AddDate(0, 0, i)
		payload := payloadFor(int64(i+1), total)
		block, err := svc.Seal(payload, previous, date)
		require.NoError(t, err)
		records = append(records, sifdomain.Record{
			Payload: payload,
			Block:   block,
			Date:    date,
			Number:  int64(i + 1),
		})
		previous = block.Hash
	}
	return records
}

func TestSealIsDeterministic(t *testing.T) {
	svc := newTestService()
	at := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

	first, err := svc.Seal(payloadFor(1, 100), sifdomain.GenesisHash, at)
	require.NoError(t, err)
	again, err := svc.Seal(payloadFor(1, 100), sifdomain.GenesisHash, at)
	require.NoError(t, err)

	assert.Equal(t, first.Hash, again.Hash)
	assert.Equal(t, sifdomain.GenesisHash, first.PreviousHash)
	assert.Len(t, first.Hash, 64)
}

func TestSealKeyOrderDoesNotChangeHash(t *testing.T) {
	svc := newTestService()
	at := time.Now().UTC()

	a := map[string]any{"series": "2024", "number": int64(1), "total": 100.0}
	b := map[string]any{"total": 100.0, "number": int64(1), "series": "2024"}

	first, err := svc.Seal(a, sifdomain.GenesisHash, at)
	require.NoError(t, err)
	second, err := svc.Seal(b, sifdomain.GenesisHash, at)
	require.NoError(t, err)
	assert.Equal(t, first.Hash, second.Hash)
}

func TestSealValueChangeChangesHash(t *testing.T) {
	svc := newTestService()
	at := time.Now().UTC()

	first, err := svc.Seal(payloadFor(1, 100), sifdomain.GenesisHash, at)
	require.NoError(t, err)
	second, err := svc.Seal(payloadFor(1, 100.01), sifdomain.GenesisHash, at)
	require.NoError(t, err)
	assert.NotEqual(t, first.Hash, second.Hash)
}

func TestSealRejectsBadInput(t *testing.T) {
	svc := newTestService()
	at := time.Now().UTC()

	_, err := svc.Seal(nil, sifdomain.GenesisHash, at)
	assert.ErrorIs(t, err, sifdomain.ErrNilPayload)

	_, err = svc.Seal(payloadFor(1, 100), "", at)
	assert.ErrorIs(t, err, sifdomain.ErrInvalidPreviousHash)

	_, err = svc.Seal(payloadFor(1, 100), "not-a-hash", at)
	assert.ErrorIs(t, err, sifdomain.ErrInvalidPreviousHash)
}

func TestVerifyEmptyChainIsValid(t *testing.T) {
	svc := newTestService()
	report, err := svc.Verify(nil)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 0, report.Checked)
	assert.Nil(t, report.FirstFailureIndex)
}

func TestVerifySingleRecordMustLinkToGenesis(t *testing.T) {
	svc := newTestService()
	records := buildChain(t, svc, []float64{100})

	report, err := svc.Verify(records)
	require.NoError(t, err)
	assert.True(t, report.Valid)

	records[0].Block.PreviousHash = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	report, err = svc.Verify(records)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	require.NotNil(t, report.FirstFailureIndex)
	assert.Equal(t, 0, *report.FirstFailureIndex)
}

func TestVerifyChainRoundTrip(t *testing.T) {
	svc := newTestService()
	records := buildChain(t, svc, []float64{100, 200, 300, 400, 500})

	report, err := svc.Verify(records)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 5, report.Checked)

	assert.Equal(t, sifdomain.GenesisHash, records[0].Block.PreviousHash)
	for i := 1; i < len(records); i++ {
		assert.Equal(t, records[i-1].Block.Hash, records[i].Block.PreviousHash)
	}
}

func TestVerifyDetectsTamperingAtEveryIndex(t *testing.T) {
	svc := newTestService()

	for k := 0; k < 4; k++ {
		records := buildChain(t, svc, []float64{100, 200, 300, 400})
		records[k].Payload.(map[string]any)["total"] = 999.0

		report, err := svc.Verify(records)
		require.NoError(t, err)
		assert.False(t, report.Valid, "index %d", k)
		require.NotNil(t, report.FirstFailureIndex, "index %d", k)
		assert.Equal(t, k, *report.FirstFailureIndex, "index %d", k)
	}
}

func TestVerifyDetectsReordering(t *testing.T) {
	svc := newTestService()
	records := buildChain(t, svc, []float64{100, 200, 300})

	// Swap the dates of records 1 and 2 so chain order no longer matches
	// the order they were sealed in.
	records[1].Date, records[2].Date = records[2].Date, records[1].Date

	report, err := svc.Verify(records)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	require.NotNil(t, report.FirstFailureIndex)
	assert.Equal(t, 1, *report.FirstFailureIndex)
}

func TestReportJSONKeepsIndexZero(t *testing.T) {
	svc := newTestService()
	records := buildChain(t, svc, []float64{100, 200})
	records[0].Payload.(map[string]any)["total"] = 999.0

	report, err := svc.Verify(records)
	require.NoError(t, err)
	require.False(t, report.Valid)

	encoded, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"firstFailureIndex":0`)

	valid, err := svc.Verify(nil)
	require.NoError(t, err)
	encoded, err = json.Marshal(valid)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "firstFailureIndex")
}

func TestVerifyInputOrderIrrelevant(t *testing.T) {
	svc := newTestService()
	records := buildChain(t, svc, []float64{100, 200, 300})

	shuffled := []sifdomain.Record{records[2], records[0], records[1]}
	report, err := svc.Verify(shuffled)
	require.NoError(t, err)
	assert.True(t, report.Valid)
}
