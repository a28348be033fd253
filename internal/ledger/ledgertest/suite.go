// Package ledgertest holds the behavioural suite every ledger.Backend must pass.
package ledgertest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/certledger/internal/ir"
	"github.com/roach88/certledger/internal/ledger"
	"github.com/roach88/certledger/internal/testutil"
)

// Factory builds a fresh backend from opts.
type Factory func(t *testing.T, opts ledger.Options) ledger.Backend

// Alice is the reference certificate used across tests.
var Alice = ir.CertificateInput{
	StudentName:    "Alice",
	CourseName:     "Math",
	Grade:          "A",
	IssueDate:      "2024-01-01",
	InstructorName: "Bob",
}

// Run executes the suite against backends built by newBackend.
func Run(t *testing.T, newBackend Factory) {
	t.Helper()

	fresh := func(t *testing.T) (ledger.Backend, *testutil.StepClock) {
		clock := testutil.NewDefaultStepClock()
		b := newBackend(t, ledger.Options{Now: clock.Now})
		t.Cleanup(func() { _ = b.Close() })
		return b, clock
	}

	t.Run("SubmitFirstRecord", func(t *testing.T) {
		b, _ := fresh(t)
		ctx := context.Background()

		rec, err := b.Submit(ctx, "CERT-1", Alice)
		require.NoError(t, err)
		assert.Equal(t, "CERT-1", rec.CertificateID)
		assert.Equal(t, ir.Digest(Alice), rec.Digest)
		assert.Equal(t, int64(1), rec.SequenceNumber)
		assert.True(t, rec.CreatedAt.Equal(testutil.Epoch))
		assert.True(t, rec.Verified)

		st, err := b.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, st.TotalCertificates)
		assert.Equal(t, int64(1), st.TotalBlocks)
		require.NotNil(t, st.LastRecordTime)
		assert.True(t, st.LastRecordTime.Equal(rec.CreatedAt))

		all, err := b.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("GetMissing", func(t *testing.T) {
		b, _ := fresh(t)
		_, ok, err := b.Get(context.Background(), "nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("GetReturnsStoredRecord", func(t *testing.T) {
		b, _ := fresh(t)
		ctx := context.Background()
		rec, err := b.Submit(ctx, "CERT-1", Alice)
		require.NoError(t, err)

		got, ok, err := b.Get(ctx, "CERT-1")
		require.NoError(t, err)
		require.True(t, ok)
		assertSameRecord(t, rec, got)
	})

	t.Run("EmptyStats", func(t *testing.T) {
		b, _ := fresh(t)
		st, err := b.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, st.TotalCertificates)
		assert.Equal(t, int64(0), st.TotalBlocks)
		assert.Nil(t, st.LastRecordTime)

		all, err := b.List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})

	t.Run("OverwriteKeepsOneRecord", func(t *testing.T) {
		b, _ := fresh(t)
		ctx := context.Background()

		other := Alice
		other.Grade = "B"

		first, err := b.Submit(ctx, "X", Alice)
		require.NoError(t, err)
		second, err := b.Submit(ctx, "X", other)
		require.NoError(t, err)

		assert.Greater(t, second.SequenceNumber, first.SequenceNumber)

		got, ok, err := b.Get(ctx, "X")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, ir.Digest(other), got.Digest)
		assert.Equal(t, second.SequenceNumber, got.SequenceNumber)

		st, err := b.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, st.TotalCertificates)
		assert.Equal(t, int64(2), st.TotalBlocks)
	})

	t.Run("ListKeepsFirstInsertionOrder", func(t *testing.T) {
		b, _ := fresh(t)
		ctx := context.Background()

		for _, id := range []string{"A", "B", "C"} {
			_, err := b.Submit(ctx, id, Alice)
			require.NoError(t, err)
		}
		// Overwrite A: it stays first.
		_, err := b.Submit(ctx, "A", Alice)
		require.NoError(t, err)

		all, err := b.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"A", "B", "C"}, ids(all))
		assert.Equal(t, int64(4), all[0].SequenceNumber)
	})

	t.Run("LastRecordTimeFollowsLatestSubmission", func(t *testing.T) {
		b, clock := fresh(t)
		ctx := context.Background()

		_, err := b.Submit(ctx, "A", Alice)
		require.NoError(t, err)
		_, err = b.Submit(ctx, "B", Alice)
		require.NoError(t, err)
		last, err := b.Submit(ctx, "A", Alice)
		require.NoError(t, err)

		st, err := b.Stats(ctx)
		require.NoError(t, err)
		require.NotNil(t, st.LastRecordTime)
		assert.True(t, st.LastRecordTime.Equal(last.CreatedAt))
		assert.Equal(t, int64(3), clock.Calls())
	})

	t.Run("ConfirmPresent", func(t *testing.T) {
		b, _ := fresh(t)
		ctx := context.Background()
		_, err := b.Submit(ctx, "C1", Alice)
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			ok, err := b.Confirm(ctx, "C1")
			require.NoError(t, err)
			assert.True(t, ok)
		}

		got, _, err := b.Get(ctx, "C1")
		require.NoError(t, err)
		assert.True(t, got.Verified)
		assert.Equal(t, ir.Digest(Alice), got.Digest)
	})

	t.Run("ConfirmMissingIsNoOp", func(t *testing.T) {
		b, _ := fresh(t)
		ctx := context.Background()
		_, err := b.Submit(ctx, "C1", Alice)
		require.NoError(t, err)

		before, err := b.Stats(ctx)
		require.NoError(t, err)

		ok, err := b.Confirm(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		after, err := b.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, before.TotalCertificates, after.TotalCertificates)
		assert.Equal(t, before.TotalBlocks, after.TotalBlocks)
	})

	t.Run("EmptyFieldsAndID", func(t *testing.T) {
		b, _ := fresh(t)
		rec, err := b.Submit(context.Background(), "", ir.CertificateInput{})
		require.NoError(t, err)
		assert.Equal(t, ir.Digest(ir.CertificateInput{}), rec.Digest)

		got, ok, err := b.Get(context.Background(), "")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(1), got.SequenceNumber)
	})

	t.Run("CustomDigest", func(t *testing.T) {
		b := newBackend(t, ledger.Options{Digest: ir.DigestSHA256})
		t.Cleanup(func() { _ = b.Close() })

		rec, err := b.Submit(context.Background(), "C1", Alice)
		require.NoError(t, err)
		assert.Equal(t, ir.DigestSHA256(Alice), rec.Digest)
	})

	t.Run("ConcurrentSubmitsGetUniqueSequenceNumbers", func(t *testing.T) {
		b, _ := fresh(t)
		ctx := context.Background()

		const n = 64
		seqs := make([]int64, n)
		errs := make([]error, n)

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				rec, err := b.Submit(ctx, fmt.Sprintf("CERT-%03d", i), Alice)
				seqs[i], errs[i] = rec.SequenceNumber, err
			}(i)
		}

		// Concurrent readers must only ever see complete records.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 50; i++ {
				all, err := b.List(ctx)
				if !assert.NoError(t, err) {
					return
				}
				for _, rec := range all {
					assert.NotZero(t, rec.SequenceNumber)
					assert.Len(t, rec.Digest, ir.DigestLen)
				}
			}
		}()

		wg.Wait()
		<-done

		for _, err := range errs {
			require.NoError(t, err)
		}
		sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
		for i, s := range seqs {
			assert.Equal(t, int64(i+1), s)
		}

		st, err := b.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, n, st.TotalCertificates)
		assert.Equal(t, int64(n), st.TotalBlocks)
	})
}

func ids(recs []ir.LedgerRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.CertificateID
	}
	return out
}

// assertSameRecord compares records, using time.Equal for CreatedAt since
// backends may return a different location for the same instant.
func assertSameRecord(t *testing.T, want, got ir.LedgerRecord) {
	t.Helper()
	assert.Equal(t, want.CertificateID, got.CertificateID)
	assert.Equal(t, want.Digest, got.Digest)
	assert.Equal(t, want.SequenceNumber, got.SequenceNumber)
	assert.Equal(t, want.Verified, got.Verified)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", want.CreatedAt, got.CreatedAt)
}
