package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/expvault/expvault/internal/experience"
	"github.com/expvault/expvault/internal/store"
)

func newTestLedger(t *testing.T) (*Ledger, *store.Store) {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "experience.jsonl"))
	return New(st, nil, nil), st
}

func TestVoteIncrementsByOne(t *testing.T) {
	l, st := newTestLedger(t)
	rec := experience.New("voted", "p", "s", "", "")
	if err := st.Append(rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	for want := 1; want <= 3; want++ {
		status, err := l.Vote(rec.ID)
		if err != nil {
			t.Fatalf("Vote: %v", err)
		}
		if status != StatusVoted {
			t.Fatalf("status = %s, want %s", status, StatusVoted)
		}
		records, err := st.ReadAll()
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if records[0].Votes != want {
			t.Errorf("votes = %d after %d votes, want %d", records[0].Votes, want, want)
		}
	}
}

func TestVoteUnknownIDLeavesStoreUntouched(t *testing.T) {
	l, st := newTestLedger(t)
	if err := st.Append(experience.New("only", "p", "s", "", "")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	before, err := os.ReadFile(st.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	status, err := l.Vote("exp-nope")
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if status != StatusNotFound {
		t.Fatalf("status = %s, want %s", status, StatusNotFound)
	}

	after, err := os.ReadFile(st.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("store mutated by a not_found vote")
	}
}

func TestVoteMissingStoreFile(t *testing.T) {
	l, _ := newTestLedger(t)
	status, err := l.Vote("exp-anything")
	if err != nil {
		t.Fatalf("Vote on missing store: %v", err)
	}
	if status != StatusNotFound {
		t.Errorf("status = %s, want %s", status, StatusNotFound)
	}
}

func TestVoteOnlyTargetsMatchingID(t *testing.T) {
	l, st := newTestLedger(t)
	target := experience.New("target", "p", "s", "", "")
	other := experience.New("other", "p", "s", "", "")
	for _, rec := range []experience.Record{target, other} {
		if err := st.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	if _, err := l.Vote(target.ID); err != nil {
		t.Fatalf("Vote: %v", err)
	}
	records, err := st.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if records[0].Votes != 1 {
		t.Errorf("target votes = %d, want 1", records[0].Votes)
	}
	if records[1].Votes != 0 {
		t.Errorf("other votes = %d, want 0", records[1].Votes)
	}
}

func TestVoteDuplicateIDsIncrementedTogether(t *testing.T) {
	l, st := newTestLedger(t)
	// Should never occur given id uniqueness, but the ledger increments all
	// copies rather than picking one silently.
	dup := experience.New("dup", "p", "s", "", "")
	if err := st.Append(dup); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := st.Append(dup); err != nil {
		t.Fatalf("Append: %v", err)
	}

	status, err := l.Vote(dup.ID)
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if status != StatusVoted {
		t.Fatalf("status = %s, want %s", status, StatusVoted)
	}
	records, err := st.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	for i, rec := range records {
		if rec.Votes != 1 {
			t.Errorf("copy %d votes = %d, want 1", i, rec.Votes)
		}
	}
}

func TestVoteSkipsRecordsWithoutID(t *testing.T) {
	l, st := newTestLedger(t)
	if err := st.Append(experience.Record{Title: "legacy", Problem: "p", Solution: "s"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	status, err := l.Vote("")
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if status != StatusNotFound {
		t.Errorf("empty id vote matched a legacy record: status = %s", status)
	}
}
