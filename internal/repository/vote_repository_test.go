package repository

import (
	"testing"

	"github.com/mswierczewski/socialwall/internal/domain"
)

func TestVoteRepositoryUpsertReplacesExistingVote(t *testing.T) {
	repo := newVoteRepoForTest(t)

	up := &domain.Vote{ID: "v1", UserID: "u1", TargetID: "p1", TargetType: domain.VoteTargetPost, Value: domain.VoteUp}
	if err := repo.Upsert(up); err != nil {
		t.Fatalf("first vote: %v", err)
	}

	down := &domain.Vote{ID: "v2", UserID: "u1", TargetID: "p1", TargetType: domain.VoteTargetPost, Value: domain.VoteDown}
	if err := repo.Upsert(down); err != nil {
		t.Fatalf("replacement vote: %v", err)
	}

	counts, err := repo.CountsForTarget("p1", domain.VoteTargetPost)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Up != 0 || counts.Down != 1 {
		t.Fatalf("expected one downvote after replacement, got %+v", counts)
	}
}

func TestVoteRepositoryCountsAndDelete(t *testing.T) {
	repo := newVoteRepoForTest(t)

	votes := []*domain.Vote{
		{ID: "v1", UserID: "u1", TargetID: "p1", TargetType: domain.VoteTargetPost, Value: domain.VoteUp},
		{ID: "v2", UserID: "u2", TargetID: "p1", TargetType: domain.VoteTargetPost, Value: domain.VoteUp},
		{ID: "v3", UserID: "u3", TargetID: "p1", TargetType: domain.VoteTargetPost, Value: domain.VoteDown},
		{ID: "v4", UserID: "u1", TargetID: "c1", TargetType: domain.VoteTargetComment, Value: domain.VoteUp},
	}
	for _, v := range votes {
		if err := repo.Upsert(v); err != nil {
			t.Fatalf("upsert %s: %v", v.ID, err)
		}
	}

	counts, err := repo.CountsForTarget("p1", domain.VoteTargetPost)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Up != 2 || counts.Down != 1 {
		t.Fatalf("unexpected counts %+v", counts)
	}

	deleted, err := repo.DeleteForUser("u1", "p1", domain.VoteTargetPost)
	if err != nil {
		t.Fatalf("delete vote: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to report a removed row")
	}
	deleted, err = repo.DeleteForUser("u1", "p1", domain.VoteTargetPost)
	if err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if deleted {
		t.Fatal("expected repeat delete to be a no-op")
	}

	counts, err = repo.CountsForTarget("p1", domain.VoteTargetPost)
	if err != nil {
		t.Fatalf("counts after delete: %v", err)
	}
	if counts.Up != 1 || counts.Down != 1 {
		t.Fatalf("unexpected counts after delete %+v", counts)
	}
}

func newVoteRepoForTest(t *testing.T) VoteRepository {
	t.Helper()
	return NewVoteRepository(newDBForTest(t, &domain.Vote{}))
}
