package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/repository"
)

func newFriendService(t *testing.T) (*FriendService, *fakeNotifier, *model.User, *model.User) {
	t.Helper()
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	notifier := &fakeNotifier{}
	svc := NewFriendService(repository.NewFriendshipRepository(db), users, notifier)
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	bob.ChatID = 77
	if err := users.Save(context.Background(), bob); err != nil {
		t.Fatalf("save bob: %v", err)
	}
	return svc, notifier, alice, bob
}

func TestSendRequestAndAccept(t *testing.T) {
	svc, notifier, alice, bob := newFriendService(t)
	ctx := context.Background()

	request, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if request.Status != model.FriendshipPending {
		t.Fatalf("status = %q, want pending", request.Status)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].ChatID != 77 {
		t.Fatalf("recipient not notified: %+v", notifier.sent)
	}

	// Only the recipient can accept.
	if _, err := svc.Accept(ctx, alice.ID, request.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("sender accept: want ErrNotFound, got %v", err)
	}
	accepted, err := svc.Accept(ctx, bob.ID, request.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != model.FriendshipAccepted {
		t.Fatalf("status = %q, want accepted", accepted.Status)
	}
	if _, err := svc.Accept(ctx, bob.ID, request.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double accept: want ErrInvalidState, got %v", err)
	}

	// Both sides see the friendship.
	for _, id := range []int64{alice.ID, bob.ID} {
		friends, err := svc.Friends(ctx, id)
		if err != nil {
			t.Fatalf("friends of %d: %v", id, err)
		}
		if len(friends) != 1 {
			t.Fatalf("user %d has %d friends, want 1", id, len(friends))
		}
	}
}

func TestSendRequestRejectsSelfAndDuplicates(t *testing.T) {
	svc, _, alice, bob := newFriendService(t)
	ctx := context.Background()

	if _, err := svc.SendRequest(ctx, alice.ID, alice.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("self request: want ErrValidation, got %v", err)
	}
	if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if _, err := svc.SendRequest(ctx, alice.ID, bob.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("duplicate: want ErrInvalidState, got %v", err)
	}
	// Reverse direction is blocked too.
	if _, err := svc.SendRequest(ctx, bob.ID, alice.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("reverse duplicate: want ErrInvalidState, got %v", err)
	}
}

func TestRemoveFriendship(t *testing.T) {
	svc, _, alice, bob := newFriendService(t)
	ctx := context.Background()

	request, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if _, err := svc.Accept(ctx, bob.ID, request.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := svc.Remove(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	friends, err := svc.Friends(ctx, alice.ID)
	if err != nil {
		t.Fatalf("friends: %v", err)
	}
	if len(friends) != 0 {
		t.Fatalf("%d friends left after removal, want 0", len(friends))
	}
	if err := svc.Remove(ctx, bob.ID, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second remove: want ErrNotFound, got %v", err)
	}
}
