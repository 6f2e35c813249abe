package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/repository"
)

var challengeTestNow = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

type challengeFixture struct {
	svc   *ChallengeService
	users *repository.UserRepository
	db    *gorm.DB
	clock time.Time
}

func newChallengeFixture(t *testing.T) *challengeFixture {
	t.Helper()
	db := newTestDB(t)
	f := &challengeFixture{
		users: repository.NewUserRepository(db),
		db:    db,
		clock: challengeTestNow,
	}
	f.svc = NewChallengeService(repository.NewChallengeRepository(db), f.users)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *challengeFixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func TestCreateChallengeEnrollsCreatorUnlessQuiz(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()
	creator := newTestUser(t, f.db, "creator")
	friend := newTestUser(t, f.db, "friend")

	plain, err := f.svc.Create(ctx, creator.ID, CreateChallengeInput{
		Name:             "Pushup week",
		DurationMinutes:  30,
		LifespanHours:    24,
		InvitedFriendIDs: []int64{friend.ID},
	})
	if err != nil {
		t.Fatalf("create plain: %v", err)
	}
	if p := findParticipant(plain, creator.ID); p == nil || p.Status != model.ParticipantAccepted {
		t.Fatalf("creator not auto-enrolled in plain challenge: %+v", p)
	}
	if p := findParticipant(plain, friend.ID); p == nil || p.Status != model.ParticipantInvited {
		t.Fatalf("friend not invited: %+v", p)
	}

	quiz, err := f.svc.Create(ctx, creator.ID, CreateChallengeInput{
		Name:             "Geography quiz",
		DurationMinutes:  10,
		IsQuiz:           true,
		LifespanHours:    24,
		InvitedFriendIDs: []int64{friend.ID},
		Quiz: &QuizInput{
			DurationMinutes: 10,
			Questions: []QuestionInput{{
				Text: "Capital of France?",
				Type: model.QuestionMCQ,
				Options: []OptionInput{
					{Text: "Paris", IsCorrect: true},
					{Text: "Lyon"},
				},
			}},
		},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if p := findParticipant(quiz, creator.ID); p != nil {
		t.Fatalf("quiz creator must not be enrolled, got %+v", p)
	}
}

func TestCreateQuizChallengeRequiresQuizData(t *testing.T) {
	f := newChallengeFixture(t)
	creator := newTestUser(t, f.db, "creator")

	_, err := f.svc.Create(context.Background(), creator.ID, CreateChallengeInput{
		Name:            "Empty quiz",
		DurationMinutes: 10,
		IsQuiz:          true,
		LifespanHours:   24,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestRespondAndStartAreOneShot(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()
	creator := newTestUser(t, f.db, "creator")
	friend := newTestUser(t, f.db, "friend")

	challenge, err := f.svc.Create(ctx, creator.ID, CreateChallengeInput{
		Name:             "Reading sprint",
		DurationMinutes:  60,
		LifespanHours:    24,
		InvitedFriendIDs: []int64{friend.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	status, err := f.svc.Respond(ctx, friend.ID, challenge.ID, true)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if status != model.ParticipantAccepted {
		t.Fatalf("status = %q, want accepted", status)
	}
	if _, err := f.svc.Respond(ctx, friend.ID, challenge.ID, false); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second respond: want ErrInvalidState, got %v", err)
	}

	if _, err := f.svc.Start(ctx, friend.ID, challenge.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.svc.Start(ctx, friend.ID, challenge.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second start: want ErrInvalidState, got %v", err)
	}

	// A rejected invitee cannot start.
	other := newTestUser(t, f.db, "other")
	challenge2, err := f.svc.Create(ctx, creator.ID, CreateChallengeInput{
		Name:             "Second round",
		DurationMinutes:  60,
		LifespanHours:    24,
		InvitedFriendIDs: []int64{other.ID},
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := f.svc.Respond(ctx, other.ID, challenge2.ID, false); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.svc.Start(ctx, other.ID, challenge2.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("start after reject: want ErrInvalidState, got %v", err)
	}
}

func TestFinishScoresQuiz(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()
	creator := newTestUser(t, f.db, "creator")
	friend := newTestUser(t, f.db, "friend")

	challenge, err := f.svc.Create(ctx, creator.ID, CreateChallengeInput{
		Name:             "Two questions",
		DurationMinutes:  10,
		IsQuiz:           true,
		LifespanHours:    24,
		InvitedFriendIDs: []int64{friend.ID},
		Quiz: &QuizInput{
			DurationMinutes: 10,
			Questions: []QuestionInput{
				{
					Text: "2+2?",
					Type: model.QuestionMCQ,
					Options: []OptionInput{
						{Text: "4", IsCorrect: true},
						{Text: "5"},
					},
				},
				{
					Text: "The sky is green.",
					Type: model.QuestionTrueFalse,
					Options: []OptionInput{
						{Text: "True"},
						{Text: "False", IsCorrect: true},
					},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.Respond(ctx, friend.ID, challenge.ID, true); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if _, err := f.svc.Start(ctx, friend.ID, challenge.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// One right, one wrong.
	q1, q2 := challenge.Quiz.Questions[0], challenge.Quiz.Questions[1]
	f.advance(4 * time.Minute)
	result, err := f.svc.Finish(ctx, friend.ID, challenge.ID, Submission{Answers: []Answer{
		{QuestionID: q1.ID, SelectedOptionID: q1.Options[0].ID},
		{QuestionID: q2.ID, SelectedOptionID: q2.Options[0].ID},
	}})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.Score == nil || *result.Score != 50 {
		t.Fatalf("score = %v, want 50", result.Score)
	}
	if result.TimeTakenSeconds != 240 {
		t.Fatalf("time taken = %d, want 240", result.TimeTakenSeconds)
	}
}

func TestRanksAssignedWhenLastParticipantFinishes(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()
	creator := newTestUser(t, f.db, "creator")
	fast := newTestUser(t, f.db, "fast")
	slow := newTestUser(t, f.db, "slow")

	challenge, err := f.svc.Create(ctx, creator.ID, CreateChallengeInput{
		Name:             "Sprint",
		DurationMinutes:  60,
		LifespanHours:    24,
		InvitedFriendIDs: []int64{fast.ID, slow.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, id := range []int64{fast.ID, slow.ID} {
		if _, err := f.svc.Respond(ctx, id, challenge.ID, true); err != nil {
			t.Fatalf("respond %d: %v", id, err)
		}
	}

	finish := func(userID int64, seconds int) {
		t.Helper()
		if _, err := f.svc.Start(ctx, userID, challenge.ID); err != nil {
			t.Fatalf("start %d: %v", userID, err)
		}
		f.advance(time.Duration(seconds) * time.Second)
		if _, err := f.svc.Finish(ctx, userID, challenge.ID, Submission{}); err != nil {
			t.Fatalf("finish %d: %v", userID, err)
		}
	}
	finish(creator.ID, 50)
	finish(fast.ID, 30)
	finish(slow.ID, 70)

	refreshed, err := f.svc.Get(ctx, creator.ID, challenge.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	wantRanks := map[int64]int{fast.ID: 1, creator.ID: 2, slow.ID: 3}
	for userID, want := range wantRanks {
		p := findParticipant(refreshed, userID)
		if p == nil || p.Rank == nil {
			t.Fatalf("user %d has no rank", userID)
		}
		if *p.Rank != want {
			t.Fatalf("user %d rank = %d, want %d", userID, *p.Rank, want)
		}
	}
}

func TestSettleExpiredWaitsForGraceWindow(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()
	creator := newTestUser(t, f.db, "creator")

	challenge, err := f.svc.Create(ctx, creator.ID, CreateChallengeInput{
		Name:            "Solo run",
		DurationMinutes: 30,
		LifespanHours:   1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Starts just before expiry; still inside budget+grace when the sweep runs.
	f.advance(55 * time.Minute)
	if _, err := f.svc.Start(ctx, creator.ID, challenge.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.advance(10 * time.Minute)

	settled, err := f.svc.SettleExpired(ctx)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled != 0 {
		t.Fatalf("settled %d challenges inside grace, want 0", settled)
	}
	if _, err := f.svc.Get(ctx, creator.ID, challenge.ID); err != nil {
		t.Fatalf("challenge deleted during grace: %v", err)
	}
}

func TestSettleExpiredForceFinishesAwardsAndDeletes(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()
	creator := newTestUser(t, f.db, "creator")
	runner := newTestUser(t, f.db, "runner")

	challenge, err := f.svc.Create(ctx, creator.ID, CreateChallengeInput{
		Name:             "Race",
		DurationMinutes:  30,
		LifespanHours:    1,
		InvitedFriendIDs: []int64{runner.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Respond(ctx, runner.ID, challenge.ID, true); err != nil {
		t.Fatalf("respond: %v", err)
	}

	// Creator finishes cleanly; the runner stalls past budget+grace.
	if _, err := f.svc.Start(ctx, creator.ID, challenge.ID); err != nil {
		t.Fatalf("start creator: %v", err)
	}
	f.advance(10 * time.Minute)
	if _, err := f.svc.Finish(ctx, creator.ID, challenge.ID, Submission{}); err != nil {
		t.Fatalf("finish creator: %v", err)
	}
	if _, err := f.svc.Start(ctx, runner.ID, challenge.ID); err != nil {
		t.Fatalf("start runner: %v", err)
	}
	f.advance(2 * time.Hour)

	settled, err := f.svc.SettleExpired(ctx)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled != 1 {
		t.Fatalf("settled %d, want 1", settled)
	}

	if _, err := f.svc.Get(ctx, creator.ID, challenge.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("challenge not deleted: %v", err)
	}

	// Pool of two: gold for the winner, nothing else.
	winner, err := f.users.FindByID(ctx, creator.ID)
	if err != nil {
		t.Fatalf("reload creator: %v", err)
	}
	if winner.GoldCups != 1 || winner.SilverCups != 0 {
		t.Fatalf("creator cups gold=%d silver=%d, want 1/0", winner.GoldCups, winner.SilverCups)
	}
	if winner.ChallengesCount != 1 {
		t.Fatalf("creator challenges count = %d, want 1", winner.ChallengesCount)
	}
	second, err := f.users.FindByID(ctx, runner.ID)
	if err != nil {
		t.Fatalf("reload runner: %v", err)
	}
	if second.GoldCups != 0 || second.SilverCups != 0 {
		t.Fatalf("runner cups gold=%d silver=%d, want none below the threshold", second.GoldCups, second.SilverCups)
	}
	if second.ChallengesCount != 1 {
		t.Fatalf("runner challenges count = %d, want 1 after force-finish", second.ChallengesCount)
	}
}

func TestSettleExpiredSkipsNeverStartedParticipants(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()
	creator := newTestUser(t, f.db, "creator")
	ghost := newTestUser(t, f.db, "ghost")

	challenge, err := f.svc.Create(ctx, creator.ID, CreateChallengeInput{
		Name:             "No-show",
		DurationMinutes:  30,
		LifespanHours:    1,
		InvitedFriendIDs: []int64{ghost.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Ghost accepts but never starts.
	if _, err := f.svc.Respond(ctx, ghost.ID, challenge.ID, true); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if _, err := f.svc.Start(ctx, creator.ID, challenge.ID); err != nil {
		t.Fatalf("start creator: %v", err)
	}
	f.advance(10 * time.Minute)
	if _, err := f.svc.Finish(ctx, creator.ID, challenge.ID, Submission{}); err != nil {
		t.Fatalf("finish creator: %v", err)
	}

	f.advance(2 * time.Hour)
	settled, err := f.svc.SettleExpired(ctx)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled != 1 {
		t.Fatalf("settled %d, want 1", settled)
	}

	ghostUser, err := f.users.FindByID(ctx, ghost.ID)
	if err != nil {
		t.Fatalf("reload ghost: %v", err)
	}
	if ghostUser.ChallengesCount != 0 || ghostUser.GoldCups != 0 {
		t.Fatalf("never-started participant was credited: count=%d gold=%d",
			ghostUser.ChallengesCount, ghostUser.GoldCups)
	}
}

func TestGetChallengeHidesFromOutsiders(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()
	creator := newTestUser(t, f.db, "creator")
	outsider := newTestUser(t, f.db, "outsider")

	challenge, err := f.svc.Create(ctx, creator.ID, CreateChallengeInput{
		Name:            "Private",
		DurationMinutes: 30,
		LifespanHours:   24,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Get(ctx, outsider.ID, challenge.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("outsider get: want ErrNotFound, got %v", err)
	}
}
