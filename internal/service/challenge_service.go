package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/repository"
)

// settlementGraceSeconds is the extra runway past a participant's nominal
// time budget before the expiry sweep force-finishes them.
const settlementGraceSeconds = 300

// podiumThreshold is the minimum completed pool size for silver and bronze
// cups; smaller pools award gold only.
const podiumThreshold = 10

// CreateChallengeInput is the data required to create a challenge.
type CreateChallengeInput struct {
	Name             string `validate:"required,max=255"`
	Description      string
	DurationMinutes  int  `validate:"required,min=1"`
	IsQuiz           bool
	LifespanHours    int `validate:"required,min=1"`
	InvitedFriendIDs []int64
	Quiz             *QuizInput `validate:"omitempty"`
}

type QuizInput struct {
	DurationMinutes int             `validate:"required,min=1"`
	Questions       []QuestionInput `validate:"required,min=1,dive"`
}

type QuestionInput struct {
	Text        string `validate:"required"`
	Type        string `validate:"required,oneof=mcq true_false"`
	Explanation string
	Options     []OptionInput `validate:"required,min=2,dive"`
}

type OptionInput struct {
	Text      string `validate:"required"`
	IsCorrect bool
}

// Answer is one submitted quiz answer.
type Answer struct {
	QuestionID       uint
	SelectedOptionID uint
}

// Submission carries a participant's quiz answers; empty for plain
// challenges.
type Submission struct {
	Answers []Answer
}

// ChallengeSummary is the list view of a challenge from one user's side.
type ChallengeSummary struct {
	ID        uint
	Name      string
	Status    string // active, expired
	IsQuiz    bool
	CreatedAt time.Time
	ExpiresAt time.Time
	MyStatus  string // participant status, or "creator"
}

// FinishResult reports the outcome of a finished run.
type FinishResult struct {
	Status           string
	Score            *float64
	TimeTakenSeconds int
}

// ChallengeService drives the competition lifecycle: invitation, acceptance,
// the timed run, scoring, ranking and the terminal settlement that awards
// cups and deletes the challenge tree.
type ChallengeService struct {
	challenges *repository.ChallengeRepository
	users      *repository.UserRepository
	now        func() time.Time
}

func NewChallengeService(challenges *repository.ChallengeRepository, users *repository.UserRepository) *ChallengeService {
	return &ChallengeService{challenges: challenges, users: users, now: time.Now}
}

// Create persists the challenge with its optional quiz tree and one invited
// participant per friend. Non-quiz challenges auto-enroll the creator as
// accepted; quiz challenges never do (the creator knows the answers).
func (s *ChallengeService) Create(ctx context.Context, creatorID int64, input CreateChallengeInput) (*model.Challenge, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if input.IsQuiz && input.Quiz == nil {
		return nil, fmt.Errorf("%w: quiz data required for quiz challenge", ErrValidation)
	}

	now := s.now()
	challenge := &model.Challenge{
		CreatorID:       creatorID,
		Name:            input.Name,
		Description:     input.Description,
		DurationMinutes: input.DurationMinutes,
		IsQuiz:          input.IsQuiz,
		LifespanHours:   input.LifespanHours,
		CreatedAt:       now,
		ExpiresAt:       now.Add(time.Duration(input.LifespanHours) * time.Hour),
	}

	if input.IsQuiz {
		quiz := &model.Quiz{DurationMinutes: input.Quiz.DurationMinutes}
		for _, q := range input.Quiz.Questions {
			question := model.Question{
				Text:        q.Text,
				Type:        q.Type,
				Explanation: q.Explanation,
			}
			for _, opt := range q.Options {
				question.Options = append(question.Options, model.QuestionOption{
					Text:      opt.Text,
					IsCorrect: opt.IsCorrect,
				})
			}
			quiz.Questions = append(quiz.Questions, question)
		}
		challenge.Quiz = quiz
	}

	for _, friendID := range input.InvitedFriendIDs {
		challenge.Participants = append(challenge.Participants, model.ChallengeParticipant{
			UserID: friendID,
			Status: model.ParticipantInvited,
		})
	}
	if !input.IsQuiz {
		challenge.Participants = append(challenge.Participants, model.ChallengeParticipant{
			UserID: creatorID,
			Status: model.ParticipantAccepted,
		})
	}

	if err := s.challenges.Create(ctx, challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

// Get returns the challenge for its creator or any participant.
func (s *ChallengeService) Get(ctx context.Context, userID int64, challengeID uint) (*model.Challenge, error) {
	challenge, err := s.challenges.FindByID(ctx, challengeID)
	if err != nil {
		return nil, asNotFound(err, "challenge")
	}
	if challenge.CreatorID != userID && findParticipant(challenge, userID) == nil {
		return nil, fmt.Errorf("challenge: %w", ErrNotFound)
	}
	return challenge, nil
}

// List returns the challenges the user created or was invited to.
func (s *ChallengeService) List(ctx context.Context, userID int64) ([]ChallengeSummary, error) {
	challenges, err := s.challenges.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summaries := make([]ChallengeSummary, 0, len(challenges))
	for i := range challenges {
		c := &challenges[i]
		myStatus := "creator"
		if p := findParticipant(c, userID); p != nil {
			myStatus = p.Status
		}
		status := "active"
		if now.After(c.ExpiresAt) {
			status = "expired"
		}
		summaries = append(summaries, ChallengeSummary{
			ID:        c.ID,
			Name:      c.Name,
			Status:    status,
			IsQuiz:    c.IsQuiz,
			CreatedAt: c.CreatedAt,
			ExpiresAt: c.ExpiresAt,
			MyStatus:  myStatus,
		})
	}
	return summaries, nil
}

// Respond records an invitee's accept/reject decision, exactly once.
func (s *ChallengeService) Respond(ctx context.Context, userID int64, challengeID uint, accept bool) (string, error) {
	participant, err := s.challenges.FindParticipant(ctx, challengeID, userID)
	if err != nil {
		return "", err
	}
	if participant == nil {
		return "", fmt.Errorf("invite: %w", ErrNotFound)
	}
	if participant.Status != model.ParticipantInvited {
		return "", fmt.Errorf("%w: already responded", ErrInvalidState)
	}

	participant.Status = model.ParticipantAccepted
	if !accept {
		participant.Status = model.ParticipantRejected
	}
	if err := s.challenges.SaveParticipant(ctx, participant); err != nil {
		return "", err
	}
	return participant.Status, nil
}

// Start begins an accepted participant's run, exactly once.
func (s *ChallengeService) Start(ctx context.Context, userID int64, challengeID uint) (time.Time, error) {
	participant, err := s.challenges.FindParticipant(ctx, challengeID, userID)
	if err != nil {
		return time.Time{}, err
	}
	if participant == nil {
		return time.Time{}, fmt.Errorf("participant: %w", ErrNotFound)
	}
	if participant.Status != model.ParticipantAccepted {
		return time.Time{}, fmt.Errorf("%w: cannot start challenge", ErrInvalidState)
	}
	if participant.StartTime != nil {
		return time.Time{}, fmt.Errorf("%w: already started", ErrInvalidState)
	}

	now := s.now()
	participant.StartTime = &now
	if err := s.challenges.SaveParticipant(ctx, participant); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// Finish records the end of a run: time taken, completed status and, for
// quizzes, the score (correct answers / total questions * 100). When the
// last pending participant finishes, the completed set is ranked.
func (s *ChallengeService) Finish(ctx context.Context, userID int64, challengeID uint, submission Submission) (FinishResult, error) {
	challenge, err := s.challenges.FindByID(ctx, challengeID)
	if err != nil {
		return FinishResult{}, asNotFound(err, "challenge")
	}

	participant := findParticipant(challenge, userID)
	if participant == nil || participant.StartTime == nil {
		return FinishResult{}, fmt.Errorf("%w: challenge not started", ErrInvalidState)
	}
	if participant.EndTime != nil {
		return FinishResult{}, fmt.Errorf("%w: already finished", ErrInvalidState)
	}

	now := s.now()
	participant.EndTime = &now
	taken := int(math.Round(now.Sub(*participant.StartTime).Seconds()))
	participant.TimeTakenSeconds = &taken
	participant.Status = model.ParticipantCompleted

	if challenge.IsQuiz && challenge.Quiz != nil {
		score := scoreQuiz(challenge.Quiz, submission)
		participant.Score = &score
	}

	if err := s.challenges.SaveParticipant(ctx, participant); err != nil {
		return FinishResult{}, err
	}

	if err := s.assignRanksIfDone(ctx, challenge); err != nil {
		return FinishResult{}, err
	}

	return FinishResult{
		Status:           participant.Status,
		Score:            participant.Score,
		TimeTakenSeconds: taken,
	}, nil
}

// scoreQuiz counts submitted answers matching the unique correct option of
// each question. Unanswered and wrong answers count as incorrect; an empty
// quiz scores zero.
func scoreQuiz(quiz *model.Quiz, submission Submission) float64 {
	total := len(quiz.Questions)
	if total == 0 {
		return 0
	}

	correct := make(map[uint]uint, total)
	for _, q := range quiz.Questions {
		for _, opt := range q.Options {
			if opt.IsCorrect {
				correct[q.ID] = opt.ID
			}
		}
	}

	hits := 0
	for _, answer := range submission.Answers {
		if optionID, ok := correct[answer.QuestionID]; ok && optionID == answer.SelectedOptionID {
			hits++
		}
	}
	return float64(hits) / float64(total) * 100
}

// assignRanksIfDone ranks the completed set once every non-rejected,
// non-invited participant has finished. Ranks are persisted so clients can
// show the podium before settlement deletes the challenge.
func (s *ChallengeService) assignRanksIfDone(ctx context.Context, challenge *model.Challenge) error {
	var completed []*model.ChallengeParticipant
	for i := range challenge.Participants {
		p := &challenge.Participants[i]
		switch p.Status {
		case model.ParticipantAccepted:
			return nil // someone is still pending
		case model.ParticipantCompleted:
			completed = append(completed, p)
		}
	}

	rankParticipants(challenge.IsQuiz, completed)
	for _, p := range completed {
		if err := s.challenges.SaveParticipant(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// rankParticipants sorts the completed set (quiz: score desc then time asc,
// otherwise time asc; stable for exact ties) and assigns ranks 1-3.
func rankParticipants(isQuiz bool, completed []*model.ChallengeParticipant) {
	sort.SliceStable(completed, func(i, j int) bool {
		if isQuiz {
			si, sj := scoreOf(completed[i]), scoreOf(completed[j])
			if si != sj {
				return si > sj
			}
		}
		return timeTakenOf(completed[i]) < timeTakenOf(completed[j])
	})
	for i, p := range completed {
		if i >= 3 {
			break
		}
		rank := i + 1
		p.Rank = &rank
	}
}

func scoreOf(p *model.ChallengeParticipant) float64 {
	if p.Score == nil {
		return 0
	}
	return *p.Score
}

func timeTakenOf(p *model.ChallengeParticipant) int {
	if p.TimeTakenSeconds == nil {
		return math.MaxInt32
	}
	return *p.TimeTakenSeconds
}

// SettleExpired walks every challenge past its lifespan. Runners past their
// time budget plus the grace buffer are force-finished; while anyone is
// still inside the grace window the whole challenge waits for the next
// sweep. Once settled: rank, award cups, bump challenge counters and hard
// delete the tree. Participants who never started are excluded.
func (s *ChallengeService) SettleExpired(ctx context.Context) (int, error) {
	now := s.now()
	expired, err := s.challenges.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	settled := 0
	for i := range expired {
		challenge := &expired[i]
		done, err := s.settleChallenge(ctx, challenge, now)
		if err != nil {
			log.Printf("challenge sweep: challenge %d: %v", challenge.ID, err)
			continue
		}
		if done {
			settled++
		}
	}
	return settled, nil
}

func (s *ChallengeService) settleChallenge(ctx context.Context, challenge *model.Challenge, now time.Time) (bool, error) {
	budget := challenge.DurationMinutes * 60
	if challenge.IsQuiz && challenge.Quiz != nil {
		budget += challenge.Quiz.DurationMinutes * 60
	}

	allFinished := true
	var completed []*model.ChallengeParticipant
	for i := range challenge.Participants {
		p := &challenge.Participants[i]
		if p.Status == model.ParticipantAccepted && p.StartTime != nil && p.EndTime == nil {
			elapsed := now.Sub(*p.StartTime).Seconds()
			if elapsed > float64(budget+settlementGraceSeconds) {
				// Out of budget: force-finish with whatever accrued.
				end := now
				taken := int(elapsed)
				p.EndTime = &end
				p.TimeTakenSeconds = &taken
				p.Status = model.ParticipantCompleted
				if challenge.IsQuiz && p.Score == nil {
					zero := 0.0
					p.Score = &zero
				}
				if err := s.challenges.SaveParticipant(ctx, p); err != nil {
					return false, err
				}
			} else {
				allFinished = false
			}
		}
		if p.Status == model.ParticipantCompleted {
			completed = append(completed, p)
		}
	}

	if !allFinished {
		return false, nil
	}

	rankParticipants(challenge.IsQuiz, completed)
	if err := s.awardCups(ctx, completed); err != nil {
		return false, err
	}
	for _, p := range completed {
		if err := s.users.IncrementChallengesCount(ctx, p.UserID); err != nil {
			return false, err
		}
	}

	if err := s.challenges.Delete(ctx, challenge.ID); err != nil {
		return false, err
	}
	return true, nil
}

// awardCups credits the podium: gold always, silver and bronze only when
// the completed pool reaches the threshold.
func (s *ChallengeService) awardCups(ctx context.Context, ranked []*model.ChallengeParticipant) error {
	if len(ranked) == 0 {
		return nil
	}
	if err := s.users.AddCup(ctx, ranked[0].UserID, repository.CupGold); err != nil {
		return err
	}
	if len(ranked) < podiumThreshold {
		return nil
	}
	if len(ranked) > 1 {
		if err := s.users.AddCup(ctx, ranked[1].UserID, repository.CupSilver); err != nil {
			return err
		}
	}
	if len(ranked) > 2 {
		if err := s.users.AddCup(ctx, ranked[2].UserID, repository.CupBronze); err != nil {
			return err
		}
	}
	return nil
}

func findParticipant(challenge *model.Challenge, userID int64) *model.ChallengeParticipant {
	for i := range challenge.Participants {
		if challenge.Participants[i].UserID == userID {
			return &challenge.Participants[i]
		}
	}
	return nil
}
